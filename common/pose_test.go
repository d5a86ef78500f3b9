package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPoseApproxEqual(t *testing.T) {
	quarter := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	cases := []struct {
		name string
		a, b Pose
		want bool
	}{
		{"rounding_against_zero", NewPose(mgl64.Vec3{1, 0, 2.2e-16}, quarter), NewPose(mgl64.Vec3{1, 0, 0}, quarter), true},
		{"negated_quaternion", NewPose(mgl64.Vec3{}, quarter), Pose{Rotation: quarter.Scale(-1)}, true},
		{"moved", NewPose(mgl64.Vec3{0, 1e-6, 0}, quarter), NewPose(mgl64.Vec3{}, quarter), false},
		{"rotated", NewPose(mgl64.Vec3{}, quarter), IdentityPose(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.ApproxEqual(c.b, 1e-9); got != c.want {
				t.Fatalf("ApproxEqual(%v, %v): got %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestPoseInverse(t *testing.T) {
	p := NewPose(mgl64.Vec3{1, 2, 3}, EulerDegrees(10, 20, 30))
	if got := p.Mul(p.Inverse()); !got.ApproxEqual(IdentityPose(), 1e-9) {
		t.Fatalf("p * p^-1 should be identity, got %v", got)
	}
}
