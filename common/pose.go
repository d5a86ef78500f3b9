package common

import "github.com/go-gl/mathgl/mgl64"

// Pose is a rigid transform: a rotation followed by a translation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func IdentityPose() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Pose {
	return Pose{Position: position, Rotation: rotation.Normalize()}
}

// Mul returns p∘o: o expressed in p's parent space.
func (p Pose) Mul(o Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(o.Position)),
		Rotation: p.Rotation.Mul(o.Rotation).Normalize(),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position.Mul(-1)),
		Rotation: inv,
	}
}

// TransformPoint maps a local point into p's parent space.
func (p Pose) TransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(v))
}

// ApproxEqual compares position by distance and orientation by dot product
// (q and -q are the same rotation).
func (p Pose) ApproxEqual(o Pose, eps float64) bool {
	if p.Position.Sub(o.Position).Len() > eps {
		return false
	}
	d := p.Rotation.Dot(o.Rotation)
	if d < 0 {
		d = -d
	}
	return d >= 1-eps
}

// EulerDegrees builds a rotation from XYZ Euler angles in degrees.
func EulerDegrees(x, y, z float64) mgl64.Quat {
	return mgl64.AnglesToQuat(mgl64.DegToRad(x), mgl64.DegToRad(y), mgl64.DegToRad(z), mgl64.XYZ)
}
