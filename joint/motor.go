package joint

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

const offAxisTolerance = 1e-4

func driveFor(mode component.MotorMode) native.Drive {
	switch mode {
	case component.MotorTargetPosition:
		return native.DrivePosition
	case component.MotorTargetVelocity:
		return native.DriveVelocity
	}
	return native.DriveOff
}

func rejectMotor(t component.JointType, backend string, m component.Motor) error {
	if m.Mode == component.MotorOff {
		return nil
	}
	return fmt.Errorf("%w: %s motor on %s joint", ErrUnsupportedOperation, backend, t)
}

// CheckLinkMotor rejects m when t has no motor as a multibody link.
func CheckLinkMotor(t component.JointType, m component.Motor) error {
	switch t {
	case component.JointSlider, component.JointFixed, component.JointSixDof:
		return rejectMotor(t, backendName(true), m)
	}
	return nil
}

// singleAxisTarget reduces m's target to a scalar along axis. Vector and
// rotation targets must not carry motion on any other axis. Rotations are
// returned in degrees to match scalar targets.
func singleAxisTarget(m component.Motor, axis component.Axis, allowRotation bool) (float64, error) {
	switch m.Target.Kind {
	case component.TargetScalar:
		return m.Target.Scalar, nil
	case component.TargetVector:
		for _, a := range component.Axes {
			if a != axis && math.Abs(m.Target.Vector[a]) > offAxisTolerance {
				return 0, fmt.Errorf("%w: component %s=%g off the %s axis", ErrInvalidMotorTarget, a, m.Target.Vector[a], axis)
			}
		}
		return m.Target.Vector[axis], nil
	case component.TargetRotation:
		if !allowRotation || m.Mode != component.MotorTargetPosition {
			return 0, fmt.Errorf("%w: rotation target for %s motor", ErrInvalidMotorTarget, m.Mode)
		}
		return rotationAbout(m.Target.Rotation, axis)
	}
	return 0, fmt.Errorf("%w: unknown target kind %d", ErrInvalidMotorTarget, m.Target.Kind)
}

// rotationAbout returns the angle of q in degrees, provided q is a pure
// rotation about axis.
func rotationAbout(q mgl64.Quat, axis component.Axis) (float64, error) {
	if q.Len() < common.Epsilon {
		return 0, fmt.Errorf("%w: degenerate rotation", ErrInvalidMotorTarget)
	}
	q = q.Normalize()
	for _, a := range component.Axes {
		if a != axis && math.Abs(q.V[a]) > offAxisTolerance {
			return 0, fmt.Errorf("%w: rotation is not about the %s axis", ErrInvalidMotorTarget, axis)
		}
	}
	return mgl64.RadToDeg(2 * math.Atan2(q.V[axis], q.W)), nil
}

// sphericalTarget converts m's target into a rotation (position drive) or
// an angular velocity in radians per second (velocity drive).
func sphericalTarget(m component.Motor) (mgl64.Quat, mgl64.Vec3, error) {
	switch m.Mode {
	case component.MotorTargetPosition:
		switch m.Target.Kind {
		case component.TargetRotation:
			if m.Target.Rotation.Len() < common.Epsilon {
				return mgl64.Quat{}, mgl64.Vec3{}, fmt.Errorf("%w: degenerate rotation", ErrInvalidMotorTarget)
			}
			return m.Target.Rotation.Normalize(), mgl64.Vec3{}, nil
		case component.TargetVector:
			v := m.Target.Vector
			return common.EulerDegrees(v[0], v[1], v[2]), mgl64.Vec3{}, nil
		}
	case component.MotorTargetVelocity:
		if m.Target.Kind == component.TargetVector {
			return mgl64.QuatIdent(), m.Target.Vector.Mul(degToRad), nil
		}
	}
	return mgl64.Quat{}, mgl64.Vec3{}, fmt.Errorf("%w: %s target for spherical %s motor", ErrInvalidMotorTarget, targetKindName(m.Target.Kind), m.Mode)
}

func targetKindName(k component.MotorTargetKind) string {
	switch k {
	case component.TargetScalar:
		return "scalar"
	case component.TargetVector:
		return "vector"
	case component.TargetRotation:
		return "rotation"
	}
	return "unknown"
}
