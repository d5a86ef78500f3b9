package planar

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/articulation/native"
)

// mirror builds the chipmunk constraints standing in for c. It returns nil
// when an endpoint is not a mirrored rigid body.
func (w *World) mirror(c native.Constraint) []*cp.Constraint {
	na, nb := c.Bodies()
	a, ok := w.cpBody(na)
	if !ok || na == nil {
		return nil
	}
	b, ok := w.cpBody(nb)
	if !ok {
		return nil
	}
	frameA, frameB := c.Frames()
	anchorA, anchorB := vec2(frameA.Position), vec2(frameB.Position)

	switch c := c.(type) {
	case *native.FixedConstraint:
		return []*cp.Constraint{
			cp.NewPivotJoint2(a, b, anchorA, anchorB),
			cp.NewGearJoint(a, b, 0, 1),
		}

	case *native.HingeConstraint:
		parts := []*cp.Constraint{cp.NewPivotJoint2(a, b, anchorA, anchorB)}
		if c.LowerLimit <= c.UpperLimit {
			parts = append(parts, cp.NewRotaryLimitJoint(a, b, c.LowerLimit, c.UpperLimit))
		}
		if c.MotorEnabled {
			parts = append(parts, angularMotor(a, b, c.MotorDrive, c.MotorTargetAngle, c.MotorTargetVelocity, c.MaxMotorImpulse))
		}
		return parts

	case *native.ConeTwistConstraint:
		parts := []*cp.Constraint{cp.NewPivotJoint2(a, b, anchorA, anchorB)}
		// rotation in the plane is the swing about Z
		if span := c.SwingSpan1; span >= 0 {
			parts = append(parts, cp.NewRotaryLimitJoint(a, b, -span/2, span/2))
		}
		if c.MotorEnabled {
			parts = append(parts, angularMotor(a, b, c.MotorDrive, yaw(c.MotorTarget), c.MotorTargetVelocity.Z(), c.MaxMotorImpulse))
		}
		return parts

	case *native.SliderConstraint:
		axis := frameA.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
		lower, upper := c.LowerLinLimit, c.UpperLinLimit
		if lower > upper {
			lower, upper = -freeGrooveLength, freeGrooveLength
		}
		grooveA := vec2(frameA.Position.Add(axis.Mul(lower)))
		grooveB := vec2(frameA.Position.Add(axis.Mul(upper)))
		parts := []*cp.Constraint{
			cp.NewGrooveJoint(a, b, grooveA, grooveB, anchorB),
			cp.NewGearJoint(a, b, 0, 1),
		}
		if c.PoweredLinearMotor && c.LinearMotorDrive == native.DrivePosition {
			servo := cp.NewDampedSpring(a, b, anchorA, anchorB, c.TargetLinearPosition, positionServoStiffness, positionServoDamping)
			if c.MaxLinearMotorForce > 0 {
				servo.SetMaxForce(c.MaxLinearMotorForce)
			}
			parts = append(parts, servo)
		}
		return parts

	case *native.Generic6DofSpringConstraint:
		return sixDofParts(a, b, anchorA, anchorB, c)
	}
	return nil
}

func angularMotor(a, b *cp.Body, drive native.Drive, angle, velocity, maxImpulse float64) *cp.Constraint {
	var motor *cp.Constraint
	if drive == native.DrivePosition {
		motor = cp.NewDampedRotarySpring(a, b, angle, positionServoStiffness, positionServoDamping)
	} else {
		motor = cp.NewSimpleMotor(a, b, velocity)
	}
	if maxImpulse > 0 {
		motor.SetMaxForce(maxImpulse)
	}
	return motor
}

func sixDofParts(a, b *cp.Body, anchorA, anchorB cp.Vector, c *native.Generic6DofSpringConstraint) []*cp.Constraint {
	var parts []*cp.Constraint
	lockedX := c.LinearLowerLimit.X() == 0 && c.LinearUpperLimit.X() == 0
	lockedY := c.LinearLowerLimit.Y() == 0 && c.LinearUpperLimit.Y() == 0
	if lockedX && lockedY {
		parts = append(parts, cp.NewPivotJoint2(a, b, anchorA, anchorB))
	} else {
		for i := 0; i < 2; i++ {
			if c.SpringEnabled[i] {
				rest := c.EquilibriumPoint[i]
				if rest < 0 {
					rest = -rest
				}
				parts = append(parts, cp.NewDampedSpring(a, b, anchorA, anchorB, rest, c.Stiffness[i], c.Damping[i]))
				break
			}
		}
	}

	lower, upper := c.AngularLowerLimit.Z(), c.AngularUpperLimit.Z()
	switch {
	case lower == 0 && upper == 0:
		parts = append(parts, cp.NewGearJoint(a, b, 0, 1))
	case lower <= upper:
		parts = append(parts, cp.NewRotaryLimitJoint(a, b, lower, upper))
	}
	if c.SpringEnabled[5] {
		parts = append(parts, cp.NewDampedRotarySpring(a, b, c.EquilibriumPoint[5], c.Stiffness[5], c.Damping[5]))
	}
	return parts
}
