package joint

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type hinge struct{}

// HingeAxis returns the rotation axis of a hinge: the first non-locked
// angular axis in x, y, z order, or x when every axis is locked.
func HingeAxis(desc *component.Joint) component.Axis {
	a, _ := firstUnlocked(desc.Motion.Angular)
	return a
}

func hingeRange(desc *component.Joint) (lower, upper float64) {
	a := HingeAxis(desc)
	return rangeFor(desc.Motion.Angular[a], desc.Limits.Angular[a], degToRad)
}

func (hinge) Type() component.JointType { return component.JointHinge }

func (hinge) SetupLink(mb *native.MultiBody, index int, p LinkParams, desc *component.Joint) error {
	axis := p.FrameA.Rotation.Rotate(HingeAxis(desc).Unit())
	return mb.SetupRevolute(index, axis, linkSetup(p))
}

func (j hinge) CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error) {
	var h Handles
	if multibody {
		if ep.MultiBody == nil {
			return Handles{}, fmt.Errorf("%w: hinge link without a multibody", ErrStructuralViolation)
		}
		lower, upper := hingeRange(desc)
		h.Limit = native.NewMultiBodyJointLimit(ep.MultiBody, ep.LinkIndex, lower, upper)
	} else {
		axis := HingeAxis(desc).Unit()
		frameA := alignFrame(ep.FrameA, unitZ, axis)
		frameB := alignFrame(ep.FrameB, unitZ, axis)
		h.Constraint = native.NewHingeConstraint(ep.BodyA, ep.BodyB, frameA, frameB)
		j.UpdateAngularParameters(desc, h)
	}
	j.UpdateOtherParameters(desc, h)
	return withMotor(j, desc, h, ep)
}

func (hinge) UpdateAngularParameters(desc *component.Joint, h Handles) {
	lower, upper := hingeRange(desc)
	switch {
	case h.Constraint != nil:
		if c, ok := h.Constraint.(*native.HingeConstraint); ok {
			c.LowerLimit, c.UpperLimit = lower, upper
		}
	case h.Limit != nil:
		if l, ok := h.Limit.(*native.MultiBodyJointLimit); ok {
			l.Lower, l.Upper = lower, upper
		}
	}
}

func (hinge) UpdateLinearParameters(*component.Joint, Handles) {}

func (hinge) UpdateOtherParameters(desc *component.Joint, h Handles) {
	updateBreakForce(desc, h)
}

func (hinge) SetMotor(desc *component.Joint, h Handles, ep Endpoints, m component.Motor) (Handles, error) {
	var target float64
	if m.Mode != component.MotorOff {
		v, err := singleAxisTarget(m, HingeAxis(desc), true)
		if err != nil {
			return h, err
		}
		target = v * degToRad
	}

	if h.Constraint != nil {
		c, ok := h.Constraint.(*native.HingeConstraint)
		if !ok {
			return h, fmt.Errorf("%w: hinge motor on %s constraint", ErrUnsupportedOperation, h.Constraint.Kind())
		}
		c.MotorEnabled = m.Mode != component.MotorOff
		c.MotorDrive = driveFor(m.Mode)
		c.MaxMotorImpulse = m.MaxImpulse
		switch m.Mode {
		case component.MotorTargetPosition:
			c.MotorTargetAngle = target
		case component.MotorTargetVelocity:
			c.MotorTargetVelocity = target
		}
		return h, nil
	}

	if ep.MultiBody == nil {
		return h, nil
	}
	if m.Mode == component.MotorOff {
		h.Motor = nil
		return h, nil
	}
	motor, ok := h.Motor.(*native.MultiBodyJointMotor)
	if !ok {
		motor = native.NewMultiBodyJointMotor(ep.MultiBody, ep.LinkIndex, m.MaxImpulse)
	}
	motor.Drive = driveFor(m.Mode)
	motor.MaxImpulse = m.MaxImpulse
	switch m.Mode {
	case component.MotorTargetPosition:
		motor.TargetPosition = target
		motor.DesiredVelocity = 0
	case component.MotorTargetVelocity:
		motor.DesiredVelocity = target
	}
	h.Motor = motor
	return h, nil
}

func (hinge) RequiresRecreate(prev, next *component.Joint) bool {
	return prev.Type != next.Type || HingeAxis(prev) != HingeAxis(next)
}
