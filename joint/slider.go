package joint

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type slider struct{}

// SliderAxis returns the translation axis of a slider: the first
// non-locked linear axis in x, y, z order, or x when every axis is locked.
func SliderAxis(desc *component.Joint) component.Axis {
	a, _ := firstUnlocked(desc.Motion.Linear)
	return a
}

func sliderLinearRange(desc *component.Joint) (lower, upper float64) {
	a := SliderAxis(desc)
	return rangeFor(desc.Motion.Linear[a], desc.Limits.Linear[a], 1)
}

func sliderAngularRange(desc *component.Joint) (lower, upper float64) {
	a := SliderAxis(desc)
	return rangeFor(desc.Motion.Angular[a], desc.Limits.Angular[a], degToRad)
}

func (slider) Type() component.JointType { return component.JointSlider }

func (slider) SetupLink(mb *native.MultiBody, index int, p LinkParams, desc *component.Joint) error {
	axis := p.FrameA.Rotation.Rotate(SliderAxis(desc).Unit())
	return mb.SetupPrismatic(index, axis, linkSetup(p))
}

func (s slider) CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error) {
	var h Handles
	if multibody {
		if ep.MultiBody == nil {
			return Handles{}, fmt.Errorf("%w: slider link without a multibody", ErrStructuralViolation)
		}
		lower, upper := sliderLinearRange(desc)
		h.Limit = native.NewMultiBodyJointLimit(ep.MultiBody, ep.LinkIndex, lower, upper)
		s.UpdateOtherParameters(desc, h)
		return h, nil
	}

	axis := SliderAxis(desc).Unit()
	frameA := alignFrame(ep.FrameA, unitX, axis)
	frameB := alignFrame(ep.FrameB, unitX, axis)
	h.Constraint = native.NewSliderConstraint(ep.BodyA, ep.BodyB, frameA, frameB)
	s.UpdateLinearParameters(desc, h)
	s.UpdateAngularParameters(desc, h)
	s.UpdateOtherParameters(desc, h)
	return withMotor(s, desc, h, ep)
}

func (slider) UpdateAngularParameters(desc *component.Joint, h Handles) {
	if c, ok := h.Constraint.(*native.SliderConstraint); ok {
		c.LowerAngLimit, c.UpperAngLimit = sliderAngularRange(desc)
	}
}

func (slider) UpdateLinearParameters(desc *component.Joint, h Handles) {
	lower, upper := sliderLinearRange(desc)
	switch {
	case h.Constraint != nil:
		if c, ok := h.Constraint.(*native.SliderConstraint); ok {
			c.LowerLinLimit, c.UpperLinLimit = lower, upper
		}
	case h.Limit != nil:
		if l, ok := h.Limit.(*native.MultiBodyJointLimit); ok {
			l.Lower, l.Upper = lower, upper
		}
	}
}

func (slider) UpdateOtherParameters(desc *component.Joint, h Handles) {
	updateBreakForce(desc, h)
}

func (slider) SetMotor(desc *component.Joint, h Handles, _ Endpoints, m component.Motor) (Handles, error) {
	c, ok := h.Constraint.(*native.SliderConstraint)
	if !ok {
		if h.Constraint == nil && (h.Limit != nil || h.Motor != nil) {
			return h, rejectMotor(desc.Type, "multibody", m)
		}
		return h, nil
	}
	var target float64
	if m.Mode != component.MotorOff {
		v, err := singleAxisTarget(m, SliderAxis(desc), false)
		if err != nil {
			return h, err
		}
		target = v
	}
	c.PoweredLinearMotor = m.Mode != component.MotorOff
	c.LinearMotorDrive = driveFor(m.Mode)
	c.MaxLinearMotorForce = m.MaxImpulse
	switch m.Mode {
	case component.MotorTargetPosition:
		c.TargetLinearPosition = target
	case component.MotorTargetVelocity:
		c.TargetLinearMotorVelocity = target
	}
	return h, nil
}

func (slider) RequiresRecreate(prev, next *component.Joint) bool {
	return prev.Type != next.Type || SliderAxis(prev) != SliderAxis(next)
}
