package joint

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type spherical struct{}

// cone twist limit slots for the x, y and z angular axes
var coneSlots = [3]int{3, 4, 5}

func coneSpans(desc *component.Joint) [3]float64 {
	var spans [3]float64
	for _, a := range component.Axes {
		spans[a] = spanFor(desc.Motion.Angular[a], desc.Limits.Angular[a])
	}
	return spans
}

func (spherical) Type() component.JointType { return component.JointSpherical }

func (spherical) SetupLink(mb *native.MultiBody, index int, p LinkParams, _ *component.Joint) error {
	return mb.SetupSpherical(index, linkSetup(p))
}

func (s spherical) CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error) {
	var h Handles
	if multibody {
		if ep.MultiBody == nil {
			return Handles{}, fmt.Errorf("%w: spherical link without a multibody", ErrStructuralViolation)
		}
		spans := coneSpans(desc)
		h.Limit = native.NewMultiBodySphericalLimit(ep.MultiBody, ep.LinkIndex, spans[component.AxisX], spans[component.AxisZ], spans[component.AxisY])
	} else {
		h.Constraint = native.NewConeTwistConstraint(ep.BodyA, ep.BodyB, ep.FrameA, ep.FrameB)
		s.UpdateAngularParameters(desc, h)
	}
	s.UpdateOtherParameters(desc, h)
	return withMotor(s, desc, h, ep)
}

func (spherical) UpdateAngularParameters(desc *component.Joint, h Handles) {
	spans := coneSpans(desc)
	switch {
	case h.Constraint != nil:
		if c, ok := h.Constraint.(*native.ConeTwistConstraint); ok {
			for _, a := range component.Axes {
				c.SetLimit(coneSlots[a], spans[a])
			}
		}
	case h.Limit != nil:
		if l, ok := h.Limit.(*native.MultiBodySphericalLimit); ok {
			l.TwistSpan = spans[component.AxisX]
			l.SwingSpan1 = spans[component.AxisZ]
			l.SwingSpan2 = spans[component.AxisY]
		}
	}
}

func (spherical) UpdateLinearParameters(*component.Joint, Handles) {}

func (spherical) UpdateOtherParameters(desc *component.Joint, h Handles) {
	updateBreakForce(desc, h)
}

func (spherical) SetMotor(_ *component.Joint, h Handles, ep Endpoints, m component.Motor) (Handles, error) {
	rot, vel, err := sphericalTarget(m)
	if m.Mode != component.MotorOff && err != nil {
		return h, err
	}

	if h.Constraint != nil {
		c, ok := h.Constraint.(*native.ConeTwistConstraint)
		if !ok {
			return h, fmt.Errorf("%w: spherical motor on %s constraint", ErrUnsupportedOperation, h.Constraint.Kind())
		}
		c.MotorEnabled = m.Mode != component.MotorOff
		c.MotorDrive = driveFor(m.Mode)
		c.MaxMotorImpulse = m.MaxImpulse
		switch m.Mode {
		case component.MotorTargetPosition:
			c.MotorTarget = rot
		case component.MotorTargetVelocity:
			c.MotorTargetVelocity = vel
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
	motor, ok := h.Motor.(*native.MultiBodySphericalMotor)
	if !ok {
		motor = native.NewMultiBodySphericalMotor(ep.MultiBody, ep.LinkIndex, m.MaxImpulse)
	}
	motor.Drive = driveFor(m.Mode)
	motor.MaxImpulse = m.MaxImpulse
	switch m.Mode {
	case component.MotorTargetPosition:
		motor.TargetRotation = rot
	case component.MotorTargetVelocity:
		motor.DesiredVelocity = vel
	}
	h.Motor = motor
	return h, nil
}

func (spherical) RequiresRecreate(prev, next *component.Joint) bool {
	return prev.Type != next.Type
}
