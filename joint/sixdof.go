package joint

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type sixDof struct{}

func (sixDof) Type() component.JointType { return component.JointSixDof }

func (sixDof) SetupLink(*native.MultiBody, int, LinkParams, *component.Joint) error {
	return fmt.Errorf("%w: 6dof multibody link", ErrUnsupportedOperation)
}

func (s sixDof) CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error) {
	if multibody {
		return Handles{}, fmt.Errorf("%w: 6dof multibody link", ErrUnsupportedOperation)
	}
	h := Handles{Constraint: native.NewGeneric6DofSpringConstraint(ep.BodyA, ep.BodyB, ep.FrameA, ep.FrameB)}
	s.UpdateLinearParameters(desc, h)
	s.UpdateAngularParameters(desc, h)
	s.UpdateOtherParameters(desc, h)
	return h, nil
}

func (sixDof) UpdateAngularParameters(desc *component.Joint, h Handles) {
	c, ok := h.Constraint.(*native.Generic6DofSpringConstraint)
	if !ok {
		return
	}
	for _, a := range component.Axes {
		c.AngularLowerLimit[a], c.AngularUpperLimit[a] = rangeFor(desc.Motion.Angular[a], desc.Limits.Angular[a], degToRad)
		i := 3 + int(a)
		c.SpringEnabled[i] = desc.Springs.Angular[a]
		c.Stiffness[i] = desc.Stiffness.Angular[a]
		c.Damping[i] = desc.Damping.Angular[a]
		c.EquilibriumPoint[i] = desc.Equilibrium.Angular[a] * degToRad
	}
}

func (sixDof) UpdateLinearParameters(desc *component.Joint, h Handles) {
	c, ok := h.Constraint.(*native.Generic6DofSpringConstraint)
	if !ok {
		return
	}
	for _, a := range component.Axes {
		c.LinearLowerLimit[a], c.LinearUpperLimit[a] = rangeFor(desc.Motion.Linear[a], desc.Limits.Linear[a], 1)
		i := int(a)
		c.SpringEnabled[i] = desc.Springs.Linear[a]
		c.Stiffness[i] = desc.Stiffness.Linear[a]
		c.Damping[i] = desc.Damping.Linear[a]
		c.EquilibriumPoint[i] = desc.Equilibrium.Linear[a]
	}
}

func (sixDof) UpdateOtherParameters(desc *component.Joint, h Handles) {
	updateBreakForce(desc, h)
}

func (sixDof) SetMotor(desc *component.Joint, h Handles, _ Endpoints, m component.Motor) (Handles, error) {
	if m.Mode != component.MotorOff {
		return h, fmt.Errorf("%w: 6dof joints have no motor", ErrUnsupportedOperation)
	}
	return h, nil
}

func (sixDof) RequiresRecreate(prev, next *component.Joint) bool {
	return prev.Type != next.Type
}
