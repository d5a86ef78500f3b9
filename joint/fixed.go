package joint

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type fixed struct{}

// CheckSoftParameters rejects limit and spring parameters (limits, springs,
// stiffness, damping, equilibrium) on joint types with no degree of freedom
// to apply them to.
func CheckSoftParameters(t component.JointType, param string) error {
	if t == component.JointFixed {
		return fmt.Errorf("%w: %s on %s joint", ErrUnsupportedOperation, param, t)
	}
	return nil
}

func (fixed) Type() component.JointType { return component.JointFixed }

func (fixed) SetupLink(mb *native.MultiBody, index int, p LinkParams, _ *component.Joint) error {
	return mb.SetupFixed(index, linkSetup(p))
}

func (f fixed) CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error) {
	if multibody {
		// a fixed link carries no limit or motor
		return Handles{}, nil
	}
	h := Handles{Constraint: native.NewFixedConstraint(ep.BodyA, ep.BodyB, ep.FrameA, ep.FrameB)}
	f.UpdateOtherParameters(desc, h)
	return h, nil
}

func (fixed) UpdateAngularParameters(*component.Joint, Handles) {}

func (fixed) UpdateLinearParameters(*component.Joint, Handles) {}

func (fixed) UpdateOtherParameters(desc *component.Joint, h Handles) {
	updateBreakForce(desc, h)
}

func (fixed) SetMotor(desc *component.Joint, h Handles, ep Endpoints, m component.Motor) (Handles, error) {
	return h, rejectMotor(desc.Type, backendName(ep.MultiBody != nil), m)
}

func (fixed) RequiresRecreate(prev, next *component.Joint) bool {
	return prev.Type != next.Type
}
