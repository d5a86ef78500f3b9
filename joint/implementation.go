package joint

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

// Endpoints is what a strategy needs to realise a joint. The two-body
// backend reads the bodies, the multibody backend the articulation and the
// link index already assigned to entity A.
type Endpoints struct {
	BodyA  native.Body
	BodyB  native.Body
	FrameA common.Pose
	FrameB common.Pose

	MultiBody *native.MultiBody
	LinkIndex int
}

// Handles is the native handle group a strategy produces. Either Constraint
// is set, or some of Limit and Motor.
type Handles struct {
	Constraint native.Constraint
	Limit      native.MultiBodyConstraint
	Motor      native.MultiBodyConstraint
}

// Empty reports whether no handle is populated.
func (h Handles) Empty() bool {
	return h.Constraint == nil && h.Limit == nil && h.Motor == nil
}

// LinkParams describes the link a multibody joint contributes to its
// articulation. FrameA is the joint frame in the link's space, FrameB the
// joint frame in the parent's space.
type LinkParams struct {
	Parent                 int
	Mass                   float64
	Inertia                mgl64.Vec3
	FrameA                 common.Pose
	FrameB                 common.Pose
	DisableParentCollision bool
}

// Implementation is the per-type strategy behind a joint.
type Implementation interface {
	Type() component.JointType
	// SetupLink configures link index of mb for a multibody joint.
	SetupLink(mb *native.MultiBody, index int, p LinkParams, desc *component.Joint) error
	// CreateConstraint builds the handles for desc without registering them.
	CreateConstraint(desc *component.Joint, ep Endpoints, multibody bool) (Handles, error)
	UpdateAngularParameters(desc *component.Joint, h Handles)
	UpdateLinearParameters(desc *component.Joint, h Handles)
	UpdateOtherParameters(desc *component.Joint, h Handles)
	// SetMotor validates m and applies it, returning the handle group the
	// caller must register. Nothing changes when it fails.
	SetMotor(desc *component.Joint, h Handles, ep Endpoints, m component.Motor) (Handles, error)
	// RequiresRecreate reports whether moving from prev to next changes the
	// native structure rather than its parameters.
	RequiresRecreate(prev, next *component.Joint) bool
}

var implementations = map[component.JointType]Implementation{
	component.JointSixDof:    sixDof{},
	component.JointSpherical: spherical{},
	component.JointHinge:     hinge{},
	component.JointSlider:    slider{},
	component.JointFixed:     fixed{},
}

// For returns the strategy for t.
func For(t component.JointType) (Implementation, error) {
	impl, ok := implementations[t]
	if !ok {
		return nil, fmt.Errorf("%w: joint type %s", ErrUnsupportedOperation, t)
	}
	return impl, nil
}

func updateBreakForce(desc *component.Joint, h Handles) {
	if h.Constraint != nil {
		threshold := desc.BreakForce
		if threshold <= 0 {
			threshold = unbreakable
		}
		h.Constraint.SetBreakingImpulseThreshold(threshold)
		return
	}
	if l, ok := h.Limit.(*native.MultiBodyJointLimit); ok {
		l.MaxAppliedImpulse = desc.BreakForce
	}
	if l, ok := h.Limit.(*native.MultiBodySphericalLimit); ok {
		l.MaxAppliedImpulse = desc.BreakForce
	}
}

func backendName(multibody bool) string {
	if multibody {
		return "multibody"
	}
	return "two-body"
}

func linkSetup(p LinkParams) native.LinkSetup {
	rot, parentComToPivot, pivotToThisCom := LinkOffsets(p.FrameA, p.FrameB)
	return native.LinkSetup{
		Mass:                   p.Mass,
		Inertia:                p.Inertia,
		Parent:                 p.Parent,
		ParentToThisRot:        rot,
		ParentComToPivot:       parentComToPivot,
		PivotToThisCom:         pivotToThisCom,
		DisableParentCollision: p.DisableParentCollision,
	}
}

// withMotor applies the descriptor's motor to freshly created handles. A
// motor the new handles cannot drive, such as one left over from a type
// change, stays off; SetMotor is where such a motor is rejected.
func withMotor(impl Implementation, desc *component.Joint, h Handles, ep Endpoints) (Handles, error) {
	if desc.Motor.Mode == component.MotorOff {
		return h, nil
	}
	next, err := impl.SetMotor(desc, h, ep, desc.Motor)
	if err != nil {
		return h, nil
	}
	return next, nil
}
