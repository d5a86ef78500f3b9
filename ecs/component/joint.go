package component

import (
	"errors"
	"fmt"

	"github.com/milk9111/articulation/native"
)

var (
	ErrReentrancyViolation = errors.New("joint: reentrant structural mutation")
	ErrHandleConflict      = errors.New("joint: two-body and multibody handles both populated")
	ErrInvalidTransition   = errors.New("joint: invalid state transition")
)

// Joint describes a constraint between two body-bearing nodes. It lives on
// a mediator node whose world pose anchors the joint.
type Joint struct {
	Type    JointType
	Enabled bool

	Motion      Motion
	Limits      Limits
	Springs     Springs
	Stiffness   AxisParams
	Damping     AxisParams
	Equilibrium AxisParams
	Motor       Motor

	BreakForce                float64
	EnableCollision           bool
	SkipMultiBodyChance       bool
	EnableMultiBodyComponents bool

	// Raw endpoint references (ecs.Entity is uint64). A zero ComponentA
	// means the mediator node itself.
	ComponentA uint64
	ComponentB uint64

	// Nearest body-bearing ancestors of the raw references.
	EntityA uint64
	EntityB uint64

	IsForMultibodyLink bool

	Runtime JointRuntime
}

var JointComponent = NewComponent[Joint]()

type JointState int

const (
	JointIdle JointState = iota
	JointBuilding
	JointBound
	JointDestroying
)

func (s JointState) String() string {
	switch s {
	case JointIdle:
		return "idle"
	case JointBuilding:
		return "building"
	case JointBound:
		return "bound"
	case JointDestroying:
		return "destroying"
	}
	return fmt.Sprintf("JointState(%d)", int(s))
}

var jointTransitions = map[JointState][]JointState{
	JointIdle:       {JointBuilding},
	JointBuilding:   {JointBound, JointIdle},
	JointBound:      {JointBuilding, JointDestroying},
	JointDestroying: {JointIdle},
}

// JointRuntime owns the native handle group of a joint. Handles can only
// be written while the joint is building or destroying, and the two-body
// handle never coexists with the multibody limit/motor pair.
type JointRuntime struct {
	state JointState

	constraint native.Constraint
	limit      native.MultiBodyConstraint
	motor      native.MultiBodyConstraint
}

func (r *JointRuntime) State() JointState {
	return r.state
}

// Transition moves the runtime from one state to another. A mismatch while
// a structural mutation is in flight is a reentrancy violation.
func (r *JointRuntime) Transition(from, to JointState) error {
	if r.state != from {
		if r.state == JointBuilding || r.state == JointDestroying {
			return fmt.Errorf("%w: joint is %s, wanted %s", ErrReentrancyViolation, r.state, from)
		}
		return fmt.Errorf("%w: joint is %s, wanted %s", ErrInvalidTransition, r.state, from)
	}
	for _, next := range jointTransitions[from] {
		if next == to {
			r.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func (r *JointRuntime) mutable() error {
	if r.state != JointBuilding && r.state != JointDestroying {
		return fmt.Errorf("%w: handle write while joint is %s", ErrReentrancyViolation, r.state)
	}
	return nil
}

func (r *JointRuntime) SetConstraint(c native.Constraint) error {
	if err := r.mutable(); err != nil {
		return err
	}
	if c != nil && (r.limit != nil || r.motor != nil) {
		return ErrHandleConflict
	}
	r.constraint = c
	return nil
}

func (r *JointRuntime) SetMultibodyLimit(c native.MultiBodyConstraint) error {
	if err := r.mutable(); err != nil {
		return err
	}
	if c != nil && r.constraint != nil {
		return ErrHandleConflict
	}
	r.limit = c
	return nil
}

func (r *JointRuntime) SetMultibodyMotor(c native.MultiBodyConstraint) error {
	if err := r.mutable(); err != nil {
		return err
	}
	if c != nil && r.constraint != nil {
		return ErrHandleConflict
	}
	r.motor = c
	return nil
}

func (r *JointRuntime) Constraint() native.Constraint { return r.constraint }
func (r *JointRuntime) MultibodyLimit() native.MultiBodyConstraint { return r.limit }
func (r *JointRuntime) MultibodyMotor() native.MultiBodyConstraint { return r.motor }

// HasHandles reports whether any native handle is populated.
func (r *JointRuntime) HasHandles() bool {
	return r.constraint != nil || r.limit != nil || r.motor != nil
}

// IsMultibody reports whether the multibody handle group is populated.
func (r *JointRuntime) IsMultibody() bool {
	return r.limit != nil || r.motor != nil
}
