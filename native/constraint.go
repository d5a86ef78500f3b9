package native

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/milk9111/articulation/common"
)

type ConstraintKind int

const (
	ConstraintGeneric6DofSpring ConstraintKind = iota + 1
	ConstraintConeTwist
	ConstraintHinge
	ConstraintSlider
	ConstraintFixed
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintGeneric6DofSpring:
		return "generic6dofspring"
	case ConstraintConeTwist:
		return "conetwist"
	case ConstraintHinge:
		return "hinge"
	case ConstraintSlider:
		return "slider"
	case ConstraintFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Drive selects how a motor interprets its target.
type Drive int

const (
	DriveOff Drive = iota
	DrivePosition
	DriveVelocity
)

// Constraint is a two-body constraint. BodyB is nil when A is pinned to
// the world, in which case FrameB is expressed in world space.
type Constraint interface {
	ID() uuid.UUID
	Kind() ConstraintKind
	Bodies() (Body, Body)
	Frames() (common.Pose, common.Pose)
	BreakingImpulseThreshold() float64
	SetBreakingImpulseThreshold(float64)
}

type constraintBase struct {
	id       uuid.UUID
	kind     ConstraintKind
	a, b     Body
	frameA   common.Pose
	frameB   common.Pose
	breaking float64
}

func newConstraintBase(kind ConstraintKind, a, b Body, frameA, frameB common.Pose) constraintBase {
	return constraintBase{
		id:       uuid.New(),
		kind:     kind,
		a:        a,
		b:        b,
		frameA:   frameA,
		frameB:   frameB,
		breaking: math.MaxFloat64,
	}
}

func (c *constraintBase) ID() uuid.UUID { return c.id }
func (c *constraintBase) Kind() ConstraintKind { return c.kind }
func (c *constraintBase) Bodies() (Body, Body) { return c.a, c.b }
func (c *constraintBase) Frames() (common.Pose, common.Pose) { return c.frameA, c.frameB }
func (c *constraintBase) BreakingImpulseThreshold() float64 { return c.breaking }
func (c *constraintBase) SetBreakingImpulseThreshold(v float64) { c.breaking = v }

// Generic6DofSpringConstraint limits each of the six axes independently.
// An axis with lower > upper is free; lower == upper locks it. Index 0..2
// are linear x,y,z and 3..5 angular x,y,z.
type Generic6DofSpringConstraint struct {
	constraintBase

	LinearLowerLimit  mgl64.Vec3
	LinearUpperLimit  mgl64.Vec3
	AngularLowerLimit mgl64.Vec3
	AngularUpperLimit mgl64.Vec3

	SpringEnabled    [6]bool
	Stiffness        [6]float64
	Damping          [6]float64
	EquilibriumPoint [6]float64
}

func NewGeneric6DofSpringConstraint(a, b Body, frameA, frameB common.Pose) *Generic6DofSpringConstraint {
	return &Generic6DofSpringConstraint{
		constraintBase: newConstraintBase(ConstraintGeneric6DofSpring, a, b, frameA, frameB),
	}
}

// ConeTwistConstraint limits rotation to a cone plus twist about frame X.
// Limit index 3 is the twist span, 4 swing span 2 (about Y) and 5 swing
// span 1 (about Z). A negative span leaves the axis free.
type ConeTwistConstraint struct {
	constraintBase

	TwistSpan  float64
	SwingSpan1 float64
	SwingSpan2 float64

	MotorEnabled        bool
	MotorDrive          Drive
	MotorTarget         mgl64.Quat
	MotorTargetVelocity mgl64.Vec3
	MaxMotorImpulse     float64
}

func NewConeTwistConstraint(a, b Body, frameA, frameB common.Pose) *ConeTwistConstraint {
	return &ConeTwistConstraint{
		constraintBase: newConstraintBase(ConstraintConeTwist, a, b, frameA, frameB),
		TwistSpan:      -1,
		SwingSpan1:     -1,
		SwingSpan2:     -1,
		MotorTarget:    mgl64.QuatIdent(),
	}
}

func (c *ConeTwistConstraint) SetLimit(index int, value float64) {
	switch index {
	case 3:
		c.TwistSpan = value
	case 4:
		c.SwingSpan2 = value
	case 5:
		c.SwingSpan1 = value
	}
}

func (c *ConeTwistConstraint) Limit(index int) float64 {
	switch index {
	case 3:
		return c.TwistSpan
	case 4:
		return c.SwingSpan2
	case 5:
		return c.SwingSpan1
	}
	return 0
}

// HingeConstraint rotates about the Z axis of its frames. Lower > upper
// means unlimited.
type HingeConstraint struct {
	constraintBase

	LowerLimit float64
	UpperLimit float64

	MotorEnabled        bool
	MotorDrive          Drive
	MotorTargetAngle    float64
	MotorTargetVelocity float64
	MaxMotorImpulse     float64
}

func NewHingeConstraint(a, b Body, frameA, frameB common.Pose) *HingeConstraint {
	return &HingeConstraint{
		constraintBase: newConstraintBase(ConstraintHinge, a, b, frameA, frameB),
		LowerLimit:     1,
		UpperLimit:     -1,
	}
}

// SliderConstraint translates along and rotates about the X axis of its
// frames.
type SliderConstraint struct {
	constraintBase

	LowerLinLimit float64
	UpperLinLimit float64
	LowerAngLimit float64
	UpperAngLimit float64

	PoweredLinearMotor        bool
	LinearMotorDrive          Drive
	TargetLinearMotorVelocity float64
	TargetLinearPosition      float64
	MaxLinearMotorForce       float64
}

func NewSliderConstraint(a, b Body, frameA, frameB common.Pose) *SliderConstraint {
	return &SliderConstraint{
		constraintBase: newConstraintBase(ConstraintSlider, a, b, frameA, frameB),
		LowerLinLimit:  1,
		UpperLinLimit:  -1,
	}
}

// FixedConstraint welds its frames together.
type FixedConstraint struct {
	constraintBase
}

func NewFixedConstraint(a, b Body, frameA, frameB common.Pose) *FixedConstraint {
	return &FixedConstraint{
		constraintBase: newConstraintBase(ConstraintFixed, a, b, frameA, frameB),
	}
}
