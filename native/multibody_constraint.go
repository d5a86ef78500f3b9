package native

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type MultiBodyConstraintKind int

const (
	MultiBodyJointLimitKind MultiBodyConstraintKind = iota + 1
	MultiBodySphericalLimitKind
	MultiBodyJointMotorKind
	MultiBodySphericalMotorKind
)

func (k MultiBodyConstraintKind) String() string {
	switch k {
	case MultiBodyJointLimitKind:
		return "joint-limit"
	case MultiBodySphericalLimitKind:
		return "spherical-limit"
	case MultiBodyJointMotorKind:
		return "joint-motor"
	case MultiBodySphericalMotorKind:
		return "spherical-motor"
	}
	return "invalid"
}

// MultiBodyConstraint acts on a single link of a multibody.
type MultiBodyConstraint interface {
	ID() uuid.UUID
	Kind() MultiBodyConstraintKind
	MultiBody() *MultiBody
	LinkIndex() int
}

type mbConstraintBase struct {
	id   uuid.UUID
	kind MultiBodyConstraintKind
	mb   *MultiBody
	link int
}

func newMBConstraintBase(kind MultiBodyConstraintKind, mb *MultiBody, link int) mbConstraintBase {
	return mbConstraintBase{id: uuid.New(), kind: kind, mb: mb, link: link}
}

func (c *mbConstraintBase) ID() uuid.UUID { return c.id }
func (c *mbConstraintBase) Kind() MultiBodyConstraintKind { return c.kind }
func (c *mbConstraintBase) MultiBody() *MultiBody { return c.mb }
func (c *mbConstraintBase) LinkIndex() int { return c.link }

// MultiBodyJointLimit bounds the single degree of freedom of a revolute or
// prismatic link.
type MultiBodyJointLimit struct {
	mbConstraintBase

	Lower             float64
	Upper             float64
	MaxAppliedImpulse float64
}

func NewMultiBodyJointLimit(mb *MultiBody, link int, lower, upper float64) *MultiBodyJointLimit {
	return &MultiBodyJointLimit{
		mbConstraintBase: newMBConstraintBase(MultiBodyJointLimitKind, mb, link),
		Lower:            lower,
		Upper:            upper,
	}
}

// MultiBodySphericalLimit bounds a spherical link with a cone and a twist
// span. A negative span leaves that axis free.
type MultiBodySphericalLimit struct {
	mbConstraintBase

	TwistSpan         float64
	SwingSpan1        float64
	SwingSpan2        float64
	MaxAppliedImpulse float64
}

func NewMultiBodySphericalLimit(mb *MultiBody, link int, twist, swing1, swing2 float64) *MultiBodySphericalLimit {
	return &MultiBodySphericalLimit{
		mbConstraintBase: newMBConstraintBase(MultiBodySphericalLimitKind, mb, link),
		TwistSpan:        twist,
		SwingSpan1:       swing1,
		SwingSpan2:       swing2,
	}
}

// MultiBodyJointMotor drives a revolute link.
type MultiBodyJointMotor struct {
	mbConstraintBase

	Drive           Drive
	DesiredVelocity float64
	TargetPosition  float64
	MaxImpulse      float64
	Kp, Kd          float64
}

func NewMultiBodyJointMotor(mb *MultiBody, link int, maxImpulse float64) *MultiBodyJointMotor {
	return &MultiBodyJointMotor{
		mbConstraintBase: newMBConstraintBase(MultiBodyJointMotorKind, mb, link),
		MaxImpulse:       maxImpulse,
		Kp:               1,
		Kd:               1,
	}
}

// MultiBodySphericalMotor drives a spherical link towards a rotation or an
// angular velocity.
type MultiBodySphericalMotor struct {
	mbConstraintBase

	Drive           Drive
	DesiredVelocity mgl64.Vec3
	TargetRotation  mgl64.Quat
	MaxImpulse      float64
}

func NewMultiBodySphericalMotor(mb *MultiBody, link int, maxImpulse float64) *MultiBodySphericalMotor {
	return &MultiBodySphericalMotor{
		mbConstraintBase: newMBConstraintBase(MultiBodySphericalMotorKind, mb, link),
		TargetRotation:   mgl64.QuatIdent(),
		MaxImpulse:       maxImpulse,
	}
}
