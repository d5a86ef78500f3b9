package native

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/milk9111/articulation/common"
)

// Body is anything a two-body constraint can attach to.
type Body interface {
	ID() uuid.UUID
	WorldPose() common.Pose
	SetWorldPose(common.Pose)
	Activate()
	IsActive() bool
}

type bodyState struct {
	id     uuid.UUID
	pose   common.Pose
	active bool
}

func newBodyState(pose common.Pose) bodyState {
	return bodyState{id: uuid.New(), pose: pose, active: true}
}

func (b *bodyState) ID() uuid.UUID { return b.id }
func (b *bodyState) WorldPose() common.Pose { return b.pose }
func (b *bodyState) SetWorldPose(p common.Pose) { b.pose = p }
func (b *bodyState) Activate() { b.active = true }
func (b *bodyState) IsActive() bool { return b.active }
func (b *bodyState) Deactivate() { b.active = false }

// RigidBody is a standalone simulated body.
type RigidBody struct {
	bodyState

	Mass         float64
	LocalInertia mgl64.Vec3
	Shape        Shape
}

func NewRigidBody(mass float64, inertia mgl64.Vec3, shape Shape, pose common.Pose) *RigidBody {
	return &RigidBody{
		bodyState:    newBodyState(pose),
		Mass:         mass,
		LocalInertia: inertia,
		Shape:        shape,
	}
}

// IsStatic reports whether the body has infinite mass.
func (b *RigidBody) IsStatic() bool {
	return b.Mass <= 0
}

func (b *RigidBody) String() string {
	return fmt.Sprintf("RigidBody(%s mass=%.3g)", b.id.String()[:8], b.Mass)
}

// LinkCollider is the collision object of one articulation member. Link is
// -1 for the base.
type LinkCollider struct {
	bodyState

	MultiBody *MultiBody
	Link      int
	Shape     Shape
}

func NewLinkCollider(mb *MultiBody, link int, shape Shape, pose common.Pose) *LinkCollider {
	return &LinkCollider{
		bodyState: newBodyState(pose),
		MultiBody: mb,
		Link:      link,
		Shape:     shape,
	}
}

func (c *LinkCollider) String() string {
	return fmt.Sprintf("LinkCollider(%s link=%d)", c.id.String()[:8], c.Link)
}
