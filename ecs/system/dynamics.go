package system

import "github.com/milk9111/articulation/native"

// DynamicsWorld is the solver collaborator the systems register native
// objects with. Every add and remove must be idempotent, and Step must
// refuse to run between BeginRebuild and EndRebuild.
type DynamicsWorld interface {
	AddRigidBody(b *native.RigidBody, group, mask uint32)
	RemoveRigidBody(b *native.RigidBody)
	AddCollisionObject(c *native.LinkCollider, group, mask uint32)
	RemoveCollisionObject(c *native.LinkCollider)

	AddConstraint(c native.Constraint, disableCollisions bool)
	RemoveConstraint(c native.Constraint)
	AddMultiBodyConstraint(c native.MultiBodyConstraint)
	RemoveMultiBodyConstraint(c native.MultiBodyConstraint)
	AddMultiBody(mb *native.MultiBody, group, mask uint32)
	RemoveMultiBody(mb *native.MultiBody)

	BeginRebuild()
	EndRebuild()
	Step(dt float64) error
}

var _ DynamicsWorld = (*native.World)(nil)
