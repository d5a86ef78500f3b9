package system

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

// SwapListener is told when a node's simulated body changes between a
// standalone rigid body and an articulation link collider.
type SwapListener func(w *ecs.World, node ecs.Entity)

// BodySystem owns the native representation of every Body component.
type BodySystem struct {
	world     DynamicsWorld
	listeners []SwapListener
}

func NewBodySystem(dw DynamicsWorld) *BodySystem {
	return &BodySystem{world: dw}
}

// OnSwap registers fn to run after every representation swap.
func (s *BodySystem) OnSwap(fn SwapListener) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// Update registers a standalone body for every enabled Body that has no
// native representation yet, and drops standalone bodies that were
// disabled.
func (s *BodySystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.BodyComponent.Kind(), func(e ecs.Entity, b *component.Body) {
		if b.Enabled {
			s.EnsureBody(w, e)
			return
		}
		if b.Rigid != nil {
			s.world.RemoveRigidBody(b.Rigid)
			b.Rigid = nil
		}
	})
}

// EnsureBody returns the native body simulated for e, creating and
// registering a standalone rigid body if needed.
func (s *BodySystem) EnsureBody(w *ecs.World, e ecs.Entity) (native.Body, bool) {
	b, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	if !ok || !b.Enabled {
		return nil, false
	}
	if nb := b.Native(); nb != nil {
		return nb, true
	}
	b.Rigid = native.NewRigidBody(b.Mass, b.Shape.CalculateLocalInertia(b.Mass), b.Shape, w.WorldPose(e))
	group, mask := b.Layer.Resolved()
	s.world.AddRigidBody(b.Rigid, group, mask)
	b.Rigid.Activate()
	return b.Rigid, true
}

// HasEnabledBody reports whether e carries an enabled Body.
func (s *BodySystem) HasEnabledBody(w *ecs.World, e ecs.Entity) bool {
	b, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	return ok && b.Enabled
}

// LocalInertia returns the mass of e and the diagonal inertia of its shape.
func (s *BodySystem) LocalInertia(w *ecs.World, e ecs.Entity) (float64, mgl64.Vec3, bool) {
	b, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	if !ok {
		return 0, mgl64.Vec3{}, false
	}
	return b.Mass, b.Shape.CalculateLocalInertia(b.Mass), true
}

// WorldPose is the scene graph pose of e.
func (s *BodySystem) WorldPose(w *ecs.World, e ecs.Entity) common.Pose {
	return w.WorldPose(e)
}

// Activate wakes the native body of e, if any.
func (s *BodySystem) Activate(w *ecs.World, e ecs.Entity) {
	if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok {
		if nb := b.Native(); nb != nil {
			nb.Activate()
		}
	}
}

// SwapToLink replaces the standalone body of e with a collider for link
// index of mb. Index -1 is the base.
func (s *BodySystem) SwapToLink(w *ecs.World, e ecs.Entity, mb *native.MultiBody, index int) error {
	b, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	if !ok || !b.Enabled {
		return fmt.Errorf("body: %v has no enabled body to link", e)
	}
	pose := w.WorldPose(e)
	if b.Rigid != nil {
		pose = b.Rigid.WorldPose()
		s.world.RemoveRigidBody(b.Rigid)
		b.Rigid = nil
	}
	if b.Link != nil {
		s.world.RemoveCollisionObject(b.Link)
	}
	b.Link = native.NewLinkCollider(mb, index, b.Shape, pose)
	mb.SetLinkCollider(index, b.Link)
	group, mask := b.Layer.Resolved()
	s.world.AddCollisionObject(b.Link, group, mask)
	b.Link.Activate()
	s.notify(w, e)
	return nil
}

// SwapToStandalone drops the link collider of e and, if the body is still
// enabled, registers a standalone body at the collider's pose.
func (s *BodySystem) SwapToStandalone(w *ecs.World, e ecs.Entity) {
	b, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	if !ok || b.Link == nil {
		return
	}
	pose := b.Link.WorldPose()
	s.world.RemoveCollisionObject(b.Link)
	b.Link = nil
	if b.Enabled {
		b.Rigid = native.NewRigidBody(b.Mass, b.Shape.CalculateLocalInertia(b.Mass), b.Shape, pose)
		group, mask := b.Layer.Resolved()
		s.world.AddRigidBody(b.Rigid, group, mask)
		b.Rigid.Activate()
	}
	s.notify(w, e)
}

func (s *BodySystem) notify(w *ecs.World, e ecs.Entity) {
	for _, fn := range s.listeners {
		fn(w, e)
	}
}
