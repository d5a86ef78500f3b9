package native

import (
	"errors"
	"slices"
)

// ErrRebuildInProgress is returned by Step while an articulation rebuild
// holds the world.
var ErrRebuildInProgress = errors.New("native: step during topology rebuild")

type layer struct {
	group, mask uint32
}

// World is an in-memory dynamics world. It owns registration of bodies,
// constraints and multibodies; Step only advances the tick counter and is
// refused while a rebuild is in flight. Every add and remove is idempotent.
type World struct {
	rigidBodies []*RigidBody
	colliders   []*LinkCollider
	layers      map[Body]layer

	constraints       []Constraint
	disableCollisions map[Constraint]bool

	multiBodies   []*MultiBody
	mbLayers      map[*MultiBody]layer
	mbConstraints []MultiBodyConstraint

	rebuilds int
	steps    int
}

func NewWorld() *World {
	return &World{
		layers:            make(map[Body]layer),
		disableCollisions: make(map[Constraint]bool),
		mbLayers:          make(map[*MultiBody]layer),
	}
}

func (w *World) AddRigidBody(b *RigidBody, group, mask uint32) {
	if b == nil || slices.Contains(w.rigidBodies, b) {
		return
	}
	w.rigidBodies = append(w.rigidBodies, b)
	w.layers[b] = layer{group: group, mask: mask}
}

func (w *World) RemoveRigidBody(b *RigidBody) {
	if i := slices.Index(w.rigidBodies, b); i >= 0 {
		w.rigidBodies = slices.Delete(w.rigidBodies, i, i+1)
		delete(w.layers, b)
	}
}

func (w *World) AddCollisionObject(c *LinkCollider, group, mask uint32) {
	if c == nil || slices.Contains(w.colliders, c) {
		return
	}
	w.colliders = append(w.colliders, c)
	w.layers[c] = layer{group: group, mask: mask}
}

func (w *World) RemoveCollisionObject(c *LinkCollider) {
	if i := slices.Index(w.colliders, c); i >= 0 {
		w.colliders = slices.Delete(w.colliders, i, i+1)
		delete(w.layers, c)
	}
}

// AddConstraint registers c. When disableCollisions is set the two bodies
// stop colliding with each other.
func (w *World) AddConstraint(c Constraint, disableCollisions bool) {
	if c == nil || slices.Contains(w.constraints, c) {
		return
	}
	w.constraints = append(w.constraints, c)
	w.disableCollisions[c] = disableCollisions
}

func (w *World) RemoveConstraint(c Constraint) {
	if i := slices.Index(w.constraints, c); i >= 0 {
		w.constraints = slices.Delete(w.constraints, i, i+1)
		delete(w.disableCollisions, c)
	}
}

func (w *World) AddMultiBodyConstraint(c MultiBodyConstraint) {
	if c == nil || slices.Contains(w.mbConstraints, c) {
		return
	}
	w.mbConstraints = append(w.mbConstraints, c)
}

func (w *World) RemoveMultiBodyConstraint(c MultiBodyConstraint) {
	if i := slices.Index(w.mbConstraints, c); i >= 0 {
		w.mbConstraints = slices.Delete(w.mbConstraints, i, i+1)
	}
}

func (w *World) AddMultiBody(mb *MultiBody, group, mask uint32) {
	if mb == nil || slices.Contains(w.multiBodies, mb) {
		return
	}
	w.multiBodies = append(w.multiBodies, mb)
	w.mbLayers[mb] = layer{group: group, mask: mask}
}

func (w *World) RemoveMultiBody(mb *MultiBody) {
	if i := slices.Index(w.multiBodies, mb); i >= 0 {
		w.multiBodies = slices.Delete(w.multiBodies, i, i+1)
		delete(w.mbLayers, mb)
	}
}

// BeginRebuild marks a topology rebuild as in flight. Calls nest.
func (w *World) BeginRebuild() {
	w.rebuilds++
}

func (w *World) EndRebuild() {
	if w.rebuilds > 0 {
		w.rebuilds--
	}
}

func (w *World) Rebuilding() bool {
	return w.rebuilds > 0
}

func (w *World) Step(dt float64) error {
	if w.rebuilds > 0 {
		return ErrRebuildInProgress
	}
	w.steps++
	return nil
}

func (w *World) Steps() int { return w.steps }

func (w *World) RigidBodies() []*RigidBody { return slices.Clone(w.rigidBodies) }

func (w *World) CollisionObjects() []*LinkCollider { return slices.Clone(w.colliders) }

func (w *World) Constraints() []Constraint { return slices.Clone(w.constraints) }

func (w *World) MultiBodies() []*MultiBody { return slices.Clone(w.multiBodies) }

func (w *World) MultiBodyConstraints() []MultiBodyConstraint { return slices.Clone(w.mbConstraints) }

func (w *World) HasConstraint(c Constraint) bool { return slices.Contains(w.constraints, c) }

func (w *World) HasMultiBodyConstraint(c MultiBodyConstraint) bool {
	return slices.Contains(w.mbConstraints, c)
}

func (w *World) HasRigidBody(b *RigidBody) bool { return slices.Contains(w.rigidBodies, b) }

func (w *World) HasCollisionObject(c *LinkCollider) bool { return slices.Contains(w.colliders, c) }

func (w *World) HasMultiBody(mb *MultiBody) bool { return slices.Contains(w.multiBodies, mb) }

// CollisionsDisabled reports the flag c was registered with.
func (w *World) CollisionsDisabled(c Constraint) bool { return w.disableCollisions[c] }

// MultiBodyLayer returns the group and mask mb was registered with.
func (w *World) MultiBodyLayer(mb *MultiBody) (group, mask uint32, ok bool) {
	l, ok := w.mbLayers[mb]
	return l.group, l.mask, ok
}

// BodyLayer returns the group and mask b was registered with.
func (w *World) BodyLayer(b Body) (group, mask uint32, ok bool) {
	l, ok := w.layers[b]
	return l.group, l.mask, ok
}
