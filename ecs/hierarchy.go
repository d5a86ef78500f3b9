package ecs

import (
	"errors"

	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs/component"
)

// ErrCycle is returned when a reparent would make a node its own ancestor.
var ErrCycle = errors.New("ecs: hierarchy cycle")

// SetParent moves child under parent. A zero parent detaches child to the root.
func (w *World) SetParent(child, parent Entity) error {
	if w == nil || !w.entities.isAlive(child) {
		return component.ErrEntityNotAlive
	}
	if parent != 0 {
		if !w.entities.isAlive(parent) {
			return component.ErrEntityNotAlive
		}
		if parent == child || w.IsDescendant(parent, child) {
			return ErrCycle
		}
	}
	w.detach(child)
	if parent == 0 {
		return nil
	}
	w.parents[child] = parent
	w.children[parent] = append(w.children[parent], child)
	return nil
}

func (w *World) detach(child Entity) {
	parent, ok := w.parents[child]
	if !ok {
		return
	}
	delete(w.parents, child)
	siblings := w.children[parent]
	for i, s := range siblings {
		if s == child {
			w.children[parent] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
}

// Parent returns the parent of e, if any.
func (w *World) Parent(e Entity) (Entity, bool) {
	if w == nil {
		return 0, false
	}
	p, ok := w.parents[e]
	return p, ok
}

// Children returns the children of e in insertion order.
func (w *World) Children(e Entity) []Entity {
	if w == nil {
		return nil
	}
	return append([]Entity(nil), w.children[e]...)
}

// IsDescendant reports whether node is a strict descendant of ancestor.
func (w *World) IsDescendant(node, ancestor Entity) bool {
	if w == nil || ancestor == 0 {
		return false
	}
	for p, ok := w.parents[node]; ok; p, ok = w.parents[p] {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Ancestors walks from e (inclusive) up to the root and stops when fn
// returns false.
func (w *World) Ancestors(e Entity, fn func(Entity) bool) {
	if w == nil || fn == nil {
		return
	}
	for cur, ok := e, w.entities.isAlive(e); ok; cur, ok = w.parents[cur] {
		if !fn(cur) {
			return
		}
	}
}

// Walk visits root and its descendants depth-first, pre-order. Returning
// false from fn prunes that node's subtree.
func (w *World) Walk(root Entity, fn func(Entity) bool) {
	if w == nil || fn == nil || !w.entities.isAlive(root) {
		return
	}
	if !fn(root) {
		return
	}
	for _, child := range w.Children(root) {
		w.Walk(child, fn)
	}
}

// WorldPose composes the local transforms from the root down to e.
func (w *World) WorldPose(e Entity) common.Pose {
	pose := common.IdentityPose()
	w.Ancestors(e, func(cur Entity) bool {
		if t, ok := Get(w, cur, component.TransformComponent.Kind()); ok {
			pose = t.Pose().Mul(pose)
		}
		return true
	})
	return pose
}
