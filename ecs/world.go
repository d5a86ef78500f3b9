package ecs

import (
	"fmt"

	"github.com/milk9111/articulation/ecs/component"
)

// World owns entities, components, the node hierarchy and system order.
type World struct {
	entities entityStore
	events   EventQueue

	stores map[component.ComponentID]*SparseSet

	parents  map[Entity]Entity
	children map[Entity][]Entity
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores:   make(map[component.ComponentID]*SparseSet),
		parents:  make(map[Entity]Entity),
		children: make(map[Entity][]Entity),
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity detaches e from the hierarchy, drops its components and
// invalidates the handle. Children are reparented to the root.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, child := range append([]Entity(nil), w.children[e]...) {
		w.detach(child)
	}
	w.detach(e)
	delete(w.children, e)
	for _, store := range w.stores {
		store.Remove(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns all live entities in id order.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	return w.entities.alive()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// AddComponent stores value under the component id for e.
func (w *World) AddComponent(e Entity, id component.ComponentID, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return fmt.Errorf("add %s to %v: %w", id, e, component.ErrEntityNotAlive)
	}
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return fmt.Errorf("add %s to %v: %w", id, e, component.ErrNilComponent)
	}
	store, ok := w.stores[id]
	if !ok {
		store = &SparseSet{}
		w.stores[id] = store
	}
	store.Set(e, value)
	return nil
}

// RemoveComponent drops the component stored under id for e.
func (w *World) RemoveComponent(e Entity, id component.ComponentID) bool {
	if w == nil {
		return false
	}
	return w.stores[id].Remove(e)
}

// GetComponent returns the raw component stored under id for e.
func (w *World) GetComponent(e Entity, id component.ComponentID) (any, bool) {
	if w == nil || !w.entities.isAlive(e) {
		return nil, false
	}
	store := w.stores[id]
	if !store.Has(e) {
		return nil, false
	}
	return store.Get(e), true
}

// HasComponent reports whether e carries the component stored under id.
func (w *World) HasComponent(e Entity, id component.ComponentID) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	return w.stores[id].Has(e)
}

// Query returns the entities that carry every listed component, in the
// dense order of the first store.
func (w *World) Query(ids ...component.ComponentID) []Entity {
	if w == nil || len(ids) == 0 {
		return nil
	}
	first := w.stores[ids[0]]
	if first == nil {
		return nil
	}
	out := append([]Entity(nil), first.Entities()...)
	for _, id := range ids[1:] {
		other := w.stores[id]
		if other == nil {
			return nil
		}
		filtered := out[:0]
		for _, e := range out {
			if other.Has(e) {
				filtered = append(filtered, e)
			}
		}
		out = filtered
	}
	return out
}

func (w *World) String() string {
	if w == nil {
		return "World(nil)"
	}
	return fmt.Sprintf("World(entities=%d stores=%d)", len(w.entities.alive()), len(w.stores))
}
