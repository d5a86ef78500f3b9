package component

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID identifies a component store. Zero is never issued.
type ComponentID uint32

var registry struct {
	sync.Mutex
	names []string
}

func register(name string) ComponentID {
	registry.Lock()
	defer registry.Unlock()
	registry.names = append(registry.names, name)
	return ComponentID(len(registry.names))
}

// String returns the Go type name the id was registered for.
func (id ComponentID) String() string {
	registry.Lock()
	defer registry.Unlock()
	if id == 0 || int(id) > len(registry.names) {
		return fmt.Sprintf("component(%d)", uint32(id))
	}
	return registry.names[id-1]
}

// ComponentKind is the typed key for one component store.
type ComponentKind[T any] struct {
	id ComponentID
}

func (k ComponentKind[T]) ID() ComponentID { return k.id }

func (k ComponentKind[T]) Valid() bool { return k.id != 0 }

// ComponentHandle is declared once per component type as a package var.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

// NewComponent registers a new store for T. Two calls with the same T give
// two independent stores.
func NewComponent[T any]() ComponentHandle[T] {
	name := reflect.TypeFor[T]().String()
	return ComponentHandle[T]{kind: ComponentKind[T]{id: register(name)}}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
