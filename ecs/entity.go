package ecs

import "strconv"

// Entity is a generational handle to a scene node.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

// String prints the node id, with the generation appended once the id
// has been recycled.
func (e Entity) String() string {
	id := strconv.FormatUint(uint64(e.id()), 10)
	if gen := e.generation(); gen > 0 {
		return id + "v" + strconv.FormatUint(uint64(gen), 10)
	}
	return id
}

func (e Entity) Valid() bool {
	return e.id() > 0
}
