package ecs

// EventType names a topology change the systems report through the world.
type EventType string

// Event records a change on one node, usually an articulation base.
type Event struct {
	Type EventType
	Node Entity
}

// EventQueue collects events until the owner drains them.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns the queued events in push order and empties the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
