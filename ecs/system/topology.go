package system

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

type TopologyEvent int

const (
	BeforeSetup TopologyEvent = iota
	Setup
	AfterSetup
	Unsetup
)

func (e TopologyEvent) String() string {
	switch e {
	case BeforeSetup:
		return "beforeSetup"
	case Setup:
		return "setup"
	case AfterSetup:
		return "afterSetup"
	case Unsetup:
		return "unsetup"
	}
	return fmt.Sprintf("TopologyEvent(%d)", int(e))
}

// Stage orders the participants of one node. Lower stages run first, except
// on Unsetup where the order is reversed.
type Stage int

const (
	StageMembership Stage = iota
	StageJoint
)

// TopologySetup is the context of one rebuild attempt. Links are collected
// during BeforeSetup in depth-first pre-order and never reordered.
type TopologySetup struct {
	Base      ecs.Entity
	Links     []ecs.Entity
	MultiBody *native.MultiBody

	index map[ecs.Entity]int
}

func NewTopologySetup(base ecs.Entity) *TopologySetup {
	return &TopologySetup{Base: base, index: make(map[ecs.Entity]int)}
}

// Append adds node as the next link and returns its index. Appending the
// same node twice returns the first index.
func (s *TopologySetup) Append(node ecs.Entity) int {
	if node == s.Base {
		return component.BaseLinkIndex
	}
	if i, ok := s.index[node]; ok {
		return i
	}
	i := len(s.Links)
	s.Links = append(s.Links, node)
	s.index[node] = i
	return i
}

// IndexOf returns -1 for the base, the link position for a link, and false
// for nodes outside the articulation.
func (s *TopologySetup) IndexOf(node ecs.Entity) (int, bool) {
	if s == nil {
		return 0, false
	}
	if node == s.Base {
		return component.BaseLinkIndex, true
	}
	i, ok := s.index[node]
	return i, ok
}

// Node returns the node at index, the base for -1.
func (s *TopologySetup) Node(index int) ecs.Entity {
	if index == component.BaseLinkIndex {
		return s.Base
	}
	return s.Links[index]
}

// nodes returns the base followed by the links, reversed for Unsetup.
func (s *TopologySetup) nodes(ev TopologyEvent) []ecs.Entity {
	out := make([]ecs.Entity, 0, len(s.Links)+1)
	out = append(out, s.Base)
	out = append(out, s.Links...)
	if ev == Unsetup {
		slices.Reverse(out)
	}
	return out
}

// Participant reacts to rebuild events broadcast at a node it subscribed to.
type Participant interface {
	OnTopology(w *ecs.World, ev TopologyEvent, node ecs.Entity, setup *TopologySetup) error
}

type subscription struct {
	stage Stage
	p     Participant
}

// TopologyBus routes rebuild events to the participants subscribed at each
// node.
type TopologyBus struct {
	subs map[ecs.Entity][]subscription
}

func NewTopologyBus() *TopologyBus {
	return &TopologyBus{subs: make(map[ecs.Entity][]subscription)}
}

// Subscribe registers p at node. Subscribing the same participant twice is
// a no-op.
func (b *TopologyBus) Subscribe(node ecs.Entity, stage Stage, p Participant) {
	if b.Subscribed(node, p) {
		return
	}
	subs := append(b.subs[node], subscription{stage: stage, p: p})
	slices.SortStableFunc(subs, func(x, y subscription) int { return int(x.stage) - int(y.stage) })
	b.subs[node] = subs
}

func (b *TopologyBus) Unsubscribe(node ecs.Entity, p Participant) {
	subs := b.subs[node]
	for i, s := range subs {
		if s.p == p {
			subs = slices.Delete(subs, i, i+1)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subs, node)
		return
	}
	b.subs[node] = subs
}

func (b *TopologyBus) Subscribed(node ecs.Entity, p Participant) bool {
	for _, s := range b.subs[node] {
		if s.p == p {
			return true
		}
	}
	return false
}

// Dispatch delivers ev to every participant at node. It stops at the first
// error, except on Unsetup where every participant runs and the errors are
// joined.
func (b *TopologyBus) Dispatch(w *ecs.World, ev TopologyEvent, node ecs.Entity, setup *TopologySetup) error {
	subs := slices.Clone(b.subs[node])
	if ev == Unsetup {
		slices.Reverse(subs)
	}
	var errs []error
	for _, s := range subs {
		if err := s.p.OnTopology(w, ev, node, setup); err != nil {
			err = fmt.Errorf("%s at %v: %w", ev, node, err)
			if ev != Unsetup {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
