package system

import (
	"errors"
	"slices"
	"testing"

	"github.com/milk9111/articulation/ecs"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r *recorder) OnTopology(_ *ecs.World, ev TopologyEvent, _ ecs.Entity, _ *TopologySetup) error {
	*r.log = append(*r.log, ev.String()+":"+r.name)
	return r.err
}

func TestTopologyBusOrder(t *testing.T) {
	var log []string
	joint := &recorder{name: "joint", log: &log}
	member := &recorder{name: "member", log: &log}

	bus := NewTopologyBus()
	node := ecs.Entity(7)
	bus.Subscribe(node, StageJoint, joint)
	bus.Subscribe(node, StageMembership, member)
	bus.Subscribe(node, StageJoint, joint)

	cases := []struct {
		ev   TopologyEvent
		want []string
	}{
		{BeforeSetup, []string{"beforeSetup:member", "beforeSetup:joint"}},
		{Setup, []string{"setup:member", "setup:joint"}},
		{Unsetup, []string{"unsetup:joint", "unsetup:member"}},
	}
	for _, c := range cases {
		t.Run(c.ev.String(), func(t *testing.T) {
			log = log[:0]
			if err := bus.Dispatch(nil, c.ev, node, NewTopologySetup(1)); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			if !slices.Equal(log, c.want) {
				t.Fatalf("expected %v, got %v", c.want, log)
			}
		})
	}

	bus.Unsubscribe(node, joint)
	if bus.Subscribed(node, joint) || !bus.Subscribed(node, member) {
		t.Fatalf("expected only the membership participant to remain")
	}
}

func TestTopologyBusErrors(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	first := &recorder{name: "first", log: &log, err: boom}
	second := &recorder{name: "second", log: &log, err: boom}

	bus := NewTopologyBus()
	node := ecs.Entity(3)
	bus.Subscribe(node, StageMembership, first)
	bus.Subscribe(node, StageJoint, second)

	if err := bus.Dispatch(nil, AfterSetup, node, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("expected dispatch to stop at the first error, got %v", log)
	}

	log = log[:0]
	if err := bus.Dispatch(nil, Unsetup, node, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected unsetup to reach every participant, got %v", log)
	}
}

func TestTopologySetupIndices(t *testing.T) {
	s := NewTopologySetup(1)
	if got := s.Append(1); got != -1 {
		t.Fatalf("expected the base at -1, got %d", got)
	}
	for i, n := range []ecs.Entity{4, 2, 9} {
		if got := s.Append(n); got != i {
			t.Fatalf("append %v: expected %d, got %d", n, i, got)
		}
	}
	if got := s.Append(2); got != 1 {
		t.Fatalf("expected a repeated append to keep index 1, got %d", got)
	}
	if _, ok := s.IndexOf(5); ok {
		t.Fatalf("expected 5 to be outside the setup")
	}
	if s.Node(-1) != 1 || s.Node(2) != 9 {
		t.Fatalf("unexpected node lookup")
	}
	if got := s.nodes(Unsetup); !slices.Equal(got, []ecs.Entity{9, 2, 4, 1}) {
		t.Fatalf("expected reversed nodes, got %v", got)
	}
}
