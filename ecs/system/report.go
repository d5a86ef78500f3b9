package system

import (
	"fmt"
	"slices"
	"strings"

	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
)

type LinkReport struct {
	Index  int
	Parent int
	Node   string
	Type   string
}

type ArticulationReport struct {
	Base  string
	ID    string
	Links []LinkReport
}

type JointReport struct {
	Node    string
	Type    string
	State   string
	Backend string
	A       string
	B       string
	Handles []string
}

// TopologyReport is a snapshot of every bound articulation and joint.
type TopologyReport struct {
	Articulations []ArticulationReport
	Joints        []JointReport
}

// Report snapshots the current topology of w.
func (s *JointSystem) Report(w *ecs.World) TopologyReport {
	var r TopologyReport
	for _, base := range s.artic.Bases() {
		setup, ok := s.artic.Setup(base)
		if !ok {
			continue
		}
		ar := ArticulationReport{Base: NodeName(w, base), ID: setup.MultiBody.ID().String()}
		for i, node := range setup.Links {
			link := setup.MultiBody.Link(i)
			ar.Links = append(ar.Links, LinkReport{Index: i, Parent: link.Parent, Node: NodeName(w, node), Type: link.Type.String()})
		}
		r.Articulations = append(r.Articulations, ar)
	}

	ecs.ForEach(w, component.JointComponent.Kind(), func(e ecs.Entity, d *component.Joint) {
		jr := JointReport{
			Node:    NodeName(w, e),
			Type:    d.Type.String(),
			State:   d.Runtime.State().String(),
			Backend: "two-body",
		}
		if d.IsForMultibodyLink {
			jr.Backend = "multibody"
		}
		if d.EntityA != 0 {
			jr.A = NodeName(w, ecs.Entity(d.EntityA))
		}
		if d.EntityB != 0 {
			jr.B = NodeName(w, ecs.Entity(d.EntityB))
		}
		if c := d.Runtime.Constraint(); c != nil {
			jr.Handles = append(jr.Handles, c.Kind().String())
		}
		if l := d.Runtime.MultibodyLimit(); l != nil {
			jr.Handles = append(jr.Handles, l.Kind().String())
		}
		if m := d.Runtime.MultibodyMotor(); m != nil {
			jr.Handles = append(jr.Handles, m.Kind().String())
		}
		r.Joints = append(r.Joints, jr)
	})
	slices.SortFunc(r.Joints, func(a, b JointReport) int { return strings.Compare(a.Node, b.Node) })
	return r
}

func (r TopologyReport) String() string {
	var b strings.Builder
	for _, a := range r.Articulations {
		fmt.Fprintf(&b, "articulation %s (%s)\n", a.Base, a.ID)
		for _, l := range a.Links {
			fmt.Fprintf(&b, "  link %d parent=%d %s %s\n", l.Index, l.Parent, l.Node, l.Type)
		}
	}
	for _, j := range r.Joints {
		fmt.Fprintf(&b, "joint %s %s %s/%s a=%s b=%s handles=[%s]\n",
			j.Node, j.Type, j.Backend, j.State, j.A, j.B, strings.Join(j.Handles, ","))
	}
	return b.String()
}
