package system

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/native"
)

const (
	EventArticulationBound     ecs.EventType = "articulation.bound"
	EventArticulationDestroyed ecs.EventType = "articulation.destroyed"
)

type ArticulationState int

const (
	ArticulationIdle ArticulationState = iota
	ArticulationBuilding
	ArticulationBound
	ArticulationDestroying
)

func (s ArticulationState) String() string {
	switch s {
	case ArticulationIdle:
		return "idle"
	case ArticulationBuilding:
		return "building"
	case ArticulationBound:
		return "bound"
	case ArticulationDestroying:
		return "destroying"
	}
	return fmt.Sprintf("ArticulationState(%d)", int(s))
}

type articulation struct {
	state      ArticulationState
	setup      *TopologySetup
	generation int
}

// MembershipListener is told after a node's membership was toggled.
type MembershipListener func(w *ecs.World, node ecs.Entity) error

// ArticulationSystem builds and tears down reduced coordinate
// articulations. It owns one TopologySetup per bound base.
type ArticulationSystem struct {
	world  DynamicsWorld
	bodies *BodySystem
	bus    *TopologyBus

	arts      map[ecs.Entity]*articulation
	members   *memberParticipant
	listeners []MembershipListener
}

func NewArticulationSystem(dw DynamicsWorld, bodies *BodySystem, bus *TopologyBus) *ArticulationSystem {
	a := &ArticulationSystem{
		world:  dw,
		bodies: bodies,
		bus:    bus,
		arts:   make(map[ecs.Entity]*articulation),
	}
	a.members = &memberParticipant{sys: a}
	return a
}

// Update subscribes the membership of every node that carries one.
func (a *ArticulationSystem) Update(w *ecs.World) {
	if a == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.MultibodyComponent.Kind(), func(e ecs.Entity, _ *component.Multibody) {
		a.bus.Subscribe(e, StageMembership, a.members)
	})
}

// OnMembershipChange registers fn to run after a node's membership was
// toggled or promoted to a base.
func (a *ArticulationSystem) OnMembershipChange(fn MembershipListener) {
	if fn != nil {
		a.listeners = append(a.listeners, fn)
	}
}

func (a *ArticulationSystem) membership(w *ecs.World, e ecs.Entity) (*component.Multibody, bool) {
	return ecs.Get(w, e, component.MultibodyComponent.Kind())
}

func (a *ArticulationSystem) art(base ecs.Entity) *articulation {
	art, ok := a.arts[base]
	if !ok {
		art = &articulation{}
		a.arts[base] = art
	}
	return art
}

// EnsureMembership attaches an enabled membership to e if it has none.
func (a *ArticulationSystem) EnsureMembership(w *ecs.World, e ecs.Entity) (*component.Multibody, error) {
	if m, ok := a.membership(w, e); ok {
		return m, nil
	}
	m := &component.Multibody{Enabled: true}
	if err := ecs.Add(w, e, component.MultibodyComponent.Kind(), m); err != nil {
		return nil, err
	}
	a.bus.Subscribe(e, StageMembership, a.members)
	return m, nil
}

// MakeBase marks e as the root of an articulation. A node that was a link
// of another articulation leaves it.
func (a *ArticulationSystem) MakeBase(w *ecs.World, e ecs.Entity) error {
	m, err := a.EnsureMembership(w, e)
	if err != nil {
		return err
	}
	if m.IsBase {
		return nil
	}
	prev := ecs.Entity(m.Base())
	m.IsBase = true

	var generation int
	if prev != 0 {
		generation = a.art(prev).generation
	}
	errs := a.notify(w, e)
	if prev != 0 && prev != e && a.art(prev).generation == generation {
		errs = append(errs, a.Rebuild(w, prev))
	}
	errs = append(errs, a.Rebuild(w, e))
	return errors.Join(errs...)
}

func (a *ArticulationSystem) notify(w *ecs.World, e ecs.Entity) []error {
	var errs []error
	for _, fn := range a.listeners {
		if err := fn(w, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ResolveBase returns the nearest inclusive ancestor of e whose membership
// is an enabled base, or zero.
func (a *ArticulationSystem) ResolveBase(w *ecs.World, e ecs.Entity) ecs.Entity {
	var base ecs.Entity
	w.Ancestors(e, func(cur ecs.Entity) bool {
		if m, ok := a.membership(w, cur); ok && m.Enabled && m.IsBase {
			base = cur
			return false
		}
		return true
	})
	return base
}

// IsInMultibody reports whether e currently belongs to a built
// articulation.
func (a *ArticulationSystem) IsInMultibody(w *ecs.World, e ecs.Entity) bool {
	m, ok := a.membership(w, e)
	return ok && m.IsInMultibody()
}

// CouldBeInMultibody reports whether e has an enabled membership, an
// enabled body and a resolvable base.
func (a *ArticulationSystem) CouldBeInMultibody(w *ecs.World, e ecs.Entity) bool {
	m, ok := a.membership(w, e)
	if !ok || !m.Enabled {
		return false
	}
	return a.bodies.HasEnabledBody(w, e) && a.ResolveBase(w, e) != 0
}

// SetMembershipEnabled toggles e's membership and rebuilds the affected
// articulation.
func (a *ArticulationSystem) SetMembershipEnabled(w *ecs.World, e ecs.Entity, enabled bool) error {
	m, err := a.EnsureMembership(w, e)
	if err != nil {
		return err
	}
	if m.Enabled == enabled {
		return nil
	}
	base := ecs.Entity(m.Base())
	if base == 0 {
		base = a.ResolveBase(w, e)
	}
	if m.IsBase {
		base = e
	}
	m.Enabled = enabled

	var generation int
	if base != 0 {
		generation = a.art(base).generation
	}
	errs := a.notify(w, e)
	if base != 0 && a.art(base).generation == generation {
		errs = append(errs, a.Rebuild(w, base))
	}
	return errors.Join(errs...)
}

// OfferLinkMembership gathers the participants below candidate and builds
// base's articulation if any link results.
func (a *ArticulationSystem) OfferLinkMembership(w *ecs.World, base, candidate ecs.Entity) error {
	if base == 0 {
		return nil
	}
	setup := NewTopologySetup(base)
	if err := a.beforeSetup(w, candidate, setup); err != nil {
		return err
	}
	if len(setup.Links) == 0 {
		return nil
	}
	return a.CreateMultiBody(w, base)
}

// Rebuild destroys and recreates base's articulation from the current
// membership. A node that is no longer a base only loses its articulation.
func (a *ArticulationSystem) Rebuild(w *ecs.World, base ecs.Entity) error {
	if m, ok := a.membership(w, base); !ok || !m.Enabled || !m.IsBase {
		return a.DestroyMultiBody(w, base)
	}
	return a.CreateMultiBody(w, base)
}

// CreateMultiBody builds base's articulation, replacing a bound one. A base
// without an enabled body or without links is logged and skipped.
func (a *ArticulationSystem) CreateMultiBody(w *ecs.World, base ecs.Entity) error {
	art := a.art(base)
	switch art.state {
	case ArticulationBuilding, ArticulationDestroying:
		return fmt.Errorf("%w: articulation %v is %s", component.ErrReentrancyViolation, base, art.state)
	case ArticulationBound:
		if err := a.DestroyMultiBody(w, base); err != nil {
			return err
		}
	}

	body, ok := ecs.Get(w, base, component.BodyComponent.Kind())
	if !ok || !body.Enabled {
		logf("articulation: base %v has no enabled body, skipping build", base)
		return nil
	}

	art.state = ArticulationBuilding
	setup := NewTopologySetup(base)
	if err := a.beforeSetup(w, base, setup); err != nil {
		art.state = ArticulationIdle
		return fmt.Errorf("articulation: gather %v: %w", base, err)
	}
	if len(setup.Links) == 0 {
		art.state = ArticulationIdle
		logf("articulation: base %v has no links, skipping build", base)
		return nil
	}

	a.world.BeginRebuild()
	defer a.world.EndRebuild()

	mass, inertia, _ := a.bodies.LocalInertia(w, base)
	mb := native.NewMultiBody(len(setup.Links), mass, inertia, mass <= 0)
	setup.MultiBody = mb

	if err := a.dispatch(w, Setup, setup); err != nil {
		return a.rollback(w, art, setup, err)
	}
	if err := mb.Finalize(); err != nil {
		return a.rollback(w, art, setup, err)
	}
	group, mask := body.Layer.Resolved()
	a.world.AddMultiBody(mb, group, mask)
	if err := a.dispatch(w, AfterSetup, setup); err != nil {
		return a.rollback(w, art, setup, err)
	}

	art.setup = setup
	art.state = ArticulationBound
	art.generation++
	w.Events().Push(ecs.Event{Type: EventArticulationBound, Node: base})
	logf("articulation: built %v with %d links", base, len(setup.Links))
	return nil
}

func (a *ArticulationSystem) rollback(w *ecs.World, art *articulation, setup *TopologySetup, cause error) error {
	a.world.RemoveMultiBody(setup.MultiBody)
	undo := a.dispatch(w, Unsetup, setup)
	art.state = ArticulationIdle
	art.setup = nil
	art.generation++
	return errors.Join(fmt.Errorf("articulation: build %v: %w", setup.Base, cause), undo)
}

// DestroyMultiBody tears down base's articulation. Destroying an unbuilt
// articulation is a no-op.
func (a *ArticulationSystem) DestroyMultiBody(w *ecs.World, base ecs.Entity) error {
	art, ok := a.arts[base]
	if !ok || art.state == ArticulationIdle {
		return nil
	}
	if art.state != ArticulationBound {
		return fmt.Errorf("%w: articulation %v is %s", component.ErrReentrancyViolation, base, art.state)
	}

	art.state = ArticulationDestroying
	a.world.BeginRebuild()
	defer a.world.EndRebuild()

	setup := art.setup
	a.world.RemoveMultiBody(setup.MultiBody)
	err := a.dispatch(w, Unsetup, setup)

	art.setup = nil
	art.state = ArticulationIdle
	art.generation++
	w.Events().Push(ecs.Event{Type: EventArticulationDestroyed, Node: base})
	return err
}

func (a *ArticulationSystem) beforeSetup(w *ecs.World, start ecs.Entity, setup *TopologySetup) error {
	var err error
	w.Walk(start, func(node ecs.Entity) bool {
		if err != nil {
			return false
		}
		if m, ok := a.membership(w, node); ok {
			if node != setup.Base && m.Enabled && m.IsBase {
				return false
			}
			a.bus.Subscribe(node, StageMembership, a.members)
		}
		err = a.bus.Dispatch(w, BeforeSetup, node, setup)
		return err == nil
	})
	return err
}

func (a *ArticulationSystem) dispatch(w *ecs.World, ev TopologyEvent, setup *TopologySetup) error {
	var errs []error
	for _, node := range setup.nodes(ev) {
		if err := a.bus.Dispatch(w, ev, node, setup); err != nil {
			if ev != Unsetup {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *ArticulationSystem) State(base ecs.Entity) ArticulationState {
	if art, ok := a.arts[base]; ok {
		return art.state
	}
	return ArticulationIdle
}

// Setup returns the retained setup of a bound articulation.
func (a *ArticulationSystem) Setup(base ecs.Entity) (*TopologySetup, bool) {
	art, ok := a.arts[base]
	if !ok || art.setup == nil {
		return nil, false
	}
	return art.setup, true
}

func (a *ArticulationSystem) MultiBody(base ecs.Entity) *native.MultiBody {
	if setup, ok := a.Setup(base); ok {
		return setup.MultiBody
	}
	return nil
}

// Bases lists the bound articulation roots in entity order.
func (a *ArticulationSystem) Bases() []ecs.Entity {
	var out []ecs.Entity
	for base, art := range a.arts {
		if art.state == ArticulationBound {
			out = append(out, base)
		}
	}
	slices.Sort(out)
	return out
}

// memberParticipant is the membership side of a rebuild: it records the
// base and link index and swaps the node's body representation.
type memberParticipant struct {
	sys *ArticulationSystem
}

func (p *memberParticipant) OnTopology(w *ecs.World, ev TopologyEvent, node ecs.Entity, setup *TopologySetup) error {
	a := p.sys
	m, ok := a.membership(w, node)
	if !ok {
		return nil
	}
	switch ev {
	case BeforeSetup:
		if !m.Enabled || a.ResolveBase(w, node) != setup.Base {
			return nil
		}
		if m.Base() != 0 && m.Base() != uint64(setup.Base) && !m.IsInMultibody() {
			m.DetachBase()
		}
		return m.AssignBase(uint64(setup.Base))

	case Setup:
		index, ok := setup.IndexOf(node)
		if !ok {
			return nil
		}
		m.AssignLink(index, setup.MultiBody, setup.MultiBody.Link(index))

	case AfterSetup:
		index, ok := setup.IndexOf(node)
		if !ok {
			return nil
		}
		return a.bodies.SwapToLink(w, node, setup.MultiBody, index)

	case Unsetup:
		if _, ok := setup.IndexOf(node); !ok {
			return nil
		}
		if m.MultiBody() == setup.MultiBody {
			a.bodies.SwapToStandalone(w, node)
			m.ClearLink()
		}
		m.DetachBase()
	}
	return nil
}
