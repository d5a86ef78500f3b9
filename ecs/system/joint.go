package system

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/joint"
	"github.com/milk9111/articulation/native"
)

var ErrNoJoint = errors.New("joint: node carries no joint")

type Endpoint int

const (
	EndpointA Endpoint = iota
	EndpointB
)

// JointSystem coordinates joint descriptors with their native handles. A
// joint is realised either as a two-body constraint, or as the link of its
// entity A inside an articulation, in which case the handles are created
// by the articulation rebuild.
type JointSystem struct {
	world  DynamicsWorld
	bodies *BodySystem
	artic  *ArticulationSystem
	bus    *TopologyBus

	claims  map[ecs.Entity]ecs.Entity // link node -> joint
	claimOf map[ecs.Entity]ecs.Entity // joint -> link node
	links   map[ecs.Entity]ecs.Entity // joint -> base it is bound into
	pending map[ecs.Entity]bool
}

func NewJointSystem(dw DynamicsWorld, bodies *BodySystem, artic *ArticulationSystem, bus *TopologyBus) *JointSystem {
	s := &JointSystem{
		world:   dw,
		bodies:  bodies,
		artic:   artic,
		bus:     bus,
		claims:  make(map[ecs.Entity]ecs.Entity),
		claimOf: make(map[ecs.Entity]ecs.Entity),
		links:   make(map[ecs.Entity]ecs.Entity),
		pending: make(map[ecs.Entity]bool),
	}
	bodies.OnSwap(s.onBodySwap)
	artic.OnMembershipChange(s.onMembershipChange)
	return s
}

// Update retries joints whose endpoints had no enabled body yet.
func (s *JointSystem) Update(w *ecs.World) {
	if s == nil || w == nil || len(s.pending) == 0 {
		return
	}
	var retry []ecs.Entity
	for e := range s.pending {
		retry = append(retry, e)
	}
	slices.Sort(retry)
	for _, e := range retry {
		desc, ok := ecs.Get(w, e, component.JointComponent.Kind())
		if !ok || !w.IsAlive(e) {
			delete(s.pending, e)
			continue
		}
		if !desc.Enabled || desc.Runtime.State() != component.JointIdle {
			delete(s.pending, e)
			continue
		}
		if err := s.bind(w, e, desc); err != nil {
			logf("joint: %v retry failed: %v", e, err)
		}
	}
}

func (s *JointSystem) joint(w *ecs.World, e ecs.Entity) (*component.Joint, error) {
	if !w.IsAlive(e) {
		return nil, component.ErrEntityNotAlive
	}
	desc, ok := ecs.Get(w, e, component.JointComponent.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoJoint, e)
	}
	return desc, nil
}

// Joint returns the descriptor on e.
func (s *JointSystem) Joint(w *ecs.World, e ecs.Entity) (*component.Joint, bool) {
	return ecs.Get(w, e, component.JointComponent.Kind())
}

// IsForMultibodyLink reports whether the joint on e targets an
// articulation link.
func (s *JointSystem) IsForMultibodyLink(w *ecs.World, e ecs.Entity) bool {
	desc, ok := s.Joint(w, e)
	return ok && desc.IsForMultibodyLink
}

// AddJoint attaches desc to the mediator node e and enables it if
// requested.
func (s *JointSystem) AddJoint(w *ecs.World, e ecs.Entity, desc component.Joint) error {
	if ecs.Has(w, e, component.JointComponent.Kind()) {
		return fmt.Errorf("joint: %v already carries a joint", e)
	}
	enabled := desc.Enabled
	desc.Enabled = false
	desc.Runtime = component.JointRuntime{}
	desc.IsForMultibodyLink = false
	if err := ecs.Add(w, e, component.JointComponent.Kind(), &desc); err != nil {
		return err
	}
	if !enabled {
		d, _ := s.Joint(w, e)
		s.resolve(w, e, d)
		return nil
	}
	return s.Enable(w, e)
}

func (s *JointSystem) Enable(w *ecs.World, e ecs.Entity) error {
	desc, err := s.joint(w, e)
	if err != nil {
		return err
	}
	switch desc.Runtime.State() {
	case component.JointBound:
		return nil
	case component.JointBuilding, component.JointDestroying:
		return fmt.Errorf("%w: enable while joint is %s", component.ErrReentrancyViolation, desc.Runtime.State())
	}
	desc.Enabled = true
	return s.bind(w, e, desc)
}

// Disable destroys the joint's handles. A joint bound as an articulation
// link makes its articulation rebuild without it.
func (s *JointSystem) Disable(w *ecs.World, e ecs.Entity) error {
	desc, err := s.joint(w, e)
	if err != nil {
		return err
	}
	desc.Enabled = false
	return s.teardown(w, e, desc, true)
}

// Remove disables the joint and drops its descriptor.
func (s *JointSystem) Remove(w *ecs.World, e ecs.Entity) error {
	desc, err := s.joint(w, e)
	if err != nil {
		return err
	}
	desc.Enabled = false
	if err := s.teardown(w, e, desc, true); err != nil {
		return err
	}
	delete(s.pending, e)
	ecs.Remove(w, e, component.JointComponent.Kind())
	return nil
}

// SetEndpoint points endpoint which at node, or at the mediator itself for
// a zero node on A. Handles are rebuilt only when the resolved body node
// actually changes.
func (s *JointSystem) SetEndpoint(w *ecs.World, e ecs.Entity, which Endpoint, node ecs.Entity) error {
	desc, err := s.mutable(w, e)
	if err != nil {
		return err
	}
	prevA, prevB := desc.EntityA, desc.EntityB
	switch which {
	case EndpointA:
		desc.ComponentA = uint64(node)
	case EndpointB:
		desc.ComponentB = uint64(node)
	default:
		return fmt.Errorf("joint: unknown endpoint %d", which)
	}
	a, b := s.endpoints(w, e, desc)
	if a == ecs.Entity(prevA) && b == ecs.Entity(prevB) {
		return nil
	}
	return s.recreate(w, e, desc)
}

func (s *JointSystem) SetType(w *ecs.World, e ecs.Entity, t component.JointType) error {
	if _, err := joint.For(t); err != nil {
		return err
	}
	desc, err := s.mutable(w, e)
	if err != nil {
		return err
	}
	if desc.Type == t {
		return nil
	}
	desc.Type = t
	return s.recreate(w, e, desc)
}

func (s *JointSystem) SetMotion(w *ecs.World, e ecs.Entity, m component.Motion) error {
	return s.update(w, e, func(d *component.Joint) { d.Motion = m })
}

func (s *JointSystem) SetLimits(w *ecs.World, e ecs.Entity, l component.Limits) error {
	return s.updateSoft(w, e, "limits", func(d *component.Joint) { d.Limits = l })
}

func (s *JointSystem) SetSprings(w *ecs.World, e ecs.Entity, sp component.Springs) error {
	return s.updateSoft(w, e, "springs", func(d *component.Joint) { d.Springs = sp })
}

func (s *JointSystem) SetStiffness(w *ecs.World, e ecs.Entity, p component.AxisParams) error {
	return s.updateSoft(w, e, "stiffness", func(d *component.Joint) { d.Stiffness = p })
}

func (s *JointSystem) SetDamping(w *ecs.World, e ecs.Entity, p component.AxisParams) error {
	return s.updateSoft(w, e, "damping", func(d *component.Joint) { d.Damping = p })
}

func (s *JointSystem) SetEquilibrium(w *ecs.World, e ecs.Entity, p component.AxisParams) error {
	return s.updateSoft(w, e, "equilibrium", func(d *component.Joint) { d.Equilibrium = p })
}

func (s *JointSystem) SetBreakForce(w *ecs.World, e ecs.Entity, f float64) error {
	return s.update(w, e, func(d *component.Joint) { d.BreakForce = f })
}

// SetEnableCollision changes whether the joined bodies collide. The flag
// is fixed at registration, so the handles are rebuilt.
func (s *JointSystem) SetEnableCollision(w *ecs.World, e ecs.Entity, v bool) error {
	return s.setFlag(w, e, v, func(d *component.Joint) *bool { return &d.EnableCollision })
}

func (s *JointSystem) SetSkipMultiBodyChance(w *ecs.World, e ecs.Entity, v bool) error {
	return s.setFlag(w, e, v, func(d *component.Joint) *bool { return &d.SkipMultiBodyChance })
}

func (s *JointSystem) SetEnableMultiBodyComponents(w *ecs.World, e ecs.Entity, v bool) error {
	return s.setFlag(w, e, v, func(d *component.Joint) *bool { return &d.EnableMultiBodyComponents })
}

func (s *JointSystem) setFlag(w *ecs.World, e ecs.Entity, v bool, field func(*component.Joint) *bool) error {
	desc, err := s.mutable(w, e)
	if err != nil {
		return err
	}
	f := field(desc)
	if *f == v {
		return nil
	}
	*f = v
	return s.recreate(w, e, desc)
}

// SetMotor validates m against the joint's type and backend and applies
// it. A rejected motor leaves the descriptor and handles untouched.
func (s *JointSystem) SetMotor(w *ecs.World, e ecs.Entity, m component.Motor) error {
	desc, err := s.mutable(w, e)
	if err != nil {
		return err
	}
	impl, err := joint.For(desc.Type)
	if err != nil {
		return err
	}
	if desc.Runtime.State() != component.JointBound {
		if _, err := impl.SetMotor(desc, joint.Handles{}, joint.Endpoints{}, m); err != nil {
			return err
		}
		// judge the motor against the backend the joint will bind to
		next := *desc
		a, b := s.endpoints(w, e, desc)
		next.EntityA, next.EntityB = uint64(a), uint64(b)
		if s.evaluate(w, e, &next) {
			if err := joint.CheckLinkMotor(desc.Type, m); err != nil {
				return err
			}
		}
		desc.Motor = m
		return nil
	}

	h := handlesOf(desc)
	ep := s.linkEndpoints(w, desc)
	next, err := impl.SetMotor(desc, h, ep, m)
	if err != nil {
		return err
	}
	desc.Motor = m
	if next.Motor == h.Motor {
		return nil
	}

	r := &desc.Runtime
	if err := r.Transition(component.JointBound, component.JointBuilding); err != nil {
		return err
	}
	if h.Motor != nil {
		s.world.RemoveMultiBodyConstraint(h.Motor)
	}
	err = r.SetMultibodyMotor(next.Motor)
	if err == nil && next.Motor != nil {
		s.world.AddMultiBodyConstraint(next.Motor)
	}
	return errors.Join(err, r.Transition(component.JointBuilding, component.JointBound))
}

// mutable returns the descriptor of e unless a structural mutation of it
// is in flight.
func (s *JointSystem) mutable(w *ecs.World, e ecs.Entity) (*component.Joint, error) {
	desc, err := s.joint(w, e)
	if err != nil {
		return nil, err
	}
	switch st := desc.Runtime.State(); st {
	case component.JointBuilding, component.JointDestroying:
		return nil, fmt.Errorf("%w: joint %v is %s", component.ErrReentrancyViolation, e, st)
	}
	return desc, nil
}

// update applies a parameter change and pushes it into the live handles,
// rebuilding them only when the native structure changes.
func (s *JointSystem) update(w *ecs.World, e ecs.Entity, mutate func(*component.Joint)) error {
	desc, err := s.mutable(w, e)
	if err != nil {
		return err
	}
	prev := *desc
	mutate(desc)
	if desc.Runtime.State() != component.JointBound {
		return nil
	}
	impl, err := joint.For(desc.Type)
	if err != nil {
		return err
	}
	if impl.RequiresRecreate(&prev, desc) {
		return s.recreate(w, e, desc)
	}
	h := handlesOf(desc)
	impl.UpdateLinearParameters(desc, h)
	impl.UpdateAngularParameters(desc, h)
	impl.UpdateOtherParameters(desc, h)
	return nil
}

// updateSoft is update for limit and spring parameters, which a fixed joint
// rejects.
func (s *JointSystem) updateSoft(w *ecs.World, e ecs.Entity, param string, mutate func(*component.Joint)) error {
	desc, err := s.joint(w, e)
	if err != nil {
		return err
	}
	if err := joint.CheckSoftParameters(desc.Type, param); err != nil {
		return err
	}
	return s.update(w, e, mutate)
}

func handlesOf(desc *component.Joint) joint.Handles {
	return joint.Handles{
		Constraint: desc.Runtime.Constraint(),
		Limit:      desc.Runtime.MultibodyLimit(),
		Motor:      desc.Runtime.MultibodyMotor(),
	}
}

func (s *JointSystem) linkEndpoints(w *ecs.World, desc *component.Joint) joint.Endpoints {
	m, ok := ecs.Get(w, ecs.Entity(desc.EntityA), component.MultibodyComponent.Kind())
	if !ok || !desc.IsForMultibodyLink {
		return joint.Endpoints{}
	}
	index, _ := m.LinkIndex()
	return joint.Endpoints{MultiBody: m.MultiBody(), LinkIndex: index}
}

// nearestBody returns the nearest inclusive ancestor of n carrying a Body.
func (s *JointSystem) nearestBody(w *ecs.World, n ecs.Entity) ecs.Entity {
	var found ecs.Entity
	w.Ancestors(n, func(cur ecs.Entity) bool {
		if ecs.Has(w, cur, component.BodyComponent.Kind()) {
			found = cur
			return false
		}
		return true
	})
	return found
}

func (s *JointSystem) endpoints(w *ecs.World, e ecs.Entity, desc *component.Joint) (ecs.Entity, ecs.Entity) {
	a := ecs.Entity(desc.ComponentA)
	if a == 0 {
		a = e
	}
	var b ecs.Entity
	if desc.ComponentB != 0 {
		b = s.nearestBody(w, ecs.Entity(desc.ComponentB))
	}
	return s.nearestBody(w, a), b
}

// resolve refreshes EntityA and EntityB from the raw references.
func (s *JointSystem) resolve(w *ecs.World, e ecs.Entity, desc *component.Joint) {
	a, b := s.endpoints(w, e, desc)
	desc.EntityA, desc.EntityB = uint64(a), uint64(b)
	if !desc.EnableMultiBodyComponents {
		return
	}
	for _, n := range []ecs.Entity{a, b} {
		if n == 0 {
			continue
		}
		if _, err := s.artic.EnsureMembership(w, n); err != nil {
			logf("joint: %v attach membership to %v: %v", e, n, err)
		}
	}
}

// evaluate decides whether the joint should be realised as the
// articulation link of its entity A.
func (s *JointSystem) evaluate(w *ecs.World, e ecs.Entity, desc *component.Joint) bool {
	a := ecs.Entity(desc.EntityA)
	if a == 0 || desc.SkipMultiBodyChance || !s.artic.CouldBeInMultibody(w, a) {
		return false
	}
	base := s.artic.ResolveBase(w, a)
	if base == a {
		return false
	}
	if desc.Type == component.JointSixDof {
		logf("joint: %v 6dof joints cannot be articulation links, using a two-body constraint", e)
		return false
	}
	if desc.EntityB != 0 && !s.underBaseOf(w, a, ecs.Entity(desc.EntityB)) {
		return false
	}
	if owner, ok := s.claims[a]; ok && owner != e {
		logf("joint: %v link %v already claimed by %v, using a two-body constraint", e, a, owner)
		return false
	}
	return true
}

// underBaseOf reports whether a descends from the articulation base b
// resolves to.
func (s *JointSystem) underBaseOf(w *ecs.World, a, b ecs.Entity) bool {
	bBase := s.artic.ResolveBase(w, b)
	return bBase != 0 && w.IsDescendant(a, bBase)
}

// bind creates the joint's realisation from scratch. The joint must be
// idle.
func (s *JointSystem) bind(w *ecs.World, e ecs.Entity, desc *component.Joint) error {
	s.release(e)
	delete(s.pending, e)
	s.resolve(w, e, desc)
	if desc.EntityA == 0 {
		logf("joint: %v has no body-bearing endpoint A, waiting", e)
		desc.IsForMultibodyLink = false
		s.pending[e] = true
		return nil
	}
	eligible := s.evaluate(w, e, desc)
	desc.IsForMultibodyLink = eligible
	if eligible {
		return s.bindLink(w, e, desc)
	}
	return s.createTwoBody(w, e, desc)
}

func (s *JointSystem) bindLink(w *ecs.World, e ecs.Entity, desc *component.Joint) error {
	a := ecs.Entity(desc.EntityA)
	base := s.artic.ResolveBase(w, a)
	r := &desc.Runtime
	if err := r.Transition(component.JointIdle, component.JointBuilding); err != nil {
		return err
	}
	s.claims[a] = e
	s.claimOf[e] = a
	s.bus.Subscribe(a, StageJoint, jointParticipant{sys: s, joint: e})

	err := s.artic.OfferLinkMembership(w, base, a)
	if r.State() == component.JointBuilding {
		err = errors.Join(err, r.Transition(component.JointBuilding, component.JointIdle))
	}
	if err != nil {
		s.release(e)
		desc.IsForMultibodyLink = false
		return err
	}
	return nil
}

func (s *JointSystem) createTwoBody(w *ecs.World, e ecs.Entity, desc *component.Joint) error {
	a := ecs.Entity(desc.EntityA)
	bodyA, ok := s.bodies.EnsureBody(w, a)
	if !ok {
		logf("joint: %v endpoint A %v has no enabled body, waiting", e, a)
		s.pending[e] = true
		return nil
	}
	var bodyB native.Body
	var poseB *common.Pose
	if desc.EntityB != 0 {
		b := ecs.Entity(desc.EntityB)
		if bodyB, ok = s.bodies.EnsureBody(w, b); !ok {
			logf("joint: %v endpoint B %v has no enabled body, waiting", e, b)
			s.pending[e] = true
			return nil
		}
		p := s.bodies.WorldPose(w, b)
		poseB = &p
	}
	impl, err := joint.For(desc.Type)
	if err != nil {
		return err
	}

	frameA, frameB := joint.ComputeFrames(s.bodies.WorldPose(w, e), s.bodies.WorldPose(w, a), poseB)
	r := &desc.Runtime
	if err := r.Transition(component.JointIdle, component.JointBuilding); err != nil {
		return err
	}
	h, err := impl.CreateConstraint(desc, joint.Endpoints{BodyA: bodyA, BodyB: bodyB, FrameA: frameA, FrameB: frameB}, false)
	if err == nil {
		err = r.SetConstraint(h.Constraint)
	}
	if err != nil {
		_ = r.Transition(component.JointBuilding, component.JointIdle)
		return fmt.Errorf("joint: create %s on %v: %w", desc.Type, e, err)
	}
	s.world.AddConstraint(h.Constraint, !desc.EnableCollision)
	bodyA.Activate()
	if bodyB != nil {
		bodyB.Activate()
	}
	return r.Transition(component.JointBuilding, component.JointBound)
}

// teardown destroys the joint's handles. With rebuild set, a joint bound
// as a link also rebuilds its articulation without it.
func (s *JointSystem) teardown(w *ecs.World, e ecs.Entity, desc *component.Joint, rebuild bool) error {
	r := &desc.Runtime
	switch r.State() {
	case component.JointIdle:
		s.release(e)
		delete(s.pending, e)
		return nil
	case component.JointBound:
	default:
		return fmt.Errorf("%w: teardown while joint %v is %s", component.ErrReentrancyViolation, e, r.State())
	}

	if err := r.Transition(component.JointBound, component.JointDestroying); err != nil {
		return err
	}
	err := s.removeHandles(desc)
	base, linked := s.links[e]
	delete(s.links, e)
	s.release(e)
	if linked && rebuild {
		err = errors.Join(err, s.artic.Rebuild(w, base))
	}
	return errors.Join(err, r.Transition(component.JointDestroying, component.JointIdle))
}

// recreate tears the joint down and binds it again under the current
// descriptor. The old articulation is rebuilt only if the joint leaves it.
func (s *JointSystem) recreate(w *ecs.World, e ecs.Entity, desc *component.Joint) error {
	if !desc.Enabled {
		s.resolve(w, e, desc)
		return nil
	}
	oldBase, wasLink := s.links[e]
	s.resolve(w, e, desc)
	stays := s.evaluate(w, e, desc) && s.artic.ResolveBase(w, ecs.Entity(desc.EntityA)) == oldBase
	if err := s.teardown(w, e, desc, wasLink && !stays); err != nil {
		return err
	}
	return s.bind(w, e, desc)
}

func (s *JointSystem) release(e ecs.Entity) {
	node, ok := s.claimOf[e]
	if !ok {
		return
	}
	delete(s.claimOf, e)
	if s.claims[node] == e {
		delete(s.claims, node)
	}
	s.bus.Unsubscribe(node, jointParticipant{sys: s, joint: e})
}

func (s *JointSystem) removeHandles(desc *component.Joint) error {
	r := &desc.Runtime
	var errs []error
	if c := r.Constraint(); c != nil {
		s.world.RemoveConstraint(c)
		errs = append(errs, r.SetConstraint(nil))
	}
	if l := r.MultibodyLimit(); l != nil {
		s.world.RemoveMultiBodyConstraint(l)
		errs = append(errs, r.SetMultibodyLimit(nil))
	}
	if m := r.MultibodyMotor(); m != nil {
		s.world.RemoveMultiBodyConstraint(m)
		errs = append(errs, r.SetMultibodyMotor(nil))
	}
	return errors.Join(errs...)
}

func (s *JointSystem) registerLinkHandles(desc *component.Joint, h joint.Handles) error {
	r := &desc.Runtime
	if h.Limit != nil {
		if err := r.SetMultibodyLimit(h.Limit); err != nil {
			return err
		}
		s.world.AddMultiBodyConstraint(h.Limit)
	}
	if h.Motor != nil {
		if err := r.SetMultibodyMotor(h.Motor); err != nil {
			return err
		}
		s.world.AddMultiBodyConstraint(h.Motor)
	}
	return nil
}

// linkParams places the link of entity A under its parent in setup: B when
// B is an earlier participant, otherwise the nearest participating
// ancestor.
func (s *JointSystem) linkParams(w *ecs.World, e ecs.Entity, desc *component.Joint, setup *TopologySetup, index int) (joint.LinkParams, error) {
	a := ecs.Entity(desc.EntityA)
	parent, parentIndex, found := ecs.Entity(0), 0, false
	if desc.EntityB != 0 {
		b := ecs.Entity(desc.EntityB)
		if !s.underBaseOf(w, a, b) {
			return joint.LinkParams{}, fmt.Errorf("%w: %v is not a descendant of %v's base %v", joint.ErrStructuralViolation, a, b, s.artic.ResolveBase(w, b))
		}
		if i, ok := setup.IndexOf(b); ok && i < index {
			parent, parentIndex, found = b, i, true
		}
	}
	if !found {
		w.Ancestors(a, func(cur ecs.Entity) bool {
			if cur == a {
				return true
			}
			if i, ok := setup.IndexOf(cur); ok && i < index {
				parent, parentIndex, found = cur, i, true
				return false
			}
			return true
		})
	}
	if !found {
		return joint.LinkParams{}, fmt.Errorf("%w: %v has no participating ancestor under %v", joint.ErrStructuralViolation, a, setup.Base)
	}

	parentPose := s.bodies.WorldPose(w, parent)
	frameA, frameB := joint.ComputeFrames(s.bodies.WorldPose(w, e), s.bodies.WorldPose(w, a), &parentPose)
	mass, inertia, _ := s.bodies.LocalInertia(w, a)
	return joint.LinkParams{
		Parent:                 parentIndex,
		Mass:                   mass,
		Inertia:                inertia,
		FrameA:                 frameA,
		FrameB:                 frameB,
		DisableParentCollision: !desc.EnableCollision,
	}, nil
}

func (s *JointSystem) onBodySwap(w *ecs.World, node ecs.Entity) {
	ecs.ForEach(w, component.JointComponent.Kind(), func(e ecs.Entity, desc *component.Joint) {
		r := &desc.Runtime
		if r.State() != component.JointBound || r.Constraint() == nil {
			return
		}
		if ecs.Entity(desc.EntityA) != node && ecs.Entity(desc.EntityB) != node {
			return
		}
		err := r.Transition(component.JointBound, component.JointDestroying)
		if err == nil {
			err = errors.Join(s.removeHandles(desc), r.Transition(component.JointDestroying, component.JointIdle))
		}
		if err == nil {
			err = s.createTwoBody(w, e, desc)
		}
		if err != nil {
			logf("joint: %v rebind after body swap of %v: %v", e, node, err)
		}
	})
}

// onMembershipChange re-evaluates the joints whose link node is node, and
// every joint with an endpoint at or below node when node is a base.
func (s *JointSystem) onMembershipChange(w *ecs.World, node ecs.Entity) error {
	m, ok := ecs.Get(w, node, component.MultibodyComponent.Kind())
	isBase := ok && m.IsBase
	var errs []error
	ecs.ForEach(w, component.JointComponent.Kind(), func(e ecs.Entity, desc *component.Joint) {
		if !desc.Enabled {
			return
		}
		a, b := ecs.Entity(desc.EntityA), ecs.Entity(desc.EntityB)
		under := func(n ecs.Entity) bool { return n != 0 && (n == node || w.IsDescendant(n, node)) }
		if a != node && !(isBase && (under(a) || under(b))) {
			return
		}
		errs = append(errs, s.recreate(w, e, desc))
	})
	return errors.Join(errs...)
}

// jointParticipant is the joint side of an articulation rebuild, subscribed
// at the joint's entity A.
type jointParticipant struct {
	sys   *JointSystem
	joint ecs.Entity
}

func (p jointParticipant) OnTopology(w *ecs.World, ev TopologyEvent, node ecs.Entity, setup *TopologySetup) error {
	s := p.sys
	desc, ok := ecs.Get(w, p.joint, component.JointComponent.Kind())
	if !ok || ecs.Entity(desc.EntityA) != node {
		return nil
	}
	r := &desc.Runtime

	if ev == BeforeSetup {
		if !desc.Enabled || !desc.IsForMultibodyLink || r.State() == component.JointDestroying {
			return nil
		}
		if !s.artic.CouldBeInMultibody(w, node) || s.artic.ResolveBase(w, node) != setup.Base {
			return nil
		}
		setup.Append(node)
		return nil
	}

	index, ok := setup.IndexOf(node)
	if !ok || index < 0 {
		return nil
	}
	impl, err := joint.For(desc.Type)
	if err != nil {
		return err
	}

	switch ev {
	case Setup:
		params, err := s.linkParams(w, p.joint, desc, setup, index)
		if err != nil {
			return err
		}
		return impl.SetupLink(setup.MultiBody, index, params, desc)

	case AfterSetup:
		switch r.State() {
		case component.JointDestroying:
			return nil
		case component.JointIdle:
			if err := r.Transition(component.JointIdle, component.JointBuilding); err != nil {
				return err
			}
		case component.JointBound:
			return fmt.Errorf("%w: joint %v already bound", component.ErrReentrancyViolation, p.joint)
		}
		h, err := impl.CreateConstraint(desc, joint.Endpoints{MultiBody: setup.MultiBody, LinkIndex: index}, true)
		if err == nil {
			err = s.registerLinkHandles(desc, h)
		}
		if err != nil {
			return errors.Join(err, s.removeHandles(desc), r.Transition(component.JointBuilding, component.JointIdle))
		}
		s.links[p.joint] = setup.Base
		return r.Transition(component.JointBuilding, component.JointBound)

	case Unsetup:
		delete(s.links, p.joint)
		switch r.State() {
		case component.JointBuilding:
			return r.Transition(component.JointBuilding, component.JointIdle)
		case component.JointBound:
			if err := r.Transition(component.JointBound, component.JointDestroying); err != nil {
				return err
			}
			return errors.Join(s.removeHandles(desc), r.Transition(component.JointDestroying, component.JointIdle))
		}
	}
	return nil
}
