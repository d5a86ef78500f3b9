package system

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/joint"
	"github.com/milk9111/articulation/native"
)

type rig struct {
	w      *ecs.World
	dw     *native.World
	bus    *TopologyBus
	bodies *BodySystem
	artic  *ArticulationSystem
	joints *JointSystem
}

func newRig() *rig {
	dw := native.NewWorld()
	bus := NewTopologyBus()
	bodies := NewBodySystem(dw)
	artic := NewArticulationSystem(dw, bodies, bus)
	return &rig{
		w:      ecs.NewWorld(),
		dw:     dw,
		bus:    bus,
		bodies: bodies,
		artic:  artic,
		joints: NewJointSystem(dw, bodies, artic, bus),
	}
}

func (r *rig) node(t *testing.T, parent ecs.Entity, offset mgl64.Vec3, mass float64) ecs.Entity {
	t.Helper()
	e := r.w.CreateEntity()
	if err := ecs.Add(r.w, e, component.TransformComponent.Kind(), &component.Transform{Position: offset, Rotation: mgl64.QuatIdent()}); err != nil {
		t.Fatalf("add transform: %v", err)
	}
	body := &component.Body{
		Mass:    mass,
		Shape:   native.Shape{Kind: native.ShapeBox, HalfExtents: mgl64.Vec3{0.25, 0.5, 0.25}},
		Enabled: true,
	}
	if err := ecs.Add(r.w, e, component.BodyComponent.Kind(), body); err != nil {
		t.Fatalf("add body: %v", err)
	}
	if parent != 0 {
		if err := r.w.SetParent(e, parent); err != nil {
			t.Fatalf("set parent: %v", err)
		}
	}
	return e
}

func (r *rig) member(t *testing.T, e ecs.Entity) {
	t.Helper()
	if _, err := r.artic.EnsureMembership(r.w, e); err != nil {
		t.Fatalf("membership: %v", err)
	}
}

func (r *rig) hinge(t *testing.T, a, b ecs.Entity) {
	t.Helper()
	desc := component.Joint{
		Type:       component.JointHinge,
		Enabled:    true,
		ComponentB: uint64(b),
		Motion:     component.Motion{Angular: component.AxisModes{component.MotionLocked, component.MotionLocked, component.MotionLimited}},
		Limits:     component.Limits{Angular: component.AxisRanges{{}, {}, {Lower: -45, Upper: 45}}},
	}
	if err := r.joints.AddJoint(r.w, a, desc); err != nil {
		t.Fatalf("add joint on %v: %v", a, err)
	}
}

// spherical joins a to b with angular y and z free.
func (r *rig) spherical(t *testing.T, a, b ecs.Entity, skip bool) {
	t.Helper()
	desc := component.Joint{
		Type:                component.JointSpherical,
		Enabled:             true,
		ComponentB:          uint64(b),
		SkipMultiBodyChance: skip,
		Motion:              component.Motion{Angular: component.AxisModes{component.MotionLocked, component.MotionFree, component.MotionFree}},
	}
	if err := r.joints.AddJoint(r.w, a, desc); err != nil {
		t.Fatalf("add joint on %v: %v", a, err)
	}
}

// chain builds base B with links L0..L(n-1), each hinged to its parent.
func (r *rig) chain(t *testing.T, n int) (ecs.Entity, []ecs.Entity) {
	t.Helper()
	return r.chainWith(t, n, func(t *testing.T, _ int, a, b ecs.Entity) { r.hinge(t, a, b) })
}

// chainWith is chain with join attaching link i to its parent.
func (r *rig) chainWith(t *testing.T, n int, join func(t *testing.T, i int, a, b ecs.Entity)) (ecs.Entity, []ecs.Entity) {
	t.Helper()
	base := r.node(t, 0, mgl64.Vec3{}, 0)
	r.member(t, base)
	if err := r.artic.MakeBase(r.w, base); err != nil {
		t.Fatalf("make base: %v", err)
	}
	links := make([]ecs.Entity, n)
	parent := base
	for i := range links {
		links[i] = r.node(t, parent, mgl64.Vec3{0, -1, 0}, 1)
		r.member(t, links[i])
		parent = links[i]
	}
	parent = base
	for i, l := range links {
		join(t, i, l, parent)
		parent = l
	}
	return base, links
}

func (r *rig) desc(t *testing.T, e ecs.Entity) *component.Joint {
	t.Helper()
	d, ok := r.joints.Joint(r.w, e)
	if !ok {
		t.Fatalf("%v has no joint", e)
	}
	return d
}

func (r *rig) checkHandles(t *testing.T) {
	t.Helper()
	ecs.ForEach(r.w, component.JointComponent.Kind(), func(e ecs.Entity, d *component.Joint) {
		if d.Runtime.Constraint() != nil && d.Runtime.IsMultibody() {
			t.Fatalf("joint %v holds both handle groups", e)
		}
		if d.Runtime.State() == component.JointBound && !d.Runtime.HasHandles() && d.Type != component.JointFixed {
			t.Fatalf("joint %v is bound without handles", e)
		}
	})
}

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetLogger(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	})
	t.Cleanup(func() { SetLogger(nil) })
	return &lines
}

func TestChainLinkOrder(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 9)

	setup, ok := r.artic.Setup(base)
	if !ok {
		t.Fatalf("expected base %v to be bound", base)
	}
	if !slices.Equal(setup.Links, links) {
		t.Fatalf("expected links %v, got %v", links, setup.Links)
	}
	mb := setup.MultiBody
	if mb.NumLinks() != 9 || !r.dw.HasMultiBody(mb) {
		t.Fatalf("expected a registered multibody with 9 links, got %d", mb.NumLinks())
	}
	for i, l := range links {
		link := mb.Link(i)
		if link.Parent != i-1 {
			t.Fatalf("link %d: expected parent %d, got %d", i, i-1, link.Parent)
		}
		if link.Type != native.LinkRevolute {
			t.Fatalf("link %d: expected revolute, got %s", i, link.Type)
		}
		d := r.desc(t, l)
		if d.Runtime.State() != component.JointBound || !d.IsForMultibodyLink || !d.Runtime.IsMultibody() {
			t.Fatalf("link %d: expected a bound multibody joint, got %s", i, d.Runtime.State())
		}
		if !r.dw.HasMultiBodyConstraint(d.Runtime.MultibodyLimit()) {
			t.Fatalf("link %d: limit not registered", i)
		}
		if !r.artic.IsInMultibody(r.w, l) {
			t.Fatalf("link %d: membership not in multibody", i)
		}
	}
	if len(r.dw.Constraints()) != 0 {
		t.Fatalf("expected no two-body constraints, got %d", len(r.dw.Constraints()))
	}
	r.checkHandles(t)

	events := r.w.Events().Drain()
	if len(events) == 0 {
		t.Fatalf("expected articulation events")
	}
	if last := events[len(events)-1]; last.Type != EventArticulationBound || last.Node != base {
		t.Fatalf("expected the last event to bind %v, got %+v", base, last)
	}
}

func TestSkipMultiBodyChance(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base := r.node(t, 0, mgl64.Vec3{}, 0)
	r.member(t, base)
	if err := r.artic.MakeBase(r.w, base); err != nil {
		t.Fatalf("make base: %v", err)
	}
	link := r.node(t, base, mgl64.Vec3{0, -1, 0}, 1)
	r.member(t, link)

	desc := component.Joint{
		Type:                component.JointSpherical,
		Enabled:             true,
		ComponentB:          uint64(base),
		SkipMultiBodyChance: true,
	}
	if err := r.joints.AddJoint(r.w, link, desc); err != nil {
		t.Fatalf("add joint: %v", err)
	}

	d := r.desc(t, link)
	if d.IsForMultibodyLink {
		t.Fatalf("expected a two-body joint")
	}
	c, ok := d.Runtime.Constraint().(*native.ConeTwistConstraint)
	if !ok || !r.dw.HasConstraint(c) {
		t.Fatalf("expected a registered cone twist, got %T", d.Runtime.Constraint())
	}
	if r.artic.State(base) != ArticulationIdle {
		t.Fatalf("expected no articulation, got %s", r.artic.State(base))
	}
	r.checkHandles(t)
}

func TestSphericalChain(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chainWith(t, 9, func(t *testing.T, _ int, a, b ecs.Entity) { r.spherical(t, a, b, false) })

	setup, ok := r.artic.Setup(base)
	if !ok || !slices.Equal(setup.Links, links) {
		t.Fatalf("expected links %v", links)
	}
	for i, l := range links {
		m, _ := ecs.Get(r.w, l, component.MultibodyComponent.Kind())
		if index, ok := m.LinkIndex(); !ok || index != i || !m.IsInMultibody() {
			t.Fatalf("link %d: expected index %d in the multibody, got %d (%v)", i, i, index, ok)
		}
		if setup.MultiBody.Link(i).Type != native.LinkSpherical {
			t.Fatalf("link %d: expected a spherical link, got %s", i, setup.MultiBody.Link(i).Type)
		}
		d := r.desc(t, l)
		if !d.IsForMultibodyLink {
			t.Fatalf("link %d: expected a multibody joint", i)
		}
		if _, ok := d.Runtime.MultibodyLimit().(*native.MultiBodySphericalLimit); !ok {
			t.Fatalf("link %d: expected a spherical limit, got %T", i, d.Runtime.MultibodyLimit())
		}
	}
	r.checkHandles(t)
}

func TestSkipMultiBodyChanceMidChain(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chainWith(t, 9, func(t *testing.T, i int, a, b ecs.Entity) { r.spherical(t, a, b, i == 4) })
	skipped := links[4]

	d := r.desc(t, skipped)
	if d.IsForMultibodyLink {
		t.Fatalf("expected the opted-out joint to be two-body")
	}
	c, ok := d.Runtime.Constraint().(*native.ConeTwistConstraint)
	if !ok || !r.dw.HasConstraint(c) {
		t.Fatalf("expected a registered cone twist, got %T", d.Runtime.Constraint())
	}
	if r.artic.IsInMultibody(r.w, skipped) {
		t.Fatalf("expected %v to stay out of the multibody", skipped)
	}

	want := slices.Concat(links[:4], links[5:])
	setup, ok := r.artic.Setup(base)
	if !ok || !slices.Equal(setup.Links, want) {
		t.Fatalf("expected links %v", want)
	}
	if parent := setup.MultiBody.Link(4).Parent; parent != 3 {
		t.Fatalf("expected the link after the gap to hang off index 3, got %d", parent)
	}
	for _, l := range want {
		if !r.desc(t, l).IsForMultibodyLink {
			t.Fatalf("%v: expected a multibody joint", l)
		}
	}
	r.checkHandles(t)
}

func TestRebuildKeepsLinkOrder(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 4)

	if err := r.artic.DestroyMultiBody(r.w, base); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	for _, l := range links {
		d := r.desc(t, l)
		if d.Runtime.State() != component.JointIdle || d.Runtime.HasHandles() {
			t.Fatalf("%v: expected idle joint without handles", l)
		}
	}
	if len(r.dw.MultiBodies()) != 0 || len(r.dw.MultiBodyConstraints()) != 0 {
		t.Fatalf("expected an empty dynamics world")
	}

	if err := r.artic.Rebuild(r.w, base); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	setup, ok := r.artic.Setup(base)
	if !ok || !slices.Equal(setup.Links, links) {
		t.Fatalf("expected links %v after rebuild", links)
	}
	r.checkHandles(t)
}

func TestDisableLinkMembership(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 9)

	if err := r.artic.SetMembershipEnabled(r.w, links[4], false); err != nil {
		t.Fatalf("disable membership: %v", err)
	}

	setup, ok := r.artic.Setup(base)
	if !ok {
		t.Fatalf("expected a bound articulation")
	}
	want := append(slices.Clone(links[:4]), links[5:]...)
	if !slices.Equal(setup.Links, want) {
		t.Fatalf("expected links %v, got %v", want, setup.Links)
	}
	for i, l := range want {
		if got, _ := setup.IndexOf(l); got != i {
			t.Fatalf("%v: expected index %d, got %d", l, i, got)
		}
	}
	if p := setup.MultiBody.Link(4).Parent; p != 3 {
		t.Fatalf("expected the link after the gap to hang from index 3, got %d", p)
	}

	d := r.desc(t, links[4])
	if d.IsForMultibodyLink || d.Runtime.State() != component.JointBound {
		t.Fatalf("expected the disabled link's joint to fall back to two-body")
	}
	if _, ok := d.Runtime.Constraint().(*native.HingeConstraint); !ok {
		t.Fatalf("expected a hinge constraint, got %T", d.Runtime.Constraint())
	}
	r.checkHandles(t)

	if err := r.artic.SetMembershipEnabled(r.w, links[4], true); err != nil {
		t.Fatalf("enable membership: %v", err)
	}
	setup, _ = r.artic.Setup(base)
	if !slices.Equal(setup.Links, links) {
		t.Fatalf("expected all links back, got %v", setup.Links)
	}
	r.checkHandles(t)
}

func TestDisableBaseMembership(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 3)

	if err := r.artic.SetMembershipEnabled(r.w, base, false); err != nil {
		t.Fatalf("disable base: %v", err)
	}
	if r.artic.State(base) != ArticulationIdle {
		t.Fatalf("expected the articulation to be gone, got %s", r.artic.State(base))
	}
	for _, l := range links {
		d := r.desc(t, l)
		if d.IsForMultibodyLink || d.Runtime.Constraint() == nil {
			t.Fatalf("%v: expected a two-body joint", l)
		}
	}
	if len(r.dw.Constraints()) != len(links) {
		t.Fatalf("expected %d constraints, got %d", len(links), len(r.dw.Constraints()))
	}
	r.checkHandles(t)
}

func TestDisableEnableIdempotent(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 5)
	j := links[2]

	for i := 0; i < 2; i++ {
		if err := r.joints.Disable(r.w, j); err != nil {
			t.Fatalf("disable %d: %v", i, err)
		}
	}
	setup, _ := r.artic.Setup(base)
	if slices.Contains(setup.Links, j) || len(setup.Links) != 4 {
		t.Fatalf("expected 4 links without %v, got %v", j, setup.Links)
	}
	if r.desc(t, j).Runtime.HasHandles() {
		t.Fatalf("expected the disabled joint to hold no handles")
	}

	for i := 0; i < 2; i++ {
		if err := r.joints.Enable(r.w, j); err != nil {
			t.Fatalf("enable %d: %v", i, err)
		}
	}
	setup, _ = r.artic.Setup(base)
	if !slices.Equal(setup.Links, links) {
		t.Fatalf("expected links %v, got %v", links, setup.Links)
	}
	if d := r.desc(t, j); d.Runtime.State() != component.JointBound || !d.IsForMultibodyLink {
		t.Fatalf("expected %v to be a bound link again", j)
	}
	r.checkHandles(t)
}

func TestDisableEnableKeepsParameters(t *testing.T) {
	t.Run("link", func(t *testing.T) {
		r := newRig()
		captureLogs(t)
		_, links := r.chain(t, 3)
		j := links[1]
		spin := component.Motor{Mode: component.MotorTargetVelocity, Target: component.ScalarTarget(30), MaxImpulse: 4}
		if err := r.joints.SetMotor(r.w, j, spin); err != nil {
			t.Fatalf("set motor: %v", err)
		}
		limitOf := func() native.MultiBodyJointLimit {
			l, ok := r.desc(t, j).Runtime.MultibodyLimit().(*native.MultiBodyJointLimit)
			if !ok {
				t.Fatalf("expected a joint limit")
			}
			return *l
		}
		motorOf := func() native.MultiBodyJointMotor {
			m, ok := r.desc(t, j).Runtime.MultibodyMotor().(*native.MultiBodyJointMotor)
			if !ok {
				t.Fatalf("expected a joint motor")
			}
			return *m
		}
		lim, mot := limitOf(), motorOf()

		if err := r.joints.Disable(r.w, j); err != nil {
			t.Fatalf("disable: %v", err)
		}
		if err := r.joints.Enable(r.w, j); err != nil {
			t.Fatalf("enable: %v", err)
		}
		gotLim, gotMot := limitOf(), motorOf()
		if gotLim.Lower != lim.Lower || gotLim.Upper != lim.Upper || gotLim.MaxAppliedImpulse != lim.MaxAppliedImpulse {
			t.Fatalf("limit changed: got [%v, %v], want [%v, %v]", gotLim.Lower, gotLim.Upper, lim.Lower, lim.Upper)
		}
		if gotMot.Drive != mot.Drive || gotMot.DesiredVelocity != mot.DesiredVelocity || gotMot.TargetPosition != mot.TargetPosition || gotMot.MaxImpulse != mot.MaxImpulse {
			t.Fatalf("motor changed: got %+v, want %+v", gotMot, mot)
		}
		r.checkHandles(t)
	})

	t.Run("two_body", func(t *testing.T) {
		r := newRig()
		captureLogs(t)
		_, links := r.chainWith(t, 2, func(t *testing.T, _ int, a, b ecs.Entity) { r.spherical(t, a, b, true) })
		j := links[1]
		lim := component.Limits{Angular: component.AxisRanges{{}, {Lower: -20, Upper: 20}, {}}}
		motion := component.Motion{Angular: component.AxisModes{component.MotionLocked, component.MotionLimited, component.MotionFree}}
		if err := r.joints.SetMotion(r.w, j, motion); err != nil {
			t.Fatalf("set motion: %v", err)
		}
		if err := r.joints.SetLimits(r.w, j, lim); err != nil {
			t.Fatalf("set limits: %v", err)
		}
		swing := component.Motor{Mode: component.MotorTargetVelocity, Target: component.VectorTarget(mgl64.Vec3{0, 1, 0}), MaxImpulse: 2}
		if err := r.joints.SetMotor(r.w, j, swing); err != nil {
			t.Fatalf("set motor: %v", err)
		}
		coneOf := func() native.ConeTwistConstraint {
			c, ok := r.desc(t, j).Runtime.Constraint().(*native.ConeTwistConstraint)
			if !ok {
				t.Fatalf("expected a cone twist")
			}
			return *c
		}
		before := coneOf()

		if err := r.joints.Disable(r.w, j); err != nil {
			t.Fatalf("disable: %v", err)
		}
		if err := r.joints.Enable(r.w, j); err != nil {
			t.Fatalf("enable: %v", err)
		}
		after := coneOf()
		if after.TwistSpan != before.TwistSpan || after.SwingSpan1 != before.SwingSpan1 || after.SwingSpan2 != before.SwingSpan2 {
			t.Fatalf("spans changed: got %v/%v/%v, want %v/%v/%v",
				after.TwistSpan, after.SwingSpan1, after.SwingSpan2, before.TwistSpan, before.SwingSpan1, before.SwingSpan2)
		}
		if after.MotorEnabled != before.MotorEnabled || after.MotorTargetVelocity != before.MotorTargetVelocity || after.MaxMotorImpulse != before.MaxMotorImpulse {
			t.Fatalf("motor changed: got %+v, want %+v", after, before)
		}
		if !before.MotorEnabled {
			t.Fatalf("expected the motor to be on")
		}
		r.checkHandles(t)
	})
}

type reentrantParticipant struct {
	artic *ArticulationSystem
	base  ecs.Entity
	err   error
}

func (p *reentrantParticipant) OnTopology(w *ecs.World, ev TopologyEvent, _ ecs.Entity, _ *TopologySetup) error {
	if ev != AfterSetup {
		return nil
	}
	p.err = p.artic.CreateMultiBody(w, p.base)
	return p.err
}

func TestRebuildReentrancy(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 3)

	spy := &reentrantParticipant{artic: r.artic, base: base}
	r.bus.Subscribe(links[0], StageJoint, spy)
	err := r.artic.Rebuild(r.w, base)
	if !errors.Is(err, component.ErrReentrancyViolation) {
		t.Fatalf("expected a reentrancy violation, got %v", err)
	}
	if r.artic.State(base) != ArticulationIdle {
		t.Fatalf("expected rollback to idle, got %s", r.artic.State(base))
	}
	if len(r.dw.MultiBodies()) != 0 {
		t.Fatalf("expected the failed multibody to be removed")
	}
	r.checkHandles(t)

	r.bus.Unsubscribe(links[0], spy)
	if err := r.artic.Rebuild(r.w, base); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for _, l := range links {
		if r.desc(t, l).Runtime.State() != component.JointBound {
			t.Fatalf("%v: expected bound after recovery", l)
		}
	}
}

func TestStructuralViolation(t *testing.T) {
	t.Run("outsider_endpoint_is_two_body", func(t *testing.T) {
		r := newRig()
		captureLogs(t)
		base := r.node(t, 0, mgl64.Vec3{}, 0)
		r.member(t, base)
		if err := r.artic.MakeBase(r.w, base); err != nil {
			t.Fatalf("make base: %v", err)
		}
		link := r.node(t, base, mgl64.Vec3{0, -1, 0}, 1)
		r.member(t, link)
		outsider := r.node(t, 0, mgl64.Vec3{3, 0, 0}, 1)

		desc := component.Joint{Type: component.JointSpherical, Enabled: true, ComponentB: uint64(outsider)}
		if err := r.joints.AddJoint(r.w, link, desc); err != nil {
			t.Fatalf("add joint: %v", err)
		}
		d := r.desc(t, link)
		if d.IsForMultibodyLink || d.Runtime.State() != component.JointBound {
			t.Fatalf("expected a bound two-body joint, got link=%v state=%s", d.IsForMultibodyLink, d.Runtime.State())
		}
		if c := d.Runtime.Constraint(); c == nil || !r.dw.HasConstraint(c) {
			t.Fatalf("expected a registered two-body constraint")
		}
		r.checkHandles(t)
	})

	t.Run("endpoint_base_moves", func(t *testing.T) {
		r := newRig()
		captureLogs(t)
		base, links := r.chain(t, 2)
		side := r.node(t, base, mgl64.Vec3{2, 0, 0}, 1)
		r.member(t, side)
		if err := r.joints.SetEndpoint(r.w, links[1], EndpointB, side); err != nil {
			t.Fatalf("set endpoint: %v", err)
		}
		if !r.desc(t, links[1]).IsForMultibodyLink {
			t.Fatalf("B shares the base, the joint should stay a link")
		}

		if err := r.artic.MakeBase(r.w, side); err != nil {
			t.Fatalf("make base: %v", err)
		}
		d := r.desc(t, links[1])
		if d.IsForMultibodyLink || d.Runtime.Constraint() == nil {
			t.Fatalf("expected a two-body fallback once B has its own base")
		}
		setup, ok := r.artic.Setup(base)
		if !ok || !slices.Equal(setup.Links, links[:1]) {
			t.Fatalf("expected the articulation to keep only %v", links[:1])
		}
		r.checkHandles(t)
	})

	t.Run("link_setup_rejects_foreign_b", func(t *testing.T) {
		r := newRig()
		captureLogs(t)
		base, links := r.chain(t, 2)
		outsider := r.node(t, 0, mgl64.Vec3{3, 0, 0}, 1)
		setup, ok := r.artic.Setup(base)
		if !ok {
			t.Fatalf("expected base %v to be bound", base)
		}
		index, _ := setup.IndexOf(links[1])
		desc := *r.desc(t, links[1])
		desc.EntityB = uint64(outsider)
		if _, err := r.joints.linkParams(r.w, links[1], &desc, setup, index); !errors.Is(err, joint.ErrStructuralViolation) {
			t.Fatalf("expected a structural violation, got %v", err)
		}
	})
}

func TestBuildPreconditions(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(t *testing.T, r *rig, base ecs.Entity)
		want    string
	}{
		{
			name: "base_without_body",
			prepare: func(t *testing.T, r *rig, base ecs.Entity) {
				b, _ := ecs.Get(r.w, base, component.BodyComponent.Kind())
				b.Enabled = false
			},
			want: "no enabled body",
		},
		{
			name:    "no_links",
			prepare: func(*testing.T, *rig, ecs.Entity) {},
			want:    "no links",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := newRig()
			logs := captureLogs(t)
			base := r.node(t, 0, mgl64.Vec3{}, 0)
			r.member(t, base)
			c.prepare(t, r, base)
			if err := r.artic.MakeBase(r.w, base); err != nil {
				t.Fatalf("expected a silent no-op, got %v", err)
			}
			if r.artic.State(base) != ArticulationIdle {
				t.Fatalf("expected idle, got %s", r.artic.State(base))
			}
			if !slices.ContainsFunc(*logs, func(s string) bool { return strings.Contains(s, c.want) }) {
				t.Fatalf("expected a log containing %q, got %v", c.want, *logs)
			}
		})
	}
}

func TestTwoBodyLifecycle(t *testing.T) {
	r := newRig()
	captureLogs(t)
	a := r.node(t, 0, mgl64.Vec3{}, 1)
	b := r.node(t, 0, mgl64.Vec3{0, 2, 0}, 1)

	desc := component.Joint{Type: component.JointHinge, Enabled: true, ComponentB: uint64(b)}
	if err := r.joints.AddJoint(r.w, a, desc); err != nil {
		t.Fatalf("add joint: %v", err)
	}
	c := r.desc(t, a).Runtime.Constraint()
	if c == nil || !r.dw.HasConstraint(c) {
		t.Fatalf("expected a registered constraint")
	}
	if !r.dw.CollisionsDisabled(c) {
		t.Fatalf("expected collisions between the bodies to be disabled")
	}

	if err := r.joints.SetEndpoint(r.w, a, EndpointB, b); err != nil {
		t.Fatalf("set same endpoint: %v", err)
	}
	if r.desc(t, a).Runtime.Constraint() != c {
		t.Fatalf("expected an unchanged endpoint to keep the constraint")
	}

	if err := r.joints.SetEnableCollision(r.w, a, true); err != nil {
		t.Fatalf("enable collision: %v", err)
	}
	next := r.desc(t, a).Runtime.Constraint()
	if next == c || r.dw.HasConstraint(c) || r.dw.CollisionsDisabled(next) {
		t.Fatalf("expected the constraint to be replaced with collisions on")
	}

	if err := r.joints.Remove(r.w, a); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(r.dw.Constraints()) != 0 {
		t.Fatalf("expected no constraints after removal")
	}
	if _, ok := r.joints.Joint(r.w, a); ok {
		t.Fatalf("expected the descriptor to be gone")
	}
}

func TestPendingJointBindsLater(t *testing.T) {
	r := newRig()
	logs := captureLogs(t)
	a := r.node(t, 0, mgl64.Vec3{}, 1)
	b := r.node(t, 0, mgl64.Vec3{0, 2, 0}, 1)
	body, _ := ecs.Get(r.w, b, component.BodyComponent.Kind())
	body.Enabled = false

	desc := component.Joint{Type: component.JointFixed, Enabled: true, ComponentB: uint64(b)}
	if err := r.joints.AddJoint(r.w, a, desc); err != nil {
		t.Fatalf("add joint: %v", err)
	}
	if r.desc(t, a).Runtime.State() != component.JointIdle || len(*logs) == 0 {
		t.Fatalf("expected a logged, pending joint")
	}

	body.Enabled = true
	r.joints.Update(r.w)
	if _, ok := r.desc(t, a).Runtime.Constraint().(*native.FixedConstraint); !ok {
		t.Fatalf("expected a fixed constraint after retry")
	}
}

func TestLinkMotor(t *testing.T) {
	r := newRig()
	captureLogs(t)
	_, links := r.chain(t, 2)
	l := links[1]

	motor := component.Motor{Mode: component.MotorTargetVelocity, Target: component.ScalarTarget(90), MaxImpulse: 5}
	if err := r.joints.SetMotor(r.w, l, motor); err != nil {
		t.Fatalf("set motor: %v", err)
	}
	d := r.desc(t, l)
	m, ok := d.Runtime.MultibodyMotor().(*native.MultiBodyJointMotor)
	if !ok || !r.dw.HasMultiBodyConstraint(m) {
		t.Fatalf("expected a registered joint motor, got %T", d.Runtime.MultibodyMotor())
	}
	if d.Runtime.State() != component.JointBound {
		t.Fatalf("expected bound, got %s", d.Runtime.State())
	}

	if err := r.joints.SetType(r.w, l, component.JointSlider); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if r.desc(t, l).Runtime.MultibodyMotor() != nil {
		t.Fatalf("expected the hinge motor to be dropped by the slider link")
	}
	push := component.Motor{Mode: component.MotorTargetVelocity, Target: component.ScalarTarget(1), MaxImpulse: 7}
	err := r.joints.SetMotor(r.w, l, push)
	if !errors.Is(err, joint.ErrUnsupportedOperation) {
		t.Fatalf("expected unsupported for a slider link motor, got %v", err)
	}
	if r.desc(t, l).Motor == push {
		t.Fatalf("expected a rejected motor to leave the descriptor alone")
	}
	r.checkHandles(t)
}

func TestIdleSliderMotor(t *testing.T) {
	r := newRig()
	captureLogs(t)
	_, links := r.chain(t, 2)
	l := links[1]
	if err := r.joints.Disable(r.w, l); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := r.joints.SetType(r.w, l, component.JointSlider); err != nil {
		t.Fatalf("set type: %v", err)
	}

	push := component.Motor{Mode: component.MotorTargetVelocity, Target: component.ScalarTarget(1), MaxImpulse: 7}
	if err := r.joints.SetMotor(r.w, l, push); !errors.Is(err, joint.ErrUnsupportedOperation) {
		t.Fatalf("expected unsupported for a slider that will bind as a link, got %v", err)
	}
	if r.desc(t, l).Motor == push {
		t.Fatalf("expected a rejected motor to leave the descriptor alone")
	}

	if err := r.joints.SetSkipMultiBodyChance(r.w, l, true); err != nil {
		t.Fatalf("skip multibody: %v", err)
	}
	if err := r.joints.SetMotor(r.w, l, push); err != nil {
		t.Fatalf("a two-body slider accepts motors: %v", err)
	}
	if err := r.joints.Enable(r.w, l); err != nil {
		t.Fatalf("enable: %v", err)
	}
	c, ok := r.desc(t, l).Runtime.Constraint().(*native.SliderConstraint)
	if !ok || !c.PoweredLinearMotor || c.TargetLinearMotorVelocity != 1 {
		t.Fatalf("expected a powered two-body slider, got %+v", r.desc(t, l).Runtime.Constraint())
	}
	r.checkHandles(t)
}

func TestFixedRejectsSoftParameters(t *testing.T) {
	r := newRig()
	captureLogs(t)
	anchor := r.node(t, 0, mgl64.Vec3{}, 0)
	weld := r.node(t, anchor, mgl64.Vec3{1, 0, 0}, 1)
	if err := r.joints.AddJoint(r.w, weld, component.Joint{Type: component.JointFixed, Enabled: true, ComponentB: uint64(anchor)}); err != nil {
		t.Fatalf("add joint: %v", err)
	}

	soft := component.AxisParams{Angular: component.AxisValues{1, 1, 1}}
	cases := []struct {
		name string
		set  func() error
	}{
		{"limits", func() error {
			return r.joints.SetLimits(r.w, weld, component.Limits{Angular: component.AxisRanges{{Lower: -10, Upper: 10}}})
		}},
		{"springs", func() error {
			return r.joints.SetSprings(r.w, weld, component.Springs{Angular: component.AxisFlags{true}})
		}},
		{"stiffness", func() error { return r.joints.SetStiffness(r.w, weld, soft) }},
		{"damping", func() error { return r.joints.SetDamping(r.w, weld, soft) }},
		{"equilibrium", func() error { return r.joints.SetEquilibrium(r.w, weld, soft) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.set(); !errors.Is(err, joint.ErrUnsupportedOperation) {
				t.Fatalf("expected unsupported, got %v", err)
			}
		})
	}

	d := r.desc(t, weld)
	if d.Limits != (component.Limits{}) || d.Springs != (component.Springs{}) || d.Stiffness != (component.AxisParams{}) {
		t.Fatalf("rejected parameters should not reach the descriptor")
	}
	if err := r.joints.SetBreakForce(r.w, weld, 50); err != nil {
		t.Fatalf("break force applies to fixed joints: %v", err)
	}
	if d.Runtime.State() != component.JointBound || d.Runtime.Constraint() == nil {
		t.Fatalf("expected the weld to stay bound")
	}
}

func TestParameterUpdateInPlace(t *testing.T) {
	r := newRig()
	captureLogs(t)
	_, links := r.chain(t, 1)
	l := links[0]
	limit := r.desc(t, l).Runtime.MultibodyLimit()

	lim := component.Limits{Angular: component.AxisRanges{{}, {}, {Lower: -10, Upper: 20}}}
	if err := r.joints.SetLimits(r.w, l, lim); err != nil {
		t.Fatalf("set limits: %v", err)
	}
	got, ok := r.desc(t, l).Runtime.MultibodyLimit().(*native.MultiBodyJointLimit)
	if !ok || got != limit {
		t.Fatalf("expected the limit to be updated in place")
	}
	if got.Upper <= got.Lower || got.Upper > 0.35 {
		t.Fatalf("expected radian limits near [-0.17, 0.35], got [%v, %v]", got.Lower, got.Upper)
	}
}

func TestReport(t *testing.T) {
	r := newRig()
	captureLogs(t)
	base, links := r.chain(t, 2)
	nameAll(t, r, map[string]ecs.Entity{"base": base, "l0": links[0], "l1": links[1]})

	rep := r.joints.Report(r.w)
	if len(rep.Articulations) != 1 || len(rep.Articulations[0].Links) != 2 {
		t.Fatalf("expected one articulation with two links, got %+v", rep.Articulations)
	}
	if l := rep.Articulations[0].Links[1]; l.Node != "l1" || l.Parent != 0 || l.Type != "revolute" {
		t.Fatalf("unexpected link report %+v", l)
	}
	if len(rep.Joints) != 2 || rep.Joints[0].Node != "l0" || rep.Joints[0].Backend != "multibody" {
		t.Fatalf("unexpected joint reports %+v", rep.Joints)
	}
	if !strings.Contains(rep.String(), "joint l1 hinge multibody/bound a=l1 b=l0 handles=[joint-limit]") {
		t.Fatalf("unexpected report text:\n%s", rep)
	}
}
