package entity

import (
	"strings"
	"testing"

	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/ecs/system"
	"github.com/milk9111/articulation/native"
	"github.com/milk9111/articulation/prefabs"
)

func newSystems() (Systems, *native.World) {
	dw := native.NewWorld()
	bus := system.NewTopologyBus()
	bodies := system.NewBodySystem(dw)
	artic := system.NewArticulationSystem(dw, bodies, bus)
	return Systems{
		Bodies:        bodies,
		Articulations: artic,
		Joints:        system.NewJointSystem(dw, bodies, artic, bus),
	}, dw
}

func TestBuildChainScene(t *testing.T) {
	system.SetLogger(func(string, ...any) {})
	t.Cleanup(func() { system.SetLogger(nil) })

	spec, err := prefabs.LoadSceneSpec("chain.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sys, dw := newSystems()
	w := ecs.NewWorld()
	nodes, err := BuildScene(w, sys, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	setup, ok := sys.Articulations.Setup(nodes["anchor"])
	if !ok || len(setup.Links) != 6 {
		t.Fatalf("expected anchor to carry 6 links")
	}
	for i, l := range setup.Links {
		if want := nodes["link"+string(rune('0'+i))]; l != want {
			t.Fatalf("link %d: expected %v, got %v", i, want, l)
		}
	}

	lamp, ok := sys.Joints.Joint(w, nodes["lamp"])
	if !ok || lamp.IsForMultibodyLink {
		t.Fatalf("expected the lamp to be a two-body joint")
	}
	if _, ok := lamp.Runtime.Constraint().(*native.ConeTwistConstraint); !ok {
		t.Fatalf("expected a cone twist, got %T", lamp.Runtime.Constraint())
	}
	if len(dw.MultiBodies()) != 1 || len(dw.Constraints()) != 1 {
		t.Fatalf("expected one multibody and one constraint, got %d and %d", len(dw.MultiBodies()), len(dw.Constraints()))
	}
}

func TestBuildSceneErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown_component",
			yaml: "name: s\nnodes:\n  - name: a\n    components:\n      sprite: {}\n",
			want: "no builder",
		},
		{
			name: "unknown_shape",
			yaml: "name: s\nnodes:\n  - name: a\n    components:\n      body: {mass: 1, shape: torus}\n",
			want: "unknown shape",
		},
		{
			name: "unknown_endpoint",
			yaml: "name: s\nnodes:\n  - name: a\n    components:\n      body: {mass: 1}\n      joint: {type: hinge, b: ghost}\n",
			want: "unknown endpoint",
		},
		{
			name: "ambiguous_motor",
			yaml: "name: s\nnodes:\n  - name: a\n    components:\n      body: {mass: 1}\n      joint: {type: hinge, motor: {mode: velocity, scalar: 1, vector: [1, 0, 0]}}\n",
			want: "more than one",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec, err := prefabs.DecodeSceneSpec([]byte(c.yaml))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			sys, _ := newSystems()
			_, err = BuildScene(ecs.NewWorld(), sys, spec)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected an error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestJointFromSpec(t *testing.T) {
	scalar := 15.0
	spec := jointSpec{
		Type:          "hinge",
		B:             "pivot",
		AngularMotion: prefabs.AxesSpec[string]{Z: "limited"},
		AngularLimits: prefabs.AxesSpec[prefabs.RangeSpec]{Z: prefabs.RangeSpec{Lower: -10, Upper: 10}},
		Motor:         prefabs.MotorSpec{Mode: "position", Scalar: &scalar, MaxImpulse: 3},
	}
	ctx := &buildContext{Nodes: map[string]ecs.Entity{"pivot": 42}}
	desc, err := jointFromSpec(spec, ctx)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if desc.Type != component.JointHinge || !desc.Enabled || desc.ComponentB != 42 || desc.ComponentA != 0 {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if desc.Motion.Angular[component.AxisZ] != component.MotionLimited || desc.Limits.Angular[component.AxisZ].Upper != 10 {
		t.Fatalf("unexpected motion or limits")
	}
	if desc.Motor.Target.Kind != component.TargetScalar || desc.Motor.Target.Scalar != 15 {
		t.Fatalf("unexpected motor %+v", desc.Motor)
	}
}
