package entity

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/ecs/system"
	"github.com/milk9111/articulation/native"
	"github.com/milk9111/articulation/prefabs"
)

// Systems are the coordinators a scene is built through.
type Systems struct {
	Bodies        *system.BodySystem
	Articulations *system.ArticulationSystem
	Joints        *system.JointSystem
}

type buildContext struct {
	Scene   string
	Systems Systems
	Nodes   map[string]ecs.Entity
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"transform": addTransform,
	"body":      addBody,
	"multibody": addMultibody,
	"joint":     addJoint,
}

// Every body and membership must exist before the first joint resolves
// its endpoints.
var componentBuildOrder = []string{
	"transform",
	"body",
	"multibody",
	"joint",
}

// BuildScene creates the nodes of spec in w and returns them by name. On
// error the world is left partially built and should be discarded.
func BuildScene(w *ecs.World, sys Systems, spec prefabs.SceneSpec) (map[string]ecs.Entity, error) {
	if w == nil {
		return nil, fmt.Errorf("build scene: world is nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	for _, n := range spec.Nodes {
		var unknown []string
		for name := range n.Components {
			if _, ok := componentRegistry[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("build scene: %q: node %q: no builder for components %v", spec.Name, n.Name, unknown)
		}
	}

	ctx := &buildContext{Scene: spec.Name, Systems: sys, Nodes: make(map[string]ecs.Entity, len(spec.Nodes))}
	for _, n := range spec.Nodes {
		e := w.CreateEntity()
		if err := ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: n.Name}); err != nil {
			return nil, err
		}
		if n.Parent != "" {
			if err := w.SetParent(e, ctx.Nodes[n.Parent]); err != nil {
				return nil, fmt.Errorf("build scene: %q: parent %q of %q: %w", spec.Name, n.Parent, n.Name, err)
			}
		}
		ctx.Nodes[n.Name] = e
	}

	for _, name := range componentBuildOrder {
		builder := componentRegistry[name]
		for _, n := range spec.Nodes {
			raw, ok := n.Components[name]
			if !ok {
				continue
			}
			if err := builder(w, ctx.Nodes[n.Name], raw, ctx); err != nil {
				return nil, fmt.Errorf("build scene: %q: node %q: add %q: %w", spec.Name, n.Name, name, err)
			}
		}
	}
	return ctx.Nodes, nil
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: mgl64.Vec3(spec.Position),
		Rotation: common.EulerDegrees(spec.Rotation[0], spec.Rotation[1], spec.Rotation[2]),
	})
}

type bodySpec = prefabs.BodyComponentSpec

func addBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[bodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode body spec: %w", err)
	}
	shape := native.Shape{
		Kind:        native.ParseShapeKind(spec.Shape),
		HalfExtents: mgl64.Vec3(spec.HalfExtents),
		Radius:      spec.Radius,
		Height:      spec.Height,
	}
	switch {
	case spec.Shape == "":
		shape.Kind = native.ShapeBox
		if shape.HalfExtents == (mgl64.Vec3{}) {
			shape.HalfExtents = mgl64.Vec3{0.5, 0.5, 0.5}
		}
	case shape.Kind == native.ShapeNone:
		return fmt.Errorf("unknown shape %q", spec.Shape)
	}
	if spec.Mass < 0 {
		return fmt.Errorf("negative mass %v", spec.Mass)
	}
	return ecs.Add(w, e, component.BodyComponent.Kind(), &component.Body{
		Mass:    spec.Mass,
		Shape:   shape,
		Layer:   component.CollisionLayer{Group: spec.Group, Mask: spec.Mask},
		Enabled: !spec.Disabled,
	})
}

type multibodySpec = prefabs.MultibodyComponentSpec

func addMultibody(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[multibodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode multibody spec: %w", err)
	}
	m, err := ctx.Systems.Articulations.EnsureMembership(w, e)
	if err != nil {
		return err
	}
	m.Enabled = !spec.Disabled
	if spec.Base {
		return ctx.Systems.Articulations.MakeBase(w, e)
	}
	return nil
}

type jointSpec = prefabs.JointComponentSpec

func addJoint(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[jointSpec](raw)
	if err != nil {
		return fmt.Errorf("decode joint spec: %w", err)
	}
	desc, err := jointFromSpec(spec, ctx)
	if err != nil {
		return err
	}
	return ctx.Systems.Joints.AddJoint(w, e, desc)
}

func jointFromSpec(spec jointSpec, ctx *buildContext) (component.Joint, error) {
	typ, err := component.ParseJointType(spec.Type)
	if err != nil {
		return component.Joint{}, err
	}
	desc := component.Joint{
		Type:                      typ,
		Enabled:                   !spec.Disabled,
		BreakForce:                spec.BreakForce,
		EnableCollision:           spec.EnableCollision,
		SkipMultiBodyChance:       spec.SkipMultibody,
		EnableMultiBodyComponents: spec.MultibodyComponents,
	}

	for _, ref := range []struct {
		name string
		dst  *uint64
	}{{spec.A, &desc.ComponentA}, {spec.B, &desc.ComponentB}} {
		if ref.name == "" {
			continue
		}
		n, ok := ctx.Nodes[ref.name]
		if !ok {
			return component.Joint{}, fmt.Errorf("unknown endpoint %q", ref.name)
		}
		*ref.dst = uint64(n)
	}

	if desc.Motion.Linear, err = motionModes(spec.LinearMotion); err != nil {
		return component.Joint{}, err
	}
	if desc.Motion.Angular, err = motionModes(spec.AngularMotion); err != nil {
		return component.Joint{}, err
	}
	desc.Limits = component.Limits{Linear: ranges(spec.LinearLimits), Angular: ranges(spec.AngularLimits)}
	desc.Springs = component.Springs{
		Linear:  component.AxisFlags(axes(spec.LinearSprings)),
		Angular: component.AxisFlags(axes(spec.AngularSprings)),
	}
	desc.Stiffness = axisParams(spec.LinearStiffness, spec.AngularStiffness)
	desc.Damping = axisParams(spec.LinearDamping, spec.AngularDamping)
	desc.Equilibrium = axisParams(spec.LinearEquilibrium, spec.AngularEquilibrium)

	if desc.Motor, err = motorFromSpec(spec.Motor); err != nil {
		return component.Joint{}, err
	}
	return desc, nil
}

func axes[T any](a prefabs.AxesSpec[T]) [3]T {
	return [3]T{a.X, a.Y, a.Z}
}

func motionModes(a prefabs.AxesSpec[string]) (component.AxisModes, error) {
	var out component.AxisModes
	for i, s := range axes(a) {
		m, err := component.ParseMotionMode(s)
		if err != nil {
			return out, err
		}
		out[i] = m
	}
	return out, nil
}

func ranges(a prefabs.AxesSpec[prefabs.RangeSpec]) component.AxisRanges {
	var out component.AxisRanges
	for i, r := range axes(a) {
		out[i] = component.Range{Lower: r.Lower, Upper: r.Upper}
	}
	return out
}

func axisParams(linear, angular prefabs.AxesSpec[float64]) component.AxisParams {
	return component.AxisParams{
		Linear:  component.AxisValues(axes(linear)),
		Angular: component.AxisValues(axes(angular)),
	}
}

func motorFromSpec(spec prefabs.MotorSpec) (component.Motor, error) {
	mode, err := component.ParseMotorMode(spec.Mode)
	if err != nil {
		return component.Motor{}, err
	}
	m := component.Motor{Mode: mode, MaxImpulse: spec.MaxImpulse}
	set := 0
	for _, ok := range []bool{spec.Scalar != nil, spec.Vector != nil, spec.Rotation != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return component.Motor{}, fmt.Errorf("motor sets more than one of scalar, vector and rotation")
	}
	switch {
	case spec.Scalar != nil:
		m.Target = component.ScalarTarget(*spec.Scalar)
	case spec.Vector != nil:
		if len(spec.Vector) != 3 {
			return component.Motor{}, fmt.Errorf("motor vector has %d entries", len(spec.Vector))
		}
		m.Target = component.VectorTarget(mgl64.Vec3{spec.Vector[0], spec.Vector[1], spec.Vector[2]})
	case spec.Rotation != nil:
		if len(spec.Rotation) != 3 {
			return component.Motor{}, fmt.Errorf("motor rotation has %d entries", len(spec.Rotation))
		}
		m.Target = component.RotationTarget(common.EulerDegrees(spec.Rotation[0], spec.Rotation[1], spec.Rotation[2]))
	}
	return m, nil
}
