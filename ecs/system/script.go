package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
)

// ScriptLoader returns the source of a named script.
type ScriptLoader func(name string) ([]byte, error)

// ScriptSystem runs tengo scripts against the joint and membership
// property surface. A script defines `run := func(engine) { ... }`; joint
// operations return an error object instead of aborting the script.
type ScriptSystem struct {
	joints *JointSystem
	artic  *ArticulationSystem
	load   ScriptLoader
}

const scriptDispatch = `
run(__engine)
`

func NewScriptSystem(joints *JointSystem, artic *ArticulationSystem, load ScriptLoader) *ScriptSystem {
	return &ScriptSystem{joints: joints, artic: artic, load: load}
}

// Run loads the named script and executes it once against w.
func (s *ScriptSystem) Run(w *ecs.World, name string) error {
	if s == nil || s.load == nil {
		return fmt.Errorf("script: no loader")
	}
	src, err := s.load(name)
	if err != nil {
		return fmt.Errorf("script: load %s: %w", name, err)
	}
	return s.RunSource(w, name, src)
}

// RunSource compiles src and executes it once against w.
func (s *ScriptSystem) RunSource(w *ecs.World, name string, src []byte) error {
	script := tengo.NewScript([]byte(string(src) + "\n" + scriptDispatch))
	_ = script.Add("__engine", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("script: compile %s: %w", name, err)
	}
	if err := compiled.Set("__engine", s.engine(w)); err != nil {
		return err
	}
	if err := compiled.Run(); err != nil {
		return fmt.Errorf("script: run %s: %w", name, err)
	}
	return nil
}

func (s *ScriptSystem) engine(w *ecs.World) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	// node(args, i) resolves a name or an entity id argument.
	node := func(args []tengo.Object, i int) (ecs.Entity, bool) {
		if len(args) <= i {
			return 0, false
		}
		if v, ok := args[i].(*tengo.Int); ok {
			return ecs.Entity(v.Value), w.IsAlive(ecs.Entity(v.Value))
		}
		return FindByName(w, strings.TrimSpace(objectAsString(args[i])))
	}

	result := func(err error) (tengo.Object, error) {
		if err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		return tengo.TrueValue, nil
	}

	// jointOp wraps an operation on the joint named by the first argument.
	jointOp := func(name string, minArgs int, fn func(e ecs.Entity, args []tengo.Object) error) {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < minArgs {
				return nil, tengo.ErrWrongNumArguments
			}
			e, ok := node(args, 0)
			if !ok {
				return result(fmt.Errorf("script: unknown node %s", objectAsString(args[0])))
			}
			return result(fn(e, args))
		}}
	}

	values["find"] = &tengo.UserFunction{Name: "find", Value: func(args ...tengo.Object) (tengo.Object, error) {
		e, ok := node(args, 0)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Int{Value: int64(e)}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		logf("script: %s", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	jointOp("enable_joint", 1, func(e ecs.Entity, _ []tengo.Object) error { return s.joints.Enable(w, e) })
	jointOp("disable_joint", 1, func(e ecs.Entity, _ []tengo.Object) error { return s.joints.Disable(w, e) })
	jointOp("remove_joint", 1, func(e ecs.Entity, _ []tengo.Object) error { return s.joints.Remove(w, e) })

	jointOp("set_type", 2, func(e ecs.Entity, args []tengo.Object) error {
		t, err := component.ParseJointType(objectAsString(args[1]))
		if err != nil {
			return err
		}
		return s.joints.SetType(w, e, t)
	})

	jointOp("set_endpoint", 3, func(e ecs.Entity, args []tengo.Object) error {
		var which Endpoint
		switch strings.ToLower(objectAsString(args[1])) {
		case "a":
			which = EndpointA
		case "b":
			which = EndpointB
		default:
			return fmt.Errorf("script: endpoint must be a or b, got %s", objectAsString(args[1]))
		}
		var target ecs.Entity
		if _, undefined := args[2].(*tengo.Undefined); !undefined {
			n, ok := node(args, 2)
			if !ok {
				return fmt.Errorf("script: unknown node %s", objectAsString(args[2]))
			}
			target = n
		}
		return s.joints.SetEndpoint(w, e, which, target)
	})

	jointOp("set_motion", 4, func(e ecs.Entity, args []tengo.Object) error {
		d, err := s.joints.mutable(w, e)
		if err != nil {
			return err
		}
		axis, err := component.ParseAxis(objectAsString(args[2]))
		if err != nil {
			return err
		}
		mode, err := component.ParseMotionMode(objectAsString(args[3]))
		if err != nil {
			return err
		}
		m := d.Motion
		modes, err := pickLinearOrAngular(objectAsString(args[1]), &m.Linear, &m.Angular)
		if err != nil {
			return err
		}
		modes[axis] = mode
		return s.joints.SetMotion(w, e, m)
	})

	jointOp("set_limits", 5, func(e ecs.Entity, args []tengo.Object) error {
		d, err := s.joints.mutable(w, e)
		if err != nil {
			return err
		}
		axis, err := component.ParseAxis(objectAsString(args[2]))
		if err != nil {
			return err
		}
		l := d.Limits
		ranges, err := pickLinearOrAngular(objectAsString(args[1]), &l.Linear, &l.Angular)
		if err != nil {
			return err
		}
		lower, okL := tengo.ToFloat64(args[3])
		upper, okU := tengo.ToFloat64(args[4])
		if !okL || !okU {
			return fmt.Errorf("script: limits must be numbers")
		}
		ranges[axis] = component.Range{Lower: lower, Upper: upper}
		return s.joints.SetLimits(w, e, l)
	})

	jointOp("set_motor", 3, func(e ecs.Entity, args []tengo.Object) error {
		mode, err := component.ParseMotorMode(objectAsString(args[1]))
		if err != nil {
			return err
		}
		target, err := motorTarget(args[2])
		if err != nil {
			return err
		}
		m := component.Motor{Mode: mode, Target: target}
		if len(args) > 3 {
			m.MaxImpulse, _ = tengo.ToFloat64(args[3])
		}
		return s.joints.SetMotor(w, e, m)
	})

	jointOp("set_break_force", 2, func(e ecs.Entity, args []tengo.Object) error {
		f, ok := tengo.ToFloat64(args[1])
		if !ok {
			return fmt.Errorf("script: break force must be a number")
		}
		return s.joints.SetBreakForce(w, e, f)
	})

	flag := func(name string, set func(ecs.Entity, bool) error) {
		jointOp(name, 2, func(e ecs.Entity, args []tengo.Object) error {
			return set(e, !args[1].IsFalsy())
		})
	}
	flag("set_enable_collision", func(e ecs.Entity, v bool) error { return s.joints.SetEnableCollision(w, e, v) })
	flag("set_skip_multibody", func(e ecs.Entity, v bool) error { return s.joints.SetSkipMultiBodyChance(w, e, v) })
	flag("set_multibody_components", func(e ecs.Entity, v bool) error { return s.joints.SetEnableMultiBodyComponents(w, e, v) })
	flag("set_membership", func(e ecs.Entity, v bool) error { return s.artic.SetMembershipEnabled(w, e, v) })

	jointOp("make_base", 1, func(e ecs.Entity, _ []tengo.Object) error { return s.artic.MakeBase(w, e) })
	jointOp("rebuild", 1, func(e ecs.Entity, _ []tengo.Object) error { return s.artic.Rebuild(w, e) })

	values["is_link"] = &tengo.UserFunction{Name: "is_link", Value: func(args ...tengo.Object) (tengo.Object, error) {
		e, ok := node(args, 0)
		if ok && s.joints.IsForMultibodyLink(w, e) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["joint_state"] = &tengo.UserFunction{Name: "joint_state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		e, ok := node(args, 0)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		d, ok := s.joints.Joint(w, e)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.String{Value: d.Runtime.State().String()}, nil
	}}

	values["links"] = &tengo.UserFunction{Name: "links", Value: func(args ...tengo.Object) (tengo.Object, error) {
		out := &tengo.Array{}
		base, ok := node(args, 0)
		if !ok {
			return out, nil
		}
		setup, ok := s.artic.Setup(base)
		if !ok {
			return out, nil
		}
		for _, l := range setup.Links {
			out.Value = append(out.Value, &tengo.String{Value: NodeName(w, l)})
		}
		return out, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func pickLinearOrAngular[T any](space string, linear, angular *T) (*T, error) {
	switch strings.ToLower(strings.TrimSpace(space)) {
	case "linear":
		return linear, nil
	case "angular":
		return angular, nil
	}
	return nil, fmt.Errorf("script: space must be linear or angular, got %q", space)
}

// motorTarget reads a number, a 3-array, or a 4-array quaternion (w, x, y, z).
func motorTarget(obj tengo.Object) (component.MotorTarget, error) {
	if f, ok := tengo.ToFloat64(obj); ok {
		return component.ScalarTarget(f), nil
	}
	arr, ok := obj.(*tengo.Array)
	if !ok {
		return component.MotorTarget{}, errors.New("script: motor target must be a number or an array")
	}
	vals := make([]float64, len(arr.Value))
	for i, v := range arr.Value {
		f, ok := tengo.ToFloat64(v)
		if !ok {
			return component.MotorTarget{}, errors.New("script: motor target entries must be numbers")
		}
		vals[i] = f
	}
	switch len(vals) {
	case 3:
		return component.VectorTarget(mgl64.Vec3{vals[0], vals[1], vals[2]}), nil
	case 4:
		return component.RotationTarget(mgl64.Quat{W: vals[0], V: mgl64.Vec3{vals[1], vals[2], vals[3]}}.Normalize()), nil
	}
	return component.MotorTarget{}, fmt.Errorf("script: motor target has %d entries", len(vals))
}

// FindByName returns the first live entity carrying the given Name.
func FindByName(w *ecs.World, name string) (ecs.Entity, bool) {
	if name == "" {
		return 0, false
	}
	for _, e := range w.Query(component.NameComponent.Kind().ID()) {
		if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok && n.Value == name {
			return e, true
		}
	}
	return 0, false
}

// NodeName returns e's Name, or its id when it has none.
func NodeName(w *ecs.World, e ecs.Entity) string {
	if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok && n.Value != "" {
		return n.Value
	}
	return "#" + e.String()
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
