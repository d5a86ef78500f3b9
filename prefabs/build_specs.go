package prefabs

import "gopkg.in/yaml.v3"

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// TransformComponentSpec is a local pose. Rotation is XYZ Euler degrees.
type TransformComponentSpec struct {
	Position [3]float64 `yaml:"position"`
	Rotation [3]float64 `yaml:"rotation"`
}

type BodyComponentSpec struct {
	Mass        float64    `yaml:"mass"`
	Shape       string     `yaml:"shape"`
	HalfExtents [3]float64 `yaml:"half_extents"`
	Radius      float64    `yaml:"radius"`
	Height      float64    `yaml:"height"`
	Group       uint32     `yaml:"group"`
	Mask        uint32     `yaml:"mask"`
	Disabled    bool       `yaml:"disabled"`
}

type MultibodyComponentSpec struct {
	Disabled bool `yaml:"disabled"`
	Base     bool `yaml:"base"`
}

// AxesSpec names a value per axis, e.g. {x: locked, z: limited}.
type AxesSpec[T any] struct {
	X T `yaml:"x"`
	Y T `yaml:"y"`
	Z T `yaml:"z"`
}

type RangeSpec struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type MotorSpec struct {
	Mode       string    `yaml:"mode"`
	Scalar     *float64  `yaml:"scalar"`
	Vector     []float64 `yaml:"vector"`
	Rotation   []float64 `yaml:"rotation"` // XYZ Euler degrees
	MaxImpulse float64   `yaml:"max_impulse"`
}

type JointComponentSpec struct {
	Type     string `yaml:"type"`
	Disabled bool   `yaml:"disabled"`
	// A and B name the endpoint nodes. An empty A is the joint's own node.
	A string `yaml:"a"`
	B string `yaml:"b"`

	LinearMotion  AxesSpec[string] `yaml:"linear_motion"`
	AngularMotion AxesSpec[string] `yaml:"angular_motion"`

	LinearLimits  AxesSpec[RangeSpec] `yaml:"linear_limits"`
	AngularLimits AxesSpec[RangeSpec] `yaml:"angular_limits"`

	LinearSprings  AxesSpec[bool] `yaml:"linear_springs"`
	AngularSprings AxesSpec[bool] `yaml:"angular_springs"`

	LinearStiffness    AxesSpec[float64] `yaml:"linear_stiffness"`
	AngularStiffness   AxesSpec[float64] `yaml:"angular_stiffness"`
	LinearDamping      AxesSpec[float64] `yaml:"linear_damping"`
	AngularDamping     AxesSpec[float64] `yaml:"angular_damping"`
	LinearEquilibrium  AxesSpec[float64] `yaml:"linear_equilibrium"`
	AngularEquilibrium AxesSpec[float64] `yaml:"angular_equilibrium"`

	Motor MotorSpec `yaml:"motor"`

	BreakForce          float64 `yaml:"break_force"`
	EnableCollision     bool    `yaml:"enable_collision"`
	SkipMultibody       bool    `yaml:"skip_multibody"`
	MultibodyComponents bool    `yaml:"multibody_components"`
}
