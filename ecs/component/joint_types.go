package component

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

type JointType int

const (
	JointSixDof JointType = iota
	JointSpherical
	JointHinge
	JointSlider
	JointFixed
)

func (t JointType) String() string {
	switch t {
	case JointSixDof:
		return "6dof"
	case JointSpherical:
		return "spherical"
	case JointHinge:
		return "hinge"
	case JointSlider:
		return "slider"
	case JointFixed:
		return "fixed"
	default:
		return fmt.Sprintf("JointType(%d)", int(t))
	}
}

func ParseJointType(s string) (JointType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "6dof", "sixdof", "generic":
		return JointSixDof, nil
	case "spherical", "ball":
		return JointSpherical, nil
	case "hinge", "revolute":
		return JointHinge, nil
	case "slider", "prismatic":
		return JointSlider, nil
	case "fixed":
		return JointFixed, nil
	}
	return 0, fmt.Errorf("joint: unknown type %q", s)
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the axes in priority order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

// Unit returns the basis vector for a.
func (a Axis) Unit() mgl64.Vec3 {
	var v mgl64.Vec3
	v[a] = 1
	return v
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("joint: unknown axis %q", s)
}

// MotionMode classifies one degree of freedom. The zero value is locked.
type MotionMode int

const (
	MotionLocked MotionMode = iota
	MotionLimited
	MotionFree
)

func (m MotionMode) String() string {
	switch m {
	case MotionLocked:
		return "locked"
	case MotionLimited:
		return "limited"
	case MotionFree:
		return "free"
	}
	return fmt.Sprintf("MotionMode(%d)", int(m))
}

func ParseMotionMode(s string) (MotionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "locked":
		return MotionLocked, nil
	case "limited":
		return MotionLimited, nil
	case "free":
		return MotionFree, nil
	}
	return 0, fmt.Errorf("joint: unknown motion %q", s)
}

type AxisModes [3]MotionMode

// Motion holds the mode of every linear and angular axis.
type Motion struct {
	Linear  AxisModes
	Angular AxisModes
}

type Range struct {
	Lower float64
	Upper float64
}

type AxisRanges [3]Range

// Limits are meaningful only on limited axes. Angular ranges are degrees.
type Limits struct {
	Linear  AxisRanges
	Angular AxisRanges
}

type AxisFlags [3]bool

type Springs struct {
	Linear  AxisFlags
	Angular AxisFlags
}

type AxisValues [3]float64

// AxisParams carries a per-axis soft constraint parameter (stiffness,
// damping or equilibrium).
type AxisParams struct {
	Linear  AxisValues
	Angular AxisValues
}

type MotorMode int

const (
	MotorOff MotorMode = iota
	MotorTargetPosition
	MotorTargetVelocity
)

func (m MotorMode) String() string {
	switch m {
	case MotorOff:
		return "off"
	case MotorTargetPosition:
		return "position"
	case MotorTargetVelocity:
		return "velocity"
	}
	return fmt.Sprintf("MotorMode(%d)", int(m))
}

func ParseMotorMode(s string) (MotorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return MotorOff, nil
	case "position", "target-position", "target_position":
		return MotorTargetPosition, nil
	case "velocity", "target-velocity", "target_velocity":
		return MotorTargetVelocity, nil
	}
	return 0, fmt.Errorf("joint: unknown motor mode %q", s)
}

type MotorTargetKind int

const (
	TargetScalar MotorTargetKind = iota
	TargetVector
	TargetRotation
)

// MotorTarget is a scalar, a 3-vector or a rotation depending on the joint
// shape it drives.
type MotorTarget struct {
	Kind     MotorTargetKind
	Scalar   float64
	Vector   mgl64.Vec3
	Rotation mgl64.Quat
}

func ScalarTarget(v float64) MotorTarget { return MotorTarget{Kind: TargetScalar, Scalar: v} }

func VectorTarget(v mgl64.Vec3) MotorTarget { return MotorTarget{Kind: TargetVector, Vector: v} }

func RotationTarget(q mgl64.Quat) MotorTarget { return MotorTarget{Kind: TargetRotation, Rotation: q} }

type Motor struct {
	Mode       MotorMode
	Target     MotorTarget
	MaxImpulse float64
}
