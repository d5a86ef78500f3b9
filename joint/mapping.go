package joint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/ecs/component"
)

const (
	// free axes of range based constraints are encoded as lower > upper
	freeLower = 1.0
	freeUpper = 0.0
	// free cone and twist spans
	freeSpan = -1.0

	unbreakable = math.MaxFloat64
)

// rangeFor maps one axis onto a native lower/upper pair. scale converts
// descriptor units to native units.
func rangeFor(mode component.MotionMode, r component.Range, scale float64) (lower, upper float64) {
	switch mode {
	case component.MotionFree:
		return freeLower, freeUpper
	case component.MotionLimited:
		return r.Lower * scale, r.Upper * scale
	default:
		return 0, 0
	}
}

// spanFor maps one angular axis onto a cone twist span in radians.
func spanFor(mode component.MotionMode, r component.Range) float64 {
	switch mode {
	case component.MotionFree:
		return freeSpan
	case component.MotionLimited:
		return mgl64.DegToRad(r.Upper - r.Lower)
	default:
		return 0
	}
}

var degToRad = mgl64.DegToRad(1)

// firstUnlocked returns the first non-locked axis in x>y>z priority.
func firstUnlocked(modes component.AxisModes) (component.Axis, bool) {
	for _, a := range component.Axes {
		if modes[a] != component.MotionLocked {
			return a, true
		}
	}
	return component.AxisX, false
}
