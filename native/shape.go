package native

import "github.com/go-gl/mathgl/mgl64"

type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapeBox
	ShapeSphere
	ShapeCapsule
	ShapeCylinder
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	case ShapeCylinder:
		return "cylinder"
	default:
		return "none"
	}
}

// ParseShapeKind maps a scene name to a shape kind; unknown names map to ShapeNone.
func ParseShapeKind(s string) ShapeKind {
	switch s {
	case "box":
		return ShapeBox
	case "sphere":
		return ShapeSphere
	case "capsule":
		return ShapeCapsule
	case "cylinder":
		return ShapeCylinder
	default:
		return ShapeNone
	}
}

// Shape is a convex collision primitive centred on its body. Capsules and
// cylinders are aligned with the local Y axis.
type Shape struct {
	Kind        ShapeKind
	HalfExtents mgl64.Vec3
	Radius      float64
	Height      float64
}

// CalculateLocalInertia returns the diagonal inertia tensor for mass.
func (s Shape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	if mass <= 0 {
		return mgl64.Vec3{}
	}
	switch s.Kind {
	case ShapeBox:
		lx, ly, lz := 2*s.HalfExtents[0], 2*s.HalfExtents[1], 2*s.HalfExtents[2]
		return mgl64.Vec3{
			mass / 12 * (ly*ly + lz*lz),
			mass / 12 * (lx*lx + lz*lz),
			mass / 12 * (lx*lx + ly*ly),
		}
	case ShapeSphere:
		i := 0.4 * mass * s.Radius * s.Radius
		return mgl64.Vec3{i, i, i}
	case ShapeCylinder:
		r2 := s.Radius * s.Radius
		side := mass * (3*r2 + s.Height*s.Height) / 12
		return mgl64.Vec3{side, 0.5 * mass * r2, side}
	case ShapeCapsule:
		// approximated by the bounding box of the capsule
		r := s.Radius
		ly := s.Height + 2*r
		lx := 2 * r
		return mgl64.Vec3{
			mass / 12 * (ly*ly + lx*lx),
			mass / 12 * (lx*lx + lx*lx),
			mass / 12 * (lx*lx + ly*ly),
		}
	default:
		return mgl64.Vec3{}
	}
}
