// Package planar mirrors the standalone part of a native.World into a
// chipmunk space and steps it. Bodies are projected onto the XY plane and
// two-body constraints become their nearest 2D equivalents. Multibodies are
// left posed as registered.
package planar

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/articulation/common"
	"github.com/milk9111/articulation/native"
)

const (
	// grooves on free sliders extend this far either side of the anchor
	freeGrooveLength = 1000.0

	positionServoStiffness = 400.0
	positionServoDamping   = 40.0
)

type planarBody struct {
	body   *cp.Body
	shape  *cp.Shape
	z      float64
	static bool
}

// World embeds the native world so registration goes through the same
// idempotent calls; only Step differs.
type World struct {
	*native.World

	space  *cp.Space
	bodies map[*native.RigidBody]*planarBody
	joints map[native.Constraint][]*cp.Constraint
	warned map[native.Constraint]bool
}

func NewWorld(gravity float64, iterations int) *World {
	space := cp.NewSpace()
	if iterations > 0 {
		space.Iterations = uint(iterations)
	}
	space.SetGravity(cp.Vector{X: 0, Y: gravity})
	return &World{
		World:  native.NewWorld(),
		space:  space,
		bodies: make(map[*native.RigidBody]*planarBody),
		joints: make(map[native.Constraint][]*cp.Constraint),
		warned: make(map[native.Constraint]bool),
	}
}

func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// Step mirrors the registered bodies and constraints, advances the space by
// dt and writes the resulting poses back onto the native bodies.
func (w *World) Step(dt float64) error {
	if w.Rebuilding() {
		return native.ErrRebuildInProgress
	}
	w.sync()
	w.space.Step(dt)
	w.writeBack()
	return w.World.Step(dt)
}

// Mirrored reports whether c currently has chipmunk counterparts.
func (w *World) Mirrored(c native.Constraint) bool {
	return len(w.joints[c]) > 0
}

func (w *World) sync() {
	liveConstraints := make(map[native.Constraint]bool)
	for _, c := range w.Constraints() {
		liveConstraints[c] = true
	}
	for c, parts := range w.joints {
		if liveConstraints[c] {
			continue
		}
		for _, part := range parts {
			w.space.RemoveConstraint(part)
		}
		delete(w.joints, c)
		delete(w.warned, c)
	}

	liveBodies := make(map[*native.RigidBody]bool)
	for _, b := range w.RigidBodies() {
		liveBodies[b] = true
	}
	for b, pb := range w.bodies {
		if liveBodies[b] {
			continue
		}
		w.space.RemoveShape(pb.shape)
		w.space.RemoveBody(pb.body)
		delete(w.bodies, b)
	}

	for _, b := range w.RigidBodies() {
		if _, ok := w.bodies[b]; ok {
			continue
		}
		w.bodies[b] = w.addBody(b)
	}

	for _, c := range w.Constraints() {
		if _, ok := w.joints[c]; ok {
			continue
		}
		parts := w.mirror(c)
		if len(parts) == 0 {
			if !w.warned[c] {
				log.Printf("planar: %s constraint has no planar equivalent", c.Kind())
				w.warned[c] = true
			}
			continue
		}
		for _, part := range parts {
			part.SetCollideBodies(!w.CollisionsDisabled(c))
			w.space.AddConstraint(part)
		}
		w.joints[c] = parts
	}
}

func (w *World) addBody(b *native.RigidBody) *planarBody {
	pose := b.WorldPose()
	pb := &planarBody{z: pose.Position.Z(), static: b.IsStatic()}
	if pb.static {
		pb.body = cp.NewStaticBody()
	} else {
		pb.body = cp.NewBody(b.Mass, moment(b.Mass, b.Shape))
	}
	pb.body.SetPosition(cp.Vector{X: pose.Position.X(), Y: pose.Position.Y()})
	pb.body.SetAngle(yaw(pose.Rotation))
	w.space.AddBody(pb.body)

	pb.shape = newShape(pb.body, b.Shape)
	group, mask, _ := w.BodyLayer(b)
	pb.shape.SetFilter(cp.ShapeFilter{Categories: uint(group), Mask: uint(mask)})
	w.space.AddShape(pb.shape)
	return pb
}

func (w *World) writeBack() {
	for b, pb := range w.bodies {
		if pb.static {
			continue
		}
		pos := pb.body.Position()
		b.SetWorldPose(common.NewPose(
			mgl64.Vec3{pos.X, pos.Y, pb.z},
			mgl64.QuatRotate(pb.body.Angle(), mgl64.Vec3{0, 0, 1}),
		))
	}
}

// cpBody returns the chipmunk body for a native endpoint. A nil endpoint
// is the world, which maps to the space's static body.
func (w *World) cpBody(b native.Body) (*cp.Body, bool) {
	if b == nil {
		return w.space.StaticBody, true
	}
	rb, ok := b.(*native.RigidBody)
	if !ok {
		return nil, false
	}
	pb, ok := w.bodies[rb]
	if !ok {
		return nil, false
	}
	return pb.body, true
}

func moment(mass float64, s native.Shape) float64 {
	switch s.Kind {
	case native.ShapeBox:
		return cp.MomentForBox(mass, 2*s.HalfExtents.X(), 2*s.HalfExtents.Y())
	case native.ShapeSphere, native.ShapeCapsule, native.ShapeCylinder:
		return cp.MomentForCircle(mass, 0, s.Radius, cp.Vector{})
	}
	return cp.MomentForCircle(mass, 0, 0.5, cp.Vector{})
}

func newShape(body *cp.Body, s native.Shape) *cp.Shape {
	switch s.Kind {
	case native.ShapeBox:
		return cp.NewBox(body, 2*s.HalfExtents.X(), 2*s.HalfExtents.Y(), 0)
	case native.ShapeCapsule, native.ShapeCylinder:
		return cp.NewBox(body, 2*s.Radius, s.Height, 0)
	case native.ShapeSphere:
		return cp.NewCircle(body, s.Radius, cp.Vector{})
	}
	return cp.NewCircle(body, 0.5, cp.Vector{})
}

// yaw extracts the rotation about Z.
func yaw(q mgl64.Quat) float64 {
	x, y, z := q.V[0], q.V[1], q.V[2]
	return math.Atan2(2*(q.W*z+x*y), 1-2*(y*y+z*z))
}

func vec2(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Y()}
}
