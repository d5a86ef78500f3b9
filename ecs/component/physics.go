package component

import "github.com/milk9111/articulation/native"

// Body declares a node's simulated rigid body. Rigid and Link are runtime
// fields owned by the body system; at most one is set, depending on
// whether the node is standalone or an articulation member.
type Body struct {
	Mass    float64
	Shape   native.Shape
	Layer   CollisionLayer
	Enabled bool

	Rigid *native.RigidBody
	Link  *native.LinkCollider
}

// Native returns the body the solver currently simulates for this node.
func (b *Body) Native() native.Body {
	if b == nil {
		return nil
	}
	if b.Link != nil {
		return b.Link
	}
	if b.Rigid != nil {
		return b.Rigid
	}
	return nil
}

var BodyComponent = NewComponent[Body]()
