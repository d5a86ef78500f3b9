package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
)

// Transform is a node's pose relative to its parent.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func (t *Transform) Pose() common.Pose {
	if t == nil {
		return common.IdentityPose()
	}
	rot := t.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	return common.NewPose(t.Position, rot)
}

var TransformComponent = NewComponent[Transform]()
