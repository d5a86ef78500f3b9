package joint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/articulation/common"
)

// ComputeFrames expresses the mediator's world pose in the local spaces of
// A and B. A nil b pins the joint to the world, so frame B stays in world
// space.
func ComputeFrames(mediator, a common.Pose, b *common.Pose) (frameA, frameB common.Pose) {
	frameA = a.Inverse().Mul(mediator)
	if b == nil {
		return frameA, mediator
	}
	return frameA, b.Inverse().Mul(mediator)
}

// LinkOffsets composes the frames of a multibody link directly: the parent
// to child rotation comes from the two joint frames, not from world space.
// frameA is the joint frame in the child's space, frameB in the parent's.
func LinkOffsets(frameA, frameB common.Pose) (parentToThis mgl64.Quat, parentComToPivot, pivotToThisCom mgl64.Vec3) {
	parentToThis = frameA.Rotation.Mul(frameB.Rotation.Inverse()).Normalize()
	parentComToPivot = frameB.Position
	pivotToThisCom = frameA.Position.Mul(-1)
	return parentToThis, parentComToPivot, pivotToThisCom
}

// alignFrame rotates f so that its from axis points along to.
func alignFrame(f common.Pose, from, to mgl64.Vec3) common.Pose {
	return common.Pose{
		Position: f.Position,
		Rotation: f.Rotation.Mul(mgl64.QuatBetweenVectors(from, to)).Normalize(),
	}
}

var (
	unitX = mgl64.Vec3{1, 0, 0}
	unitZ = mgl64.Vec3{0, 0, 1}
)
