package world

import (
	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
)

// attachment ties a mesh entity to one joint of a skinned entity.
type attachment struct {
	parent Entity
	joint  int
}

// PoseSource resolves the animated world transform of a joint, relative to the skinned
// entity's own space. The scene's animator implements it.
type PoseSource interface {
	// JointWorld returns the model-space matrix of joint in the given skin instance.
	//
	// Parameters:
	//   - instance: the skin instance index
	//   - joint: the joint index within that instance's skeleton
	//
	// Returns:
	//   - [16]float32: the joint's model-space matrix
	//   - bool: false if the instance or joint does not exist
	JointWorld(instance, joint int) ([16]float32, bool)
}

// Attach makes child follow joint of the skinned entity parent. Only a single level is
// allowed: the child must carry a mesh, the parent must be skinned, neither may already
// take part in another attachment in the opposite role, and nothing attaches to itself.
//
// Parameters:
//   - child: a live entity with Transform and MeshInstance
//   - parent: a live entity with Transform and Skinned
//   - joint: the joint index in the parent's skeleton
//
// Returns:
//   - error: ErrInvalidAttachment (or ErrEntityNotFound) when a rule is violated
func (w *World) Attach(child, parent Entity, joint int) error {
	if err := w.require(child, MaskTransform|MaskMeshInstance); err != nil {
		return eris.Wrapf(ErrInvalidAttachment, "child %d: %v", child, err)
	}
	if err := w.require(parent, MaskTransform|MaskSkinned); err != nil {
		return eris.Wrapf(ErrInvalidAttachment, "parent %d: %v", parent, err)
	}
	if child == parent {
		return eris.Wrapf(ErrInvalidAttachment, "entity %d cannot attach to itself", child)
	}
	if joint < 0 {
		return eris.Wrapf(ErrInvalidAttachment, "joint index %d", joint)
	}
	if w.attachments[parent].parent != NoEntity {
		return eris.Wrapf(ErrInvalidAttachment, "parent %d is itself attached", parent)
	}
	for i := range w.attachments {
		if w.attachments[i].parent == child {
			return eris.Wrapf(ErrInvalidAttachment, "child %d already has attachments", child)
		}
	}
	w.attachments[child] = attachment{parent: parent, joint: joint}
	return nil
}

// Detach removes the attachment of child.
//
// Parameters:
//   - child: the attached entity
//
// Returns:
//   - error: ErrInvalidAttachment if child is not attached
func (w *World) Detach(child Entity) error {
	if !w.Alive(child) || w.attachments[child].parent == NoEntity {
		return eris.Wrapf(ErrInvalidAttachment, "entity %d is not attached", child)
	}
	w.attachments[child] = attachment{parent: NoEntity}
	return nil
}

// Attachment returns the parent and joint child is attached to.
func (w *World) Attachment(child Entity) (Entity, int, bool) {
	if !w.Alive(child) || w.attachments[child].parent == NoEntity {
		return NoEntity, 0, false
	}
	a := w.attachments[child]
	return a.parent, a.joint, true
}

// ResolveTransforms recomputes every world matrix for the frame. Each live entity with a
// Transform gets world = TRS; then each attached child, in index order, gets
// world = parentWorld × jointWorld × local. When poses is nil or cannot resolve the joint,
// the child falls back to parentWorld × local.
//
// Parameters:
//   - poses: the joint pose source, may be nil
func (w *World) ResolveTransforms(poses PoseSource) {
	want := MaskTransform | MaskAlive
	for i, m := range w.masks {
		if m&want == want {
			t := &w.transforms[i]
			common.ComposeTRS(w.worlds[i][:], t.Position, t.Rotation, t.Scale)
		}
	}

	for i := range w.attachments {
		a := w.attachments[i]
		if a.parent == NoEntity || w.masks[i]&want != want {
			continue
		}
		parentWorld := w.worlds[a.parent]
		local := w.worlds[i]

		if poses != nil {
			if joint, ok := poses.JointWorld(w.skins[a.parent].Instance, a.joint); ok {
				common.Mul4(parentWorld[:], parentWorld[:], joint[:])
			}
		}
		common.Mul4(w.worlds[i][:], parentWorld[:], local[:])
	}
}
