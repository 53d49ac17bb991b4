package world

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoses map[[2]int][16]float32

func (f fakePoses) JointWorld(instance, joint int) ([16]float32, bool) {
	m, ok := f[[2]int{instance, joint}]
	return m, ok
}

func translation(x, y, z float32) [16]float32 {
	var m [16]float32
	common.ComposeTRS(m[:], [3]float32{x, y, z}, common.QuatIdentity(), [3]float32{1, 1, 1})
	return m
}

func newRig(t *testing.T) (*World, Entity, Entity) {
	t.Helper()
	w := NewWorld(0)
	parent := w.AddEntity(MaskTransform | MaskMeshInstance | MaskSkinned)
	require.NoError(t, w.SetSkinned(parent, Skinned{Instance: 2}))
	require.NoError(t, w.SetPosition(parent, [3]float32{10, 0, 0}))

	child := w.AddEntity(MaskTransform | MaskMeshInstance)
	require.NoError(t, w.SetPosition(child, [3]float32{0, 0, 1}))
	return w, parent, child
}

func TestAttachFollowsBone(t *testing.T) {
	w, parent, child := newRig(t)
	require.NoError(t, w.Attach(child, parent, 3))

	poses := fakePoses{{2, 3}: translation(0, 5, 0)}
	w.ResolveTransforms(poses)

	p, ok := w.Position(child)
	require.True(t, ok)
	assert.Equal(t, [3]float32{10, 5, 1}, p)

	// Moving the bone moves the child on the next resolve.
	poses[[2]int{2, 3}] = translation(0, 7, 0)
	w.ResolveTransforms(poses)
	p, _ = w.Position(child)
	assert.Equal(t, [3]float32{10, 7, 1}, p)
}

func TestAttachFallsBackWithoutPose(t *testing.T) {
	w, parent, child := newRig(t)
	require.NoError(t, w.Attach(child, parent, 3))

	w.ResolveTransforms(nil)
	p, _ := w.Position(child)
	assert.Equal(t, [3]float32{10, 0, 1}, p)

	w.ResolveTransforms(fakePoses{})
	p, _ = w.Position(child)
	assert.Equal(t, [3]float32{10, 0, 1}, p)
}

func TestAttachRules(t *testing.T) {
	w, parent, child := newRig(t)
	other := w.AddEntity(MaskTransform | MaskMeshInstance | MaskSkinned)
	bare := w.AddEntity(MaskTransform)

	tests := []struct {
		name          string
		child, parent Entity
		joint         int
	}{
		{"self", parent, parent, 0},
		{"parent not skinned", other, child, 0},
		{"child without mesh", bare, parent, 0},
		{"negative joint", child, parent, -1},
		{"unknown parent", child, Entity(99), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.Attach(tt.child, tt.parent, tt.joint)
			require.Error(t, err)
			assert.ErrorIs(t, ErrInvalidAttachment, eris.Cause(err))
		})
	}
}

func TestAttachRejectsChains(t *testing.T) {
	w, parent, child := newRig(t)
	other := w.AddEntity(MaskTransform | MaskMeshInstance | MaskSkinned)

	require.NoError(t, w.Attach(other, parent, 0))

	// other is attached, so nothing may attach to it.
	err := w.Attach(child, other, 0)
	assert.ErrorIs(t, ErrInvalidAttachment, eris.Cause(err))

	// parent has attachments, so it may not become a child.
	err = w.Attach(parent, other, 0)
	assert.ErrorIs(t, ErrInvalidAttachment, eris.Cause(err))
}

func TestDetachAndRemoval(t *testing.T) {
	w, parent, child := newRig(t)
	require.NoError(t, w.Attach(child, parent, 1))

	got, joint, ok := w.Attachment(child)
	require.True(t, ok)
	assert.Equal(t, parent, got)
	assert.Equal(t, 1, joint)

	require.NoError(t, w.Detach(child))
	err := w.Detach(child)
	assert.ErrorIs(t, ErrInvalidAttachment, eris.Cause(err))

	require.NoError(t, w.Attach(child, parent, 1))
	require.NoError(t, w.RemoveEntity(parent))
	_, _, ok = w.Attachment(child)
	assert.False(t, ok, "removing the parent drops the attachment")
}
