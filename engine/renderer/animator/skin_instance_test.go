package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatricesInDelta(t *testing.T, want, got []float32) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "element %d", i)
	}
}

// swingClip rotates the root around Y through a full turn over duration seconds.
func swingClip(duration float32) AnimationClip {
	return AnimationClip{
		Name:     "swing",
		Duration: duration,
		Channels: []Channel{{
			Joint: 0,
			Rotations: []QuatKey{
				{Time: 0, Value: common.QuatIdentity()},
				{Time: duration / 2, Value: common.QuatFromAxisAngle([3]float32{0, 1, 0}, math32.Pi*0.9)},
				{Time: duration, Value: common.QuatIdentity()},
			},
			Translations: []VectorKey{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: duration, Value: [3]float32{0, 3, 0}},
			},
		}},
	}
}

// holdClip keeps the root at a fixed translation.
func holdClip(x float32) AnimationClip {
	return AnimationClip{
		Name:     "hold",
		Duration: 1,
		Channels: []Channel{{Joint: 0, Translations: []VectorKey{{Time: 0, Value: [3]float32{x, 0, 0}}}}},
	}
}

func TestIdentityRootYieldsIdentityJoint(t *testing.T) {
	s, err := NewSkeleton([]Joint{{Name: "root", Parent: -1, Local: IdentityTransform()}})
	require.NoError(t, err)

	inst := CreateSkinInstance(s, 0)
	inst.Update([]AnimationClip{{Name: "idle", Duration: 1}}, 0.016)

	id := common.IdentityMatrix()
	assertMatricesInDelta(t, id[:], inst.JointMatrices())
}

func TestBindPoseBeforeFirstUpdate(t *testing.T) {
	inst := CreateSkinInstance(twoJointRig(t), 0)
	id := common.IdentityMatrix()
	assertMatricesInDelta(t, id[:], inst.JointMatrices()[0:16])
	assertMatricesInDelta(t, id[:], inst.JointMatrices()[16:32])

	hand, ok := inst.JointWorld(1)
	require.True(t, ok)
	assert.InDelta(t, 1, hand[13], 1e-6)

	_, ok = inst.JointWorld(2)
	assert.False(t, ok)
}

func TestLoopingPlaybackWraps(t *testing.T) {
	clips := []AnimationClip{swingClip(2)}
	rig := twoJointRig(t)

	a := CreateSkinInstance(rig, 0)
	b := CreateSkinInstance(rig, 0)
	a.Update(clips, 0.7)
	b.Update(clips, 0.7+2)

	_, ta := a.Clip()
	_, tb := b.Clip()
	assert.InDelta(t, ta, tb, 1e-5)
	assertMatricesInDelta(t, a.JointMatrices(), b.JointMatrices())
}

func TestSamplingClampsOutsideKeys(t *testing.T) {
	clip := AnimationClip{
		Duration: 4,
		Channels: []Channel{{
			Joint:        1,
			Translations: []VectorKey{{Time: 1, Value: [3]float32{0, 1, 0}}, {Time: 3, Value: [3]float32{0, 5, 0}}},
		}},
	}
	rig := twoJointRig(t)
	out := make([]Transform, rig.JointCount())

	clip.Sample(rig, 0.5, out)
	assert.Equal(t, [3]float32{0, 1, 0}, out[1].Translation, "before the first key holds the first key")
	assert.Equal(t, IdentityTransform(), out[0], "unanimated joints keep their bind pose")

	clip.Sample(rig, 2, out)
	assert.InDelta(t, 3, out[1].Translation[1], 1e-6)

	clip.Sample(rig, 3.5, out)
	assert.Equal(t, [3]float32{0, 5, 0}, out[1].Translation, "after the last key holds the last key")
}

func TestBlendCollapsesExactlyOnce(t *testing.T) {
	clips := []AnimationClip{holdClip(0), holdClip(2)}
	inst := CreateSkinInstance(twoJointRig(t), 0)
	inst.TransitionTo(1, 0.5)
	require.Equal(t, SkinStateBlending, inst.State())

	collapses := 0
	var lastWeight float32
	for range 10 {
		if inst.Update(clips, 0.12) {
			collapses++
		} else if inst.State() == SkinStateBlending {
			assert.GreaterOrEqual(t, inst.BlendWeight(), lastWeight, "blend weight is monotonic")
			lastWeight = inst.BlendWeight()
		}
	}

	assert.Equal(t, 1, collapses)
	assert.Equal(t, SkinStateSingle, inst.State())
	clip, _ := inst.Clip()
	assert.Equal(t, 1, clip)
	target, _ := inst.Target()
	assert.Equal(t, -1, target)

	root, _ := inst.JointWorld(0)
	assert.InDelta(t, 2, root[12], 1e-6, "after the collapse the target pose is fully applied")
}

func TestBlendInterpolatesLocals(t *testing.T) {
	clips := []AnimationClip{holdClip(0), holdClip(2)}
	inst := CreateSkinInstance(twoJointRig(t), 0)
	inst.TransitionTo(1, 1)

	assert.False(t, inst.Update(clips, 0.5))
	assert.InDelta(t, 0.5, inst.BlendWeight(), 1e-6)
	root, _ := inst.JointWorld(0)
	assert.InDelta(t, 1, root[12], 1e-5)

	hand, _ := inst.JointWorld(1)
	assert.InDelta(t, 1, hand[12], 1e-5, "children inherit the blended parent")
	assert.InDelta(t, 1, hand[13], 1e-5)
}

func TestTransitionClampsDuration(t *testing.T) {
	clips := []AnimationClip{holdClip(0), holdClip(2)}
	inst := CreateSkinInstance(twoJointRig(t), 0)
	inst.TransitionTo(1, 0)
	assert.True(t, inst.Update(clips, MinBlendDuration), "a zero-length blend completes on the next update")
}

func TestSpeedScalesPlayback(t *testing.T) {
	clips := []AnimationClip{swingClip(10)}
	inst := CreateSkinInstance(twoJointRig(t), 0)
	inst.Speed = 2
	inst.Update(clips, 1)
	_, tm := inst.Clip()
	assert.InDelta(t, 2, tm, 1e-6)
}

func TestClipIndexErrorsPanic(t *testing.T) {
	rig := twoJointRig(t)
	clips := []AnimationClip{holdClip(0)}

	assert.Panics(t, func() { CreateSkinInstance(rig, -1) })
	assert.Panics(t, func() { CreateSkinInstance(rig, 0).TransitionTo(-3, 1) })
	assert.Panics(t, func() { CreateSkinInstance(rig, 4).Update(clips, 0.1) })
	assert.Panics(t, func() {
		inst := CreateSkinInstance(rig, 0)
		inst.TransitionTo(1, 1)
		inst.Update(clips, 0.1)
	})
}

func TestMarshalJointPalette(t *testing.T) {
	inst := CreateSkinInstance(twoJointRig(t), 0)
	buf := make([]byte, JointPaletteSize)
	assert.Equal(t, 2, MarshalJointPalette(buf, inst))
	assert.Equal(t, 4096, JointPaletteSize)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[0:4], "first element of an identity matrix is 1.0")
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[128:132], "unused joints stay zero")
}

func TestMarshalJointPaletteClearsPreviousOccupant(t *testing.T) {
	buf := make([]byte, JointPaletteSize)
	for i := range buf {
		buf[i] = 0xff
	}

	assert.Equal(t, 2, MarshalJointPalette(buf, CreateSkinInstance(twoJointRig(t), 0)))
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[0:4])
	assert.Equal(t, make([]byte, JointPaletteSize-2*common.JointMatrixSize), buf[2*common.JointMatrixSize:])
}
