package animator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimatorParallelMatchesInline(t *testing.T) {
	rig := twoJointRig(t)
	clips := []AnimationClip{swingClip(2), holdClip(1)}

	parallel := NewAnimator(WithWorkers(4), WithParallelThreshold(1), WithBatchSize(7))
	inline := NewAnimator(WithWorkers(1))
	for i := range 100 {
		p := CreateSkinInstance(rig, 0)
		q := CreateSkinInstance(rig, 0)
		if i%3 == 0 {
			p.TransitionTo(1, 0.05)
			q.TransitionTo(1, 0.05)
		}
		assert.Equal(t, i, parallel.Add(p))
		inline.Add(q)
	}

	var pc, ic int
	for range 5 {
		pc += parallel.Update(clips, 0.016)
		ic += inline.Update(clips, 0.016)
	}
	assert.Equal(t, 34, pc)
	assert.Equal(t, ic, pc)

	for i := range parallel.InstanceCount() {
		assertMatricesInDelta(t, inline.Instance(i).JointMatrices(), parallel.Instance(i).JointMatrices())
	}
}

func TestAnimatorJointWorld(t *testing.T) {
	a := NewAnimator()
	a.Add(CreateSkinInstance(twoJointRig(t), 0))

	m, ok := a.JointWorld(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 1, m[13], 1e-6)

	_, ok = a.JointWorld(1, 0)
	assert.False(t, ok)
	_, ok = a.JointWorld(0, 9)
	assert.False(t, ok)
	assert.Nil(t, a.Instance(-1))
}

func TestAnimatorUpdatePanicsOnCaller(t *testing.T) {
	a := NewAnimator(WithWorkers(2), WithParallelThreshold(1))
	a.Add(CreateSkinInstance(twoJointRig(t), 3))
	assert.Panics(t, func() { a.Update([]AnimationClip{holdClip(0)}, 0.1) })
}

func TestAnimatorStopAndRestart(t *testing.T) {
	rig := twoJointRig(t)
	clips := []AnimationClip{swingClip(2)}
	a := NewAnimator(WithWorkers(2), WithParallelThreshold(1), WithBatchSize(1))
	for range 4 {
		a.Add(CreateSkinInstance(rig, 0))
	}
	a.Stop()

	a.Update(clips, 0.5)
	impl := a.(*animator)
	require.NotNil(t, impl.pool)

	a.Stop()
	assert.Nil(t, impl.pool)
	a.Stop()

	a.Update(clips, 0.5)
	assert.NotNil(t, impl.pool, "a parallel update after Stop starts a new pool")
	for i := range a.InstanceCount() {
		_, elapsed := a.Instance(i).Clip()
		assert.InDelta(t, 1, elapsed, 1e-6)
	}
	a.Stop()
}
