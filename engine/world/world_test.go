package world

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/light"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEntityDefaults(t *testing.T) {
	w := NewWorld(4)
	e := w.AddEntity(MaskTransform | MaskMeshInstance)

	assert.Equal(t, Entity(0), e)
	assert.Equal(t, 1, w.EntityCount())
	assert.True(t, w.Has(e, MaskTransform|MaskMeshInstance))
	assert.False(t, w.Has(e, MaskSkinned))

	tr, ok := w.Transform(e)
	require.True(t, ok)
	assert.Equal(t, IdentityTransform(), tr)

	mesh, ok := w.MeshInstance(e)
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 1, 1}, mesh.Color)
	assert.Equal(t, float32(1), mesh.Alpha)
	assert.Equal(t, -1, mesh.OcclusionTexture)
}

func TestSetterOnMissingComponent(t *testing.T) {
	w := NewWorld(0)
	e := w.AddEntity(MaskTransform)

	err := w.SetMeshInstance(e, MeshInstance{Geometry: 3})
	require.Error(t, err)
	assert.ErrorIs(t, ErrMissingComponent, eris.Cause(err))

	_, ok := w.MeshInstance(e)
	assert.False(t, ok)

	err = w.SetPosition(Entity(9), [3]float32{})
	assert.ErrorIs(t, ErrEntityNotFound, eris.Cause(err))
}

func TestSettersDoNotRecomputeWorldMatrix(t *testing.T) {
	w := NewWorld(0)
	e := w.AddEntity(MaskTransform)
	require.NoError(t, w.SetPosition(e, [3]float32{1, 2, 3}))

	m, ok := w.WorldMatrix(e)
	require.True(t, ok)
	assert.Equal(t, common.IdentityMatrix(), m)

	w.ResolveTransforms(nil)
	p, ok := w.Position(e)
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 2, 3}, p)
}

func TestRemoveEntityTombstones(t *testing.T) {
	w := NewWorld(0)
	a := w.AddEntity(MaskTransform)
	b := w.AddEntity(MaskTransform)
	c := w.AddEntity(MaskTransform)

	require.NoError(t, w.RemoveEntity(b))
	assert.Equal(t, 3, w.EntityCount(), "indices never move")
	assert.False(t, w.Alive(b))
	assert.Equal(t, Mask(0), w.Mask(b))

	var visited []Entity
	w.Each(MaskTransform, func(e Entity) { visited = append(visited, e) })
	assert.Equal(t, []Entity{a, c}, visited)

	err := w.RemoveEntity(b)
	assert.ErrorIs(t, ErrEntityNotFound, eris.Cause(err))
	err = w.RemoveEntity(Entity(-1))
	assert.ErrorIs(t, ErrEntityNotFound, eris.Cause(err))
}

func TestEachRequiresEveryBit(t *testing.T) {
	w := NewWorld(0)
	w.AddEntity(MaskTransform)
	both := w.AddEntity(MaskTransform | MaskMeshInstance)
	w.AddEntity(MaskMeshInstance)

	var visited []Entity
	w.Each(MaskTransform|MaskMeshInstance, func(e Entity) { visited = append(visited, e) })
	assert.Equal(t, []Entity{both}, visited)
}

func TestAddAndRemoveComponents(t *testing.T) {
	w := NewWorld(0)
	e := w.AddEntity(MaskTransform)

	require.NoError(t, w.AddComponents(e, MaskMeshInstance|MaskAlive))
	assert.True(t, w.Has(e, MaskMeshInstance))

	require.NoError(t, w.RemoveComponents(e, MaskMeshInstance|MaskAlive))
	assert.False(t, w.Has(e, MaskMeshInstance))
	assert.True(t, w.Alive(e), "MaskAlive cannot be toggled through component calls")
}

func TestActiveCamera(t *testing.T) {
	w := NewWorld(0)
	_, ok := w.ActiveCamera()
	assert.False(t, ok)

	plain := w.AddEntity(MaskTransform)
	err := w.SetActiveCamera(plain)
	assert.ErrorIs(t, ErrMissingComponent, eris.Cause(err))

	cam := w.AddEntity(MaskCamera)
	require.NoError(t, w.SetCamera(cam, camera.NewCamera(camera.WithEye(0, 0, 5))))
	require.NoError(t, w.SetActiveCamera(cam))
	got, ok := w.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, cam, got)

	require.NoError(t, w.RemoveEntity(cam))
	_, ok = w.ActiveCamera()
	assert.False(t, ok, "removing the camera entity clears the active camera")
}

func TestFrameLightingOverride(t *testing.T) {
	w := NewWorld(0)
	sun := light.NewLighting(light.WithColor(1, 0, 0))
	w.SetLighting(sun)
	assert.Equal(t, sun, w.FrameLighting())

	first := w.AddEntity(MaskLight)
	second := w.AddEntity(MaskLight)
	red := light.NewLighting(light.WithAmbient(1, 0, 0))
	blue := light.NewLighting(light.WithAmbient(0, 0, 1))
	require.NoError(t, w.SetLight(first, red))
	require.NoError(t, w.SetLight(second, blue))
	assert.Equal(t, red, w.FrameLighting(), "lowest index wins")

	require.NoError(t, w.RemoveEntity(first))
	assert.Equal(t, blue, w.FrameLighting())

	require.NoError(t, w.RemoveComponents(second, MaskLight))
	assert.Equal(t, sun, w.FrameLighting())
}
