package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/model"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-ecs/engine/world"
	"github.com/chewxy/math32"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cubeID   common.GeometryID = 1
	columnID common.GeometryID = 2
)

func newTestRenderer(t *testing.T) (Renderer, *HeadlessRendererBackend) {
	t.Helper()
	b := NewHeadlessRendererBackend()
	r, err := NewRenderer(BackendTypeHeadless, nil, WithBackend(b), WithSize(800, 600))
	require.NoError(t, err)
	return r, b
}

// newCameraWorld returns a world whose entity 0 is the active camera at the origin looking
// down -Z with a 60° fov, 0.1 near and 5000 far plane.
func newCameraWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.NewWorld(8)
	e := w.AddEntity(world.MaskCamera)
	require.NoError(t, w.SetCamera(e, camera.NewCamera(
		camera.WithEye(0, 0, 0),
		camera.WithTarget(0, 0, -1),
		camera.WithFov(60*math32.Pi/180),
		camera.WithAspect(16.0/9.0),
		camera.WithNear(0.1),
		camera.WithFar(5000),
	)))
	require.NoError(t, w.SetActiveCamera(e))
	return w
}

func addMesh(t *testing.T, w *world.World, id common.GeometryID, pos [3]float32) world.Entity {
	t.Helper()
	e := w.AddEntity(world.MaskTransform | world.MaskMeshInstance)
	require.NoError(t, w.SetMeshInstance(e, world.MeshInstance{Geometry: id, Color: [3]float32{1, 0, 0}, Alpha: 0.5, OcclusionTexture: -1}))
	require.NoError(t, w.SetPosition(e, pos))
	return e
}

func addSkinned(t *testing.T, w *world.World, id common.GeometryID, instance int, pos [3]float32) world.Entity {
	t.Helper()
	e := addMesh(t, w, id, pos)
	require.NoError(t, w.AddComponents(e, world.MaskSkinned))
	require.NoError(t, w.SetSkinned(e, world.Skinned{Instance: instance}))
	return e
}

func registerCube(t *testing.T, r Renderer) {
	t.Helper()
	cube := model.Cube(0.5, [3]float32{1, 1, 1})
	require.NoError(t, r.RegisterGeometry(cubeID, cube.Vertices(), cube.Indices()))
}

func registerColumn(t *testing.T, r Renderer) model.Model {
	t.Helper()
	col := model.SkinnedColumn(2, 2, 0.2, [3]float32{0, 1, 0})
	require.NoError(t, r.RegisterSkinnedGeometry(columnID, col.Vertices(), col.Indices(), col.Joints(), col.Weights()))
	return col
}

func readFloat(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func TestRegisterGeometryValidation(t *testing.T) {
	r, b := newTestRenderer(t)
	tri := []float32{
		0, 0, 0, 0, 0, 1, 1, 1, 1,
		1, 0, 0, 0, 0, 1, 1, 1, 1,
		0, 1, 0, 0, 0, 1, 1, 1, 1,
	}

	tests := []struct {
		name     string
		register func() error
		want     error
	}{
		{"empty indices", func() error { return r.RegisterGeometry(1, tri, nil) }, ErrEmptyIndices},
		{"ragged vertices", func() error { return r.RegisterGeometry(1, tri[:10], []uint32{0}) }, ErrInvalidVertexData},
		{"no vertices", func() error { return r.RegisterGeometry(1, nil, []uint32{0}) }, ErrInvalidVertexData},
		{"index out of range", func() error { return r.RegisterGeometry(1, tri, []uint32{0, 1, 3}) }, ErrIndexOutOfRange},
		{"short joints", func() error {
			return r.RegisterSkinnedGeometry(1, tri, []uint32{0, 1, 2}, make([]uint8, 8), make([]float32, 12))
		}, ErrSkinDataMismatch},
		{"short weights", func() error {
			return r.RegisterSkinnedGeometry(1, tri, []uint32{0, 1, 2}, make([]uint8, 12), make([]float32, 4))
		}, ErrSkinDataMismatch},
		{"joint past palette", func() error {
			joints := make([]uint8, 12)
			joints[4] = common.MaxJoints
			return r.RegisterSkinnedGeometry(1, tri, []uint32{0, 1, 2}, joints, make([]float32, 12))
		}, ErrJointOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.register()
			require.Error(t, err)
			assert.ErrorIs(t, tt.want, eris.Cause(err))
		})
	}

	_, ok := r.Geometry(1)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Live().Geometries)
}

func TestRegisterCube(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)

	info, ok := r.Geometry(cubeID)
	require.True(t, ok)
	assert.Equal(t, 36, info.IndexCount)
	assert.Equal(t, 8, info.VertexCount)
	assert.Equal(t, common.IndexFormatUint16, info.IndexFormat)
	assert.InDelta(t, math32.Sqrt(3)*0.5, info.Radius, 1e-6)
	assert.False(t, info.Skinned)

	upload, ok := b.Geometry(cubeID)
	require.True(t, ok)
	assert.Len(t, upload.Vertices, 8*common.VertexStride)
	assert.Len(t, upload.Indices, 36*2)
	assert.Nil(t, upload.Skin)
}

func TestRegisterSkinnedGeometry(t *testing.T) {
	r, b := newTestRenderer(t)
	col := registerColumn(t, r)

	info, ok := r.Geometry(columnID)
	require.True(t, ok)
	assert.True(t, info.Skinned)

	upload, ok := b.Geometry(columnID)
	require.True(t, ok)
	assert.Len(t, upload.Skin, col.VertexCount()*common.SkinStride)
}

func TestIndexFormatWidensForLargeGeometry(t *testing.T) {
	r, _ := newTestRenderer(t)
	tri := []float32{
		0, 0, 0, 0, 0, 1, 1, 1, 1,
		1, 0, 0, 0, 0, 1, 1, 1, 1,
		0, 1, 0, 0, 0, 1, 1, 1, 1,
	}

	many := make([]uint32, common.MaxIndexUint16+1)
	for i := range many {
		many[i] = uint32(i % 3)
	}
	require.NoError(t, r.RegisterGeometry(1, tri, many))
	info, _ := r.Geometry(1)
	assert.Equal(t, common.IndexFormatUint32, info.IndexFormat)

	// Few indices, but an index value past the 16-bit range.
	vertexCount := common.MaxIndexUint16 + 2
	big := make([]float32, vertexCount*common.FloatsPerVertex)
	require.NoError(t, r.RegisterGeometry(2, big, []uint32{0, 1, uint32(vertexCount - 1)}))
	info, _ = r.Geometry(2)
	assert.Equal(t, common.IndexFormatUint32, info.IndexFormat)
}

func TestReregisterReleasesPrevious(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)
	before := b.Live()

	plane := model.Plane(1, [3]float32{1, 1, 1})
	require.NoError(t, r.RegisterGeometry(cubeID, plane.Vertices(), plane.Indices()))

	assert.Equal(t, before, b.Live())
	assert.Equal(t, 1, b.Releases().Geometries)
	info, _ := r.Geometry(cubeID)
	assert.Equal(t, 6, info.IndexCount)
}

func TestRenderWithoutCameraIsNoOp(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)

	w := world.NewWorld(1)
	addMesh(t, w, cubeID, [3]float32{0, 0, -10})
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, nil))
	assert.Equal(t, 0, r.DrawCalls())
	assert.Equal(t, 0, b.Frames())
}

func TestCulledEntityIsNeitherUploadedNorDrawn(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)

	w := newCameraWorld(t)
	ahead := addMesh(t, w, cubeID, [3]float32{0, 0, -10})
	addMesh(t, w, cubeID, [3]float32{0, 0, 10})
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, nil))

	stats := r.Stats()
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 1, stats.Visible)
	assert.Equal(t, 1, stats.Culled)

	offset := uint32(ahead) * HeadlessAlignment
	assert.Equal(t, []uint32{offset}, b.ModelOffsets())
	assert.Equal(t, []HeadlessDraw{{Geometry: cubeID, ModelOffset: offset}}, b.Draws())
}

func TestModelSlotContents(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)

	w := newCameraWorld(t)
	e := addMesh(t, w, cubeID, [3]float32{1, 2, -10})
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))

	slot, ok := b.ModelSlot(uint32(e) * HeadlessAlignment)
	require.True(t, ok)
	require.Len(t, slot, 80)
	assert.Equal(t, float32(1), readFloat(slot, 0))
	assert.Equal(t, [3]float32{1, 2, -10}, [3]float32{readFloat(slot, 12), readFloat(slot, 13), readFloat(slot, 14)})
	assert.Equal(t, [4]float32{1, 0, 0, 0.5}, [4]float32{readFloat(slot, 16), readFloat(slot, 17), readFloat(slot, 18), readFloat(slot, 19)})

	assert.Len(t, b.Camera(), 144)
	assert.Len(t, b.Lighting(), 48)
}

func TestSlotSizeFollowsAlignment(t *testing.T) {
	b := NewHeadlessRendererBackendWithAlignment(64)
	r, err := NewRenderer(BackendTypeHeadless, nil, WithBackend(b))
	require.NoError(t, err)
	registerCube(t, r)

	w := newCameraWorld(t)
	e := addMesh(t, w, cubeID, [3]float32{0, 0, -5})
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))

	// 80 bytes rounded up to a multiple of 64.
	assert.Equal(t, []uint32{uint32(e) * 128}, b.ModelOffsets())
}

func TestScaleWidensCullingRadius(t *testing.T) {
	r, _ := newTestRenderer(t)
	registerCube(t, r)

	w := newCameraWorld(t)
	// Just behind the camera: a unit cube is culled, a cube scaled ×10 reaches into view.
	addMesh(t, w, cubeID, [3]float32{0, 0, 2})
	big := addMesh(t, w, cubeID, [3]float32{0, 0, 2})
	require.NoError(t, w.SetScale(big, [3]float32{1, -10, 1}))
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, nil))
	stats := r.Stats()
	assert.Equal(t, 1, stats.Visible)
	assert.Equal(t, 1, stats.Culled)
}

func TestStaticPassPrecedesSkinnedPass(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)
	col := registerColumn(t, r)

	inst := animator.CreateSkinInstance(col.Skeleton(), 0)
	inst.Update(col.Animations(), 0.25)
	skins := []*animator.SkinInstance{inst}

	w := newCameraWorld(t)
	s := addSkinned(t, w, columnID, 0, [3]float32{0, 0, -8})
	c := addMesh(t, w, cubeID, [3]float32{2, 0, -8})
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, skins))

	stats := r.Stats()
	assert.Equal(t, 1, stats.StaticDraws)
	assert.Equal(t, 1, stats.SkinnedDraws)
	assert.Equal(t, []HeadlessDraw{
		{Geometry: cubeID, ModelOffset: uint32(c) * HeadlessAlignment},
		{Geometry: columnID, Skinned: true, ModelOffset: uint32(s) * HeadlessAlignment, JointOffset: 0},
	}, b.Draws())

	slot, ok := b.JointSlot(0)
	require.True(t, ok)
	want := make([]byte, animator.JointPaletteSize)
	animator.MarshalJointPalette(want, inst)
	assert.Equal(t, want, slot)
}

func TestJointSlotsAssignedInEntityOrder(t *testing.T) {
	r, b := newTestRenderer(t)
	col := registerColumn(t, r)
	skins := []*animator.SkinInstance{
		animator.CreateSkinInstance(col.Skeleton(), 0),
		animator.CreateSkinInstance(col.Skeleton(), 1),
	}

	w := newCameraWorld(t)
	addSkinned(t, w, columnID, 1, [3]float32{-2, 0, -8})
	addSkinned(t, w, columnID, 0, [3]float32{0, 0, 8}) // culled, takes no slot
	addSkinned(t, w, columnID, 0, [3]float32{2, 0, -8})
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, skins))
	draws := b.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(0), draws[0].JointOffset)
	assert.Equal(t, uint32(animator.JointPaletteSize), draws[1].JointOffset)
	assert.Equal(t, 64, b.JointCapacity())
}

func TestUndrawableEntitiesAreSkipped(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)
	col := registerColumn(t, r)
	skins := []*animator.SkinInstance{animator.CreateSkinInstance(col.Skeleton(), 0)}

	w := newCameraWorld(t)
	addMesh(t, w, 99, [3]float32{0, 0, -5})             // unknown geometry
	addMesh(t, w, columnID, [3]float32{0, 0, -5})       // skinned geometry without Skinned
	addSkinned(t, w, cubeID, 0, [3]float32{0, 0, -5})   // static geometry with Skinned
	addSkinned(t, w, columnID, 4, [3]float32{0, 0, -5}) // instance out of range
	addSkinned(t, w, columnID, -1, [3]float32{0, 0, -5})
	removed := addMesh(t, w, cubeID, [3]float32{0, 0, -5})
	require.NoError(t, w.RemoveEntity(removed))
	w.ResolveTransforms(nil)

	require.NoError(t, r.Render(w, skins))
	stats := r.Stats()
	assert.Equal(t, 5, stats.Skipped)
	assert.Equal(t, 0, stats.DrawCalls)
	assert.Empty(t, b.Draws())
	assert.Empty(t, b.ModelOffsets())
	assert.Equal(t, 1, b.Frames())
}

func TestModelBufferGrows(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)

	w := newCameraWorld(t)
	for i := range 40 {
		addMesh(t, w, cubeID, [3]float32{float32(i % 5), 0, -20})
	}
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))
	assert.Equal(t, 64, b.ModelCapacity())
	buffers := b.Live().Buffers

	for range 60 {
		addMesh(t, w, cubeID, [3]float32{0, 0, -20})
	}
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))

	assert.Equal(t, 128, b.ModelCapacity())
	assert.Equal(t, buffers, b.Live().Buffers, "the old model buffer is released when the new one is created")
	assert.Equal(t, 100, r.DrawCalls())
}

func TestResizeLeaksNothing(t *testing.T) {
	r, b := newTestRenderer(t)
	assert.Equal(t, 1, b.Live().DepthTargets)

	r.Resize(1920, 1080)
	w, h := b.TargetSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Equal(t, 1, b.Live().DepthTargets)
	assert.Equal(t, 2, b.Created().DepthTargets)
	assert.Equal(t, 1, b.Releases().DepthTargets)

	// A minimised window reports zero size; the attachment is kept.
	r.Resize(0, 0)
	w, h = b.TargetSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Equal(t, 2, b.Created().DepthTargets)
}

func TestSwapBackendReRegistersEverything(t *testing.T) {
	r, old := newTestRenderer(t)
	lib := model.NewLibrary()
	require.NoError(t, lib.Add(cubeID, model.Cube(0.5, [3]float32{1, 1, 1})))
	require.NoError(t, lib.Add(columnID, model.SkinnedColumn(2, 2, 0.2, [3]float32{0, 1, 0})))
	require.NoError(t, lib.EachGeometry(func(id common.GeometryID, m model.Model) error {
		if m.Skinned() {
			return r.RegisterSkinnedGeometry(id, m.Vertices(), m.Indices(), m.Joints(), m.Weights())
		}
		return r.RegisterGeometry(id, m.Vertices(), m.Indices())
	}))

	w := newCameraWorld(t)
	addMesh(t, w, cubeID, [3]float32{0, 0, -10})
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))

	next := NewHeadlessRendererBackend()
	require.NoError(t, r.SwapBackend(next, lib))

	assert.True(t, old.Released())
	assert.Equal(t, HeadlessResources{}, old.Live())
	assert.Same(t, next, r.Backend())

	for _, id := range []common.GeometryID{cubeID, columnID} {
		_, ok := next.Geometry(id)
		assert.True(t, ok, "geometry %d", id)
	}
	width, height := next.TargetSize()
	assert.Equal(t, 800, width)
	assert.Equal(t, 600, height)

	require.NoError(t, r.Render(w, nil))
	assert.Equal(t, 1, r.DrawCalls())
	assert.Len(t, next.Draws(), 1)
}

func TestReleaseFreesEverything(t *testing.T) {
	r, b := newTestRenderer(t)
	registerCube(t, r)
	registerColumn(t, r)

	w := newCameraWorld(t)
	addMesh(t, w, cubeID, [3]float32{0, 0, -10})
	w.ResolveTransforms(nil)
	require.NoError(t, r.Render(w, nil))

	r.Release()
	r.Release()

	assert.Equal(t, HeadlessResources{}, b.Live())
	assert.Nil(t, r.Backend())
	_, ok := r.Geometry(cubeID)
	assert.False(t, ok)

	err := r.Render(w, nil)
	require.Error(t, err)
	assert.ErrorIs(t, ErrReleased, eris.Cause(err))

	// A released renderer accepts a fresh backend.
	require.NoError(t, r.SwapBackend(NewHeadlessRendererBackend(), model.NewLibrary()))
	require.NoError(t, r.Render(w, nil))
	assert.Equal(t, 1, r.Stats().Skipped)
}

func TestParseBackendType(t *testing.T) {
	for _, bt := range []RendererBackendType{BackendTypeWGPU, BackendTypeOpenGL, BackendTypeHeadless} {
		got, err := ParseBackendType(bt.String())
		require.NoError(t, err)
		assert.Equal(t, bt, got)
	}
	_, err := ParseBackendType("vulkan")
	assert.ErrorIs(t, ErrUnknownBackend, eris.Cause(err))
}

func TestGrowCapacity(t *testing.T) {
	assert.Equal(t, 0, growCapacity(0, 0))
	assert.Equal(t, 64, growCapacity(0, 1))
	assert.Equal(t, 64, growCapacity(64, 64))
	assert.Equal(t, 128, growCapacity(64, 65))
	assert.Equal(t, 1024, growCapacity(64, 1000))
}
