package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/chewxy/math32"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = [3]float32{1, 1, 1}

func TestCubeShape(t *testing.T) {
	c := Cube(0.5, white)
	require.NoError(t, c.Validate())
	assert.Equal(t, 8, c.VertexCount())
	assert.Equal(t, 36, c.IndexCount())
	assert.InDelta(t, math32.Sqrt(3)*0.5, c.BoundingRadius(), 1e-6)
	assert.False(t, c.Skinned())
}

func TestBoundingRadiusIsMaxNorm(t *testing.T) {
	v := []float32{
		1, 0, 0, 0, 0, 0, 0, 0, 0,
		0, -3, 4, 0, 0, 0, 0, 0, 0,
		0, 2, 0, 0, 0, 0, 0, 0, 0,
	}
	assert.InDelta(t, 5, BoundingRadius(v), 1e-6)
	assert.Zero(t, BoundingRadius(nil))
}

func TestValidateGeometry(t *testing.T) {
	tri := Plane(1, white).Vertices()[:3*common.FloatsPerVertex]
	tests := []struct {
		name     string
		vertices []float32
		indices  []uint32
		want     error
	}{
		{"valid", tri, []uint32{0, 1, 2}, nil},
		{"no indices", tri, nil, ErrEmptyIndices},
		{"no vertices", nil, []uint32{0}, ErrInvalidVertexData},
		{"partial vertex", tri[:10], []uint32{0}, ErrInvalidVertexData},
		{"index past end", tri, []uint32{0, 1, 3}, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.vertices, tt.indices)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, tt.want, eris.Cause(err))
		})
	}
}

func TestValidateSkinnedGeometry(t *testing.T) {
	col := SkinnedColumn(3, 3, 0.25, white)
	require.NoError(t, col.Validate())

	err := ValidateSkinnedGeometry(col.Vertices(), col.Indices(), col.Joints()[:4], col.Weights())
	assert.ErrorIs(t, ErrSkinDataMismatch, eris.Cause(err))

	joints := append([]uint8(nil), col.Joints()...)
	joints[0] = 200
	err = ValidateSkinnedGeometry(col.Vertices(), col.Indices(), joints, col.Weights())
	assert.ErrorIs(t, ErrJointOutOfRange, eris.Cause(err))

	joints[0] = common.MaxJoints - 1
	require.NoError(t, ValidateSkinnedGeometry(col.Vertices(), col.Indices(), joints, col.Weights()))
	rigged := NewModel(
		WithGeometry(col.Vertices(), col.Indices()),
		WithSkin(joints, col.Weights()),
		WithSkeleton(col.Skeleton()),
	)
	err = rigged.Validate()
	assert.ErrorIs(t, ErrJointOutOfRange, eris.Cause(err), "joint index past the model's own skeleton")
}

func TestSkinnedColumnRig(t *testing.T) {
	col := SkinnedColumn(4, 2, 0.2, white)
	require.True(t, col.Skinned())
	require.NotNil(t, col.Skeleton())
	assert.Equal(t, 4, col.Skeleton().JointCount())
	assert.Equal(t, 20, col.VertexCount())
	assert.Equal(t, 4*24+12, col.IndexCount())

	for v := range col.VertexCount() {
		var sum float32
		for k := range 4 {
			sum += col.Weights()[v*4+k]
			assert.Less(t, int(col.Joints()[v*4+k]), 4)
		}
		assert.InDelta(t, 1, sum, 1e-6, "vertex %d weights", v)
	}

	assert.Equal(t, 1, col.AnimationIndex(ClipSway))
	assert.Equal(t, -1, col.AnimationIndex("run"))

	// The bind pose skins every vertex onto itself.
	inst := animator.CreateSkinInstance(col.Skeleton(), col.AnimationIndex(ClipIdle))
	inst.Update(col.Animations(), 0.5)
	id := common.IdentityMatrix()
	for j := range 4 {
		m := inst.JointMatrices()[j*16 : j*16+16]
		for i := range id {
			assert.InDelta(t, id[i], m[i], 1e-5)
		}
	}
}

func TestSkinnedColumnClampsSegments(t *testing.T) {
	assert.Equal(t, 1, SkinnedColumn(0, 1, 0.1, white).Skeleton().JointCount())
	assert.Equal(t, common.MaxJoints, SkinnedColumn(500, 1, 0.1, white).Skeleton().JointCount())
}

func TestPackSkinLayout(t *testing.T) {
	buf := PackSkin([]uint8{1, 2, 3, 4}, []float32{0.5, 0.25, 0.25, 0})
	require.Len(t, buf, common.SkinStride)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf[:4])
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
}

func TestPackIndices(t *testing.T) {
	idx := []uint32{0, 1, 2}
	u16 := PackIndices(idx, common.IndexFormatUint16)
	assert.Len(t, u16, 8, "padded to a multiple of four")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(u16[4:]))

	u32 := PackIndices(idx, common.IndexFormatUint32)
	assert.Len(t, u32, 12)
}

func TestModelUniformLayout(t *testing.T) {
	u := GPUModelUniform{Model: common.IdentityMatrix(), Color: [4]float32{0.1, 0.2, 0.3, 0.5}}
	assert.Equal(t, 80, u.Size())
	buf := u.Marshal()
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[76:])))
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Add(7, Cube(1, white)))
	require.NoError(t, lib.Add(2, Plane(1, white)))
	require.NoError(t, lib.Add(5, SkinnedColumn(2, 1, 0.1, white)))

	bad := NewModel(WithName("broken"), WithGeometry(Cube(1, white).Vertices(), nil))
	err := lib.Add(9, bad)
	assert.ErrorIs(t, ErrEmptyIndices, eris.Cause(err))
	assert.Equal(t, 3, lib.Len())

	var order []common.GeometryID
	require.NoError(t, lib.EachGeometry(func(id common.GeometryID, m Model) error {
		order = append(order, id)
		return nil
	}))
	assert.Equal(t, []common.GeometryID{2, 5, 7}, order)

	stop := eris.New("stop")
	calls := 0
	err = lib.EachGeometry(func(common.GeometryID, Model) error {
		calls++
		return stop
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, stop)

	assert.True(t, lib.Remove(2))
	assert.False(t, lib.Remove(2))
	_, ok := lib.Get(2)
	assert.False(t, ok)
}
