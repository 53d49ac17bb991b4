package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ecs/common"
)

// GPUVertexSource is the WGSL VertexInput struct for static mesh pipelines.
// Matches the interleaved layout of Model.Vertices (36 bytes per vertex).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexGLSLSource declares the static vertex attributes for GLSL pipelines.
//
//go:embed assets/vertex.glsl
var GPUVertexGLSLSource string

// GPUSkinnedVertexSource is the WGSL VertexInput struct for skinned mesh pipelines.
// Locations 0-2 come from the vertex buffer, 3-4 from the skin buffer (see GPUSkinInfluence).
//
//go:embed assets/skinned_vertex.wgsl
var GPUSkinnedVertexSource string

// GPUSkinnedVertexGLSLSource declares the skinned vertex attributes for GLSL pipelines.
//
//go:embed assets/skinned_vertex.glsl
var GPUSkinnedVertexGLSLSource string

// GPUModelUniformSource is the canonical WGSL definition of the ModelUniform struct.
//
//go:embed assets/model_uniform.wgsl
var GPUModelUniformSource string

// GPUModelUniformGLSLSource is the std140 GLSL definition of the ModelUniform struct.
//
//go:embed assets/model_uniform.glsl
var GPUModelUniformGLSLSource string

// GPUModelUniform is the per-entity slot written into the dynamic-offset model buffer.
// Size: 80 bytes.
type GPUModelUniform struct {
	Model [16]float32 // offset  0: world matrix (mat4x4<f32>)
	Color [4]float32  // offset 64: rgb tint, alpha in w
}

// Size returns the size of the GPUModelUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUModelUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalInto serializes the uniform into dst, which must hold at least Size bytes.
// The renderer writes many slots into one staging buffer, so no allocation happens here.
//
// Parameters:
//   - dst: the destination slot
func (g *GPUModelUniform) MarshalInto(dst []byte) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(g.Model[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(dst[64+i*4:], math.Float32bits(g.Color[i]))
	}
}

// Marshal serializes the GPUModelUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUModelUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.MarshalInto(buf)
	return buf
}

// GPUSkinInfluence is one entry of the skin vertex buffer.
// Size: 20 bytes (common.SkinStride).
type GPUSkinInfluence struct {
	Joints  [4]uint8   // offset 0: joint indices (uint8x4)
	Weights [4]float32 // offset 4: joint weights (float32x4)
}

// PackVertices converts interleaved vertex floats to little-endian bytes.
//
// Parameters:
//   - vertices: interleaved vertex data
//
// Returns:
//   - []byte: common.VertexStride bytes per vertex
func PackVertices(vertices []float32) []byte {
	return common.SliceToBytes(vertices)
}

// PackSkin interleaves joint indices and weights into the skin buffer layout.
//
// Parameters:
//   - joints: four joint indices per vertex
//   - weights: four weights per vertex
//
// Returns:
//   - []byte: common.SkinStride bytes per vertex
func PackSkin(joints []uint8, weights []float32) []byte {
	n := len(joints) / common.InfluencesPerVertex
	buf := make([]byte, n*common.SkinStride)
	for v := range n {
		o := v * common.SkinStride
		copy(buf[o:o+4], joints[v*4:v*4+4])
		for k := range 4 {
			binary.LittleEndian.PutUint32(buf[o+4+k*4:], math.Float32bits(weights[v*4+k]))
		}
	}
	return buf
}

// PackIndices converts indices to bytes in the given format. Uint16 packing truncates, so callers
// choose the format with common.IndexFormatFor.
//
// Parameters:
//   - indices: triangle list indices
//   - format: the index element format
//
// Returns:
//   - []byte: the packed indices, padded to a 4-byte multiple
func PackIndices(indices []uint32, format common.IndexFormat) []byte {
	if format == common.IndexFormatUint16 {
		buf := make([]byte, common.AlignUp(uint32(len(indices)*2), 4))
		for i, idx := range indices {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(idx))
		}
		return buf
	}
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
