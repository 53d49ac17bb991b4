// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// GeometryID is the opaque handle a MeshInstance uses to reference a geometry registered with the renderer.
type GeometryID uint32

// Vertex layout shared by mesh producers and every renderer backend.
const (
	// FloatsPerVertex is the interleaved vertex width: position xyz, normal xyz, color rgb.
	FloatsPerVertex = 9

	// VertexStride is the byte stride of one interleaved vertex.
	VertexStride = FloatsPerVertex * 4

	// InfluencesPerVertex is the number of joints that may influence a skinned vertex.
	InfluencesPerVertex = 4

	// SkinStride is the byte stride of one skin record: 4 uint8 joint indices followed by 4 float32 weights.
	SkinStride = InfluencesPerVertex + InfluencesPerVertex*4

	// MaxIndexUint16 is the largest index count that still uses a 16-bit index buffer.
	MaxIndexUint16 = 65535

	// MaxJoints is the number of joint matrices one skinned draw can address.
	MaxJoints = 64

	// JointMatrixSize is the byte size of one column-major mat4x4<f32>.
	JointMatrixSize = 64
)

// IndexFormat identifies the element width of an index buffer.
type IndexFormat int

const (
	// IndexFormatUint16 stores indices as 16-bit unsigned integers.
	IndexFormatUint16 IndexFormat = iota

	// IndexFormatUint32 stores indices as 32-bit unsigned integers.
	IndexFormatUint32
)

// String returns a readable name for the index format.
func (f IndexFormat) String() string {
	if f == IndexFormatUint16 {
		return "uint16"
	}
	return "uint32"
}

// IndexFormatFor picks the narrowest index format for the given index count.
//
// Parameters:
//   - indexCount: the number of indices in the buffer
//
// Returns:
//   - IndexFormat: IndexFormatUint16 when indexCount <= MaxIndexUint16, IndexFormatUint32 otherwise
func IndexFormatFor(indexCount int) IndexFormat {
	if indexCount <= MaxIndexUint16 {
		return IndexFormatUint16
	}
	return IndexFormatUint32
}
