package animator

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-ecs/common"
)

// GPUJointPaletteSource is the canonical WGSL definition of the JointPalette struct.
// Matches the joint slot layout written by MarshalJointPalette (4096 bytes).
//
//go:embed assets/joint_palette.wgsl
var GPUJointPaletteSource string

// GPUJointPaletteGLSLSource is the std140 GLSL definition of the JointPalette struct.
//
//go:embed assets/joint_palette.glsl
var GPUJointPaletteGLSLSource string

// JointPaletteSize is the byte size of one joint slot: common.MaxJoints mat4x4<f32>.
const JointPaletteSize = common.MaxJoints * common.JointMatrixSize

// MarshalJointPalette writes an instance's skinning matrices into a joint slot.
// Joints past JointCount are zeroed so a slot never keeps matrices of the instance that used it before.
//
// Parameters:
//   - dst: the destination slot, at least JointPaletteSize bytes
//   - inst: the evaluated instance
//
// Returns:
//   - int: the number of joints written
func MarshalJointPalette(dst []byte, inst *SkinInstance) int {
	m := inst.JointMatrices()
	n := min(len(m)/16, common.MaxJoints)
	for i := range n * 16 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m[i]))
	}
	clear(dst[n*common.JointMatrixSize : JointPaletteSize])
	return n
}
