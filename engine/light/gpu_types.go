package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightingSource is the canonical WGSL definition of the Lighting struct.
// Matches GPULightingUniform layout exactly (48 bytes).
//
//go:embed assets/lighting.wgsl
var GPULightingSource string

// GPULightingGLSLSource is the std140 GLSL definition of the Lighting struct.
//
//go:embed assets/lighting.glsl
var GPULightingGLSLSource string

// GPULightingUniform is the GPU-aligned representation of the lighting uniform buffer.
// Every field is a vec4 so the layout is identical under WGSL and std140 rules.
// Size: 48 bytes.
type GPULightingUniform struct {
	Direction [4]float32 // offset  0: normalized light direction, w unused
	Color     [4]float32 // offset 16: light color pre-multiplied by intensity
	Ambient   [4]float32 // offset 32: ambient color
}

// Size returns the size of the GPULightingUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULightingUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULightingUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULightingUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Direction[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Color[i]))
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.Ambient[i]))
	}
	return buf
}
