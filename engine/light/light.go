package light

import "github.com/Carmen-Shannon/oxy-ecs/common"

// Lighting is the scene lighting block: one directional light plus an ambient term.
//
// The world holds one Lighting value as the process-wide singleton. An entity carrying
// the Light component may also hold a Lighting value, which overrides the singleton for
// the frame it is live in.
type Lighting struct {
	// Direction is the direction the light travels, in world space. It need not be normalized.
	Direction [3]float32

	// Color is the RGB color of the directional light.
	Color [3]float32

	// Intensity scales Color before upload.
	Intensity float32

	// Ambient is the RGB ambient color added to every lit fragment.
	Ambient [3]float32
}

// NewLighting creates a Lighting block with a white, slightly downward sun and a dim ambient term.
//
// Parameters:
//   - options: functional options to configure the lighting
//
// Returns:
//   - Lighting: the configured lighting value
func NewLighting(options ...LightingBuilderOption) Lighting {
	l := Lighting{
		Direction: [3]float32{-0.4, -1, -0.3},
		Color:     [3]float32{1, 1, 1},
		Intensity: 1,
		Ambient:   [3]float32{0.15, 0.15, 0.15},
	}
	for _, option := range options {
		option(&l)
	}
	return l
}

// Uniform packs the lighting block into its GPU layout. The direction is normalized
// and the color is pre-multiplied by the intensity.
//
// Returns:
//   - GPULightingUniform: the uniform block ready to Marshal
func (l Lighting) Uniform() GPULightingUniform {
	dir := common.Normalize3(l.Direction)
	return GPULightingUniform{
		Direction: [4]float32{dir[0], dir[1], dir[2], 0},
		Color:     [4]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity, 1},
		Ambient:   [4]float32{l.Ambient[0], l.Ambient[1], l.Ambient[2], 1},
	}
}
