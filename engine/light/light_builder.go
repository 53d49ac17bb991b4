package light

// LightingBuilderOption is a function that configures a Lighting value during construction.
type LightingBuilderOption func(*Lighting)

// WithDirection sets the direction the directional light travels.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightingBuilderOption: a function that applies the direction option
func WithDirection(x, y, z float32) LightingBuilderOption {
	return func(l *Lighting) {
		l.Direction = [3]float32{x, y, z}
	}
}

// WithColor sets the RGB color of the directional light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightingBuilderOption: a function that applies the color option
func WithColor(r, g, b float32) LightingBuilderOption {
	return func(l *Lighting) {
		l.Color = [3]float32{r, g, b}
	}
}

// WithIntensity sets the scalar intensity multiplier of the directional light.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightingBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) LightingBuilderOption {
	return func(l *Lighting) {
		l.Intensity = intensity
	}
}

// WithAmbient sets the ambient color.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightingBuilderOption: a function that applies the ambient option
func WithAmbient(r, g, b float32) LightingBuilderOption {
	return func(l *Lighting) {
		l.Ambient = [3]float32{r, g, b}
	}
}
