package camera

import (
	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/chewxy/math32"
)

// Camera is the camera component stored per entity in the world.
// It is plain data: the view and projection matrices are derived on demand, so
// mutating a field never leaves a stale matrix behind.
type Camera struct {
	// Eye is the world-space camera position.
	Eye [3]float32

	// Target is the world-space point the camera looks at.
	Target [3]float32

	// Up is the world-space up vector used to orient the view.
	Up [3]float32

	// Fov is the vertical field of view in radians.
	Fov float32

	// Aspect is the viewport aspect ratio (width / height).
	Aspect float32

	// Near is the near clipping plane distance.
	Near float32

	// Far is the far clipping plane distance.
	Far float32
}

// NewCamera creates a Camera with default perspective settings, looking down -Z from the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the configured camera value
func NewCamera(options ...CameraBuilderOption) Camera {
	c := Camera{
		Eye:    [3]float32{0, 0, 0},
		Target: [3]float32{0, 0, -1},
		Up:     [3]float32{0, 1, 0},
		Fov:    45.0 * (math32.Pi / 180.0),
		Aspect: 1.0,
		Near:   0.1,
		Far:    100.0,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// ViewMatrix returns the 4x4 view matrix as 16 floats (column-major).
//
// Returns:
//   - [16]float32: the view matrix
func (c Camera) ViewMatrix() [16]float32 {
	var m [16]float32
	common.LookAt(m[:], c.Eye, c.Target, c.Up)
	return m
}

// ProjectionMatrix returns the 4x4 perspective projection matrix as 16 floats (column-major).
// Depth maps to [0, 1].
//
// Returns:
//   - [16]float32: the projection matrix
func (c Camera) ProjectionMatrix() [16]float32 {
	var m [16]float32
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	common.Perspective(m[:], c.Fov, aspect, c.Near, c.Far)
	return m
}

// ViewProjectionMatrix returns projection × view.
//
// Returns:
//   - [16]float32: the combined view-projection matrix
func (c Camera) ViewProjectionMatrix() [16]float32 {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	var vp [16]float32
	common.Mul4(vp[:], proj[:], view[:])
	return vp
}

// Uniform packs the camera into its GPU uniform layout.
//
// Returns:
//   - GPUCameraUniform: the uniform block ready to Marshal
func (c Camera) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		View:       c.ViewMatrix(),
		Projection: c.ProjectionMatrix(),
		Position:   c.Eye,
	}
}
