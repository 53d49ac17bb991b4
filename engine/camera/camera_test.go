package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, [3]float32{0, 1, 0}, c.Up)
	assert.InDelta(t, math32.Pi/4, c.Fov, 1e-6)
	assert.Equal(t, float32(0.1), c.Near)
}

func TestViewProjectionIsProjectionTimesView(t *testing.T) {
	c := NewCamera(
		WithEye(3, 4, 10),
		WithTarget(0, 0, 0),
		WithFov(60*math32.Pi/180),
		WithAspect(16.0/9.0),
		WithNear(0.1),
		WithFar(5000),
	)
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	var want [16]float32
	common.Mul4(want[:], proj[:], view[:])

	got := c.ViewProjectionMatrix()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5)
	}
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(10))
	proj := c.ProjectionMatrix()

	project := func(z float32) float32 {
		clipZ := proj[10]*z + proj[14]
		clipW := proj[11]*z + proj[15]
		return clipZ / clipW
	}
	assert.InDelta(t, 0, project(-1), 1e-5, "near plane maps to depth 0")
	assert.InDelta(t, 1, project(-10), 1e-5, "far plane maps to depth 1")
}

func TestUniformMarshalLayout(t *testing.T) {
	c := NewCamera(WithEye(1, 2, 3))
	u := c.Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 144)

	readF := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	view := c.ViewMatrix()
	assert.Equal(t, view[12], readF(48))
	assert.Equal(t, float32(1), readF(128))
	assert.Equal(t, float32(2), readF(132))
	assert.Equal(t, float32(3), readF(136))
	assert.Equal(t, float32(1), readF(140))
}

func TestOrbitControllerApply(t *testing.T) {
	oc := NewOrbitController(WithRadius(10), WithOrbitTarget(0, 2, 0))
	c := oc.Apply(NewCamera(WithFov(1), WithFar(500)))

	assert.InDeltaSlice(t, []float32{0, 2, 10}, c.Eye[:], 1e-5)
	assert.Equal(t, [3]float32{0, 2, 0}, c.Target)
	assert.Equal(t, float32(1), c.Fov, "projection settings are kept")
	assert.Equal(t, float32(500), c.Far)
}

func TestOrbitControllerKeepsRadius(t *testing.T) {
	oc := NewOrbitController(WithRadius(5), WithOrbitSpeed(1))
	oc.Orbit(1, 0.5, 0.7)

	eye := oc.Eye()
	dist := math32.Sqrt(eye[0]*eye[0] + eye[1]*eye[1] + eye[2]*eye[2])
	assert.InDelta(t, 5, dist, 1e-4)
}

func TestOrbitControllerClamps(t *testing.T) {
	oc := NewOrbitController(WithRadius(5), WithRadiusBounds(2, 8))
	oc.Zoom(100)
	assert.Equal(t, float32(2), oc.Radius())
	oc.Zoom(-100)
	assert.Equal(t, float32(8), oc.Radius())

	oc.Orbit(0, 1, 100)
	eye := oc.Eye()
	assert.Less(t, eye[1], float32(8), "elevation stops short of the pole")
	assert.Greater(t, eye[1], float32(7.9))
}

func TestOrbitControllerPanMovesTarget(t *testing.T) {
	oc := NewOrbitController(WithRadius(10), WithPanSpeed(1))
	oc.Pan(1, 0, 2)

	target, eye := oc.Target(), oc.Eye()
	assert.InDeltaSlice(t, []float32{2, 0, 0}, target[:], 1e-5)
	assert.InDeltaSlice(t, []float32{2, 0, 10}, eye[:], 1e-5)
}
