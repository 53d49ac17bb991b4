package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/chewxy/math32"
)

// OrbitController steers a Camera around a target point using spherical coordinates.
// Orbit and zoom change the spherical coordinates; pan moves the target and eye together
// along the camera's local axes. It is safe for concurrent use, so window callbacks can
// feed it while the frame loop applies it.
type OrbitController struct {
	mu sync.Mutex

	target    [3]float32
	radius    float32
	azimuth   float32 // around +Y, 0 looks down -Z from +Z
	elevation float32 // above the horizontal plane

	minRadius, maxRadius       float32
	minElevation, maxElevation float32

	orbitSpeed float32 // radians per second
	zoomSpeed  float32 // radius units per scroll step
	panSpeed   float32 // world units per second
}

// NewOrbitController creates a controller 10 units in front of the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - *OrbitController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) *OrbitController {
	oc := &OrbitController{
		radius:       10,
		minRadius:    1,
		maxRadius:    1000,
		minElevation: -math32.Pi/2 + 0.01,
		maxElevation: math32.Pi/2 - 0.01,
		orbitSpeed:   1.5,
		zoomSpeed:    1,
		panSpeed:     10,
	}
	for _, opt := range options {
		opt(oc)
	}
	oc.radius = common.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = common.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	return oc
}

// eye returns the position on the sphere. Caller holds mu.
func (oc *OrbitController) eye() [3]float32 {
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	return [3]float32{
		oc.target[0] + oc.radius*cosElev*math32.Sin(oc.azimuth),
		oc.target[1] + oc.radius*sinElev,
		oc.target[2] + oc.radius*cosElev*math32.Cos(oc.azimuth),
	}
}

// Eye returns the camera position the controller currently produces.
func (oc *OrbitController) Eye() [3]float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.eye()
}

// Target returns the orbit center.
func (oc *OrbitController) Target() [3]float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

// Radius returns the distance between eye and target.
func (oc *OrbitController) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

// Orbit turns the eye around the target.
//
// Parameters:
//   - azimuth: horizontal input, -1..1 per second of input
//   - elevation: vertical input, -1..1 per second of input
//   - dt: the frame time step in seconds
func (oc *OrbitController) Orbit(azimuth, elevation, dt float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth = math32.Mod(oc.azimuth+azimuth*oc.orbitSpeed*dt, 2*math32.Pi)
	oc.elevation = common.Clamp(oc.elevation+elevation*oc.orbitSpeed*dt, oc.minElevation, oc.maxElevation)
}

// Zoom moves the eye toward (positive steps) or away from the target, within the radius bounds.
//
// Parameters:
//   - steps: scroll steps
func (oc *OrbitController) Zoom(steps float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = common.Clamp(oc.radius-steps*oc.zoomSpeed, oc.minRadius, oc.maxRadius)
}

// Pan translates the target, and with it the eye, along the camera's right and up axes.
//
// Parameters:
//   - right: input along the right axis
//   - up: input along the up axis
//   - dt: the frame time step in seconds
func (oc *OrbitController) Pan(right, up, dt float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	back := common.Normalize3(common.Sub3(oc.eye(), oc.target))
	r := common.Normalize3(common.Cross3([3]float32{0, 1, 0}, back))
	u := common.Cross3(back, r)
	step := oc.panSpeed * dt
	for i := range 3 {
		oc.target[i] += (r[i]*right + u[i]*up) * step
	}
}

// Apply returns c looking from the controller's eye at its target. Projection settings are kept.
//
// Parameters:
//   - c: the camera to steer
//
// Returns:
//   - Camera: the steered camera
func (oc *OrbitController) Apply(c Camera) Camera {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	c.Eye = oc.eye()
	c.Target = oc.target
	c.Up = [3]float32{0, 1, 0}
	return c
}
