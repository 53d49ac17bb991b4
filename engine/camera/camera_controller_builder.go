package camera

// CameraControllerOption is a functional option for configuring an OrbitController.
type CameraControllerOption func(*OrbitController)

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - CameraControllerOption: functional option to set the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - CameraControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle above the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the elevation
func WithElevation(elevation float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.elevation = elevation
	}
}

// WithOrbitTarget sets the point the camera orbits.
func WithOrbitTarget(x, y, z float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min: closest allowed distance
//   - max: farthest allowed distance
//
// Returns:
//   - CameraControllerOption: functional option to set the radius bounds
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.minRadius, oc.maxRadius = min, max
	}
}

// WithOrbitSpeed sets the orbit rate in radians per second of full input.
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the radius change per scroll step.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the pan rate in world units per second of full input.
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(oc *OrbitController) {
		oc.panSpeed = speed
	}
}
