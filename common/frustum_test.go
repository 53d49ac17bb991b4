package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func buildViewProj(eye, target [3]float32, fovDeg, near, far float32) [16]float32 {
	var view, proj, vp [16]float32
	LookAt(view[:], eye, target, [3]float32{0, 1, 0})
	Perspective(proj[:], fovDeg*math32.Pi/180, 16.0/9.0, near, far)
	Mul4(vp[:], proj[:], view[:])
	return vp
}

// go test -run ^TestFrustumSphereAheadAndBehind$ ./common -count 1
func TestFrustumSphereAheadAndBehind(t *testing.T) {
	eye := [3]float32{0, 0, 0}
	forward := [3]float32{0, 0, -1}
	vp := buildViewProj(eye, forward, 60, 0.1, 5000)
	f := ExtractFrustumFromMatrix(vp[:])

	assert.True(t, f.IntersectsSphere([3]float32{0, 0, -10}, 1), "sphere ten units ahead must be visible")
	assert.False(t, f.IntersectsSphere([3]float32{0, 0, 10}, 1), "sphere ten units behind must be culled")
}

func TestFrustumSphereFromOffsetCamera(t *testing.T) {
	eye := [3]float32{5, 3, 20}
	target := [3]float32{5, 3, 0}
	vp := buildViewProj(eye, target, 60, 0.1, 5000)
	f := ExtractFrustumFromMatrix(vp[:])

	assert.True(t, f.IntersectsSphere([3]float32{5, 3, 10}, 1))
	assert.False(t, f.IntersectsSphere([3]float32{5, 3, 30}, 1))
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	vp := buildViewProj([3]float32{1, 2, 3}, [3]float32{0, 0, 0}, 45, 0.5, 100)
	f := ExtractFrustumFromMatrix(vp[:])
	for i, p := range f.Planes {
		assert.InDelta(t, 1, Length3(p.Normal), 1e-4, "plane %d", i)
	}
}

func TestFrustumSphereStraddlingPlaneIsKept(t *testing.T) {
	vp := buildViewProj([3]float32{0, 0, 0}, [3]float32{0, 0, -1}, 60, 0.1, 5000)
	f := ExtractFrustumFromMatrix(vp[:])

	// Center just outside the right plane, radius large enough to reach inside.
	center := [3]float32{20, 0, -10}
	assert.False(t, f.IntersectsSphere(center, 0.5))
	assert.True(t, f.IntersectsSphere(center, 20))
}

func TestFrustumFarPlane(t *testing.T) {
	vp := buildViewProj([3]float32{0, 0, 0}, [3]float32{0, 0, -1}, 60, 0.1, 100)
	f := ExtractFrustumFromMatrix(vp[:])

	assert.True(t, f.IntersectsSphere([3]float32{0, 0, -99}, 0.5))
	assert.False(t, f.IntersectsSphere([3]float32{0, 0, -150}, 1))
}
