package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func assertMatrixInDelta(t *testing.T, want, got []float32, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "element %d", i)
	}
}

func TestMul4Identity(t *testing.T) {
	var m [16]float32
	ComposeTRS(m[:], [3]float32{1, 2, 3}, QuatFromAxisAngle([3]float32{0, 1, 0}, 0.7), [3]float32{2, 2, 2})
	id := IdentityMatrix()

	var out [16]float32
	Mul4(out[:], m[:], id[:])
	assertMatrixInDelta(t, m[:], out[:], tol)

	Mul4(out[:], id[:], m[:])
	assertMatrixInDelta(t, m[:], out[:], tol)
}

func TestMul4Aliasing(t *testing.T) {
	var a [16]float32
	ComposeTRS(a[:], [3]float32{1, 0, 0}, QuatIdentity(), [3]float32{1, 1, 1})
	Mul4(a[:], a[:], a[:])
	assert.InDelta(t, 2, a[12], tol)
}

func TestComposeTRSTranslatesPoint(t *testing.T) {
	var m [16]float32
	ComposeTRS(m[:], [3]float32{10, 20, 30}, QuatIdentity(), [3]float32{1, 1, 1})
	p := TransformPoint(m[:], [3]float32{1, 2, 3})
	assert.Equal(t, [3]float32{11, 22, 33}, p)
}

func TestComposeTRSRotatesAroundY(t *testing.T) {
	var m [16]float32
	ComposeTRS(m[:], [3]float32{}, QuatFromAxisAngle([3]float32{0, 1, 0}, math32.Pi/2), [3]float32{1, 1, 1})
	p := TransformPoint(m[:], [3]float32{1, 0, 0})
	assert.InDelta(t, 0, p[0], tol)
	assert.InDelta(t, 0, p[1], tol)
	assert.InDelta(t, -1, p[2], tol)
}

func TestInvert4RoundTrip(t *testing.T) {
	var m, inv, out [16]float32
	ComposeTRS(m[:], [3]float32{3, -1, 4}, QuatFromAxisAngle([3]float32{1, 1, 0}, 1.1), [3]float32{2, 0.5, 3})
	require.True(t, Invert4(inv[:], m[:]))
	Mul4(out[:], m[:], inv[:])
	id := IdentityMatrix()
	assertMatrixInDelta(t, id[:], out[:], 1e-4)
}

func TestInvert4Singular(t *testing.T) {
	var zero, out [16]float32
	out[0] = 7
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, float32(7), out[0], "output must be untouched")
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	var view [16]float32
	eye := [3]float32{0, 5, 10}
	LookAt(view[:], eye, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
	p := TransformPoint(view[:], eye)
	for i := range p {
		assert.InDelta(t, 0, p[i], tol)
	}

	// The target is straight ahead, i.e. on the -Z view axis.
	target := TransformPoint(view[:], [3]float32{0, 0, 0})
	assert.InDelta(t, 0, target[0], tol)
	assert.InDelta(t, 0, target[1], tol)
	assert.Less(t, target[2], float32(0))
}

func TestQuatSlerpEndpointsAndMidpoint(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromAxisAngle([3]float32{0, 0, 1}, math32.Pi/2)

	assertMatrixInDelta(t, a[:], func() []float32 { q := QuatSlerp(a, b, 0); return q[:] }(), tol)
	assertMatrixInDelta(t, b[:], func() []float32 { q := QuatSlerp(a, b, 1); return q[:] }(), tol)

	mid := QuatSlerp(a, b, 0.5)
	want := QuatFromAxisAngle([3]float32{0, 0, 1}, math32.Pi/4)
	assertMatrixInDelta(t, want[:], mid[:], tol)
}

func TestQuatSlerpTakesShortestArc(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromAxisAngle([3]float32{0, 1, 0}, math32.Pi/2)
	negB := [4]float32{-b[0], -b[1], -b[2], -b[3]}

	q1 := QuatSlerp(a, b, 0.5)
	q2 := QuatSlerp(a, negB, 0.5)
	assertMatrixInDelta(t, q1[:], q2[:], tol)
}

func TestMaxAbsScale(t *testing.T) {
	assert.Equal(t, float32(3), MaxAbsScale([3]float32{1, -3, 2}))
	assert.Equal(t, float32(0.5), MaxAbsScale([3]float32{0.5, 0.5, -0.5}))
}

func TestClampAndAlignUp(t *testing.T) {
	assert.Equal(t, float32(0.1), Clamp(float32(0.5), 0, 0.1))
	assert.Equal(t, 0, Clamp(-4, 0, 10))
	assert.Equal(t, uint32(256), AlignUp(80, 256))
	assert.Equal(t, uint32(512), AlignUp(257, 256))
	assert.Equal(t, uint32(80), AlignUp(80, 0))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}

func TestMatrixMaxScaleIgnoresRotation(t *testing.T) {
	var m [16]float32
	ComposeTRS(m[:], [3]float32{5, 5, 5}, QuatFromAxisAngle([3]float32{0, 1, 1}, 0.9), [3]float32{1, -4, 2})
	assert.InDelta(t, 4, MatrixMaxScale(m[:]), 1e-5)
}
