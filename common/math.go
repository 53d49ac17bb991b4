package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// IdentityMatrix returns a fresh column-major 4x4 identity matrix.
//
// Returns:
//   - [16]float32: the identity matrix
func IdentityMatrix() [16]float32 {
	var m [16]float32
	Identity(m[:])
	return m
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b. out may alias a or b.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Perspective creates a perspective projection matrix targeting the WebGPU clip space,
// where depth maps to [0, 1]. The OpenGL shaders remap depth to [-1, 1] themselves so
// both backends share this matrix.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / math32.Tan(fovY/2.0)
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular (determinant ≈ 0) the
// output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if math32.Abs(det) < 1e-12 {
		return false
	}

	invDet := 1.0 / det
	var r [16]float32

	r[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	r[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	r[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	r[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	r[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	r[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	r[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	r[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	r[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	r[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	r[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	r[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	r[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	r[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	r[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	r[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	copy(out, r[:])
	return true
}

// LookAt creates a view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view/camera space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eye, center, up [3]float32) {
	z := Normalize3(Sub3(eye, center))
	x := Normalize3(Cross3(up, z))
	y := Cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -Dot3(x, eye)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -Dot3(y, eye)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -Dot3(z, eye)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// ComposeTRS builds a column-major model matrix from a translation, a unit quaternion
// rotation (x, y, z, w) and a per-axis scale: M = T * R * S.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation
//   - q: rotation quaternion (x, y, z, w)
//   - s: scale factors
func ComposeTRS(out []float32, t [3]float32, q [4]float32, s [3]float32) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = 2 * (xy + wz) * s[0]
	out[2] = 2 * (xz - wy) * s[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = 2 * (yz + wx) * s[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * s[2]
	out[9] = 2 * (yz - wx) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// TransformPoint applies a column-major 4x4 matrix to a point (w = 1).
//
// Parameters:
//   - m: the matrix (16 elements)
//   - p: the point
//
// Returns:
//   - [3]float32: the transformed point
func TransformPoint(m []float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// MaxAbsScale returns max(|x|, |y|, |z|) of a scale vector. Used to inflate a local
// bounding radius into a conservative world-space radius under non-uniform scale.
func MaxAbsScale(s [3]float32) float32 {
	return math32.Max(math32.Abs(s[0]), math32.Max(math32.Abs(s[1]), math32.Abs(s[2])))
}

// MatrixMaxScale returns the largest axis scale encoded in the upper 3x3 of a
// column-major matrix, i.e. MaxAbsScale of its column lengths.
//
// Parameters:
//   - m: the matrix (16 elements)
//
// Returns:
//   - float32: the largest column length
func MatrixMaxScale(m []float32) float32 {
	return MaxAbsScale([3]float32{
		Length3([3]float32{m[0], m[1], m[2]}),
		Length3([3]float32{m[4], m[5], m[6]}),
		Length3([3]float32{m[8], m[9], m[10]}),
	})
}

// QuatIdentity returns the identity rotation (x, y, z, w) = (0, 0, 0, 1).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatFromAxisAngle builds a unit quaternion rotating angle radians around axis.
//
// Parameters:
//   - axis: rotation axis (normalized internally)
//   - angle: rotation angle in radians
//
// Returns:
//   - [4]float32: the quaternion (x, y, z, w)
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	a := Normalize3(axis)
	s := math32.Sin(angle / 2)
	return [4]float32{a[0] * s, a[1] * s, a[2] * s, math32.Cos(angle / 2)}
}

// QuatNormalize returns q scaled to unit length, or the identity for a degenerate input.
func QuatNormalize(q [4]float32) [4]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 1e-8 {
		return QuatIdentity()
	}
	inv := 1 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatSlerp interpolates between two unit quaternions along the shortest arc.
// Falls back to normalized linear interpolation when the inputs are nearly parallel.
//
// Parameters:
//   - a: start rotation
//   - b: end rotation
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	cos := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if cos < 0 {
		cos = -cos
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}

	var wa, wb float32
	if cos > 0.9995 {
		wa, wb = 1-t, t
	} else {
		theta := math32.Acos(cos)
		sin := math32.Sin(theta)
		wa = math32.Sin((1-t)*theta) / sin
		wb = math32.Sin(t*theta) / sin
	}

	return QuatNormalize([4]float32{
		wa*a[0] + wb*b[0],
		wa*a[1] + wb*b[1],
		wa*a[2] + wb*b[2],
		wa*a[3] + wb*b[3],
	})
}

// Lerp3 linearly interpolates two vectors.
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length3 returns the Euclidean norm of v.
func Length3(v [3]float32) float32 {
	return math32.Sqrt(Dot3(v, v))
}

// Normalize3 returns v scaled to unit length. A zero vector is returned unchanged.
func Normalize3(v [3]float32) [3]float32 {
	l := Length3(v)
	if l == 0 {
		return v
	}
	inv := 1 / l
	return [3]float32{v[0] * inv, v[1] * inv, v[2] * inv}
}
