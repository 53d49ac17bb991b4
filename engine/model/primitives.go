package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/chewxy/math32"
)

// appendVertex appends one interleaved vertex.
func appendVertex(dst []float32, pos, normal, color [3]float32) []float32 {
	return append(dst,
		pos[0], pos[1], pos[2],
		normal[0], normal[1], normal[2],
		color[0], color[1], color[2],
	)
}

// Cube builds an axis-aligned cube centered on the origin with 8 shared vertices and 12 triangles.
// Each vertex normal is its normalized position.
//
// Parameters:
//   - half: half the edge length
//   - color: the vertex color
//
// Returns:
//   - Model: the cube, with a bounding radius of √3·half
func Cube(half float32, color [3]float32) Model {
	vertices := make([]float32, 0, 8*common.FloatsPerVertex)
	for i := range 8 {
		p := [3]float32{-half, -half, -half}
		if i&1 != 0 {
			p[0] = half
		}
		if i&2 != 0 {
			p[1] = half
		}
		if i&4 != 0 {
			p[2] = half
		}
		vertices = appendVertex(vertices, p, common.Normalize3(p), color)
	}

	// Counter-clockwise when viewed from outside.
	indices := []uint32{
		0, 2, 3, 0, 3, 1, // -Z
		4, 5, 7, 4, 7, 6, // +Z
		0, 4, 6, 0, 6, 2, // -X
		1, 3, 7, 1, 7, 5, // +X
		0, 1, 5, 0, 5, 4, // -Y
		2, 6, 7, 2, 7, 3, // +Y
	}
	return NewModel(WithName("cube"), WithGeometry(vertices, indices))
}

// Plane builds a square in the XZ plane facing +Y.
//
// Parameters:
//   - half: half the edge length
//   - color: the vertex color
//
// Returns:
//   - Model: the plane
func Plane(half float32, color [3]float32) Model {
	up := [3]float32{0, 1, 0}
	var vertices []float32
	vertices = appendVertex(vertices, [3]float32{-half, 0, -half}, up, color)
	vertices = appendVertex(vertices, [3]float32{half, 0, -half}, up, color)
	vertices = appendVertex(vertices, [3]float32{half, 0, half}, up, color)
	vertices = appendVertex(vertices, [3]float32{-half, 0, half}, up, color)
	return NewModel(WithName("plane"), WithGeometry(vertices, []uint32{0, 2, 1, 0, 3, 2}))
}

// Clip names bundled with SkinnedColumn.
const (
	ClipIdle  = "idle"
	ClipSway  = "sway"
	ClipTwist = "twist"
)

// SkinnedColumn builds a square column standing on the origin, rigged with a chain of one
// joint per segment. Interior rings are shared half and half between the joints above and
// below them. The bundled clips are ClipIdle, ClipSway and ClipTwist.
//
// Parameters:
//   - segments: the number of joints, clamped to [1, common.MaxJoints]
//   - height: total column height
//   - halfWidth: half the column cross-section
//   - color: the vertex color
//
// Returns:
//   - Model: the skinned column with its skeleton and clips
func SkinnedColumn(segments int, height, halfWidth float32, color [3]float32) Model {
	segments = common.Clamp(segments, 1, common.MaxJoints)
	segLen := height / float32(segments)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	rings := segments + 1
	vertices := make([]float32, 0, rings*4*common.FloatsPerVertex)
	joints := make([]uint8, 0, rings*4*common.InfluencesPerVertex)
	weights := make([]float32, 0, rings*4*common.InfluencesPerVertex)
	for r := range rings {
		y := float32(r) * segLen
		below, above := max(r-1, 0), min(r, segments-1)
		for _, c := range corners {
			p := [3]float32{c[0] * halfWidth, y, c[1] * halfWidth}
			vertices = appendVertex(vertices, p, common.Normalize3([3]float32{c[0], 0, c[1]}), color)
			if below == above {
				joints = append(joints, uint8(above), 0, 0, 0)
				weights = append(weights, 1, 0, 0, 0)
			} else {
				joints = append(joints, uint8(below), uint8(above), 0, 0)
				weights = append(weights, 0.5, 0.5, 0, 0)
			}
		}
	}

	var indices []uint32
	for r := range segments {
		base := uint32(r * 4)
		for side := range uint32(4) {
			a, b := base+side, base+(side+1)%4
			c, d := a+4, b+4
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	top := uint32(segments * 4)
	indices = append(indices, 0, 1, 2, 0, 2, 3, top, top+2, top+1, top, top+3, top+2)

	skeleton, clips := columnRig(segments, segLen)
	return NewModel(
		WithName(fmt.Sprintf("column-%d", segments)),
		WithGeometry(vertices, indices),
		WithSkin(joints, weights),
		WithSkeleton(skeleton),
		WithAnimations(clips),
	)
}

// columnRig builds the joint chain and clips for SkinnedColumn.
func columnRig(segments int, segLen float32) (*animator.Skeleton, []animator.AnimationClip) {
	joints := make([]animator.Joint, segments)
	for i := range joints {
		local := animator.IdentityTransform()
		if i > 0 {
			local.Translation = [3]float32{0, segLen, 0}
		}
		joints[i] = animator.Joint{Name: fmt.Sprintf("segment%d", i), Parent: i - 1, Local: local}
	}
	// A forward chain with invertible bind transforms is always well formed.
	skeleton, err := animator.NewSkeleton(joints)
	if err != nil {
		panic(err)
	}

	swing := func(name string, axis [3]float32, angle, duration float32) animator.AnimationClip {
		clip := animator.AnimationClip{Name: name, Duration: duration}
		for i := range segments {
			clip.Channels = append(clip.Channels, animator.Channel{
				Joint: i,
				Rotations: []animator.QuatKey{
					{Time: 0, Value: common.QuatFromAxisAngle(axis, -angle)},
					{Time: duration / 2, Value: common.QuatFromAxisAngle(axis, angle)},
					{Time: duration, Value: common.QuatFromAxisAngle(axis, -angle)},
				},
			})
		}
		return clip
	}

	clips := []animator.AnimationClip{
		{Name: ClipIdle, Duration: 1},
		swing(ClipSway, [3]float32{0, 0, 1}, math32.Pi/16, 2),
		swing(ClipTwist, [3]float32{0, 1, 0}, math32.Pi/8, 3),
	}
	return skeleton, clips
}
