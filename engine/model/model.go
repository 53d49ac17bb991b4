package model

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/chewxy/math32"
	"github.com/rotisserie/eris"
)

var (
	// ErrEmptyIndices is returned for geometry without any index.
	ErrEmptyIndices = errors.New("geometry has no indices")
	// ErrInvalidVertexData is returned when the vertex slice is empty or not a whole number of vertices.
	ErrInvalidVertexData = errors.New("invalid vertex data")
	// ErrIndexOutOfRange is returned when an index refers past the last vertex.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrSkinDataMismatch is returned when joint or weight data does not cover every vertex.
	ErrSkinDataMismatch = errors.New("skin data does not match vertex count")
	// ErrJointOutOfRange is returned when a vertex references a joint past the palette or the model's skeleton.
	ErrJointOutOfRange = errors.New("joint index out of range")
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	vertices       []float32
	indices        []uint32
	joints         []uint8
	weights        []float32
	skeleton       *animator.Skeleton
	animations     []animator.AnimationClip
	boundingRadius float32
}

// Model is the authoritative CPU copy of a mesh. GPU backends hold only derived buffers;
// a Model is what gets re-uploaded when the backend changes.
//
// Vertices are interleaved as position, normal, color (common.FloatsPerVertex floats each).
// Skinned models also carry common.InfluencesPerVertex joint indices and weights per vertex,
// plus the skeleton and clips that drive them.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices returns the interleaved vertex data.
	//
	// Returns:
	//   - []float32: VertexCount × common.FloatsPerVertex floats
	Vertices() []float32

	// Indices returns the triangle list indices.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// Joints returns the per-vertex joint indices, nil for static models.
	//
	// Returns:
	//   - []uint8: VertexCount × common.InfluencesPerVertex joint indices
	Joints() []uint8

	// Weights returns the per-vertex joint weights, nil for static models.
	//
	// Returns:
	//   - []float32: VertexCount × common.InfluencesPerVertex weights
	Weights() []float32

	// Skinned reports whether the model carries skin data.
	//
	// Returns:
	//   - bool: true if joints and weights are present
	Skinned() bool

	// VertexCount returns the number of whole vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// IndexCount returns the number of indices.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius returns the largest distance of any vertex from the model origin.
	//
	// Returns:
	//   - float32: the bounding sphere radius
	BoundingRadius() float32

	// Skeleton returns the rig the skin data refers to, or nil.
	//
	// Returns:
	//   - *animator.Skeleton: the skeleton or nil
	Skeleton() *animator.Skeleton

	// Animations returns the clips bundled with the model.
	//
	// Returns:
	//   - []animator.AnimationClip: the clips
	Animations() []animator.AnimationClip

	// AnimationIndex returns the index of a bundled clip by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - int: the clip index or -1
	AnimationIndex(name string) int

	// Validate checks the geometry for the malformed-asset conditions the renderer rejects.
	//
	// Returns:
	//   - error: nil if the model can be registered
	Validate() error
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// The bounding radius is computed from the final vertex data.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	m.boundingRadius = BoundingRadius(m.vertices)
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []float32 {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) Joints() []uint8 {
	return m.joints
}

func (m *model) Weights() []float32 {
	return m.weights
}

func (m *model) Skinned() bool {
	return m.joints != nil || m.weights != nil
}

func (m *model) VertexCount() int {
	return len(m.vertices) / common.FloatsPerVertex
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Skeleton() *animator.Skeleton {
	return m.skeleton
}

func (m *model) Animations() []animator.AnimationClip {
	return m.animations
}

func (m *model) AnimationIndex(name string) int {
	for i := range m.animations {
		if m.animations[i].Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Validate() error {
	if m.Skinned() {
		if err := ValidateSkinnedGeometry(m.vertices, m.indices, m.joints, m.weights); err != nil {
			return err
		}
		if m.skeleton != nil {
			return validateJoints(m.joints, m.skeleton.JointCount())
		}
		return nil
	}
	return ValidateGeometry(m.vertices, m.indices)
}

// ValidateGeometry checks interleaved vertex data and indices.
//
// Parameters:
//   - vertices: interleaved vertex data
//   - indices: triangle list indices
//
// Returns:
//   - error: ErrInvalidVertexData, ErrEmptyIndices or ErrIndexOutOfRange wrapped with context, or nil
func ValidateGeometry(vertices []float32, indices []uint32) error {
	if len(vertices) == 0 || len(vertices)%common.FloatsPerVertex != 0 {
		return eris.Wrapf(ErrInvalidVertexData, "%d floats is not a multiple of %d", len(vertices), common.FloatsPerVertex)
	}
	if len(indices) == 0 {
		return eris.Wrap(ErrEmptyIndices, "cannot register geometry")
	}
	count := uint32(len(vertices) / common.FloatsPerVertex)
	for i, idx := range indices {
		if idx >= count {
			return eris.Wrapf(ErrIndexOutOfRange, "index %d at position %d, vertex count %d", idx, i, count)
		}
	}
	return nil
}

// ValidateSkinnedGeometry checks geometry plus its per-vertex skin data.
//
// Parameters:
//   - vertices: interleaved vertex data
//   - indices: triangle list indices
//   - joints: common.InfluencesPerVertex joint indices per vertex
//   - weights: common.InfluencesPerVertex weights per vertex
//
// Returns:
//   - error: a wrapped validation error, or nil. Joint indices of common.MaxJoints or more
//     fail with ErrJointOutOfRange.
func ValidateSkinnedGeometry(vertices []float32, indices []uint32, joints []uint8, weights []float32) error {
	if err := ValidateGeometry(vertices, indices); err != nil {
		return err
	}
	want := len(vertices) / common.FloatsPerVertex * common.InfluencesPerVertex
	if len(joints) != want || len(weights) != want {
		return eris.Wrapf(ErrSkinDataMismatch, "want %d influences, got %d joints and %d weights", want, len(joints), len(weights))
	}
	return validateJoints(joints, common.MaxJoints)
}

// validateJoints checks that every joint index is below limit.
func validateJoints(joints []uint8, limit int) error {
	for i, j := range joints {
		if int(j) >= limit {
			return eris.Wrapf(ErrJointOutOfRange, "joint %d at influence %d, limit %d", j, i, limit)
		}
	}
	return nil
}

// BoundingRadius returns the maximum vertex position norm of interleaved vertex data.
//
// Parameters:
//   - vertices: interleaved vertex data
//
// Returns:
//   - float32: the radius, 0 for no vertices
func BoundingRadius(vertices []float32) float32 {
	var r2 float32
	for i := 0; i+2 < len(vertices); i += common.FloatsPerVertex {
		x, y, z := vertices[i], vertices[i+1], vertices[i+2]
		r2 = max(r2, x*x+y*y+z*z)
	}
	return math32.Sqrt(r2)
}
