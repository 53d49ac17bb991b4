package model

import "github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry is an option builder that sets the interleaved vertices and indices of the Model.
// The slices are kept, not copied.
//
// Parameters:
//   - vertices: interleaved position, normal, color floats
//   - indices: triangle list indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the geometry option to a model
func WithGeometry(vertices []float32, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
		m.indices = indices
	}
}

// WithSkin is an option builder that sets the per-vertex joint influences of the Model.
//
// Parameters:
//   - joints: four joint indices per vertex
//   - weights: four weights per vertex
//
// Returns:
//   - ModelBuilderOption: a function that applies the skin option to a model
func WithSkin(joints []uint8, weights []float32) ModelBuilderOption {
	return func(m *model) {
		m.joints = joints
		m.weights = weights
	}
}

// WithSkeleton is an option builder that sets the rig of the Model.
//
// Parameters:
//   - skeleton: the skeleton the joint indices refer to
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *animator.Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []animator.AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}
