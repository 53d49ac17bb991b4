package scene

import (
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-ecs/engine/world"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithWorldCapacity sets how many entities the world pre-allocates.
//
// Parameters:
//   - capacity: the entity capacity
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorldCapacity(capacity int) SceneBuilderOption {
	return func(s *scene) {
		s.worldCapacity = capacity
	}
}

// WithWorld uses an existing world instead of creating one.
func WithWorld(w *world.World) SceneBuilderOption {
	return func(s *scene) {
		s.world = w
	}
}

// WithAnimator uses an existing animator instead of creating one.
func WithAnimator(a animator.Animator) SceneBuilderOption {
	return func(s *scene) {
		s.animator = a
	}
}

// WithAnimationWorkers sets the worker count of the animator the scene creates.
// Values below 1 select one worker per CPU. Ignored when WithAnimator is given.
//
// Parameters:
//   - n: the number of animation workers
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAnimationWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = n
	}
}

// SpawnOption configures the mesh instance of a spawned entity.
type SpawnOption func(mi *world.MeshInstance)

// WithColor sets the mesh tint.
func WithColor(color [3]float32) SpawnOption {
	return func(mi *world.MeshInstance) {
		mi.Color = color
	}
}

// WithAlpha sets the mesh opacity.
func WithAlpha(alpha float32) SpawnOption {
	return func(mi *world.MeshInstance) {
		mi.Alpha = alpha
	}
}

// WithOutline enables the outline with the given width.
func WithOutline(width float32) SpawnOption {
	return func(mi *world.MeshInstance) {
		mi.Outline = true
		mi.OutlineWidth = width
	}
}
