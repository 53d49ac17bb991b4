package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ecs/engine/config"
	"github.com/Carmen-Shannon/oxy-ecs/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ecs/engine/scene"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler, e.g. to change its reporting interval.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets a custom configured window for the engine to use.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene the engine updates and draws each frame.
//
// Parameters:
//   - s: the Scene to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithRenderer sets the renderer frames are drawn with.
//
// Parameters:
//   - r: the Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithMaxFrameDelta sets the largest time step one frame advances by. Non-positive values
// disable the clamp.
//
// Parameters:
//   - seconds: the clamp in seconds (default 0.1)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrameDelta(seconds float32) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrameDelta = seconds
	}
}

// WithInputCallback registers the function called at the start of each frame.
func WithInputCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.inputCallback = callback
	}
}

// WithRenderCallback registers the function called after each frame is drawn.
func WithRenderCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.renderCallback = callback
	}
}

// WithBackendFactory replaces the function SwapBackend creates backends with.
//
// Parameters:
//   - factory: the backend constructor
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackendFactory(factory BackendFactory) EngineBuilderOption {
	return func(e *engine) {
		e.factory = factory
	}
}

// WithBackendSettings sets the settings the default backend factory creates backends with.
func WithBackendSettings(settings renderer.BackendSettings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = settings
	}
}

// WithConfig applies a loaded configuration: the frame delta clamp, the frame limit,
// profiling, the profiler interval and the settings of backends created by SwapBackend.
//
// Parameters:
//   - cfg: the validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrameDelta = cfg.Engine.MaxFrameDelta
		e.renderFrameLimit = frameLimit(float64(cfg.Engine.FrameLimit))
		e.profilingEnabled = cfg.Engine.Profiling
		interval := time.Duration(float64(cfg.Engine.ProfileInterval) * float64(time.Second))
		e.profiler = profiler.NewProfiler(profiler.WithInterval(interval))
		e.settings = BackendSettings(cfg)
	}
}

// BackendSettings maps the renderer section of a configuration onto backend settings.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - renderer.BackendSettings: the settings
func BackendSettings(cfg *config.Config) renderer.BackendSettings {
	settings := renderer.DefaultBackendSettings()
	if !cfg.Renderer.VSync {
		settings.PresentMode = renderer.PresentModeUncapped
	}
	if cfg.Renderer.MSAA > 0 {
		settings.MSAA = renderer.MSAASampleCount(cfg.Renderer.MSAA)
	}
	settings.ForceSoftware = cfg.Renderer.ForceSoftware
	settings.ClearColor = cfg.Renderer.ClearColor
	return settings
}
