package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ecs/engine/scene"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxFrameDelta is the largest time step a single frame advances the simulation by, in seconds.
const DefaultMaxFrameDelta float32 = 0.1

var (
	// ErrNoWindow is returned by Run when the engine was built without a window.
	ErrNoWindow = errors.New("engine has no window")

	// ErrNoRenderer is returned by SwapBackend when the engine was built without a renderer.
	ErrNoRenderer = errors.New("engine has no renderer")

	// ErrFramePanic wraps a panic recovered while running a frame.
	ErrFramePanic = errors.New("frame panicked")
)

// BackendFactory creates the device-level backend for a backend swap.
//
// Parameters:
//   - backendType: the backend to create
//   - win: the window to present to, may be nil
//
// Returns:
//   - renderer.RendererBackend: the new backend
//   - error: the creation error
type BackendFactory func(backendType renderer.RendererBackendType, win window.Window) (renderer.RendererBackend, error)

// engine implements the Engine interface.
// Drives input, animation, attachment resolution and rendering as sequential phases of one frame.
type engine struct {
	mu sync.Mutex

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	scene    scene.Scene
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	factory  BackendFactory
	settings renderer.BackendSettings

	// pendingSwap is a backend swap requested from inside a callback, applied at the next frame start.
	pendingSwap *renderer.RendererBackendType

	maxFrameDelta    float32
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	inputCallback    func(deltaTime float32)
	renderCallback   func(deltaTime float32)

	frames uint64
}

// Engine is the main entry point for the engine.
// It owns the frame loop and ties the window, the active scene and the renderer together.
type Engine interface {
	// Window returns the underlying window, or nil for a windowless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene the engine updates and draws.
	//
	// Returns:
	//   - scene.Scene: the scene, or nil
	Scene() scene.Scene

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil
	Renderer() renderer.Renderer

	// Profiler returns the frame statistics profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetInputCallback registers the function called at the start of each frame, before animation.
	//
	// Parameters:
	//   - callback: function receiving the clamped delta time in seconds
	SetInputCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each frame is drawn.
	//
	// Parameters:
	//   - callback: function receiving the clamped delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frame runs one frame: input, animation, attachment resolution, render, then profiling.
	// dt is clamped to [0, max frame delta] first. A panic inside the frame is recovered and
	// returned as ErrFramePanic.
	//
	// Parameters:
	//   - dt: wall-clock time since the previous frame in seconds
	//
	// Returns:
	//   - error: a backend swap or render error
	Frame(dt float32) error

	// Frames returns the number of frames run so far.
	Frames() uint64

	// SwapBackend replaces the renderer's backend immediately. The window is recreated first
	// when the new backend needs a different client API, then every mesh of the scene is
	// registered with the new backend.
	//
	// Parameters:
	//   - backendType: the backend to switch to
	//
	// Returns:
	//   - error: ErrNoRenderer, a window recreation error, or a backend creation or registration error
	SwapBackend(backendType renderer.RendererBackendType) error

	// RequestBackendSwap schedules SwapBackend for the start of the next frame. Window callbacks
	// must use this instead of SwapBackend.
	//
	// Parameters:
	//   - backendType: the backend to switch to
	RequestBackendSwap(backendType renderer.RendererBackendType)

	// Run drives Frame from the window message loop with wall-clock deltas.
	// Blocks until the window is closed or Quit is called, then releases the renderer.
	//
	// Returns:
	//   - error: ErrNoWindow, or the frame error that stopped the loop
	Run() error

	// Quit signals the frame loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// The scene is attached to the renderer so its meshes are registered before the first frame.
//
// Parameters:
//   - options: functional options for engine configuration (window, scene, renderer, profiling)
//
// Returns:
//   - Engine: the newly created engine
//   - error: a mesh registration error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quitChannel:   make(chan struct{}),
		profiler:      profiler.NewProfiler(),
		settings:      renderer.DefaultBackendSettings(),
		maxFrameDelta: DefaultMaxFrameDelta,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.factory == nil {
		e.factory = func(t renderer.RendererBackendType, win window.Window) (renderer.RendererBackend, error) {
			return renderer.NewBackend(t, win, e.settings)
		}
	}

	if e.scene != nil && e.renderer != nil && e.scene.Renderer() != e.renderer {
		if err := e.scene.SetRenderer(e.renderer); err != nil {
			return nil, eris.Wrap(err, "attach scene to renderer")
		}
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.onResize)
	}

	return e, nil
}

// onResize resizes the render target and keeps the active camera's aspect ratio in step.
func (e *engine) onResize(width, height int) {
	if e.renderer != nil {
		e.renderer.Resize(width, height)
	}
	if width <= 0 || height <= 0 || e.scene == nil {
		return
	}
	w := e.scene.World()
	if cam, ok := w.ActiveCamera(); ok {
		if c, ok := w.Camera(cam); ok {
			c.Aspect = float32(width) / float32(height)
			_ = w.SetCamera(cam, c)
		}
	}
}

// ClampDelta limits a frame time step to [0, limit]. A non-positive limit disables the upper bound.
//
// Parameters:
//   - dt: the measured time step in seconds
//   - limit: the largest allowed step in seconds
//
// Returns:
//   - float32: the clamped step
func ClampDelta(dt, limit float32) float32 {
	if dt < 0 {
		return 0
	}
	if limit > 0 && dt > limit {
		return limit
	}
	return dt
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Frame(dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("frame recovered from panic", zap.Any("panic", r), zap.Uint64("frame", e.frames))
			err = eris.Wrap(ErrFramePanic, fmt.Sprint(r))
		}
	}()
	return e.frame(ClampDelta(dt, e.maxFrameDelta))
}

func (e *engine) frame(dt float32) error {
	e.mu.Lock()
	pending := e.pendingSwap
	e.pendingSwap = nil
	e.mu.Unlock()
	if pending != nil {
		if err := e.SwapBackend(*pending); err != nil {
			return err
		}
	}

	if e.inputCallback != nil {
		e.inputCallback(dt)
	}

	if e.scene != nil && e.scene.Active() {
		// Animation and attachment resolution must finish before anything reads world matrices.
		e.scene.Update(dt)
		if e.renderer != nil {
			if err := e.renderer.Render(e.scene.World(), e.scene.Animator().Instances()); err != nil {
				return eris.Wrapf(err, "render frame %d", e.frames)
			}
		}
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled && e.profiler != nil && e.renderer != nil {
		e.profiler.Tick(e.renderer.Stats())
	}

	e.frames++
	return nil
}

func (e *engine) Frames() uint64 {
	return e.frames
}

// clientAPIFor returns the window context a backend needs. The headless backend works with any.
func clientAPIFor(t renderer.RendererBackendType, current window.ClientAPI) window.ClientAPI {
	switch t {
	case renderer.BackendTypeOpenGL:
		return window.ClientAPIOpenGL
	case renderer.BackendTypeWGPU:
		return window.ClientAPINone
	default:
		return current
	}
}

func (e *engine) SwapBackend(backendType renderer.RendererBackendType) error {
	if e.renderer == nil {
		return ErrNoRenderer
	}
	from := "none"
	if b := e.renderer.Backend(); b != nil {
		from = b.Type().String()
	}

	if e.window != nil {
		if api := clientAPIFor(backendType, e.window.ClientAPI()); api != e.window.ClientAPI() {
			// Surfaces and contexts of the old backend belong to the window about to be destroyed.
			e.renderer.Release()
			if err := e.window.SetClientAPI(api); err != nil {
				return eris.Wrapf(err, "recreate window for %s", backendType)
			}
		}
	}

	b, err := e.factory(backendType, e.window)
	if err != nil {
		return eris.Wrapf(err, "create %s backend", backendType)
	}

	var source renderer.GeometrySource
	if e.scene != nil {
		source = e.scene.Meshes()
	}
	if err := e.renderer.SwapBackend(b, source); err != nil {
		return eris.Wrapf(err, "swap to %s backend", backendType)
	}
	if e.window != nil {
		e.renderer.Resize(e.window.Width(), e.window.Height())
	}

	logger.Info("backend swapped",
		zap.String("from", from),
		zap.Stringer("to", backendType),
		zap.Uint64("frame", e.frames),
	)
	return nil
}

func (e *engine) RequestBackendSwap(backendType renderer.RendererBackendType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingSwap = &backendType
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}

	var runErr error
	lastFrame := time.Now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.shutdown()
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		if err := e.Frame(dt); err != nil {
			logger.Error("frame failed, stopping", zap.Error(err))
			runErr = err
			e.Quit()
			e.shutdown()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()

	e.Quit()
	if e.scene != nil {
		e.scene.Close()
	}
	if e.renderer != nil {
		e.renderer.Release()
	}
	return runErr
}

// shutdown stops the scene's workers and releases the renderer while the window it presents to
// still exists, then closes the window.
func (e *engine) shutdown() {
	if e.scene != nil {
		e.scene.Close()
	}
	if e.renderer != nil {
		e.renderer.Release()
	}
	if err := e.window.Close(); err != nil {
		logger.Warn("close window", zap.Error(err))
	}
}

// Quit signals the frame loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetInputCallback registers the function called at the start of each frame.
func (e *engine) SetInputCallback(callback func(deltaTime float32)) {
	e.inputCallback = callback
}

// SetRenderCallback registers the function called after each frame is drawn.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
