// Package config handles engine configuration loading and management.
package config

import (
	"errors"
	"slices"

	"github.com/rotisserie/eris"
)

// ErrInvalidConfig is returned by Validate when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Backend names accepted by RendererConfig.Backend.
const (
	BackendWGPU     = "wgpu"
	BackendOpenGL   = "opengl"
	BackendHeadless = "headless"
)

// Config holds all engine settings.
type Config struct {
	Window    WindowConfig    `yaml:"window" toml:"window"`
	Renderer  RendererConfig  `yaml:"renderer" toml:"renderer"`
	Animation AnimationConfig `yaml:"animation" toml:"animation"`
	Engine    EngineConfig    `yaml:"engine" toml:"engine"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
}

// RendererConfig holds GPU backend settings.
type RendererConfig struct {
	Backend       string     `yaml:"backend" toml:"backend"` // wgpu, opengl or headless
	VSync         bool       `yaml:"vsync" toml:"vsync"`
	MSAA          int        `yaml:"msaa" toml:"msaa"`
	ForceSoftware bool       `yaml:"force_software" toml:"force_software"`
	ClearColor    [3]float32 `yaml:"clear_color" toml:"clear_color"`
}

// AnimationConfig holds skeletal animation settings.
type AnimationConfig struct {
	Workers      int     `yaml:"workers" toml:"workers"` // 0 = one per CPU
	BlendSeconds float32 `yaml:"blend_seconds" toml:"blend_seconds"`
}

// EngineConfig holds frame loop settings.
type EngineConfig struct {
	MaxFrameDelta   float32 `yaml:"max_frame_delta" toml:"max_frame_delta"`
	FrameLimit      int     `yaml:"frame_limit" toml:"frame_limit"` // 0 = uncapped
	Profiling       bool    `yaml:"profiling" toml:"profiling"`
	ProfileInterval float32 `yaml:"profile_interval" toml:"profile_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-ecs",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Backend:    BackendWGPU,
			VSync:      true,
			MSAA:       4,
			ClearColor: [3]float32{0.1, 0.1, 0.1},
		},
		Animation: AnimationConfig{
			Workers:      0,
			BlendSeconds: 0.3,
		},
		Engine: EngineConfig{
			MaxFrameDelta:   0.1,
			FrameLimit:      0,
			Profiling:       false,
			ProfileInterval: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if !slices.Contains([]string{BackendWGPU, BackendOpenGL, BackendHeadless}, c.Renderer.Backend) {
		return eris.Wrapf(ErrInvalidConfig, "unknown renderer backend %q", c.Renderer.Backend)
	}
	if !slices.Contains([]int{1, 4, 8, 16}, c.Renderer.MSAA) {
		return eris.Wrapf(ErrInvalidConfig, "msaa sample count %d", c.Renderer.MSAA)
	}
	if c.Animation.Workers < 0 {
		return eris.Wrapf(ErrInvalidConfig, "animation workers %d", c.Animation.Workers)
	}
	if c.Animation.BlendSeconds < 0 {
		return eris.Wrapf(ErrInvalidConfig, "blend seconds %f", c.Animation.BlendSeconds)
	}
	if c.Engine.MaxFrameDelta <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "max frame delta %f", c.Engine.MaxFrameDelta)
	}
	return nil
}
