package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendWGPU, cfg.Renderer.Backend)
	assert.Equal(t, float32(0.1), cfg.Engine.MaxFrameDelta)
}

func TestLoadFileYAMLMergesWithDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
window:
  width: 800
renderer:
  backend: opengl
logging:
  level: debug
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset fields keep defaults")
	assert.Equal(t, BackendOpenGL, cfg.Renderer.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[renderer]
backend = "headless"
msaa = 1

[animation]
workers = 3
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendHeadless, cfg.Renderer.Backend)
	assert.Equal(t, 1, cfg.Renderer.MSAA)
	assert.Equal(t, 3, cfg.Animation.Workers)
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "config.ini", "width=1")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, ErrUnsupportedFormat, eris.Cause(err))
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "config.yaml", "renderer:\n  backend: vulkan\n")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, ErrInvalidConfig, eris.Cause(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"bad msaa", func(c *Config) { c.Renderer.MSAA = 3 }},
		{"negative workers", func(c *Config) { c.Animation.Workers = -1 }},
		{"negative blend", func(c *Config) { c.Animation.BlendSeconds = -0.5 }},
		{"zero max delta", func(c *Config) { c.Engine.MaxFrameDelta = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, ErrInvalidConfig, eris.Cause(err))
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Window.Title = "crowd"
			cfg.Renderer.Backend = BackendHeadless

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, cfg.SaveTo(path))

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	require.NoError(t, flag.Set("backend", BackendHeadless))
	require.NoError(t, flag.Set("width", "640"))
	require.NoError(t, flag.Set("debug", "true"))
	t.Cleanup(func() {
		_ = flag.Set("backend", "")
		_ = flag.Set("width", "0")
		_ = flag.Set("debug", "false")
	})

	cfg := Default()
	applyFlags(cfg)

	assert.Equal(t, BackendHeadless, cfg.Renderer.Backend)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Engine.Profiling)
}
