package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging and profiling output")
	flagBackend  = flag.String("backend", "", "Renderer backend: wgpu, opengl or headless")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
	flagSoftware = flag.Bool("software", false, "Force the software fallback adapter")
	flagProfile  = flag.String("profile", "", "Directory to write a CPU profile into")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ProfilePath returns the CPU profile output directory, or "" when profiling is off.
func ProfilePath() string {
	return *flagProfile
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Engine.Profiling = true
	}
	if *flagBackend != "" {
		cfg.Renderer.Backend = *flagBackend
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagSoftware {
		cfg.Renderer.ForceSoftware = true
	}
}
