package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagModel      = flag.String("model", "", "Skinned model to animate (.gltf/.glb)")
	flagHouse      = flag.String("house", "", "Static environment model (.gltf/.glb)")
	flagAnim       = flag.String("anim", "", "Animation clip name")
	flagSkybox     = flag.String("skybox", "", "Directory holding skybox faces")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config to the user config directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagModel != "" {
		cfg.Scene.Model = *flagModel
	}
	if *flagHouse != "" {
		cfg.Scene.House = *flagHouse
	}
	if *flagAnim != "" {
		cfg.Animation.Clip = *flagAnim
	}
	if *flagSkybox != "" {
		cfg.Scene.Skybox = *flagSkybox
	}
}
