package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// MaxTargetFPS bounds engine.target_fps so the frame interval stays positive.
const MaxTargetFPS = 1000

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Window    WindowConfig    `toml:"window"`
	Plugins   PluginsConfig   `toml:"plugins"`
	Renderer  RendererConfig  `toml:"renderer"`
	Scene     SceneConfig     `toml:"scene"`
	Assets    AssetsConfig    `toml:"assets"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	Name      string `toml:"name"`
	TargetFPS int    `toml:"target_fps"` // 0 = run unthrottled
	MaxFrames int    `toml:"max_frames"` // 0 = run until every window closes
}

type WindowConfig struct {
	Title  string `toml:"title"` // empty = engine name
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type PluginsConfig struct {
	SearchPath string   `toml:"search_path"` // directory of <name>.so plugins
	Load       []string `toml:"load"`
}

type RendererConfig struct {
	Backend          string `toml:"backend"` // plugin or library name, any case; resolved when the backend loads
	ClearColor       string `toml:"clear_color"`
	SwapChainBuffers int    `toml:"swap_chain_buffers"`
}

type SceneConfig struct {
	Path string `toml:"path"` // YAML scene description; empty = application builds its own
}

type AssetsConfig struct {
	TextureDir string `toml:"texture_dir"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config { return defaults() }

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be non-zero", c.Window.Width, c.Window.Height))
	}
	if c.Engine.TargetFPS < 0 || c.Engine.TargetFPS > MaxTargetFPS {
		errs = append(errs, fmt.Errorf("target_fps %d must be between 0 and %d", c.Engine.TargetFPS, MaxTargetFPS))
	}
	if c.Engine.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("max_frames %d must not be negative", c.Engine.MaxFrames))
	}
	if c.Renderer.Backend == "" {
		errs = append(errs, errors.New("renderer backend is required"))
	}
	if len(c.Plugins.Load) == 0 {
		errs = append(errs, errors.New("plugins.load must name the renderer backend library"))
	}
	if c.Renderer.SwapChainBuffers < 0 {
		errs = append(errs, fmt.Errorf("swap_chain_buffers %d must not be negative", c.Renderer.SwapChainBuffers))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging format %q must be json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// WindowTitle falls back to the engine name when no title is configured.
func (c *Config) WindowTitle() string {
	if c.Window.Title != "" {
		return c.Window.Title
	}
	return c.Engine.Name
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:      "Qurb Sandbox",
			TargetFPS: 60,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
		},
		Plugins: PluginsConfig{
			SearchPath: "plugins",
			Load:       []string{"QurbHeadlessRHI"},
		},
		Renderer: RendererConfig{
			Backend:          "QurbHeadlessRHI",
			ClearColor:       "purple",
			SwapChainBuffers: 2,
		},
		Assets: AssetsConfig{
			TextureDir: "data/textures",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
