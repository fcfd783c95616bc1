// Package config loads the YAML configuration shared by the device and
// simulator binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/shape"
)

const (
	EnvBackend    = "SHAPEKIT_BACKEND"
	EnvScene      = "SHAPEKIT_SCENE"
	EnvBandHeight = "SHAPEKIT_BAND_HEIGHT"
	EnvListenAddr = "SHAPEKIT_LISTEN"
	EnvDebug      = "SHAPEKIT_DEBUG"
	EnvDevMode    = "SHAPEKIT_DEV"
	EnvStdioLog   = "SHAPEKIT_STDIO_LOG"
)

const (
	BackendMemory = "memory"
	BackendFbdev  = "fbdev"
	BackendSPI    = "spi"

	StrategyDirect      = "direct"
	StrategyProgressive = "progressive"

	PolicyWait = "wait"
	PolicyFail = "fail"
)

type Config struct {
	Display DisplayConfig `yaml:"display"`
	Render  RenderConfig  `yaml:"render"`
	Scene   string        `yaml:"scene"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

type DisplayConfig struct {
	Backend string      `yaml:"backend"`
	Width   int         `yaml:"width"`
	Height  int         `yaml:"height"`
	Format  string      `yaml:"format"`
	Fbdev   FbdevConfig `yaml:"fbdev"`
	SPI     SPIConfig   `yaml:"spi"`
}

type FbdevConfig struct {
	Path         string `yaml:"path"`
	Scaler       string `yaml:"scaler"`
	GraphicsMode bool   `yaml:"graphics_mode"`
}

type SPIConfig struct {
	Bus     string `yaml:"bus"`
	DC      string `yaml:"dc"`
	RST     string `yaml:"rst,omitempty"`
	SpeedHz int64  `yaml:"speed_hz"`
	XOffset int    `yaml:"x_offset"`
	YOffset int    `yaml:"y_offset"`
	MADCTL  int    `yaml:"madctl"`
	Invert  bool   `yaml:"invert"`
}

type RenderConfig struct {
	Strategy      string `yaml:"strategy"`
	BandHeight    int    `yaml:"band_height"`
	MaxBlurRadius int    `yaml:"max_blur_radius"`
	MaxShapes     int    `yaml:"max_shapes"`
	BusyPolicy    string `yaml:"busy_policy"`
}

type WebConfig struct {
	Listen  string `yaml:"listen"`
	DevMode bool   `yaml:"dev_mode"`
}

type LogConfig struct {
	Debug    bool   `yaml:"debug"`
	File     string `yaml:"file"`
	StdioLog string `yaml:"stdio_log,omitempty"`
}

// Load reads path, applies environment overrides, validates and fills in
// defaults. An empty path starts from an empty file.
func Load(path string) (*Config, error) { return LoadWith(path, os.Getenv) }

// LoadWith is Load with overrides looked up through getenv, so binaries can
// layer their flags over the environment.
func LoadWith(path string, getenv func(string) string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// ApplyEnv overrides fields from SHAPEKIT_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBackend); v != "" {
		c.Display.Backend = v
	}
	if v := getenv(EnvScene); v != "" {
		c.Scene = v
	}
	if v := getenv(EnvListenAddr); v != "" {
		c.Web.Listen = v
	}
	if v := getenv(EnvStdioLog); v != "" {
		c.Log.StdioLog = v
	}
	if raw := getenv(EnvBandHeight); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer (got %q): %w", EnvBandHeight, raw, err)
		}
		c.Render.BandHeight = n
	}
	if raw := getenv(EnvDebug); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q): %w", EnvDebug, raw, err)
		}
		c.Log.Debug = b
	}
	if raw := getenv(EnvDevMode); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		c.Web.DevMode = b
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Display.Backend {
	case "", BackendMemory, BackendFbdev, BackendSPI:
	default:
		return fmt.Errorf("display.backend must be one of memory, fbdev, spi (got %q)", c.Display.Backend)
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("display size must not be negative (got %dx%d)", c.Display.Width, c.Display.Height)
	}
	if c.Display.Format != "" {
		f, err := pixfmt.ParseFormat(c.Display.Format)
		if err != nil {
			return fmt.Errorf("display.format: %w", err)
		}
		if f != pixfmt.Mono8 && f != pixfmt.RGB565 && f != pixfmt.RGBA8888 {
			return fmt.Errorf("display.format must be mono8, rgb565 or rgba8888 (got %q)", c.Display.Format)
		}
	}
	if c.Display.Backend == BackendSPI {
		if c.Display.SPI.DC == "" {
			return fmt.Errorf("display.spi.dc is required")
		}
		if f := c.Display.Format; f != "" && !strings.EqualFold(f, "rgb565") {
			return fmt.Errorf("display.format must be rgb565 for the spi backend (got %q)", f)
		}
	}

	switch c.Render.Strategy {
	case "", StrategyDirect, StrategyProgressive:
	default:
		return fmt.Errorf("render.strategy must be direct or progressive (got %q)", c.Render.Strategy)
	}
	if c.Render.Strategy == StrategyDirect && c.Display.Backend == BackendSPI {
		return fmt.Errorf("render.strategy direct needs a framebuffer; the spi backend is progressive only")
	}
	if c.Render.Strategy == StrategyProgressive && c.Display.Backend == BackendFbdev {
		return fmt.Errorf("render.strategy progressive needs a panel; the fbdev backend is direct only")
	}
	if c.Render.BandHeight < 0 {
		return fmt.Errorf("render.band_height must not be negative (got %d)", c.Render.BandHeight)
	}
	if r := c.Render.MaxBlurRadius; r < 0 || r > shape.MaxBlurRadius {
		return fmt.Errorf("render.max_blur_radius must be 0..%d (got %d)", shape.MaxBlurRadius, r)
	}
	if c.Render.MaxShapes < 0 {
		return fmt.Errorf("render.max_shapes must not be negative (got %d)", c.Render.MaxShapes)
	}
	switch c.Render.BusyPolicy {
	case "", PolicyWait, PolicyFail:
	default:
		return fmt.Errorf("render.busy_policy must be wait or fail (got %q)", c.Render.BusyPolicy)
	}
	if m := c.Display.SPI.MADCTL; m < 0 || m > 0xFF {
		return fmt.Errorf("display.spi.madctl must fit in a byte (got %d)", m)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Display.Backend == "" {
		c.Display.Backend = BackendMemory
	}
	if c.Display.Width == 0 {
		c.Display.Width = 240
	}
	if c.Display.Height == 0 {
		c.Display.Height = 240
	}
	if c.Display.Format == "" {
		c.Display.Format = "rgb565"
	}
	if c.Display.Fbdev.Path == "" {
		c.Display.Fbdev.Path = "/dev/fb0"
	}
	if c.Display.Fbdev.Scaler == "" {
		c.Display.Fbdev.Scaler = "nearest"
	}
	if c.Display.SPI.Bus == "" {
		c.Display.SPI.Bus = "SPI0.0"
	}
	if c.Display.SPI.SpeedHz == 0 {
		c.Display.SPI.SpeedHz = 40_000_000
	}
	if c.Render.Strategy == "" {
		c.Render.Strategy = StrategyDirect
		if c.Display.Backend == BackendSPI {
			c.Render.Strategy = StrategyProgressive
		}
	}
	if c.Render.BandHeight == 0 {
		c.Render.BandHeight = 16
	}
	if c.Render.MaxBlurRadius == 0 {
		c.Render.MaxBlurRadius = 8
	}
	if c.Render.MaxShapes == 0 {
		c.Render.MaxShapes = 45
	}
	if c.Render.BusyPolicy == "" {
		c.Render.BusyPolicy = PolicyWait
	}
	if c.Log.File == "" {
		c.Log.File = "./shapekit-debug.log"
	}
}

// PixelFormat returns the parsed display format.
func (c *Config) PixelFormat() pixfmt.Format {
	f, _ := pixfmt.ParseFormat(c.Display.Format)
	return f
}
