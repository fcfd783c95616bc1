package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapekit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
display:
  backend: spi
  width: 240
  height: 135
  spi:
    bus: SPI1.0
    dc: GPIO25
    rst: GPIO27
    x_offset: 40
    y_offset: 53
    madctl: 0x60
    invert: true
render:
  band_height: 20
scene: scenes/home.yaml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Display.Backend != BackendSPI {
		t.Errorf("Backend = %q, want %q", cfg.Display.Backend, BackendSPI)
	}
	if cfg.Display.Width != 240 || cfg.Display.Height != 135 {
		t.Errorf("size = %dx%d, want 240x135", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.SPI.MADCTL != 0x60 {
		t.Errorf("MADCTL = %#x, want 0x60", cfg.Display.SPI.MADCTL)
	}
	if cfg.Render.Strategy != StrategyProgressive {
		t.Errorf("Strategy = %q, want %q", cfg.Render.Strategy, StrategyProgressive)
	}
	if cfg.Render.BandHeight != 20 {
		t.Errorf("BandHeight = %d, want 20", cfg.Render.BandHeight)
	}
	if cfg.Render.BusyPolicy != PolicyWait {
		t.Errorf("BusyPolicy = %q, want %q", cfg.Render.BusyPolicy, PolicyWait)
	}
	if cfg.Display.SPI.SpeedHz != 40_000_000 {
		t.Errorf("SpeedHz = %d, want 40000000", cfg.Display.SPI.SpeedHz)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.Backend != BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Display.Backend, BackendMemory)
	}
	if cfg.Render.Strategy != StrategyDirect {
		t.Errorf("Strategy = %q, want %q", cfg.Render.Strategy, StrategyDirect)
	}
	if cfg.Display.Width != 240 || cfg.Display.Height != 240 {
		t.Errorf("size = %dx%d, want 240x240", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Render.MaxShapes != 45 {
		t.Errorf("MaxShapes = %d, want 45", cfg.Render.MaxShapes)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown backend", "display: {backend: vga}", "display.backend"},
		{"negative size", "display: {width: -1}", "negative"},
		{"bad format", "display: {format: cmyk}", "display.format"},
		{"mono4 framebuffer", "display: {format: mono4}", "display.format"},
		{"spi without dc", "display: {backend: spi}", "display.spi.dc"},
		{"spi direct", "display: {backend: spi, spi: {dc: GPIO25}}\nrender: {strategy: direct}", "progressive only"},
		{"fbdev progressive", "display: {backend: fbdev}\nrender: {strategy: progressive}", "direct only"},
		{"bad strategy", "render: {strategy: lazy}", "render.strategy"},
		{"bad policy", "render: {busy_policy: spin}", "busy_policy"},
		{"blur radius too big", "render: {max_blur_radius: 600}", "render.max_blur_radius"},
		{"madctl too big", "display: {spi: {madctl: 256}}", "madctl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load() succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(*Config) bool
		wantErr bool
	}{
		{
			name:  "overrides",
			env:   map[string]string{EnvBackend: "fbdev", EnvScene: "a.yaml", EnvBandHeight: "8", EnvListenAddr: ":9000", EnvDebug: "true", EnvDevMode: "1"},
			check: func(c *Config) bool { return c.Display.Backend == "fbdev" && c.Scene == "a.yaml" && c.Render.BandHeight == 8 && c.Web.Listen == ":9000" && c.Log.Debug && c.Web.DevMode },
		},
		{name: "bad band height", env: map[string]string{EnvBandHeight: "tall"}, wantErr: true},
		{name: "bad debug", env: map[string]string{EnvDebug: "maybe"}, wantErr: true},
		{name: "bad dev mode", env: map[string]string{EnvDevMode: "sure"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			err := cfg.ApplyEnv(func(k string) string { return tt.env[k] })
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(&cfg) {
				t.Errorf("ApplyEnv() gave %+v", cfg)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv(EnvBandHeight, "32")
	cfg, err := Load(writeConfig(t, "render: {band_height: 10}"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Render.BandHeight != 32 {
		t.Errorf("BandHeight = %d, want 32", cfg.Render.BandHeight)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shapekit.yaml")
	scenePath := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte("render: {band_height: 10}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(scenePath, []byte("shapes: []"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil, nil, scenePath)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	var heights []int
	w.OnReload(func(c *Config) {
		mu.Lock()
		heights = append(heights, c.Render.BandHeight)
		mu.Unlock()
	})
	w.Start()

	if err := os.WriteFile(path, []byte("render: {band_height: 24}"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Get().Render.BandHeight == 24 })

	mu.Lock()
	n := len(heights)
	mu.Unlock()
	if err := os.WriteFile(scenePath, []byte("shapes: [{bar: {rect: [0, 0, 1, 1]}}]"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(heights) > n
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
