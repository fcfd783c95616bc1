package app

import (
	"context"
	"errors"
	"image/png"
	"io"
	"path/filepath"
	"sync"

	"github.com/rook-computer/shapekit/internal/assets"
	"github.com/rook-computer/shapekit/internal/config"
	"github.com/rook-computer/shapekit/internal/scene"
	"github.com/rook-computer/shapekit/internal/shape"
)

// ErrNoReadback is returned for frame requests on write-only displays.
var ErrNoReadback = errors.New("display cannot be read back")

// App owns the backend and the current scene and renders it on demand.
type App struct {
	Config  *config.Config
	Backend *Backend
	Logger  Logger

	mu    sync.Mutex
	scene *scene.Scene
}

func New(cfg *config.Config, backend *Backend) *App {
	return &App{Config: cfg, Backend: backend, Logger: NoopLogger{}}
}

// LoadScene reads the configured scene file, or the built-in scene when
// none is set.
func (app *App) LoadScene() (*scene.Scene, error) {
	path := app.currentConfig().Scene
	if path == "" {
		return scene.Parse(assets.DefaultScene, ".")
	}
	return scene.Load(path)
}

// currentConfig returns the config last installed by Reload.
func (app *App) currentConfig() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.Config
}

// Show makes s the current scene and renders it.
func (app *App) Show(s *scene.Scene) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.scene = s
	return app.render()
}

// Redraw renders the current scene again.
func (app *App) Redraw() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.scene == nil {
		return nil
	}
	return app.render()
}

func (app *App) render() error {
	err := app.scene.Render(app.Backend.Engine)
	if err != nil {
		app.Logger.Errorf("app", "render failed: %v", err)
	}
	return err
}

// RenderYAML parses a scene document and shows it. Relative file
// references resolve against the configured scene's directory.
func (app *App) RenderYAML(data []byte) error {
	dir := "."
	if path := app.currentConfig().Scene; path != "" {
		dir = filepath.Dir(path)
	}
	s, err := scene.Parse(data, dir)
	if err != nil {
		return err
	}
	return app.Show(s)
}

// WriteFrame encodes the display contents as PNG.
func (app *App) WriteFrame(w io.Writer) error {
	if app.Backend.Source == nil {
		return ErrNoReadback
	}
	app.mu.Lock()
	img := app.Backend.Source.Snapshot()
	app.mu.Unlock()
	return png.Encode(w, img)
}

// Stats returns the last pass statistics and the pass count.
func (app *App) Stats() (shape.PassStats, uint64) {
	return app.Backend.Engine.Stats()
}

// Reload is the config watcher callback. Only the scene follows a reload;
// display and render settings need a restart.
func (app *App) Reload(cfg *config.Config) {
	app.mu.Lock()
	prev := app.Config
	app.Config = cfg
	app.mu.Unlock()

	if prev != nil && (prev.Display != cfg.Display || prev.Render != cfg.Render) {
		app.Logger.Infof("app", "display or render settings changed; restart to apply")
	}
	s, err := app.LoadScene()
	if err != nil {
		app.Logger.Errorf("scene", "reload failed: %v", err)
		return
	}
	app.Logger.Infof("scene", "reloaded %d shapes", s.Shapes())
	_ = app.Show(s)
}

// Run shows the configured scene and blocks until ctx is done.
func (app *App) Run(ctx context.Context) error {
	s, err := app.LoadScene()
	if err != nil {
		app.Logger.Errorf("scene", "load failed: %v", err)
		return err
	}
	app.Logger.Infof("scene", "loaded %d shapes", s.Shapes())
	// Shape failures are logged by render; the rest of the scene is shown.
	_ = app.Show(s)
	<-ctx.Done()
	return nil
}
