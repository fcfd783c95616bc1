package app

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"periph.io/x/conn/v3/physic"

	"github.com/rook-computer/shapekit/internal/config"
	"github.com/rook-computer/shapekit/internal/display/fbdev"
	"github.com/rook-computer/shapekit/internal/display/memory"
	"github.com/rook-computer/shapekit/internal/display/spipanel"
	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/shape"
)

// Source is display memory that can be read back for previews.
type Source interface {
	Size() image.Point
	Snapshot() *image.RGBA
}

// Backend is an opened display with its render engine.
type Backend struct {
	Engine *shape.Engine
	// Source is nil when the display cannot be read back.
	Source Source

	closers []func() error
}

// OpenBackend opens the display named by cfg and builds the engine for the
// configured strategy.
func OpenBackend(cfg *config.Config, log Logger) (*Backend, error) {
	if log == nil {
		log = NoopLogger{}
	}
	size := image.Pt(cfg.Display.Width, cfg.Display.Height)
	budget := Budget(cfg)
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	a := shape.NewArena("bump-a", budget.BumpASize(), shape.MemoryGeneral)
	b := shape.NewArena("bump-b", budget.BumpBSize(), shape.MemoryDMA)
	policy := shape.BusyWait
	if cfg.Render.BusyPolicy == config.PolicyFail {
		policy = shape.BusyFail
	}
	progressive := cfg.Render.Strategy == config.StrategyProgressive

	be := &Backend{}
	var err error
	switch cfg.Display.Backend {
	case config.BackendMemory:
		if progressive {
			panel := memory.NewPanel(size, 0)
			be.Source = panel
			be.Engine, err = shape.NewProgressiveEngine(panel, a, b, budget, policy, log)
		} else {
			fb := memory.NewFramebuffer(size, cfg.PixelFormat())
			be.Source = fb
			be.Engine, err = shape.NewDirectEngine(fb, a, b, budget, log)
		}

	case config.BackendFbdev:
		scaler, serr := fbdev.ParseScaler(cfg.Display.Fbdev.Scaler)
		if serr != nil {
			return nil, serr
		}
		d, oerr := fbdev.Open(fbdev.Options{
			Path:         cfg.Display.Fbdev.Path,
			Size:         size,
			Format:       cfg.PixelFormat(),
			Scaler:       scaler,
			GraphicsMode: cfg.Display.Fbdev.GraphicsMode,
			Logger:       log,
		})
		if oerr != nil {
			return nil, oerr
		}
		be.closers = append(be.closers, d.Close)
		be.Source = imageSource{img: d.Canvas()}
		be.Engine, err = shape.NewDirectEngine(d, a, b, budget, log)

	case config.BackendSPI:
		spi := cfg.Display.SPI
		dev, port, oerr := spipanel.Open(spi.Bus, spi.DC, spi.RST, &spipanel.Opts{
			W:       size.X,
			H:       size.Y,
			XOffset: spi.XOffset,
			YOffset: spi.YOffset,
			MADCTL:  byte(spi.MADCTL),
			Invert:  spi.Invert,
			Speed:   physic.Frequency(spi.SpeedHz) * physic.Hertz,
		})
		if oerr != nil {
			return nil, oerr
		}
		be.closers = append(be.closers, port.Close)
		log.Infof("spi", "panel %s open", dev)
		be.Engine, err = shape.NewProgressiveEngine(dev, a, b, budget, policy, log)

	default:
		return nil, fmt.Errorf("unknown display backend %q", cfg.Display.Backend)
	}
	if err != nil {
		be.Close()
		return nil, err
	}
	be.closers = append([]func() error{be.Engine.Close}, be.closers...)
	log.Infof("app", "%s backend %dx%d, %s rendering, band %dx%d",
		cfg.Display.Backend, size.X, size.Y, be.Engine.Strategy(), budget.BandWidth, budget.BandHeight)
	return be, nil
}

// Budget derives the drawing cache sizes from cfg.
func Budget(cfg *config.Config) shape.Budget {
	b := shape.DefaultBudget(cfg.Display.Width)
	b.BandHeight = cfg.Render.BandHeight
	b.MaxBlurRadius = cfg.Render.MaxBlurRadius
	b.MaxShapes = cfg.Render.MaxShapes
	return b
}

// Close releases the engine and the display.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

type imageSource struct{ img *pixfmt.Image }

func (s imageSource) Size() image.Point { return s.img.Rect.Size() }

func (s imageSource) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Rect)
	draw.Draw(out, out.Rect, s.img, s.img.Rect.Min, draw.Src)
	return out
}
