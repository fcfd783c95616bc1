package shape

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/dma2d"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// BusyPolicy decides what a DMA canvas does when the blitter is still busy.
type BusyPolicy uint8

const (
	// BusyWait blocks until the previous transfer retired.
	BusyWait BusyPolicy = iota
	// BusyFail returns a HardwareBusy error.
	BusyFail
)

// DMACanvas draws straight into display memory through the blitter. It
// accepts opaque RGB565 bitmaps and rectangle fills the hardware supports.
type DMACanvas struct {
	engine   *dma2d.Engine
	size     image.Point
	viewport Viewport
	policy   BusyPolicy
}

func NewDMACanvas(engine *dma2d.Engine, size image.Point, policy BusyPolicy) *DMACanvas {
	return &DMACanvas{engine: engine, size: size, viewport: NewViewport(size), policy: policy}
}

func (c *DMACanvas) Size() image.Point { return c.size }

func (c *DMACanvas) Viewport() Viewport { return c.viewport }

func (c *DMACanvas) SetViewport(v Viewport) {
	v.Clip = v.Clip.Intersect(image.Rectangle{Max: c.size})
	c.viewport = v
}

func (c *DMACanvas) FillRect(r image.Rectangle, col color.RGBA, alpha uint8) error {
	req, ok := dma2d.NewFill(r.Add(c.viewport.Origin), c.viewport.Clip, col, alpha)
	if !ok || alpha == 0 {
		return nil
	}
	_, err := c.issue(req)
	return err
}

// DrawBitmap copies src to the display. A bitmap the blitter cannot read is
// copied synchronously; otherwise it stays pending until the copy retires.
func (c *DMACanvas) DrawBitmap(r image.Rectangle, src BitmapView) error {
	if src.Format() != pixfmt.RGB565 {
		return configError("dma draw bitmap", fmt.Errorf("%w: %v source", ErrUnsupportedFormat, src.Format()))
	}
	full := r.Add(c.viewport.Origin)
	full = full.Intersect(image.Rectangle{Min: full.Min, Max: full.Min.Add(src.Size())})
	b := src.Bitmap
	req, ok := dma2d.NewCopy(full, c.viewport.Clip, dma2d.Source{
		Format: b.format,
		Pix:    b.pix,
		Stride: b.stride,
		Offset: src.Offset,
	})
	if !ok {
		return nil
	}
	if !b.DMAVisible() {
		if err := c.engine.Sync(req); err != nil {
			return &Error{Kind: HardwareBusy, Op: "dma copy", Err: err}
		}
		return nil
	}
	fence, err := c.issue(req)
	if err != nil {
		return err
	}
	b.MarkDMAPending(fence)
	return nil
}

// Flush waits for the last transfer and reports any hardware error.
func (c *DMACanvas) Flush() error {
	if err := c.engine.Wait(); err != nil {
		return &Error{Kind: HardwareBusy, Op: "dma flush", Err: err}
	}
	return nil
}

func (c *DMACanvas) issue(req dma2d.Request) (dma2d.Fence, error) {
	for {
		fence, err := c.engine.Issue(req)
		switch {
		case err == nil:
			return fence, nil
		case errors.Is(err, dma2d.ErrBusy) && c.policy == BusyWait:
			if werr := c.engine.Wait(); werr != nil {
				return dma2d.Fence{}, &Error{Kind: HardwareBusy, Op: "dma " + req.Kind.String(), Err: werr}
			}
		case errors.Is(err, dma2d.ErrBusy):
			return dma2d.Fence{}, &Error{Kind: HardwareBusy, Op: "dma " + req.Kind.String(), Err: err}
		case errors.Is(err, dma2d.ErrNotIssued):
			return dma2d.Fence{}, configError("dma "+req.Kind.String(), fmt.Errorf("%w: %w", ErrUnsupportedFormat, err))
		default:
			return dma2d.Fence{}, &Error{Kind: ConfigError, Op: "dma " + req.Kind.String(), Err: err}
		}
	}
}
