package shape

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/layout"
)

// ProgressiveRenderer collects shapes and draws them band by band into a
// small RGB565 staging buffer, flushing each band to the target while the
// next one is drawn into the other buffer.
type ProgressiveRenderer struct {
	target     Canvas
	cache      *DrawingCache
	bg         color.RGBA
	viewport   Viewport
	bandHeight int
	errs       []error
	bands      int
}

// NewProgressiveRenderer draws onto target, usually a DMACanvas. A nil bg
// clears to black.
func NewProgressiveRenderer(target Canvas, bg *color.RGBA, cache *DrawingCache) *ProgressiveRenderer {
	r := &ProgressiveRenderer{
		target:     target,
		cache:      cache,
		bg:         color.RGBA{A: 0xFF},
		viewport:   target.Viewport(),
		bandHeight: cache.budget.BandHeight,
	}
	if bg != nil {
		r.bg = *bg
	}
	return r
}

func (r *ProgressiveRenderer) Viewport() Viewport { return r.viewport }

func (r *ProgressiveRenderer) SetViewport(v Viewport) { r.viewport = v }

// RenderShape records s with the current viewport. Nothing is drawn until
// Render.
func (r *ProgressiveRenderer) RenderShape(s Shape) error {
	bounds, err := s.Bounds(r.cache)
	if err != nil {
		s.Cleanup(r.cache)
		return r.fail(s.kind, err)
	}
	vp := r.viewport.RelativeClip(bounds)
	if vp.Empty() {
		s.Cleanup(r.cache)
		return nil
	}
	if err := r.cache.hold(s, vp); err != nil {
		s.Cleanup(r.cache)
		return r.fail(s.kind, err)
	}
	return nil
}

// Render draws the recorded shapes over the target clip, one band at a
// time. A shape that fails is reported and skipped in later bands; a failed
// flush aborts the pass.
func (r *ProgressiveRenderer) Render() error {
	clip := r.target.Viewport().Clip
	origin := r.target.Viewport().Origin
	held := r.cache.shapes
	if clip.Dx() > r.cache.budget.BandWidth {
		r.errs = append(r.errs, configError("progressive", fmt.Errorf("%w: clip %d px wide, band budget %d",
			ErrBufferTooSmall, clip.Dx(), r.cache.budget.BandWidth)))
		clip = image.Rectangle{}
	}
	layout.Bands(clip, r.bandHeight, func(i int, band image.Rectangle) bool {
		bm, err := r.cache.BandBitmap(i, band.Size())
		if err != nil {
			r.errs = append(r.errs, err)
			return false
		}
		staging := BitmapCanvas{bitmap: bm, viewport: NewViewport(band.Size())}
		if err := staging.FillRect(image.Rectangle{Max: band.Size()}, r.bg, 0xFF); err != nil {
			r.errs = append(r.errs, err)
			return false
		}
		for j := range held {
			h := &held[j]
			if h.failed || !h.viewport.Clip.Overlaps(band) {
				continue
			}
			r.cache.owner = j
			staging.SetViewport(Viewport{
				Origin: h.viewport.Origin.Sub(band.Min),
				Clip:   h.viewport.Clip.Intersect(band).Sub(band.Min),
			})
			if err := h.shape.Draw(&staging, r.cache); err != nil {
				h.failed = true
				r.fail(h.shape.kind, err)
			}
		}
		if err := r.target.DrawBitmap(band.Sub(origin), bm.View()); err != nil {
			r.errs = append(r.errs, err)
			return false
		}
		r.bands++
		return true
	})
	if f, ok := r.target.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			r.errs = append(r.errs, err)
		}
	}
	for j := range held {
		r.cache.owner = j
		held[j].shape.Cleanup(r.cache)
	}
	r.cache.owner = -1
	return errors.Join(r.errs...)
}

// Shapes returns how many shapes were recorded.
func (r *ProgressiveRenderer) Shapes() int { return len(r.cache.shapes) }

// Bands returns how many bands were flushed.
func (r *ProgressiveRenderer) Bands() int { return r.bands }

func (r *ProgressiveRenderer) fail(k Kind, err error) error {
	err = shapeError(k, err)
	r.errs = append(r.errs, err)
	return err
}
