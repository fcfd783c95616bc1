package shape

import (
	"errors"
	"image"
	"image/color"
)

// Renderer accepts shapes for one pass. Its viewport applies to shapes
// submitted after it is set.
type Renderer interface {
	Viewport() Viewport
	SetViewport(v Viewport)
	RenderShape(s Shape) error
}

// InWindow runs fn with the viewport narrowed to window, whose top-left
// becomes the new origin, and restores the viewport afterwards.
func InWindow(r Renderer, window image.Rectangle, fn func(Renderer)) {
	prev := r.Viewport()
	r.SetViewport(prev.RelativeWindow(window))
	defer r.SetViewport(prev)
	fn(r)
}

// InClip runs fn with the clip narrowed to clip, keeping the origin.
func InClip(r Renderer, clip image.Rectangle, fn func(Renderer)) {
	prev := r.Viewport()
	r.SetViewport(prev.RelativeClip(clip))
	defer r.SetViewport(prev)
	fn(r)
}

// DirectRenderer draws every shape as soon as it is submitted.
type DirectRenderer struct {
	canvas   Canvas
	cache    *DrawingCache
	viewport Viewport
	errs     []error
	shapes   int
}

// NewDirectRenderer starts a pass on canvas, filling the canvas viewport
// with bg when it is set.
func NewDirectRenderer(canvas Canvas, bg *color.RGBA, cache *DrawingCache) *DirectRenderer {
	r := &DirectRenderer{canvas: canvas, cache: cache, viewport: canvas.Viewport()}
	if bg != nil {
		if err := FillBackground(canvas, *bg); err != nil {
			r.errs = append(r.errs, err)
		}
	}
	return r
}

func (r *DirectRenderer) Viewport() Viewport { return r.viewport }

func (r *DirectRenderer) SetViewport(v Viewport) { r.viewport = v }

func (r *DirectRenderer) RenderShape(s Shape) error {
	defer s.Cleanup(r.cache)
	bounds, err := s.Bounds(r.cache)
	if err != nil {
		return r.fail(s.kind, err)
	}
	vp := r.viewport.RelativeClip(bounds)
	if vp.Empty() {
		return nil
	}
	r.shapes++
	prev := r.canvas.Viewport()
	r.canvas.SetViewport(vp)
	err = s.Draw(r.canvas, r.cache)
	r.canvas.SetViewport(prev)
	if err != nil {
		return r.fail(s.kind, err)
	}
	return nil
}

// Shapes returns how many shapes were drawn.
func (r *DirectRenderer) Shapes() int { return r.shapes }

// Err joins every error seen so far.
func (r *DirectRenderer) Err() error { return errors.Join(r.errs...) }

func (r *DirectRenderer) fail(k Kind, err error) error {
	err = shapeError(k, err)
	r.errs = append(r.errs, err)
	return err
}
