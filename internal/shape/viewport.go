package shape

import "image"

// Viewport is an origin offset plus a clip rectangle. Shape coordinates are
// translated by Origin to reach canvas coordinates; Clip is always in canvas
// coordinates. Narrowing a viewport only ever intersects.
type Viewport struct {
	Origin image.Point
	Clip   image.Rectangle
}

// NewViewport covers a canvas of the given size.
func NewViewport(size image.Point) Viewport {
	return Viewport{Clip: image.Rectangle{Max: size}}
}

// RelativeClip narrows the clip to r, given in shape coordinates.
func (v Viewport) RelativeClip(r image.Rectangle) Viewport {
	v.Clip = v.Clip.Intersect(r.Add(v.Origin))
	return v
}

// AbsoluteClip narrows the clip to r, given in canvas coordinates.
func (v Viewport) AbsoluteClip(r image.Rectangle) Viewport {
	v.Clip = v.Clip.Intersect(r)
	return v
}

// RelativeWindow narrows the clip to r and moves the origin to r.Min, so
// that shapes inside the window use coordinates relative to it.
func (v Viewport) RelativeWindow(r image.Rectangle) Viewport {
	v.Clip = v.Clip.Intersect(r.Add(v.Origin))
	v.Origin = v.Origin.Add(r.Min)
	return v
}

// Translate moves both origin and clip by offset.
func (v Viewport) Translate(offset image.Point) Viewport {
	v.Origin = v.Origin.Add(offset)
	v.Clip = v.Clip.Add(offset)
	return v
}

// ToCanvas maps r from shape coordinates to the visible part in canvas
// coordinates.
func (v Viewport) ToCanvas(r image.Rectangle) image.Rectangle {
	return r.Add(v.Origin).Intersect(v.Clip)
}

// Visible returns the clip in shape coordinates.
func (v Viewport) Visible() image.Rectangle {
	return v.Clip.Sub(v.Origin)
}

func (v Viewport) Empty() bool { return v.Clip.Empty() }
