package shape

import (
	"fmt"
	"image"
	"image/color"
)

// Kind identifies a shape variant.
type Kind uint8

const (
	KindBar Kind = iota + 1
	KindCircle
	KindText
	KindToif
	KindJpeg
	KindQr
	KindCorner
)

func (k Kind) String() string {
	switch k {
	case KindBar:
		return "bar"
	case KindCircle:
		return "circle"
	case KindText:
		return "text"
	case KindToif:
		return "toif"
	case KindJpeg:
		return "jpeg"
	case KindQr:
		return "qr"
	case KindCorner:
		return "corner"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Shape is one of the drawable variants, held by value so a progressive
// pass can keep it without allocating.
type Shape struct {
	kind   Kind
	bar    Bar
	circle Circle
	text   Text
	toif   ToifImage
	jpeg   JpegImage
	qr     QrImage
	corner CornerHighlight
}

func (s Shape) Kind() Kind { return s.kind }

// Bounds returns the rectangle, in shape coordinates, the shape may touch.
// It is the same every time it is asked during a pass.
func (s *Shape) Bounds(cache *DrawingCache) (image.Rectangle, error) {
	switch s.kind {
	case KindBar:
		return s.bar.bounds(), nil
	case KindCircle:
		return s.circle.bounds(), nil
	case KindText:
		return s.text.bounds()
	case KindToif:
		return s.toif.bounds(), nil
	case KindJpeg:
		return s.jpeg.bounds()
	case KindQr:
		return s.qr.bounds(), nil
	case KindCorner:
		return s.corner.bounds(), nil
	}
	return image.Rectangle{}, contentError("bounds", fmt.Errorf("empty shape"))
}

// Draw renders the part of the shape inside the canvas viewport. It may be
// called several times per pass, once per band.
func (s *Shape) Draw(canvas Canvas, cache *DrawingCache) error {
	switch s.kind {
	case KindBar:
		return s.bar.draw(canvas)
	case KindCircle:
		return s.circle.draw(canvas)
	case KindText:
		return s.text.draw(canvas, cache)
	case KindToif:
		return s.toif.draw(canvas, cache)
	case KindJpeg:
		return s.jpeg.draw(canvas, cache)
	case KindQr:
		return s.qr.draw(canvas)
	case KindCorner:
		return s.corner.draw(canvas)
	}
	return nil
}

// Cleanup releases per-shape cache state once the shape is done for the
// pass.
func (s *Shape) Cleanup(cache *DrawingCache) {
	if s.kind == KindJpeg {
		s.jpeg.cleanup(cache)
	}
}

// visible returns the part of r, in shape coordinates, the canvas viewport
// lets through.
func visible(c Canvas, r image.Rectangle) image.Rectangle {
	return c.Viewport().Visible().Intersect(r)
}

// span fills the half-open row segment [x0, x1) of row y.
func span(c Canvas, x0, x1, y int, col color.RGBA, alpha uint8) error {
	if x1 <= x0 {
		return nil
	}
	return c.FillRect(image.Rect(x0, y, x1, y+1), col, alpha)
}
