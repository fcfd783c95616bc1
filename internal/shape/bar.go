package shape

import (
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/layout"
)

// Bar is a filled rectangle with an optional border and rounded corners.
// The border is drawn in the foreground color, the inside in the background
// color.
type Bar struct {
	area      image.Rectangle
	fg, bg    color.RGBA
	hasFg     bool
	hasBg     bool
	thickness int
	radius    int
	alpha     uint8
}

func NewBar(area image.Rectangle) Bar {
	return Bar{area: area, thickness: 1, alpha: 0xFF}
}

func (b Bar) WithFgColor(c color.RGBA) Bar {
	b.fg, b.hasFg = c, true
	return b
}

func (b Bar) WithBgColor(c color.RGBA) Bar {
	b.bg, b.hasBg = c, true
	return b
}

func (b Bar) WithThickness(t int) Bar {
	b.thickness = max(t, 0)
	return b
}

func (b Bar) WithRadius(r int) Bar {
	b.radius = max(r, 0)
	return b
}

func (b Bar) WithAlpha(a uint8) Bar {
	b.alpha = a
	return b
}

func (b Bar) Shape() Shape { return Shape{kind: KindBar, bar: b} }

func (b Bar) Render(r Renderer) error { return r.RenderShape(b.Shape()) }

func (b *Bar) bounds() image.Rectangle { return b.area }

func (b *Bar) draw(c Canvas) error {
	th := 0
	if b.hasFg && b.thickness > 0 {
		th = b.thickness
		if err := b.drawBorder(c); err != nil {
			return err
		}
	}
	if b.hasBg {
		return fillRoundRect(c, layout.Inset(b.area, th), max(b.radius-th, 0), b.bg, b.alpha)
	}
	return nil
}

func (b *Bar) drawBorder(c Canvas) error {
	if b.radius > 0 {
		return fillRoundRing(c, b.area, b.radius, b.thickness, b.fg, b.alpha)
	}
	a, th := b.area, b.thickness
	inner := layout.Inset(a, th)
	if inner.Empty() {
		return c.FillRect(a, b.fg, b.alpha)
	}
	edges := [4]image.Rectangle{
		{Min: a.Min, Max: image.Pt(a.Max.X, inner.Min.Y)},
		{Min: image.Pt(a.Min.X, inner.Max.Y), Max: a.Max},
		{Min: image.Pt(a.Min.X, inner.Min.Y), Max: image.Pt(inner.Min.X, inner.Max.Y)},
		{Min: image.Pt(inner.Max.X, inner.Min.Y), Max: image.Pt(a.Max.X, inner.Max.Y)},
	}
	for _, e := range edges {
		if err := c.FillRect(e, b.fg, b.alpha); err != nil {
			return err
		}
	}
	return nil
}
