package shape

import (
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/layout"
)

// FontMetrics are in pixels relative to the baseline.
type FontMetrics struct {
	Ascent  int
	Descent int
}

// Font draws text with its baseline starting at dot.
type Font interface {
	Metrics() FontMetrics
	TextWidth(text string) int
	DrawText(c Canvas, cache *DrawingCache, dot image.Point, text string, fg color.RGBA, alpha uint8) error
}

// Text is a single line of text anchored at a baseline point.
type Text struct {
	pos   image.Point
	text  string
	font  Font
	fg    color.RGBA
	alpha uint8
	align layout.Align
}

func NewText(pos image.Point, text string, font Font) Text {
	return Text{pos: pos, text: text, font: font, fg: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, alpha: 0xFF}
}

func (t Text) WithFgColor(c color.RGBA) Text {
	t.fg = c
	return t
}

func (t Text) WithAlpha(a uint8) Text {
	t.alpha = a
	return t
}

func (t Text) WithAlign(a layout.Align) Text {
	t.align = a
	return t
}

func (t Text) Shape() Shape { return Shape{kind: KindText, text: t} }

func (t Text) Render(r Renderer) error { return r.RenderShape(t.Shape()) }

func (t *Text) dot() image.Point {
	return image.Pt(t.pos.X-t.align.Offset(t.font.TextWidth(t.text)), t.pos.Y)
}

func (t *Text) bounds() (image.Rectangle, error) {
	if t.font == nil {
		return image.Rectangle{}, configError("text", ErrNoFont)
	}
	m := t.font.Metrics()
	dot := t.dot()
	w := t.font.TextWidth(t.text)
	return image.Rect(dot.X, dot.Y-m.Ascent, dot.X+w, dot.Y+m.Descent), nil
}

func (t *Text) draw(c Canvas, cache *DrawingCache) error {
	if t.font == nil {
		return configError("text", ErrNoFont)
	}
	return t.font.DrawText(c, cache, t.dot(), t.text, t.fg, t.alpha)
}
