package fonts

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/shape"
)

// metricSample covers the tallest capitals and the deepest descenders.
const metricSample = "AHMbdfhklgjpqy|0123456789"

// Tiny draws text with a tinyfont bitmap font.
type Tiny struct {
	font    tinyfont.Fonter
	metrics shape.FontMetrics
	cell    glyphCell
}

func NewTiny(f tinyfont.Fonter) *Tiny {
	t := &Tiny{font: f}
	for _, r := range metricSample {
		info := f.GetGlyph(r).Info()
		if info.Width == 0 {
			continue
		}
		t.metrics.Ascent = max(t.metrics.Ascent, -int(info.YOffset))
		t.metrics.Descent = max(t.metrics.Descent, int(info.Height)+int(info.YOffset))
	}
	return t
}

// TomThumb is tinyfont's 3x5 font.
func TomThumb() *Tiny { return NewTiny(&tinyfont.TomThumb) }

// Org01 is tinyfont's 5x7 font.
func Org01() *Tiny { return NewTiny(&tinyfont.Org01) }

func (t *Tiny) Metrics() shape.FontMetrics { return t.metrics }

func (t *Tiny) TextWidth(text string) int {
	_, outbox := tinyfont.LineWidth(t.font, text)
	return int(outbox)
}

func (t *Tiny) DrawText(c shape.Canvas, cache *shape.DrawingCache, dot image.Point, text string, fg color.RGBA, alpha uint8) error {
	buf, err := cache.ImageBuffer()
	if err != nil {
		return err
	}
	defer cache.Release(shape.LeaseImage)

	vis := c.Viewport().Visible()
	x := dot.X
	for _, r := range text {
		g := t.font.GetGlyph(r)
		info := g.Info()
		cursor := x
		x += int(info.XAdvance)
		cell := image.Rect(0, 0, int(info.Width), int(info.Height)).
			Add(image.Pt(cursor+int(info.XOffset), dot.Y+int(info.YOffset)))
		if cell.Empty() || !cell.Overlaps(vis) {
			continue
		}
		pix, stride, err := glyphBuffer(buf, cell.Size())
		if err != nil {
			return err
		}
		t.cell = glyphCell{rect: cell, stride: stride, pix: pix}
		g.Draw(&t.cell, int16(cursor), int16(dot.Y), color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		bm, err := shape.NewBitmap(pixfmt.Mono4, cell.Size(), stride, pix)
		if err != nil {
			return err
		}
		bm.SetDMAVisible(true)
		if err := c.DrawBitmap(cell, bm.View().WithFg(fg).WithAlpha(alpha)); err != nil {
			return err
		}
		bm.Sync()
	}
	return nil
}

// glyphCell is a drivers.Displayer over one glyph's Mono4 cell; pixels
// outside the cell are dropped.
type glyphCell struct {
	rect   image.Rectangle
	stride int
	pix    []byte
}

var _ drivers.Displayer = (*glyphCell)(nil)

func (g *glyphCell) Size() (x, y int16) { return int16(g.rect.Max.X), int16(g.rect.Max.Y) }

func (g *glyphCell) SetPixel(x, y int16, c color.RGBA) {
	p := image.Pt(int(x), int(y))
	if !p.In(g.rect) {
		return
	}
	p = p.Sub(g.rect.Min)
	pixfmt.SetNibble(g.pix[p.Y*g.stride:], p.X, pixfmt.Luminance(c)>>4)
}

func (g *glyphCell) Display() error { return nil }
