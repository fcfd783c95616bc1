package shape

import (
	"image"
	"image/color"
)

// Corner selects which corner of a region a highlight marks.
type Corner uint8

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func ParseCorner(s string) (Corner, bool) {
	switch s {
	case "top-left", "tl":
		return TopLeft, true
	case "top-right", "tr":
		return TopRight, true
	case "bottom-left", "bl":
		return BottomLeft, true
	case "bottom-right", "br":
		return BottomRight, true
	}
	return TopLeft, false
}

func (c Corner) right() bool { return c == TopRight || c == BottomRight }
func (c Corner) bottom() bool { return c == BottomLeft || c == BottomRight }

// CornerHighlight is an L-shaped bracket whose outer corner sits at pos.
type CornerHighlight struct {
	pos       image.Point
	corner    Corner
	color     color.RGBA
	alpha     uint8
	thickness int
	lenX      int
	lenY      int
	radius    int
}

func NewCornerHighlight(pos image.Point, corner Corner, col color.RGBA) CornerHighlight {
	return CornerHighlight{pos: pos, corner: corner, color: col, alpha: 0xFF, thickness: 2, lenX: 8, lenY: 8}
}

func (h CornerHighlight) WithThickness(t int) CornerHighlight {
	h.thickness = max(t, 1)
	return h
}

func (h CornerHighlight) WithLength(x, y int) CornerHighlight {
	h.lenX, h.lenY = max(x, 0), max(y, 0)
	return h
}

func (h CornerHighlight) WithRadius(r int) CornerHighlight {
	h.radius = max(r, 0)
	return h
}

func (h CornerHighlight) WithAlpha(a uint8) CornerHighlight {
	h.alpha = a
	return h
}

func (h CornerHighlight) Shape() Shape { return Shape{kind: KindCorner, corner: h} }

func (h CornerHighlight) Render(r Renderer) error { return r.RenderShape(h.Shape()) }

func (h *CornerHighlight) bounds() image.Rectangle {
	x0, y0 := h.pos.X, h.pos.Y
	if h.corner.right() {
		x0 -= h.lenX
	}
	if h.corner.bottom() {
		y0 -= h.lenY
	}
	return image.Rect(x0, y0, x0+h.lenX, y0+h.lenY)
}

// draw walks the bracket in corner-local rows: row d is d pixels away from
// the horizontal arm's outer edge and spans are measured from the vertical
// arm's outer edge.
func (h *CornerHighlight) draw(c Canvas) error {
	b := h.bounds()
	if b.Empty() {
		return nil
	}
	th := min(h.thickness, h.lenX, h.lenY)
	rad := min(h.radius, h.lenX, h.lenY)
	for d := 0; d < h.lenY; d++ {
		in := cornerInset(d, rad)
		lo, hi := in, in+th
		if d < th {
			hi = h.lenX
		}
		y := b.Min.Y + d
		if h.corner.bottom() {
			y = b.Max.Y - 1 - d
		}
		x0, x1 := b.Min.X+lo, b.Min.X+min(hi, h.lenX)
		if h.corner.right() {
			x0, x1 = b.Max.X-min(hi, h.lenX), b.Max.X-lo
		}
		if err := span(c, x0, x1, y, h.color, h.alpha); err != nil {
			return err
		}
	}
	return nil
}
