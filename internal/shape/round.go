package shape

import (
	"image"
	"image/color"
	"math"

	"github.com/rook-computer/shapekit/internal/layout"
)

// cornerInset returns how far row d (0 at the rounded edge) of a corner with
// radius rad is indented.
func cornerInset(d, rad int) int {
	if rad <= 0 || d >= rad {
		return 0
	}
	t := float64(rad-d) - 0.5
	return rad - int(math.Sqrt(float64(rad*rad)-t*t)+0.5)
}

// roundInset returns the indent of row y of r with all four corners
// rounded by rad.
func roundInset(r image.Rectangle, rad, y int) int {
	rad = min(rad, r.Dx()/2, r.Dy()/2)
	switch {
	case rad <= 0:
		return 0
	case y < r.Min.Y+rad:
		return cornerInset(y-r.Min.Y, rad)
	case y >= r.Max.Y-rad:
		return cornerInset(r.Max.Y-1-y, rad)
	}
	return 0
}

func fillRoundRect(c Canvas, r image.Rectangle, rad int, col color.RGBA, alpha uint8) error {
	if rad <= 0 {
		return c.FillRect(r, col, alpha)
	}
	vis := visible(c, r)
	for y := vis.Min.Y; y < vis.Max.Y; y++ {
		in := roundInset(r, rad, y)
		if err := span(c, r.Min.X+in, r.Max.X-in, y, col, alpha); err != nil {
			return err
		}
	}
	return nil
}

// fillRoundRing fills the frame between outer and outer inset by th.
func fillRoundRing(c Canvas, outer image.Rectangle, rad, th int, col color.RGBA, alpha uint8) error {
	inner := layout.Inset(outer, th)
	if inner.Empty() {
		return fillRoundRect(c, outer, rad, col, alpha)
	}
	innerRad := max(rad-th, 0)
	vis := visible(c, outer)
	for y := vis.Min.Y; y < vis.Max.Y; y++ {
		oi := roundInset(outer, rad, y)
		x0, x1 := outer.Min.X+oi, outer.Max.X-oi
		if y < inner.Min.Y || y >= inner.Max.Y {
			if err := span(c, x0, x1, y, col, alpha); err != nil {
				return err
			}
			continue
		}
		ii := roundInset(inner, innerRad, y)
		if err := span(c, x0, inner.Min.X+ii, y, col, alpha); err != nil {
			return err
		}
		if err := span(c, inner.Max.X-ii, x1, y, col, alpha); err != nil {
			return err
		}
	}
	return nil
}
