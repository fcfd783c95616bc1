package shape

import (
	"image"
	"image/color"
	"math"
)

// Circle is a disc or ring. With an arc set only the part between the start
// and end angles is drawn; angles are degrees clockwise from 12 o'clock.
type Circle struct {
	center    image.Point
	radius    int
	fg, bg    color.RGBA
	hasFg     bool
	hasBg     bool
	thickness int
	alpha     uint8
	start     float64
	end       float64
	arc       bool
}

func NewCircle(center image.Point, radius int) Circle {
	return Circle{center: center, radius: max(radius, 0), thickness: 1, alpha: 0xFF}
}

func (c Circle) WithFgColor(col color.RGBA) Circle {
	c.fg, c.hasFg = col, true
	return c
}

func (c Circle) WithBgColor(col color.RGBA) Circle {
	c.bg, c.hasBg = col, true
	return c
}

func (c Circle) WithThickness(t int) Circle {
	c.thickness = max(t, 0)
	return c
}

func (c Circle) WithAlpha(a uint8) Circle {
	c.alpha = a
	return c
}

// WithArc limits drawing to angles in [start, end). An arc of 360 degrees
// or more is the full circle.
func (c Circle) WithArc(start, end float64) Circle {
	if end-start >= 360 {
		c.arc = false
		return c
	}
	c.start = math.Mod(math.Mod(start, 360)+360, 360)
	c.end = c.start + math.Max(end-start, 0)
	c.arc = true
	return c
}

func (c Circle) Shape() Shape { return Shape{kind: KindCircle, circle: c} }

func (c Circle) Render(r Renderer) error { return r.RenderShape(c.Shape()) }

func (c *Circle) bounds() image.Rectangle {
	r := c.radius
	return image.Rect(c.center.X-r, c.center.Y-r, c.center.X+r+1, c.center.Y+r+1)
}

// halfWidth returns the half width of row dy of a disc of radius r, or -1
// when the row is outside it.
func halfWidth(r, dy int) int {
	if r < 0 || dy < -r || dy > r {
		return -1
	}
	return int(math.Sqrt(float64(r*r-dy*dy)) + 0.5)
}

func (c *Circle) draw(cv Canvas) error {
	inner := c.radius
	if c.hasFg {
		inner = c.radius - c.thickness
	}
	vis := visible(cv, c.bounds())
	for y := vis.Min.Y; y < vis.Max.Y; y++ {
		dy := y - c.center.Y
		ow := halfWidth(c.radius, dy)
		iw := halfWidth(inner, dy)
		if c.hasBg && iw >= 0 {
			if err := c.run(cv, c.center.X-iw, c.center.X+iw+1, y, c.bg); err != nil {
				return err
			}
		}
		if !c.hasFg || ow < 0 {
			continue
		}
		x0, x1 := c.center.X-ow, c.center.X+ow+1
		if iw < 0 {
			if err := c.run(cv, x0, x1, y, c.fg); err != nil {
				return err
			}
			continue
		}
		if err := c.run(cv, x0, c.center.X-iw, y, c.fg); err != nil {
			return err
		}
		if err := c.run(cv, c.center.X+iw+1, x1, y, c.fg); err != nil {
			return err
		}
	}
	return nil
}

// run fills [x0, x1) of row y, leaving out pixels outside the arc.
func (c *Circle) run(cv Canvas, x0, x1, y int, col color.RGBA) error {
	if !c.arc {
		return span(cv, x0, x1, y, col, c.alpha)
	}
	start := -1
	for x := x0; x < x1; x++ {
		in := c.inArc(x, y)
		switch {
		case in && start < 0:
			start = x
		case !in && start >= 0:
			if err := span(cv, start, x, y, col, c.alpha); err != nil {
				return err
			}
			start = -1
		}
	}
	if start >= 0 {
		return span(cv, start, x1, y, col, c.alpha)
	}
	return nil
}

func (c *Circle) inArc(x, y int) bool {
	dx, dy := x-c.center.X, y-c.center.Y
	if dx == 0 && dy == 0 {
		return true
	}
	a := math.Atan2(float64(dx), float64(-dy)) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	if a < c.start {
		a += 360
	}
	return a < c.end
}
