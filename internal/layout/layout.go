// Package layout holds rectangle arithmetic shared by shapes, renderers and scenes.
package layout

import "image"

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rectangle{
		Min: image.Pt(rect.Min.X+paddingPx, rect.Min.Y+paddingPx),
		Max: image.Pt(rect.Max.X-paddingPx, rect.Max.Y-paddingPx),
	}
	if out.Empty() {
		return image.Rectangle{Min: out.Min, Max: out.Min}
	}
	return out
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// SplitVertical splits rect into left and right parts.
// leftWidthPx is clamped to [0, rect.Dx()].
func SplitVertical(rect image.Rectangle, leftWidthPx int) (left image.Rectangle, right image.Rectangle) {
	rect = Normalize(rect)
	leftWidthPx = clamp(leftWidthPx, 0, rect.Dx())
	left = image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+leftWidthPx, rect.Max.Y)
	right = image.Rect(rect.Min.X+leftWidthPx, rect.Min.Y, rect.Max.X, rect.Max.Y)
	return left, right
}

// SplitHorizontal splits rect into top and bottom parts.
// topHeightPx is clamped to [0, rect.Dy()].
func SplitHorizontal(rect image.Rectangle, topHeightPx int) (top image.Rectangle, bottom image.Rectangle) {
	rect = Normalize(rect)
	topHeightPx = clamp(topHeightPx, 0, rect.Dy())
	top = image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+topHeightPx)
	bottom = image.Rect(rect.Min.X, rect.Min.Y+topHeightPx, rect.Max.X, rect.Max.Y)
	return top, bottom
}

// Bands partitions rect into horizontal strips of heightPx, top to bottom.
// The last strip is shorter when heightPx does not divide rect.Dy().
// fn returns false to stop early.
func Bands(rect image.Rectangle, heightPx int, fn func(i int, band image.Rectangle) bool) int {
	rect = Normalize(rect)
	if heightPx <= 0 || rect.Empty() {
		return 0
	}
	n := 0
	for rest := rect; !rest.Empty(); n++ {
		var band image.Rectangle
		band, rest = SplitHorizontal(rest, heightPx)
		if !fn(n, band) {
			return n + 1
		}
	}
	return n
}

// BandCount returns how many strips Bands yields for rect.
func BandCount(rect image.Rectangle, heightPx int) int {
	h := Normalize(rect).Dy()
	if heightPx <= 0 || h <= 0 || rect.Dx() == 0 {
		return 0
	}
	return (h + heightPx - 1) / heightPx
}

// AnchorTopLeft returns a rectangle of size (widthPx,heightPx) placed in the top-left of rect.
func AnchorTopLeft(rect image.Rectangle, widthPx, heightPx int) image.Rectangle {
	rect = Normalize(rect)
	widthPx = clamp(widthPx, 0, rect.Dx())
	heightPx = clamp(heightPx, 0, rect.Dy())
	return image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+widthPx, rect.Min.Y+heightPx)
}

// FitSquare returns the largest square that fits into rect, centered.
func FitSquare(rect image.Rectangle) image.Rectangle {
	rect = Normalize(rect)
	size := rect.Dx()
	if rect.Dy() < size {
		size = rect.Dy()
	}
	return CenterIn(rect, image.Pt(size, size))
}

// CenterIn returns a rectangle of size centered in rect.
func CenterIn(rect image.Rectangle, size image.Point) image.Rectangle {
	rect = Normalize(rect)
	x := rect.Min.X + (rect.Dx()-size.X)/2
	y := rect.Min.Y + (rect.Dy()-size.Y)/2
	return image.Rect(x, y, x+size.X, y+size.Y)
}

// Align positions text and icons horizontally relative to an anchor.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Offset returns how far left of the anchor an item of width starts.
func (a Align) Offset(width int) int {
	switch a {
	case AlignCenter:
		return width / 2
	case AlignEnd:
		return width
	default:
		return 0
	}
}

// ParseAlign maps "start", "center" and "end"; anything else is AlignStart.
func ParseAlign(s string) Align {
	switch s {
	case "center", "centre", "middle":
		return AlignCenter
	case "end", "right":
		return AlignEnd
	default:
		return AlignStart
	}
}

// Anchored places a rectangle of size so that the anchor point sits at the
// horizontal and vertical alignment positions of the rectangle.
func Anchored(anchor image.Point, size image.Point, h, v Align) image.Rectangle {
	x := anchor.X - h.Offset(size.X)
	y := anchor.Y - v.Offset(size.Y)
	return image.Rect(x, y, x+size.X, y+size.Y)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
