package shape

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// Canvas is a drawing target. Coordinates passed to FillRect and DrawBitmap
// are shape coordinates; the canvas applies its viewport and never writes
// outside the viewport clip.
type Canvas interface {
	Size() image.Point
	Viewport() Viewport
	// SetViewport installs v, clipped to the canvas bounds.
	SetViewport(v Viewport)
	FillRect(r image.Rectangle, c color.RGBA, alpha uint8) error
	DrawBitmap(r image.Rectangle, src BitmapView) error
}

// FillBackground fills everything visible through the canvas viewport.
func FillBackground(c Canvas, col color.RGBA) error {
	vp := c.Viewport()
	return c.FillRect(vp.Visible(), col, 0xFF)
}

// BitmapCanvas draws in software into a bitmap.
type BitmapCanvas struct {
	bitmap   *Bitmap
	viewport Viewport
}

// NewBitmapCanvas draws into b, which must be Mono8, RGB565 or RGBA8888.
func NewBitmapCanvas(b *Bitmap) (*BitmapCanvas, error) {
	switch b.format {
	case pixfmt.Mono8, pixfmt.RGB565, pixfmt.RGBA8888:
	default:
		return nil, configError("canvas", fmt.Errorf("%w: %v canvas", ErrUnsupportedFormat, b.format))
	}
	return &BitmapCanvas{bitmap: b, viewport: NewViewport(b.size)}, nil
}

func newCanvas(format pixfmt.Format, size image.Point, stride int, buf []byte) (*BitmapCanvas, error) {
	b, err := NewBitmap(format, size, stride, buf)
	if err != nil {
		return nil, err
	}
	return NewBitmapCanvas(&b)
}

func NewMono8Canvas(size image.Point, stride int, buf []byte) (*BitmapCanvas, error) {
	return newCanvas(pixfmt.Mono8, size, stride, buf)
}

func NewRgb565Canvas(size image.Point, stride int, buf []byte) (*BitmapCanvas, error) {
	return newCanvas(pixfmt.RGB565, size, stride, buf)
}

func NewRgba8888Canvas(size image.Point, stride int, buf []byte) (*BitmapCanvas, error) {
	return newCanvas(pixfmt.RGBA8888, size, stride, buf)
}

func (c *BitmapCanvas) Bitmap() *Bitmap { return c.bitmap }
func (c *BitmapCanvas) Size() image.Point { return c.bitmap.size }
func (c *BitmapCanvas) Viewport() Viewport { return c.viewport }

func (c *BitmapCanvas) SetViewport(v Viewport) {
	v.Clip = v.Clip.Intersect(image.Rectangle{Max: c.bitmap.size})
	c.viewport = v
}

func (c *BitmapCanvas) FillRect(r image.Rectangle, col color.RGBA, alpha uint8) error {
	dst := c.viewport.ToCanvas(r)
	if dst.Empty() || alpha == 0 {
		return nil
	}
	if err := c.bitmap.beginWrite(); err != nil {
		return err
	}
	fill(c.bitmap, dst, col, alpha)
	return nil
}

func (c *BitmapCanvas) DrawBitmap(r image.Rectangle, src BitmapView) error {
	if !canCopy(c.bitmap.format, src.Format()) {
		return configError("draw bitmap", fmt.Errorf("%w: %v onto %v canvas", ErrUnsupportedFormat, src.Format(), c.bitmap.format))
	}
	full := r.Add(c.viewport.Origin)
	full = full.Intersect(image.Rectangle{Min: full.Min, Max: full.Min.Add(src.Size())})
	dst := full.Intersect(c.viewport.Clip)
	if dst.Empty() || src.Alpha == 0 {
		return nil
	}
	if err := c.bitmap.beginWrite(); err != nil {
		return err
	}
	src.Offset = src.Offset.Add(dst.Min.Sub(full.Min))
	copyBitmap(c.bitmap, dst, src)
	return nil
}

// canCopy lists the source formats each canvas format accepts.
func canCopy(dst, src pixfmt.Format) bool {
	switch dst {
	case pixfmt.Mono8:
		return src == pixfmt.Mono1P || src == pixfmt.Mono4 || src == pixfmt.Mono8
	case pixfmt.RGB565, pixfmt.RGBA8888:
		return src == pixfmt.Mono4 || src == pixfmt.RGB565 || src == pixfmt.RGBA8888
	}
	return false
}
