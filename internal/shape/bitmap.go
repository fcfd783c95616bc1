package shape

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/dma2d"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// Bitmap is a pixel buffer borrowed for one pass. A bitmap that a DMA copy
// is reading from is pending until the copy retires; software writes to a
// pending bitmap are refused.
type Bitmap struct {
	format pixfmt.Format
	size   image.Point
	stride int
	pix    []byte
	dma    bool
	fence  dma2d.Fence
}

// NewBitmap wraps pix. A zero stride selects the minimal stride.
func NewBitmap(format pixfmt.Format, size image.Point, stride int, pix []byte) (Bitmap, error) {
	var b Bitmap
	if err := b.init(format, size, stride, pix); err != nil {
		return Bitmap{}, err
	}
	return b, nil
}

func (b *Bitmap) init(format pixfmt.Format, size image.Point, stride int, pix []byte) error {
	if format.BitsPerPixel() == 0 {
		return configError("bitmap", fmt.Errorf("%w: %v", ErrUnsupportedFormat, format))
	}
	if size.X < 0 || size.Y < 0 {
		return contentError("bitmap", fmt.Errorf("%w: negative size %v", ErrBufferTooSmall, size))
	}
	minStride := format.MinStride(size.X)
	if stride == 0 {
		stride = minStride
	}
	if stride < minStride {
		return contentError("bitmap", fmt.Errorf("%w: stride %d < %d", ErrBufferTooSmall, stride, minStride))
	}
	if size.Y > 0 && len(pix) < stride*(size.Y-1)+minStride {
		return contentError("bitmap", fmt.Errorf("%w: %v %v needs %d bytes, have %d",
			ErrBufferTooSmall, format, size, stride*(size.Y-1)+minStride, len(pix)))
	}
	b.format, b.size, b.stride, b.pix = format, size, stride, pix
	return nil
}

func (b *Bitmap) Format() pixfmt.Format { return b.format }
func (b *Bitmap) Size() image.Point { return b.size }
func (b *Bitmap) Stride() int { return b.stride }

// Row returns row y for reading.
func (b *Bitmap) Row(y int) []byte { return b.pix[y*b.stride:] }

// SetDMAVisible records that the pixel memory can be read by the blitter.
func (b *Bitmap) SetDMAVisible(v bool) { b.dma = v }

func (b *Bitmap) DMAVisible() bool { return b.dma }

// MarkDMAPending ties the bitmap to an in-flight transfer.
func (b *Bitmap) MarkDMAPending(f dma2d.Fence) { b.fence = f }

// Pending reports whether a transfer still reads from the bitmap.
func (b *Bitmap) Pending() bool {
	if b.fence.Done() {
		b.fence = dma2d.Fence{}
		return false
	}
	return true
}

// Sync blocks until any pending transfer retired.
func (b *Bitmap) Sync() {
	b.fence.Wait()
	b.fence = dma2d.Fence{}
}

func (b *Bitmap) beginWrite() error {
	if b.Pending() {
		return &Error{Kind: HardwareBusy, Op: "bitmap write", Err: ErrDMAPending}
	}
	return nil
}

// View returns a view of the whole bitmap with white foreground, no
// background and full opacity.
func (b *Bitmap) View() BitmapView {
	return BitmapView{Bitmap: b, Fg: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, Alpha: 0xFF}
}

// BitmapView is a read view over a bitmap. Offset is the first pixel shown.
// Mono sources are copied through an Fg/Bg gradient when HasBg is set and
// blended with Fg otherwise.
type BitmapView struct {
	Bitmap *Bitmap
	Offset image.Point
	Fg     color.RGBA
	Bg     color.RGBA
	HasBg  bool
	Alpha  uint8
}

func (v BitmapView) WithFg(c color.RGBA) BitmapView {
	v.Fg = c
	return v
}

func (v BitmapView) WithBg(c color.RGBA) BitmapView {
	v.Bg, v.HasBg = c, true
	return v
}

func (v BitmapView) WithAlpha(a uint8) BitmapView {
	v.Alpha = a
	return v
}

func (v BitmapView) WithOffset(p image.Point) BitmapView {
	v.Offset = p
	return v
}

func (v BitmapView) Format() pixfmt.Format { return v.Bitmap.format }

// Size is the bitmap size past Offset.
func (v BitmapView) Size() image.Point { return v.Bitmap.size.Sub(v.Offset) }

// Row returns bitmap row Offset.Y+y from its first byte; pixel x of the view
// is at index Offset.X+x.
func (v BitmapView) Row(y int) []byte { return v.Bitmap.Row(v.Offset.Y + y) }
