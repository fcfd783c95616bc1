package shape

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/rook-computer/shapekit/internal/toif"
)

var (
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	green = color.RGBA{G: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black = color.RGBA{A: 0xFF}
)

func testCache(t *testing.T, budget Budget) *DrawingCache {
	t.Helper()
	a := NewArena("a", budget.BumpASize(), MemoryGeneral)
	b := NewArena("b", budget.BumpBSize(), MemoryDMA)
	c, err := NewDrawingCache(a, b, budget)
	if err != nil {
		t.Fatalf("NewDrawingCache() error = %v", err)
	}
	return c
}

func rgb565Canvas(t *testing.T, size image.Point) *BitmapCanvas {
	t.Helper()
	c, err := NewRgb565Canvas(size, 0, make([]byte, size.X*size.Y*2))
	if err != nil {
		t.Fatalf("NewRgb565Canvas() error = %v", err)
	}
	return c
}

func at565(c *BitmapCanvas, x, y int) uint16 {
	return binary.LittleEndian.Uint16(c.Bitmap().Row(y)[x*2:])
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x * y) % 256), A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func testToif(t *testing.T, f toif.Format, w, h int) toif.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x + y) * 255 / (w + h))
			img.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: v / 2, A: 0xFF})
		}
	}
	data, err := toif.Encode(img, f)
	if err != nil {
		t.Fatalf("toif.Encode() error = %v", err)
	}
	parsed, err := toif.Parse(data)
	if err != nil {
		t.Fatalf("toif.Parse() error = %v", err)
	}
	return parsed
}

// boxFont draws every non-space character as a solid 5x9 cell.
type boxFont struct{}

func (boxFont) Metrics() FontMetrics { return FontMetrics{Ascent: 7, Descent: 2} }

func (boxFont) TextWidth(s string) int { return 6 * len(s) }

func (boxFont) DrawText(c Canvas, _ *DrawingCache, dot image.Point, s string, fg color.RGBA, alpha uint8) error {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			continue
		}
		if err := c.FillRect(image.Rect(dot.X+6*i, dot.Y-7, dot.X+6*i+5, dot.Y+2), fg, alpha); err != nil {
			return err
		}
	}
	return nil
}
