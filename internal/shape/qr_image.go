package shape

import (
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rook-computer/shapekit/internal/layout"
)

// QrMatrix is a square grid of QR modules without the quiet zone.
type QrMatrix struct {
	size    int
	modules []bool
}

// NewQrMatrix wraps size*size modules in row-major order.
func NewQrMatrix(size int, modules []bool) (QrMatrix, error) {
	if size <= 0 || len(modules) != size*size {
		return QrMatrix{}, fmt.Errorf("qr matrix needs %d modules, got %d", size*size, len(modules))
	}
	return QrMatrix{size: size, modules: modules}, nil
}

// EncodeQr encodes payload with the given recovery level.
func EncodeQr(payload string, level qrcode.RecoveryLevel) (QrMatrix, error) {
	q, err := qrcode.New(payload, level)
	if err != nil {
		return QrMatrix{}, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true
	bits := q.Bitmap()
	size := len(bits)
	modules := make([]bool, 0, size*size)
	for _, row := range bits {
		if len(row) != size {
			return QrMatrix{}, fmt.Errorf("encode qr: ragged bitmap")
		}
		modules = append(modules, row...)
	}
	return NewQrMatrix(size, modules)
}

func (m QrMatrix) Size() int { return m.size }

func (m QrMatrix) Dark(x, y int) bool { return m.modules[y*m.size+x] }

// QrImage draws a QR code at the largest integral module scale that fits
// area, centered, on a background fill of the whole area.
type QrImage struct {
	area   image.Rectangle
	qr     QrMatrix
	fg, bg color.RGBA
}

func NewQrImage(area image.Rectangle, qr QrMatrix, fg, bg color.RGBA) QrImage {
	return QrImage{area: area, qr: qr, fg: fg, bg: bg}
}

func (q QrImage) Shape() Shape { return Shape{kind: KindQr, qr: q} }

func (q QrImage) Render(r Renderer) error { return r.RenderShape(q.Shape()) }

func (q *QrImage) bounds() image.Rectangle { return q.area }

func (q *QrImage) draw(c Canvas) error {
	if err := c.FillRect(q.area, q.bg, 0xFF); err != nil {
		return err
	}
	n := q.qr.size
	if n == 0 {
		return nil
	}
	scale := min(q.area.Dx(), q.area.Dy()) / n
	if scale < 1 {
		return contentError("qr", fmt.Errorf("%w: %d modules in %dx%d", ErrBufferTooSmall, n, q.area.Dx(), q.area.Dy()))
	}
	origin := layout.CenterIn(q.area, image.Pt(n*scale, n*scale)).Min
	vis := visible(c, image.Rect(origin.X, origin.Y, origin.X+n*scale, origin.Y+n*scale))
	if vis.Empty() {
		return nil
	}
	for my := (vis.Min.Y - origin.Y) / scale; my*scale+origin.Y < vis.Max.Y; my++ {
		y := origin.Y + my*scale
		start := -1
		for mx := 0; mx <= n; mx++ {
			dark := mx < n && q.qr.Dark(mx, my)
			switch {
			case dark && start < 0:
				start = mx
			case !dark && start >= 0:
				r := image.Rect(origin.X+start*scale, y, origin.X+mx*scale, y+scale)
				if err := c.FillRect(r, q.fg, 0xFF); err != nil {
					return err
				}
				start = -1
			}
		}
	}
	return nil
}
