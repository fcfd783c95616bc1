package shape

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/layout"
	"github.com/rook-computer/shapekit/internal/toif"
)

// ToifImage draws a TOIF icon. Grayscale icons are tinted with the
// foreground color and, when set, painted over the background color.
type ToifImage struct {
	pos    image.Point
	img    toif.Image
	halign layout.Align
	valign layout.Align
	fg, bg color.RGBA
	hasBg  bool
	alpha  uint8
}

func NewToifImage(pos image.Point, img toif.Image) ToifImage {
	return ToifImage{pos: pos, img: img, fg: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, alpha: 0xFF}
}

func (t ToifImage) WithAlign(h, v layout.Align) ToifImage {
	t.halign, t.valign = h, v
	return t
}

func (t ToifImage) WithFgColor(c color.RGBA) ToifImage {
	t.fg = c
	return t
}

func (t ToifImage) WithBgColor(c color.RGBA) ToifImage {
	t.bg, t.hasBg = c, true
	return t
}

func (t ToifImage) WithAlpha(a uint8) ToifImage {
	t.alpha = a
	return t
}

func (t ToifImage) Shape() Shape { return Shape{kind: KindToif, toif: t} }

func (t ToifImage) Render(r Renderer) error { return r.RenderShape(t.Shape()) }

func (t *ToifImage) bounds() image.Rectangle {
	return layout.Anchored(t.pos, t.img.Size(), t.halign, t.valign)
}

func (t *ToifImage) draw(c Canvas, cache *DrawingCache) error {
	r := t.bounds()
	vis := visible(c, r)
	if vis.Empty() {
		return nil
	}
	if t.img.Width > cache.budget.MaxImageWidth {
		return configError("toif", fmt.Errorf("%w: %d px wide, budget %d",
			ErrBufferTooSmall, t.img.Width, cache.budget.MaxImageWidth))
	}
	line, err := cache.ImageBuffer()
	if err != nil {
		return err
	}
	defer cache.Release(LeaseImage)
	dec, err := cache.ToifDecoder(t.img)
	if err != nil {
		return err
	}
	defer cache.Release(LeaseToif)

	bm, err := NewBitmap(t.img.Format.PixelFormat(), image.Pt(t.img.Width, 1), 0, line)
	if err != nil {
		return err
	}
	bm.SetDMAVisible(true)
	view := bm.View().WithFg(t.fg).WithAlpha(t.alpha)
	if t.hasBg {
		view = view.WithBg(t.bg)
	}
	if err := dec.Skip(vis.Min.Y-r.Min.Y, line); err != nil {
		return contentError("toif", err)
	}
	for y := vis.Min.Y; y < vis.Max.Y; y++ {
		bm.Sync()
		if err := dec.ReadRow(line); err != nil {
			return contentError("toif", err)
		}
		if err := c.DrawBitmap(image.Rect(r.Min.X, y, r.Max.X, y+1), view); err != nil {
			return err
		}
	}
	bm.Sync()
	return nil
}
