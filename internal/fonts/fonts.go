// Package fonts adapts outline and bitmap fonts to the renderer. Glyphs are
// rasterized one at a time into a Mono4 bitmap leased from the drawing cache
// and drawn tinted with the text color.
package fonts

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/shape"
)

// DPI is the resolution outline fonts are rasterized at; at 72 DPI a point
// is a pixel.
const DPI = 72

// Face draws text with an x/image font face.
type Face struct {
	face    font.Face
	metrics shape.FontMetrics
}

func NewFace(face font.Face) *Face {
	m := face.Metrics()
	return &Face{face: face, metrics: shape.FontMetrics{Ascent: m.Ascent.Ceil(), Descent: m.Descent.Ceil()}}
}

// Default is the built-in 7x13 bitmap face.
func Default() *Face { return NewFace(basicfont.Face7x13) }

// GoRegular returns the Go Regular face at size pixels.
func GoRegular(size float64) (*Face, error) { return LoadOpenType(goregular.TTF, size) }

// LoadOpenType parses an OpenType or TrueType font with x/image/font/opentype.
func LoadOpenType(data []byte, size float64) (*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse opentype font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: DPI, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create opentype face: %w", err)
	}
	return NewFace(face), nil
}

// LoadTrueType parses a TrueType font with the freetype rasterizer.
func LoadTrueType(data []byte, size float64) (*Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype font: %w", err)
	}
	return NewFace(truetype.NewFace(f, &truetype.Options{Size: size, DPI: DPI, Hinting: font.HintingFull})), nil
}

func (f *Face) Metrics() shape.FontMetrics { return f.metrics }

func (f *Face) TextWidth(text string) int { return font.MeasureString(f.face, text).Ceil() }

func (f *Face) DrawText(c shape.Canvas, cache *shape.DrawingCache, dot image.Point, text string, fg color.RGBA, alpha uint8) error {
	buf, err := cache.ImageBuffer()
	if err != nil {
		return err
	}
	defer cache.Release(shape.LeaseImage)

	vis := c.Viewport().Visible()
	x := fixed.I(dot.X)
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			x += f.face.Kern(prev, r)
		}
		prev = r
		dr, mask, mp, adv, ok := f.face.Glyph(fixed.Point26_6{X: x, Y: fixed.I(dot.Y)}, r)
		if !ok {
			dr, mask, mp, adv, ok = f.face.Glyph(fixed.Point26_6{X: x, Y: fixed.I(dot.Y)}, '?')
		}
		x += adv
		if !ok || dr.Empty() || !dr.Overlaps(vis) {
			continue
		}
		pix, stride, err := glyphBuffer(buf, dr.Size())
		if err != nil {
			return err
		}
		for gy := 0; gy < dr.Dy(); gy++ {
			row := pix[gy*stride:]
			for gx := 0; gx < dr.Dx(); gx++ {
				if _, _, _, a := mask.At(mp.X+gx, mp.Y+gy).RGBA(); a>>12 != 0 {
					pixfmt.SetNibble(row, gx, uint8(a>>12))
				}
			}
		}
		bm, err := shape.NewBitmap(pixfmt.Mono4, dr.Size(), stride, pix)
		if err != nil {
			return err
		}
		bm.SetDMAVisible(true)
		if err := c.DrawBitmap(dr, bm.View().WithFg(fg).WithAlpha(alpha)); err != nil {
			return err
		}
		bm.Sync()
	}
	return nil
}

// glyphBuffer returns a cleared Mono4 buffer for a glyph of size.
func glyphBuffer(buf []byte, size image.Point) ([]byte, int, error) {
	stride := pixfmt.Mono4.MinStride(size.X)
	if stride*size.Y > len(buf) {
		return nil, 0, &shape.Error{Kind: shape.ConfigError, Op: "glyph",
			Err: fmt.Errorf("%w: %v glyph", shape.ErrBufferTooSmall, size)}
	}
	pix := buf[:stride*size.Y]
	clear(pix)
	return pix, stride, nil
}
