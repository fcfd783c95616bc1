package shape

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

func fill(b *Bitmap, r image.Rectangle, c color.RGBA, alpha uint8) {
	switch b.format {
	case pixfmt.Mono8:
		lum := pixfmt.Luminance(c)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := b.pix[y*b.stride:]
			for x := r.Min.X; x < r.Max.X; x++ {
				if alpha == 0xFF {
					row[x] = lum
				} else {
					row[x] = pixfmt.Blend8(lum, row[x], alpha)
				}
			}
		}
	case pixfmt.RGB565:
		v := pixfmt.ToRGB565(c)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := b.pix[y*b.stride:]
			for x := r.Min.X; x < r.Max.X; x++ {
				d := v
				if alpha != 0xFF {
					d = pixfmt.BlendRGB565(v, binary.LittleEndian.Uint16(row[x*2:]), alpha)
				}
				binary.LittleEndian.PutUint16(row[x*2:], d)
			}
		}
	case pixfmt.RGBA8888:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := b.pix[y*b.stride:]
			for x := r.Min.X; x < r.Max.X; x++ {
				out := c
				if alpha != 0xFF {
					out = pixfmt.Blend(c, rgbaAt(row, x), alpha)
				} else {
					out.A = 0xFF
				}
				setRGBA(row, x, out)
			}
		}
	}
}

// copyBitmap draws src into r of b. The view offset already points at the
// pixel that lands on r.Min.
func copyBitmap(b *Bitmap, r image.Rectangle, src BitmapView) {
	w := r.Dx()
	ox := src.Offset.X
	switch b.format {
	case pixfmt.Mono8:
		fg := pixfmt.Luminance(src.Fg)
		bg := pixfmt.Luminance(src.Bg)
		for y := 0; y < r.Dy(); y++ {
			dst := b.pix[(r.Min.Y+y)*b.stride+r.Min.X:]
			s := src.Row(y)
			for x := 0; x < w; x++ {
				sx := ox + x
				switch src.Format() {
				case pixfmt.Mono1P:
					on := s[sx/8]&(0x80>>(sx%8)) != 0
					switch {
					case src.HasBg && on:
						dst[x] = fg
					case src.HasBg:
						dst[x] = bg
					case on:
						dst[x] = pixfmt.Blend8(fg, dst[x], src.Alpha)
					}
				case pixfmt.Mono4:
					n := pixfmt.Nibble(s, sx)
					if src.HasBg {
						dst[x] = pixfmt.Blend8(fg, bg, n*17)
					} else {
						dst[x] = pixfmt.Blend8(fg, dst[x], scaleAlpha(n*17, src.Alpha))
					}
				case pixfmt.Mono8:
					if src.Alpha == 0xFF {
						dst[x] = s[sx]
					} else {
						dst[x] = pixfmt.Blend8(s[sx], dst[x], src.Alpha)
					}
				}
			}
		}
	case pixfmt.RGB565:
		var grad [16]uint16
		if src.Format() == pixfmt.Mono4 && src.HasBg {
			for i, c := range pixfmt.Gradient16(src.Fg, src.Bg) {
				grad[i] = pixfmt.ToRGB565(c)
			}
		}
		fg := pixfmt.ToRGB565(src.Fg)
		for y := 0; y < r.Dy(); y++ {
			dst := b.pix[(r.Min.Y+y)*b.stride+r.Min.X*2:]
			s := src.Row(y)
			for x := 0; x < w; x++ {
				sx := ox + x
				d := binary.LittleEndian.Uint16(dst[x*2:])
				switch src.Format() {
				case pixfmt.Mono4:
					n := pixfmt.Nibble(s, sx)
					if src.HasBg {
						d = grad[n]
					} else {
						d = pixfmt.BlendRGB565(fg, d, scaleAlpha(n*17, src.Alpha))
					}
				case pixfmt.RGB565:
					v := binary.LittleEndian.Uint16(s[sx*2:])
					if src.Alpha == 0xFF {
						d = v
					} else {
						d = pixfmt.BlendRGB565(v, d, src.Alpha)
					}
				case pixfmt.RGBA8888:
					c := rgbaAt(s, sx)
					d = pixfmt.BlendRGB565(pixfmt.ToRGB565(c), d, scaleAlpha(c.A, src.Alpha))
				}
				binary.LittleEndian.PutUint16(dst[x*2:], d)
			}
		}
	case pixfmt.RGBA8888:
		var grad [16]color.RGBA
		if src.Format() == pixfmt.Mono4 && src.HasBg {
			grad = pixfmt.Gradient16(src.Fg, src.Bg)
		}
		for y := 0; y < r.Dy(); y++ {
			dst := b.pix[(r.Min.Y+y)*b.stride+r.Min.X*4:]
			s := src.Row(y)
			for x := 0; x < w; x++ {
				sx := ox + x
				var out color.RGBA
				switch src.Format() {
				case pixfmt.Mono4:
					n := pixfmt.Nibble(s, sx)
					if src.HasBg {
						out = grad[n]
					} else {
						out = pixfmt.Blend(src.Fg, rgbaAt(dst, x), scaleAlpha(n*17, src.Alpha))
					}
				case pixfmt.RGB565:
					out = pixfmt.FromRGB565(binary.LittleEndian.Uint16(s[sx*2:]))
					if src.Alpha != 0xFF {
						out = pixfmt.Blend(out, rgbaAt(dst, x), src.Alpha)
					}
				case pixfmt.RGBA8888:
					c := rgbaAt(s, sx)
					out = pixfmt.Blend(c, rgbaAt(dst, x), scaleAlpha(c.A, src.Alpha))
				}
				setRGBA(dst, x, out)
			}
		}
	}
}

func scaleAlpha(a, b uint8) uint8 {
	return uint8((uint32(a)*uint32(b) + 127) / 255)
}

func rgbaAt(row []byte, x int) color.RGBA {
	p := row[x*4 : x*4+4]
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func setRGBA(row []byte, x int, c color.RGBA) {
	p := row[x*4 : x*4+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}
