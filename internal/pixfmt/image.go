package pixfmt

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Image exposes a raw pixel buffer as a draw.Image so that standard library
// codecs and x/image scalers can read and write device memory.
type Image struct {
	Format Format
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewImage allocates a zeroed buffer with the minimal stride.
func NewImage(f Format, r image.Rectangle) *Image {
	stride := f.MinStride(r.Dx())
	return &Image{Format: f, Pix: make([]byte, stride*r.Dy()), Stride: stride, Rect: r}
}

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) At(x, y int) color.Color { return m.RGBAAt(x, y) }

// RGBAAt returns the zero color outside Rect.
func (m *Image) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}).In(m.Rect) {
		return color.RGBA{}
	}
	x -= m.Rect.Min.X
	row := m.Pix[(y-m.Rect.Min.Y)*m.Stride:]
	switch m.Format {
	case Mono1P:
		if row[x/8]&(0x80>>(x%8)) != 0 {
			return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
		}
		return color.RGBA{A: 0xFF}
	case Mono4:
		l := Nibble(row, x) * 17
		return color.RGBA{R: l, G: l, B: l, A: 0xFF}
	case Mono8:
		l := row[x]
		return color.RGBA{R: l, G: l, B: l, A: 0xFF}
	case RGB565:
		return FromRGB565(binary.LittleEndian.Uint16(row[x*2:]))
	case RGBA8888:
		p := row[x*4 : x*4+4 : x*4+4]
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return color.RGBA{}
}

func (m *Image) Set(x, y int, c color.Color) {
	m.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

func (m *Image) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(m.Rect) {
		return
	}
	x -= m.Rect.Min.X
	row := m.Pix[(y-m.Rect.Min.Y)*m.Stride:]
	switch m.Format {
	case Mono1P:
		if Luminance(c) >= 0x80 {
			row[x/8] |= 0x80 >> (x % 8)
		} else {
			row[x/8] &^= 0x80 >> (x % 8)
		}
	case Mono4:
		SetNibble(row, x, Luminance(c)>>4)
	case Mono8:
		row[x] = Luminance(c)
	case RGB565:
		binary.LittleEndian.PutUint16(row[x*2:], ToRGB565(c))
	case RGBA8888:
		row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = c.R, c.G, c.B, c.A
	}
}

// Nibble reads pixel x of a Mono4 row.
func Nibble(row []byte, x int) uint8 {
	b := row[x/2]
	if x&1 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

// SetNibble writes the low 4 bits of v as pixel x of a Mono4 row.
func SetNibble(row []byte, x int, v uint8) {
	v &= 0x0F
	if x&1 == 0 {
		row[x/2] = row[x/2]&0xF0 | v
	} else {
		row[x/2] = row[x/2]&0x0F | v<<4
	}
}
