// Package toif reads and writes TOIF, a compact deflate-compressed icon
// format. The header is "TOI" plus a format byte, little-endian 16-bit width
// and height, and a 32-bit payload length; the payload is raw deflate.
//
// Full-color images hold RGB565 pixels (big or little endian). Grayscale
// images hold 4-bit pixels, two per byte, with either the odd (right) or the
// even (left) pixel in the high nibble.
package toif

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

var ErrFormat = errors.New("toif: invalid image")

const headerSize = 12

type Format byte

const (
	FullColorBE Format = 'f'
	FullColorLE Format = 'F'
	GrayscaleOH Format = 'g'
	GrayscaleEH Format = 'G'
)

func (f Format) String() string {
	switch f {
	case FullColorBE:
		return "full-color-be"
	case FullColorLE:
		return "full-color-le"
	case GrayscaleOH:
		return "grayscale-oh"
	case GrayscaleEH:
		return "grayscale-eh"
	default:
		return fmt.Sprintf("toif(%q)", byte(f))
	}
}

// Grayscale reports whether pixels are 4-bit luminance.
func (f Format) Grayscale() bool { return f == GrayscaleOH || f == GrayscaleEH }

// PixelFormat is the layout rows are delivered in by Decoder.
func (f Format) PixelFormat() pixfmt.Format {
	if f.Grayscale() {
		return pixfmt.Mono4
	}
	return pixfmt.RGB565
}

// Image is a parsed TOIF blob. Data aliases the input.
type Image struct {
	Format Format
	Width  int
	Height int
	Data   []byte
}

func (m Image) Size() image.Point { return image.Pt(m.Width, m.Height) }

// Stride returns the byte length of one decoded row.
func (m Image) Stride() int { return m.Format.PixelFormat().MinStride(m.Width) }

// Parse validates the header. It does not inflate the payload.
func Parse(b []byte) (Image, error) {
	if len(b) < headerSize || b[0] != 'T' || b[1] != 'O' || b[2] != 'I' {
		return Image{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	f := Format(b[3])
	switch f {
	case FullColorBE, FullColorLE, GrayscaleOH, GrayscaleEH:
	default:
		return Image{}, fmt.Errorf("%w: format %q", ErrFormat, b[3])
	}
	w := int(binary.LittleEndian.Uint16(b[4:]))
	h := int(binary.LittleEndian.Uint16(b[6:]))
	n := int(binary.LittleEndian.Uint32(b[8:]))
	if n != len(b)-headerSize {
		return Image{}, fmt.Errorf("%w: payload length %d, have %d", ErrFormat, n, len(b)-headerSize)
	}
	if f.Grayscale() && w%2 != 0 {
		return Image{}, fmt.Errorf("%w: grayscale width %d is odd", ErrFormat, w)
	}
	return Image{Format: f, Width: w, Height: h, Data: b[headerSize:]}, nil
}

// Decoder inflates rows one at a time. The zero value is ready to use and
// keeps its inflate state between images.
type Decoder struct {
	img Image
	src bytes.Reader
	zr  io.ReadCloser
	row int
}

// Reset starts decoding img from its first row.
func (d *Decoder) Reset(img Image) error {
	d.img = img
	d.row = 0
	d.src.Reset(img.Data)
	if d.zr == nil {
		d.zr = flate.NewReader(&d.src)
		return nil
	}
	return d.zr.(flate.Resetter).Reset(&d.src, nil)
}

// Row returns the index of the next row ReadRow will produce.
func (d *Decoder) Row() int { return d.row }

// ReadRow inflates the next row into dst, converting it to the layout named
// by Format.PixelFormat: little-endian RGB565 or Mono4 with the even pixel
// in the low nibble.
func (d *Decoder) ReadRow(dst []byte) error {
	if d.row >= d.img.Height {
		return io.EOF
	}
	n := d.img.Stride()
	if len(dst) < n {
		return fmt.Errorf("toif: row buffer %d bytes, need %d", len(dst), n)
	}
	dst = dst[:n]
	if _, err := io.ReadFull(d.zr, dst); err != nil {
		return fmt.Errorf("%w: row %d: %v", ErrFormat, d.row, err)
	}
	switch d.img.Format {
	case FullColorBE:
		for i := 0; i+1 < len(dst); i += 2 {
			dst[i], dst[i+1] = dst[i+1], dst[i]
		}
	case GrayscaleEH:
		for i, b := range dst {
			dst[i] = b<<4 | b>>4
		}
	}
	d.row++
	return nil
}

// Skip discards rows until Row() == y.
func (d *Decoder) Skip(y int, scratch []byte) error {
	for d.row < y {
		if err := d.ReadRow(scratch); err != nil {
			return err
		}
	}
	return nil
}
