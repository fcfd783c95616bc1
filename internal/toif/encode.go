package toif

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// Encode converts img to a TOIF blob in format f.
func Encode(img image.Image, f Format) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > 0xFFFF || h > 0xFFFF {
		return nil, fmt.Errorf("toif: image %dx%d too large", w, h)
	}
	if f.Grayscale() && w%2 != 0 {
		return nil, fmt.Errorf("toif: grayscale width %d is odd", w)
	}

	var raw bytes.Buffer
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			switch f {
			case FullColorBE:
				v := pixfmt.ToRGB565(c)
				raw.WriteByte(byte(v >> 8))
				raw.WriteByte(byte(v))
			case FullColorLE:
				v := pixfmt.ToRGB565(c)
				raw.WriteByte(byte(v))
				raw.WriteByte(byte(v >> 8))
			case GrayscaleOH, GrayscaleEH:
				if (x-b.Min.X)%2 == 1 {
					continue
				}
				left := pixfmt.Luminance(c) >> 4
				right := pixfmt.Luminance(color.RGBAModel.Convert(img.At(x+1, y)).(color.RGBA)) >> 4
				if f == GrayscaleOH {
					raw.WriteByte(right<<4 | left)
				} else {
					raw.WriteByte(left<<4 | right)
				}
			default:
				return nil, fmt.Errorf("toif: unknown format %v", f)
			}
		}
	}

	var packed bytes.Buffer
	zw, err := flate.NewWriter(&packed, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+packed.Len())
	copy(out, "TOI")
	out[3] = byte(f)
	binary.LittleEndian.PutUint16(out[4:], uint16(w))
	binary.LittleEndian.PutUint16(out[6:], uint16(h))
	binary.LittleEndian.PutUint32(out[8:], uint32(packed.Len()))
	return append(out, packed.Bytes()...), nil
}
