package toif

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 60), B: 0x80, A: 0xFF})
		}
	}
	return img
}

func TestDecodeRows(t *testing.T) {
	src := sample()
	for _, f := range []Format{FullColorBE, FullColorLE, GrayscaleOH, GrayscaleEH} {
		t.Run(f.String(), func(t *testing.T) {
			blob, err := Encode(src, f)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			img, err := Parse(blob)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if img.Size() != image.Pt(6, 4) || img.Format != f {
				t.Fatalf("Parse() = %v %v, want 6x4 %v", img.Size(), img.Format, f)
			}
			var d Decoder
			if err := d.Reset(img); err != nil {
				t.Fatalf("Reset() error = %v", err)
			}
			row := make([]byte, img.Stride())
			for y := 0; y < 4; y++ {
				if err := d.ReadRow(row); err != nil {
					t.Fatalf("ReadRow(%d) error = %v", y, err)
				}
				for x := 0; x < 6; x++ {
					c := src.RGBAAt(x, y)
					if f.Grayscale() {
						want := pixfmt.Luminance(c) >> 4
						if got := pixfmt.Nibble(row, x); got != want {
							t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
						}
						continue
					}
					want := pixfmt.ToRGB565(c)
					if got := binary.LittleEndian.Uint16(row[x*2:]); got != want {
						t.Errorf("pixel (%d,%d) = %#04x, want %#04x", x, y, got, want)
					}
				}
			}
			if err := d.ReadRow(row); err != io.EOF {
				t.Errorf("ReadRow() past the end = %v, want io.EOF", err)
			}
		})
	}
}

func TestDecoderReuse(t *testing.T) {
	blob, err := Encode(sample(), FullColorLE)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	img, _ := Parse(blob)
	var d Decoder
	row := make([]byte, img.Stride())
	for i := 0; i < 2; i++ {
		if err := d.Reset(img); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if err := d.Skip(3, row); err != nil {
			t.Fatalf("Skip() error = %v", err)
		}
		if d.Row() != 3 {
			t.Errorf("Row() = %d, want 3", d.Row())
		}
	}
}

func TestParseErrors(t *testing.T) {
	good, _ := Encode(sample(), GrayscaleOH)
	badLen := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badLen[8:], 1)
	odd := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(odd[4:], 5)
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("TOI")},
		{"magic", append([]byte("XOI"), good[3:]...)},
		{"format", append([]byte("TOIx"), good[4:]...)},
		{"length", badLen},
		{"odd gray width", odd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); !errors.Is(err, ErrFormat) {
				t.Errorf("Parse() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestCorruptPayload(t *testing.T) {
	blob, _ := Encode(sample(), FullColorBE)
	blob = blob[:headerSize+3]
	binary.LittleEndian.PutUint32(blob[8:], 3)
	img, err := Parse(blob)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var d Decoder
	if err := d.Reset(img); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	row := make([]byte, img.Stride())
	var readErr error
	for y := 0; y < img.Height && readErr == nil; y++ {
		readErr = d.ReadRow(row)
	}
	if !errors.Is(readErr, ErrFormat) {
		t.Errorf("ReadRow() error = %v, want ErrFormat", readErr)
	}
}
