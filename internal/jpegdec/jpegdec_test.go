package jpegdec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 2),
				A: 0xFF,
			})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func reference(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}
	return img
}

// boxAverage mirrors the decoder's downscale on a reference image.
func boxAverage(img image.Image, x, y, scale int) color.RGBA {
	b := img.Bounds()
	n := 1 << scale
	var sr, sg, sb, cnt uint32
	for py := y << scale; py < (y<<scale)+n && py < b.Max.Y; py++ {
		for px := x << scale; px < (x<<scale)+n && px < b.Max.X; px++ {
			c := color.RGBAModel.Convert(img.At(px, py)).(color.RGBA)
			sr += uint32(c.R)
			sg += uint32(c.G)
			sb += uint32(c.B)
			cnt++
		}
	}
	return color.RGBA{R: uint8((sr + cnt/2) / cnt), G: uint8((sg + cnt/2) / cnt), B: uint8((sb + cnt/2) / cnt), A: 0xFF}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func decodeAll(t *testing.T, data []byte, scale int) (map[int][]byte, image.Point) {
	t.Helper()
	var d Decoder
	buf := make([]byte, RowBufferSize(128))
	if err := d.Reset(data, scale, buf); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	rows := make(map[int][]byte)
	err := d.DecompressRows(0, func(r image.Rectangle, pix []byte, stride int) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if _, dup := rows[y]; dup {
				t.Errorf("row %d emitted twice", y)
			}
			line := make([]byte, r.Dx()*2)
			copy(line, pix[(y-r.Min.Y)*stride:])
			rows[y] = line
		}
		return true
	})
	if err != nil {
		t.Fatalf("DecompressRows() error = %v", err)
	}
	return rows, d.Size()
}

func comparePixels(t *testing.T, rows map[int][]byte, size image.Point, ref image.Image, scale int) {
	t.Helper()
	worst := 0
	for y := 0; y < size.Y; y++ {
		line := rows[y]
		for x := 0; x < size.X; x++ {
			got := pixfmt.FromRGB565(binary.LittleEndian.Uint16(line[x*2:]))
			want := pixfmt.FromRGB565(pixfmt.ToRGB565(boxAverage(ref, x, y, scale)))
			worst = max(worst, absDiff(got.R, want.R), absDiff(got.G, want.G), absDiff(got.B, want.B))
		}
	}
	if worst > 16 {
		t.Errorf("max channel difference vs reference = %d, want <= 16", worst)
	}
}

func TestDecodeMatchesReference(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"ycbcr 4:2:0", testImage(100, 60)},
		{"odd size", testImage(37, 23)},
		{"gray", func() image.Image {
			g := image.NewGray(image.Rect(0, 0, 50, 30))
			for i := range g.Pix {
				g.Pix[i] = uint8(i * 7)
			}
			return g
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encode(t, tt.img)
			ref := reference(t, data)
			for scale := 0; scale <= MaxScale; scale++ {
				rows, size := decodeAll(t, data, scale)
				comparePixels(t, rows, size, ref, scale)
			}
		})
	}
}

func TestRowsCoverImageOnce(t *testing.T) {
	data := encode(t, testImage(100, 60))
	for scale := 0; scale <= MaxScale; scale++ {
		var d Decoder
		if err := d.Reset(data, scale, make([]byte, RowBufferSize(100))); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		want := ScaledSize(image.Pt(100, 60), scale)
		if d.Size() != want {
			t.Errorf("scale %d: Size() = %v, want %v", scale, d.Size(), want)
		}
		next, calls := 0, 0
		err := d.DecompressRows(0, func(r image.Rectangle, pix []byte, stride int) bool {
			calls++
			if r.Min.Y != next {
				t.Errorf("scale %d: row starts at %d, want %d", scale, r.Min.Y, next)
			}
			if r.Dx() != want.X {
				t.Errorf("scale %d: row width %d, want %d", scale, r.Dx(), want.X)
			}
			next = r.Max.Y
			return true
		})
		if err != nil {
			t.Fatalf("scale %d: DecompressRows() error = %v", scale, err)
		}
		if next != want.Y {
			t.Errorf("scale %d: rows end at %d, want %d", scale, next, want.Y)
		}
		if calls != 4 {
			t.Errorf("scale %d: %d MCU rows, want 4", scale, calls)
		}
	}
}

func TestDecompressRowsStartAndStop(t *testing.T) {
	data := encode(t, testImage(100, 60))
	var d Decoder
	if err := d.Reset(data, 0, make([]byte, RowBufferSize(100))); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	var got []image.Rectangle
	err := d.DecompressRows(30, func(r image.Rectangle, pix []byte, stride int) bool {
		got = append(got, r)
		return false
	})
	if err != nil {
		t.Fatalf("DecompressRows() error = %v", err)
	}
	if len(got) != 1 || got[0] != image.Rect(0, 16, 100, 32) {
		t.Errorf("DecompressRows(30) rows = %v, want [(0,16)-(100,32)]", got)
	}

	full, _ := decodeAll(t, data, 0)
	err = d.DecompressRows(40, func(r image.Rectangle, pix []byte, stride int) bool {
		if !bytes.Equal(pix[(40-r.Min.Y)*stride:(40-r.Min.Y)*stride+200], full[40]) {
			t.Error("row 40 decoded from the middle differs from a full decode")
		}
		return false
	})
	if err != nil {
		t.Fatalf("DecompressRows(40) error = %v", err)
	}
}

func TestMalformed(t *testing.T) {
	valid := encode(t, testImage(100, 60))
	progressive := []byte{0xFF, 0xD8, 0xFF, 0xC2, 0x00, 0x0B, 0x08, 0x00, 0x10, 0x00, 0x10, 0x01, 0x01, 0x11, 0x00}
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not a jpeg", []byte("GIF89a..."), ErrFormat},
		{"empty", nil, ErrFormat},
		{"progressive", progressive, ErrUnsupported},
		{"truncated", valid[:len(valid)*6/10], ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			err := d.Reset(tt.data, 0, make([]byte, RowBufferSize(100)))
			if err == nil {
				err = d.DecompressRows(0, func(image.Rectangle, []byte, int) bool { return true })
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadSize(t *testing.T) {
	got, err := ReadSize(encode(t, testImage(37, 23)))
	if err != nil {
		t.Fatalf("ReadSize() error = %v", err)
	}
	if got != image.Pt(37, 23) {
		t.Errorf("ReadSize() = %v, want (37,23)", got)
	}
}

func TestResetBufferTooSmall(t *testing.T) {
	var d Decoder
	err := d.Reset(encode(t, testImage(100, 60)), 0, make([]byte, 100))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Reset() error = %v, want ErrBufferTooSmall", err)
	}
}
