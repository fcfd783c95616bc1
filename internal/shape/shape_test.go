package shape

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rook-computer/shapekit/internal/layout"
	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/toif"
)

func TestOpaqueBarScenario(t *testing.T) {
	size := image.Pt(128, 64)
	canvas := rgb565Canvas(t, size)
	cache := testCache(t, DefaultBudget(size.X))
	bg := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}
	barRect := image.Rect(16, 16, 80, 48)

	r := NewDirectRenderer(canvas, &bg, cache)
	if err := NewBar(barRect).WithBgColor(red).Render(r); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	want := map[bool]uint16{true: pixfmt.ToRGB565(red), false: pixfmt.ToRGB565(bg)}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			inside := image.Pt(x, y).In(barRect)
			if got := at565(canvas, x, y); got != want[inside] {
				t.Fatalf("pixel (%d,%d) = %#04x, want %#04x", x, y, got, want[inside])
			}
		}
	}
}

func allShapes(t *testing.T) []Shape {
	t.Helper()
	qr, err := EncodeQr("https://example.com/pair", qrcode.Medium)
	if err != nil {
		t.Fatalf("EncodeQr() error = %v", err)
	}
	return []Shape{
		NewBar(image.Rect(-10, -10, 50, 30)).WithFgColor(red).WithBgColor(blue).WithThickness(3).WithRadius(8).Shape(),
		NewCircle(image.Pt(40, 30), 25).WithFgColor(green).WithBgColor(white).WithThickness(4).WithAlpha(200).Shape(),
		NewCircle(image.Pt(60, 20), 18).WithFgColor(red).WithThickness(5).WithArc(-45, 200).Shape(),
		NewText(image.Pt(50, 40), "hello world", boxFont{}).WithAlign(layout.AlignCenter).Shape(),
		NewToifImage(image.Pt(5, 5), testToif(t, toif.GrayscaleOH, 40, 30)).WithFgColor(red).WithBgColor(black).Shape(),
		NewToifImage(image.Pt(90, 50), testToif(t, toif.FullColorBE, 24, 16)).WithAlign(layout.AlignEnd, layout.AlignEnd).Shape(),
		NewJpegImage(image.Pt(0, 0), testJPEG(t, 48, 40)).WithScale(1).Shape(),
		NewQrImage(image.Rect(60, 0, 100, 40), qr, black, white).Shape(),
		NewCornerHighlight(image.Pt(99, 59), BottomRight, white).WithLength(20, 12).WithRadius(4).WithThickness(3).Shape(),
	}
}

func TestBoundsAreStable(t *testing.T) {
	cache := testCache(t, DefaultBudget(100))
	for _, s := range allShapes(t) {
		t.Run(s.Kind().String(), func(t *testing.T) {
			first, err := s.Bounds(cache)
			if err != nil {
				t.Fatalf("Bounds() error = %v", err)
			}
			for i := 0; i < 3; i++ {
				got, err := s.Bounds(cache)
				if err != nil || got != first {
					t.Fatalf("Bounds() = %v, %v, want %v", got, err, first)
				}
			}
		})
	}
}

// TestNothingOutsideClip fills the canvas with a sentinel and checks every
// byte outside the viewport clip survives each shape.
func TestNothingOutsideClip(t *testing.T) {
	const sentinel = 0xA5
	size := image.Pt(100, 60)
	clips := []image.Rectangle{
		image.Rect(10, 8, 70, 41),
		image.Rect(0, 0, 100, 1),
		image.Rect(33, 0, 34, 60),
	}
	for _, s := range allShapes(t) {
		for _, clip := range clips {
			t.Run(s.Kind().String()+clip.String(), func(t *testing.T) {
				buf := bytes.Repeat([]byte{sentinel}, size.X*size.Y*2)
				canvas, err := NewRgb565Canvas(size, 0, buf)
				if err != nil {
					t.Fatal(err)
				}
				canvas.SetViewport(NewViewport(size).AbsoluteClip(clip))
				cache := testCache(t, DefaultBudget(size.X))
				r := NewDirectRenderer(canvas, nil, cache)
				if err := r.RenderShape(s); err != nil {
					t.Fatalf("RenderShape() error = %v", err)
				}
				for y := 0; y < size.Y; y++ {
					for x := 0; x < size.X; x++ {
						if image.Pt(x, y).In(clip) {
							continue
						}
						if buf[(y*size.X+x)*2] != sentinel || buf[(y*size.X+x)*2+1] != sentinel {
							t.Fatalf("pixel (%d,%d) outside %v was written", x, y, clip)
						}
					}
				}
			})
		}
	}
}

func TestViewport(t *testing.T) {
	base := NewViewport(image.Pt(100, 50))
	tests := []struct {
		name string
		got  Viewport
		want Viewport
	}{
		{
			name: "relative window",
			got:  base.RelativeWindow(image.Rect(10, 10, 40, 30)),
			want: Viewport{Origin: image.Pt(10, 10), Clip: image.Rect(10, 10, 40, 30)},
		},
		{
			name: "nested window",
			got:  base.RelativeWindow(image.Rect(10, 10, 40, 30)).RelativeWindow(image.Rect(5, 5, 100, 100)),
			want: Viewport{Origin: image.Pt(15, 15), Clip: image.Rect(15, 15, 40, 30)},
		},
		{
			name: "relative clip keeps origin",
			got:  base.RelativeWindow(image.Rect(10, 10, 40, 30)).RelativeClip(image.Rect(0, 0, 5, 5)),
			want: Viewport{Origin: image.Pt(10, 10), Clip: image.Rect(10, 10, 15, 15)},
		},
		{
			name: "absolute clip outside",
			got:  base.AbsoluteClip(image.Rect(200, 0, 300, 10)),
			want: Viewport{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("viewport = %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestCanvasFormats(t *testing.T) {
	src, err := NewBitmap(pixfmt.Mono4, image.Pt(4, 1), 0, []byte{0xF0, 0x0F})
	if err != nil {
		t.Fatal(err)
	}
	view := src.View().WithFg(white).WithBg(black)

	t.Run("mono4 gradient on rgb565", func(t *testing.T) {
		c := rgb565Canvas(t, image.Pt(4, 1))
		if err := c.DrawBitmap(image.Rect(0, 0, 4, 1), view); err != nil {
			t.Fatalf("DrawBitmap() error = %v", err)
		}
		want := []uint16{0x0000, 0xFFFF, 0xFFFF, 0x0000}
		for x, w := range want {
			if got := at565(c, x, 0); got != w {
				t.Errorf("pixel %d = %#04x, want %#04x", x, got, w)
			}
		}
	})

	t.Run("mono4 on mono8", func(t *testing.T) {
		c, err := NewMono8Canvas(image.Pt(4, 1), 0, make([]byte, 4))
		if err != nil {
			t.Fatal(err)
		}
		if err := c.DrawBitmap(image.Rect(0, 0, 4, 1), view); err != nil {
			t.Fatalf("DrawBitmap() error = %v", err)
		}
		if got := c.Bitmap().Row(0)[:4]; !bytes.Equal(got, []byte{0, 0xFF, 0xFF, 0}) {
			t.Errorf("row = %v", got)
		}
	})

	t.Run("rgb565 on mono8 is a config error", func(t *testing.T) {
		c, err := NewMono8Canvas(image.Pt(4, 1), 0, make([]byte, 4))
		if err != nil {
			t.Fatal(err)
		}
		rgb, _ := NewBitmap(pixfmt.RGB565, image.Pt(4, 1), 0, make([]byte, 8))
		err = c.DrawBitmap(image.Rect(0, 0, 4, 1), rgb.View())
		if !errors.Is(err, ErrUnsupportedFormat) || KindOf(err) != ConfigError {
			t.Errorf("DrawBitmap() error = %v, want config ErrUnsupportedFormat", err)
		}
	})

	t.Run("rgba8888 blends onto rgb565", func(t *testing.T) {
		c := rgb565Canvas(t, image.Pt(2, 1))
		if err := c.FillRect(image.Rect(0, 0, 2, 1), black, 0xFF); err != nil {
			t.Fatal(err)
		}
		px, _ := NewBitmap(pixfmt.RGBA8888, image.Pt(2, 1), 0, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
		if err := c.DrawBitmap(image.Rect(0, 0, 2, 1), px.View()); err != nil {
			t.Fatal(err)
		}
		if got := at565(c, 0, 0); got != 0xFFFF {
			t.Errorf("opaque pixel = %#04x, want 0xffff", got)
		}
		if got := at565(c, 1, 0); got != 0 {
			t.Errorf("transparent pixel = %#04x, want 0", got)
		}
	})

	t.Run("view offset", func(t *testing.T) {
		c := rgb565Canvas(t, image.Pt(4, 1))
		c.SetViewport(Viewport{Clip: image.Rect(1, 0, 4, 1)})
		if err := c.DrawBitmap(image.Rect(0, 0, 4, 1), view); err != nil {
			t.Fatal(err)
		}
		want := []uint16{0x0000, 0xFFFF, 0xFFFF, 0x0000}
		for x := 1; x < 4; x++ {
			if got := at565(c, x, 0); got != want[x] {
				t.Errorf("pixel %d = %#04x, want %#04x", x, got, want[x])
			}
		}
	})
}

func TestBitmapTooSmall(t *testing.T) {
	_, err := NewBitmap(pixfmt.RGB565, image.Pt(10, 10), 0, make([]byte, 199))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("NewBitmap() error = %v, want ErrBufferTooSmall", err)
	}
	if _, err := NewBitmap(pixfmt.RGB565, image.Pt(10, 10), 0, make([]byte, 200)); err != nil {
		t.Errorf("NewBitmap() error = %v", err)
	}
}

func TestCircleArc(t *testing.T) {
	canvas := rgb565Canvas(t, image.Pt(21, 21))
	cache := testCache(t, DefaultBudget(21))
	r := NewDirectRenderer(canvas, &black, cache)
	if err := NewCircle(image.Pt(10, 10), 10).WithFgColor(white).WithThickness(10).WithArc(0, 90).Render(r); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		p    image.Point
		want bool
	}{
		{image.Pt(15, 5), true},
		{image.Pt(5, 5), false},
		{image.Pt(15, 15), false},
		{image.Pt(5, 15), false},
		{image.Pt(10, 1), true},
	}
	for _, tt := range tests {
		if got := at565(canvas, tt.p.X, tt.p.Y) == 0xFFFF; got != tt.want {
			t.Errorf("pixel %v lit = %v, want %v", tt.p, got, tt.want)
		}
	}
}
