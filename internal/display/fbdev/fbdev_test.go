package fbdev

import (
	"image"
	"image/color"
	"testing"

	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

func TestParseScaler(t *testing.T) {
	tests := []struct {
		name    string
		want    xdraw.Interpolator
		wantErr bool
	}{
		{"", xdraw.NearestNeighbor, false},
		{"Nearest", xdraw.NearestNeighbor, false},
		{"approx", xdraw.ApproxBiLinear, false},
		{"bilinear", xdraw.BiLinear, false},
		{"catmullrom", xdraw.CatmullRom, false},
		{"lanczos", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScaler(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScaler(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseScaler(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBlit(t *testing.T) {
	red := color.RGBA{R: 0xFF, A: 0xFF}
	blue := color.RGBA{B: 0xFF, A: 0xFF}

	src := pixfmt.NewImage(pixfmt.RGB565, image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, blue)

	t.Run("same size", func(t *testing.T) {
		dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
		blit(dst, src, xdraw.NearestNeighbor)
		if got := dst.RGBAAt(0, 0); got != red {
			t.Errorf("pixel 0 = %v, want %v", got, red)
		}
		if got := dst.RGBAAt(1, 0); got != blue {
			t.Errorf("pixel 1 = %v, want %v", got, blue)
		}
	})

	t.Run("doubled", func(t *testing.T) {
		dst := image.NewRGBA(image.Rect(0, 0, 4, 2))
		blit(dst, src, xdraw.NearestNeighbor)
		for y := 0; y < 2; y++ {
			for x := 0; x < 4; x++ {
				want := red
				if x >= 2 {
					want = blue
				}
				if got := dst.RGBAAt(x, y); got != want {
					t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
				}
			}
		}
	})
}
