package layout

import (
	"image"
	"testing"
)

func TestBands(t *testing.T) {
	tests := []struct {
		name   string
		rect   image.Rectangle
		height int
		want   []image.Rectangle
	}{
		{
			name:   "even",
			rect:   image.Rect(0, 0, 100, 60),
			height: 20,
			want:   []image.Rectangle{image.Rect(0, 0, 100, 20), image.Rect(0, 20, 100, 40), image.Rect(0, 40, 100, 60)},
		},
		{
			name:   "short last band",
			rect:   image.Rect(5, 10, 15, 35),
			height: 10,
			want:   []image.Rectangle{image.Rect(5, 10, 15, 20), image.Rect(5, 20, 15, 30), image.Rect(5, 30, 15, 35)},
		},
		{
			name:   "band taller than rect",
			rect:   image.Rect(0, 0, 8, 4),
			height: 16,
			want:   []image.Rectangle{image.Rect(0, 0, 8, 4)},
		},
		{
			name:   "empty",
			rect:   image.Rectangle{},
			height: 16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []image.Rectangle
			n := Bands(tt.rect, tt.height, func(i int, band image.Rectangle) bool {
				if i != len(got) {
					t.Errorf("band index = %d, want %d", i, len(got))
				}
				got = append(got, band)
				return true
			})
			if n != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("Bands() = %d bands (%v), want %d", n, got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("band %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if c := BandCount(tt.rect, tt.height); c != len(tt.want) {
				t.Errorf("BandCount() = %d, want %d", c, len(tt.want))
			}
		})
	}
}

func TestBandsStop(t *testing.T) {
	calls := 0
	Bands(image.Rect(0, 0, 10, 100), 10, func(i int, band image.Rectangle) bool {
		calls++
		return i < 2
	})
	if calls != 3 {
		t.Errorf("Bands() visited %d bands, want 3", calls)
	}
}

func TestInset(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		pad  int
		want image.Rectangle
	}{
		{"zero", image.Rect(0, 0, 10, 10), 0, image.Rect(0, 0, 10, 10)},
		{"two", image.Rect(0, 0, 10, 10), 2, image.Rect(2, 2, 8, 8)},
		{"collapsed", image.Rect(0, 0, 4, 4), 3, image.Rect(3, 3, 3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inset(tt.rect, tt.pad); got != tt.want {
				t.Errorf("Inset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFitSquare(t *testing.T) {
	got := FitSquare(image.Rect(0, 0, 100, 60))
	want := image.Rect(20, 0, 80, 60)
	if got != want {
		t.Errorf("FitSquare() = %v, want %v", got, want)
	}
}

func TestAnchored(t *testing.T) {
	got := Anchored(image.Pt(50, 50), image.Pt(20, 10), AlignCenter, AlignEnd)
	want := image.Rect(40, 40, 60, 50)
	if got != want {
		t.Errorf("Anchored() = %v, want %v", got, want)
	}
}

func TestSplitHorizontalClamps(t *testing.T) {
	top, bottom := SplitHorizontal(image.Rect(0, 0, 10, 10), 20)
	if top != image.Rect(0, 0, 10, 10) || !bottom.Empty() {
		t.Errorf("SplitHorizontal() = %v, %v", top, bottom)
	}
}
