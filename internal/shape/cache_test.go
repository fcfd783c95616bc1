package shape

import (
	"errors"
	"image"
	"testing"

	"github.com/rook-computer/shapekit/internal/toif"
)

func TestArenaAlloc(t *testing.T) {
	a := NewArena("a", 16, MemoryGeneral)
	first, err := a.Alloc(3)
	if err != nil || len(first) != 3 {
		t.Fatalf("Alloc(3) = %d bytes, %v", len(first), err)
	}
	second, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc(8) error = %v", err)
	}
	if a.Used() != 12 {
		t.Errorf("Used() = %d, want 12 after aligned allocation", a.Used())
	}
	first = append(first, 0xEE)
	if second[0] == 0xEE {
		t.Errorf("appending to one allocation overwrote the next")
	}
	_, err = a.Alloc(8)
	if !errors.Is(err, ErrArenaExhausted) || KindOf(err) != ConfigError {
		t.Errorf("Alloc(8) error = %v, want config ErrArenaExhausted", err)
	}
	a.Reset()
	if _, err := a.Alloc(16); err != nil {
		t.Errorf("Alloc(16) after Reset error = %v", err)
	}
}

func TestNewDrawingCacheChecksArenas(t *testing.T) {
	budget := DefaultBudget(64)
	tests := []struct {
		name string
		a, b *Arena
		ok   bool
	}{
		{"exact", NewArena("a", budget.BumpASize(), MemoryGeneral), NewArena("b", budget.BumpBSize(), MemoryDMA), true},
		{"a too small", NewArena("a", budget.BumpASize()-4, MemoryGeneral), NewArena("b", budget.BumpBSize(), MemoryDMA), false},
		{"b too large", NewArena("a", budget.BumpASize(), MemoryGeneral), NewArena("b", budget.BumpBSize()+4, MemoryDMA), false},
		{"b not dma", NewArena("a", budget.BumpASize(), MemoryGeneral), NewArena("b", budget.BumpBSize(), MemoryGeneral), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDrawingCache(tt.a, tt.b, budget)
			if (err == nil) != tt.ok {
				t.Fatalf("NewDrawingCache() error = %v, want ok %v", err, tt.ok)
			}
			if err != nil && KindOf(err) != ConfigError {
				t.Errorf("KindOf() = %v, want config", KindOf(err))
			}
		})
	}
}

func TestLeases(t *testing.T) {
	cache := testCache(t, DefaultBudget(64))
	buf, err := cache.ImageBuffer()
	if err != nil {
		t.Fatalf("ImageBuffer() error = %v", err)
	}
	if len(buf) != cache.Budget().ImageBufferSize() {
		t.Errorf("len = %d, want %d", len(buf), cache.Budget().ImageBufferSize())
	}
	if _, err := cache.ImageBuffer(); !errors.Is(err, ErrLeaseBusy) {
		t.Errorf("second ImageBuffer() error = %v, want ErrLeaseBusy", err)
	}
	cache.Release(LeaseImage)
	again, err := cache.ImageBuffer()
	if err != nil {
		t.Fatalf("ImageBuffer() after Release error = %v", err)
	}
	if &again[0] != &buf[0] {
		t.Errorf("released buffer was not reused")
	}
	cache.Release(LeaseImage)
}

func TestToifWiderThanBudget(t *testing.T) {
	budget := DefaultBudget(32)
	cache := testCache(t, budget)
	canvas := rgb565Canvas(t, image.Pt(32, 32))
	r := NewDirectRenderer(canvas, nil, cache)
	err := NewToifImage(image.Pt(0, 0), testToif(t, toif.FullColorLE, 48, 4)).Render(r)
	if !errors.Is(err, ErrBufferTooSmall) || KindOf(err) != ConfigError {
		t.Errorf("Render() error = %v, want config ErrBufferTooSmall", err)
	}
}

func TestBlurSessions(t *testing.T) {
	cache := testCache(t, DefaultBudget(64))
	first, err := cache.Blur(image.Pt(10, 10), 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	first.Push(make([]byte, 20))
	same, err := cache.Blur(image.Pt(10, 10), 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if y, _ := same.PushReady(); y != 1 {
		t.Errorf("same key PushReady() = %d, want 1", y)
	}
	other, err := cache.Blur(image.Pt(10, 10), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if y, _ := other.PushReady(); y != 0 {
		t.Errorf("new key PushReady() = %d, want 0", y)
	}
	if _, err := cache.Blur(image.Pt(10, 10), 9, 3); KindOf(err) != ConfigError {
		t.Errorf("radius over budget error = %v, want config error", err)
	}
}

func TestBlurSessionsPerHeldShape(t *testing.T) {
	cache := testCache(t, DefaultBudget(64))
	cache.owner = 0
	first, err := cache.Blur(image.Pt(10, 10), 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	first.Push(make([]byte, 20))

	cache.owner = 1
	second, err := cache.Blur(image.Pt(10, 10), 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	if y, _ := second.PushReady(); y != 0 {
		t.Errorf("other shape PushReady() = %d, want 0", y)
	}
	cache.owner = 0
	cache.ReleaseBlur(7)
	if !cache.blurLive {
		t.Error("ReleaseBlur() from another shape ended the live session")
	}
	cache.owner = 1
	cache.ReleaseBlur(7)
	if cache.blurLive {
		t.Error("ReleaseBlur() from the owning shape kept the session")
	}
}

func TestBudgetRejectsLargeBlurRadius(t *testing.T) {
	budget := DefaultBudget(64)
	budget.MaxBlurRadius = MaxBlurRadius + 1
	if err := budget.Validate(); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Validate() = %v, want ErrBufferTooSmall", err)
	}
}

func TestBandBitmapsAreDMAVisible(t *testing.T) {
	budget := DefaultBudget(32)
	cache := testCache(t, budget)
	for i := 0; i < 2; i++ {
		bm, err := cache.BandBitmap(i, image.Pt(32, budget.BandHeight))
		if err != nil {
			t.Fatalf("BandBitmap(%d) error = %v", i, err)
		}
		if !bm.DMAVisible() {
			t.Errorf("BandBitmap(%d) is not DMA-visible", i)
		}
	}
}
