package shape

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/shapekit/internal/display"
	"github.com/rook-computer/shapekit/internal/dma2d"
)

// Strategy selects how a pass reaches the display.
type Strategy uint8

const (
	// StrategyDirect draws each shape straight into the framebuffer.
	StrategyDirect Strategy = iota
	// StrategyProgressive draws bands into staging buffers and blits them.
	StrategyProgressive
)

func (s Strategy) String() string {
	if s == StrategyProgressive {
		return "progressive"
	}
	return "direct"
}

// PassStats describes the last render pass.
type PassStats struct {
	Strategy Strategy
	Shapes   int
	Bands    int
	Duration time.Duration
	Err      error
}

// Engine runs render passes against one display.
type Engine struct {
	strategy Strategy
	fb       display.Framebuffer
	panel    display.Panel
	dma      *dma2d.Engine
	target   *DMACanvas
	size     image.Point
	cache    *DrawingCache
	logger   Logger

	running atomic.Bool
	mu      sync.Mutex
	stats   PassStats
	passes  uint64
}

// NewDirectEngine renders straight into fb.
func NewDirectEngine(fb display.Framebuffer, a, b *Arena, budget Budget, logger Logger) (*Engine, error) {
	cache, err := NewDrawingCache(a, b, budget)
	if err != nil {
		return nil, err
	}
	return &Engine{
		strategy: StrategyDirect,
		fb:       fb,
		size:     fb.Size(),
		cache:    cache,
		logger:   orNop(logger),
	}, nil
}

// NewProgressiveEngine renders through the blitter into panel. The budget's
// band width must cover the panel width.
func NewProgressiveEngine(panel display.Panel, a, b *Arena, budget Budget, policy BusyPolicy, logger Logger) (*Engine, error) {
	size := panel.Size()
	if budget.BandWidth < size.X || budget.BandHeight <= 0 {
		return nil, configError("progressive engine", fmt.Errorf("%w: band %dx%d for a %d px wide panel",
			ErrBufferTooSmall, budget.BandWidth, budget.BandHeight, size.X))
	}
	cache, err := NewDrawingCache(a, b, budget)
	if err != nil {
		return nil, err
	}
	dma := dma2d.New(panel)
	return &Engine{
		strategy: StrategyProgressive,
		panel:    panel,
		dma:      dma,
		target:   NewDMACanvas(dma, size, policy),
		size:     size,
		cache:    cache,
		logger:   orNop(logger),
	}, nil
}

func (e *Engine) Size() image.Point { return e.size }

func (e *Engine) Strategy() Strategy { return e.strategy }

// RenderOnDisplay runs one pass: it clears clip (the whole display when nil)
// to bg, hands a renderer to submit, draws and refreshes the display once.
// Shape errors do not stop the pass; they are joined into the result.
func (e *Engine) RenderOnDisplay(clip *image.Rectangle, bg *color.RGBA, submit func(Renderer)) error {
	if !e.running.CompareAndSwap(false, true) {
		return configError("render", ErrReentrant)
	}
	defer e.running.Store(false)

	start := time.Now()
	e.cache.Reset()
	vp := NewViewport(e.size)
	if clip != nil {
		vp = vp.AbsoluteClip(*clip)
	}

	stats := PassStats{Strategy: e.strategy}
	var err error
	switch e.strategy {
	case StrategyDirect:
		stats.Shapes, err = e.renderDirect(vp, bg, submit)
	case StrategyProgressive:
		stats.Shapes, stats.Bands, err = e.renderProgressive(vp, bg, submit)
	}
	if rerr := e.refresh(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	stats.Duration = time.Since(start)
	stats.Err = err

	e.mu.Lock()
	e.stats = stats
	e.passes++
	e.mu.Unlock()

	if err != nil {
		e.logger.Errorf("render", "%s pass with %d shapes failed: %v", e.strategy, stats.Shapes, err)
	} else {
		e.logger.Infof("render", "%s pass: %d shapes, %d bands in %s", e.strategy, stats.Shapes, stats.Bands, stats.Duration)
	}
	return err
}

func (e *Engine) renderDirect(vp Viewport, bg *color.RGBA, submit func(Renderer)) (int, error) {
	pix, stride := e.fb.FrameBuffer()
	b, err := NewBitmap(e.fb.Format(), e.size, stride, pix)
	if err != nil {
		return 0, configError("framebuffer", err)
	}
	canvas, err := NewBitmapCanvas(&b)
	if err != nil {
		return 0, err
	}
	canvas.SetViewport(vp)
	r := NewDirectRenderer(canvas, bg, e.cache)
	submit(r)
	return r.Shapes(), r.Err()
}

func (e *Engine) renderProgressive(vp Viewport, bg *color.RGBA, submit func(Renderer)) (int, int, error) {
	e.target.SetViewport(vp)
	r := NewProgressiveRenderer(e.target, bg, e.cache)
	submit(r)
	shapes := r.Shapes()
	err := r.Render()
	return shapes, r.Bands(), err
}

func (e *Engine) refresh() error {
	var err error
	if e.fb != nil {
		err = e.fb.Refresh()
	} else {
		err = e.panel.Refresh()
	}
	if err != nil {
		return &Error{Kind: HardwareBusy, Op: "refresh", Err: err}
	}
	return nil
}

// Stats returns the last pass statistics and the number of passes run.
func (e *Engine) Stats() (PassStats, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats, e.passes
}

// Close stops the blitter worker, if any.
func (e *Engine) Close() error {
	if e.dma != nil {
		return e.dma.Close()
	}
	return nil
}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
