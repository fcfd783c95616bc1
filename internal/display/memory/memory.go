// Package memory provides displays backed by plain memory. They serve the
// web preview, the headless binary and tests.
package memory

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"time"

	"github.com/rook-computer/shapekit/internal/dma2d"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// Framebuffer is a CPU-writable display.
type Framebuffer struct {
	mu        sync.Mutex
	img       *pixfmt.Image
	refreshes int
	onRefresh func(image.Image)
}

func NewFramebuffer(size image.Point, format pixfmt.Format) *Framebuffer {
	return &Framebuffer{img: pixfmt.NewImage(format, image.Rectangle{Max: size})}
}

func (f *Framebuffer) Size() image.Point { return f.img.Rect.Size() }

func (f *Framebuffer) Format() pixfmt.Format { return f.img.Format }

func (f *Framebuffer) FrameBuffer() ([]byte, int) { return f.img.Pix, f.img.Stride }

// OnRefresh registers fn to receive a snapshot after every refresh.
func (f *Framebuffer) OnRefresh(fn func(image.Image)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRefresh = fn
}

func (f *Framebuffer) Refresh() error {
	f.mu.Lock()
	f.refreshes++
	fn := f.onRefresh
	f.mu.Unlock()
	if fn != nil {
		fn(f.Snapshot())
	}
	return nil
}

func (f *Framebuffer) Refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

// Image returns the live display memory.
func (f *Framebuffer) Image() *pixfmt.Image { return f.img }

func (f *Framebuffer) Snapshot() *image.RGBA { return snapshot(f.img) }

func (f *Framebuffer) WritePNG(w io.Writer) error { return png.Encode(w, f.Snapshot()) }

// Panel is RGB565 display memory written only through blitter requests.
// Delay slows each request down to mimic a bus transfer.
type Panel struct {
	mu        sync.Mutex
	gram      *pixfmt.Image
	delay     time.Duration
	requests  int
	refreshes int
	onRefresh func(image.Image)
}

func NewPanel(size image.Point, delay time.Duration) *Panel {
	return &Panel{gram: pixfmt.NewImage(pixfmt.RGB565, image.Rectangle{Max: size}), delay: delay}
}

func (p *Panel) Size() image.Point { return p.gram.Rect.Size() }

func (p *Panel) Supports(req *dma2d.Request) bool {
	return req.Kind == dma2d.KindFill || req.Src.Format == pixfmt.RGB565
}

func (p *Panel) Fill(dst image.Rectangle, c color.RGBA, alpha uint8) error {
	p.wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !dst.In(p.gram.Rect) {
		return fmt.Errorf("memory panel: fill %v outside %v", dst, p.gram.Rect)
	}
	p.requests++
	v := pixfmt.ToRGB565(c)
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		row := p.gram.Pix[y*p.gram.Stride:]
		for x := dst.Min.X; x < dst.Max.X; x++ {
			d := v
			if alpha != 0xFF {
				d = pixfmt.BlendRGB565(v, binary.LittleEndian.Uint16(row[x*2:]), alpha)
			}
			binary.LittleEndian.PutUint16(row[x*2:], d)
		}
	}
	return nil
}

func (p *Panel) Copy(dst image.Rectangle, src dma2d.Source) error {
	p.wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !dst.In(p.gram.Rect) {
		return fmt.Errorf("memory panel: copy %v outside %v", dst, p.gram.Rect)
	}
	p.requests++
	n := dst.Dx() * 2
	for y := 0; y < dst.Dy(); y++ {
		copy(p.gram.Pix[(dst.Min.Y+y)*p.gram.Stride+dst.Min.X*2:][:n], src.Row(y)[:n])
	}
	return nil
}

func (p *Panel) wait() {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
}

func (p *Panel) OnRefresh(fn func(image.Image)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRefresh = fn
}

func (p *Panel) Refresh() error {
	p.mu.Lock()
	p.refreshes++
	fn := p.onRefresh
	p.mu.Unlock()
	if fn != nil {
		fn(p.Snapshot())
	}
	return nil
}

// Stats returns the request and refresh counts.
func (p *Panel) Stats() (requests, refreshes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests, p.refreshes
}

// Image returns the panel memory. Read it only while the blitter is idle.
func (p *Panel) Image() *pixfmt.Image { return p.gram }

func (p *Panel) Snapshot() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.gram)
}

func (p *Panel) WritePNG(w io.Writer) error { return png.Encode(w, p.Snapshot()) }

func snapshot(m *pixfmt.Image) *image.RGBA {
	out := image.NewRGBA(m.Rect)
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			out.SetRGBA(x, y, m.RGBAAt(x, y))
		}
	}
	return out
}
