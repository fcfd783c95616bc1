// Package dma2d models a 2D DMA blitter: rectangle fills and copies that run
// asynchronously to the CPU and write straight into display memory.
//
// Only one operation is in flight at a time. A request issued while the
// previous one has not retired fails with ErrBusy; the caller decides whether
// to wait or to take a software path.
package dma2d

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

var (
	ErrBusy      = errors.New("dma2d: previous operation still in flight")
	ErrNotIssued = errors.New("dma2d: operation not supported by hardware")
	ErrClosed    = errors.New("dma2d: engine closed")
)

type Kind uint8

const (
	KindFill Kind = iota + 1
	KindCopy
)

func (k Kind) String() string {
	switch k {
	case KindFill:
		return "fill"
	case KindCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Source is the pixel memory a copy reads from. Offset is the source pixel
// that lands on the request's Dst.Min.
type Source struct {
	Format pixfmt.Format
	Pix    []byte
	Stride int
	Offset image.Point
}

// Row returns the bytes of source row y (relative to Offset) starting at Offset.X.
func (s Source) Row(y int) []byte {
	start := (s.Offset.Y+y)*s.Stride + s.Offset.X*s.Format.BitsPerPixel()/8
	return s.Pix[start:]
}

// Request is a clipped operation ready to be issued.
type Request struct {
	Kind  Kind
	Dst   image.Rectangle
	Color color.RGBA
	Alpha uint8
	Src   Source
}

// NewFill clips r to clip. ok is false when nothing remains to fill.
func NewFill(r, clip image.Rectangle, c color.RGBA, alpha uint8) (req Request, ok bool) {
	dst := r.Intersect(clip)
	if dst.Empty() {
		return Request{}, false
	}
	return Request{Kind: KindFill, Dst: dst, Color: c, Alpha: alpha}, true
}

// NewCopy clips r to clip and advances the source offset by the amount cut
// from the top-left corner.
func NewCopy(r, clip image.Rectangle, src Source) (req Request, ok bool) {
	dst := r.Intersect(clip)
	if dst.Empty() {
		return Request{}, false
	}
	src.Offset = src.Offset.Add(dst.Min.Sub(r.Min))
	return Request{Kind: KindCopy, Dst: dst, Src: src}, true
}

// Sink is the hardware side of the blitter: the memory the engine writes to.
type Sink interface {
	// Supports reports whether req can run on this hardware.
	Supports(req *Request) bool
	Fill(dst image.Rectangle, c color.RGBA, alpha uint8) error
	Copy(dst image.Rectangle, src Source) error
}

// Engine serializes requests onto a Sink from a worker goroutine that
// stands in for the hardware.
type Engine struct {
	sink Sink

	mu      sync.Mutex
	cond    *sync.Cond
	issued  uint64
	retired uint64
	err     error
	closed  bool
	reqs    chan Request
}

func New(sink Sink) *Engine {
	e := &Engine{sink: sink, reqs: make(chan Request, 1)}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

func (e *Engine) run() {
	for req := range e.reqs {
		var err error
		switch req.Kind {
		case KindFill:
			err = e.sink.Fill(req.Dst, req.Color, req.Alpha)
		case KindCopy:
			err = e.sink.Copy(req.Dst, req.Src)
		}
		e.mu.Lock()
		e.retired++
		if err != nil && e.err == nil {
			e.err = err
		}
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// Issue starts req. It returns ErrNotIssued when the sink cannot run it and
// ErrBusy when an earlier request has not retired yet.
func (e *Engine) Issue(req Request) (Fence, error) {
	if !e.sink.Supports(&req) {
		return Fence{}, ErrNotIssued
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Fence{}, ErrClosed
	}
	if e.issued != e.retired {
		return Fence{}, ErrBusy
	}
	e.issued++
	e.reqs <- req
	return Fence{e: e, seq: e.issued}, nil
}

// Busy reports whether a request is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issued != e.retired
}

// Wait blocks until every issued request retired and returns, then clears,
// the first hardware error seen since the previous Wait.
func (e *Engine) Wait() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.retired != e.issued {
		e.cond.Wait()
	}
	err := e.err
	e.err = nil
	return err
}

// Close drains outstanding work and stops the worker.
func (e *Engine) Close() error {
	err := e.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.reqs)
	}
	return err
}

// Sync performs req on the calling goroutine after the engine went idle.
// It is the software path for requests the hardware cannot take, such as
// copies from memory the blitter cannot address.
func (e *Engine) Sync(req Request) error {
	if err := e.Wait(); err != nil {
		return err
	}
	switch req.Kind {
	case KindFill:
		return e.sink.Fill(req.Dst, req.Color, req.Alpha)
	case KindCopy:
		return e.sink.Copy(req.Dst, req.Src)
	}
	return nil
}

// Fence identifies one issued request. The zero Fence is always done.
type Fence struct {
	e   *Engine
	seq uint64
}

func (f Fence) Done() bool {
	if f.e == nil {
		return true
	}
	f.e.mu.Lock()
	defer f.e.mu.Unlock()
	return f.e.retired >= f.seq
}

func (f Fence) Wait() {
	if f.e == nil {
		return
	}
	f.e.mu.Lock()
	defer f.e.mu.Unlock()
	for f.e.retired < f.seq {
		f.e.cond.Wait()
	}
}
