// Package display defines the two kinds of screen the renderer drives: a
// framebuffer the CPU can write directly and a panel that only accepts
// blitter transfers.
package display

import (
	"image"

	"github.com/rook-computer/shapekit/internal/dma2d"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// Framebuffer exposes CPU-addressable display memory.
type Framebuffer interface {
	Size() image.Point
	Format() pixfmt.Format
	// FrameBuffer returns the memory to draw the next frame into.
	FrameBuffer() (pix []byte, stride int)
	// Refresh presents what was drawn.
	Refresh() error
}

// Panel is display memory reachable only through the blitter.
type Panel interface {
	dma2d.Sink
	Size() image.Point
	Refresh() error
}
