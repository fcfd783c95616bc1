// Package fbdev presents the Linux framebuffer as a CPU-writable display.
// Rendering goes to an offscreen canvas in the requested format; Refresh
// scales it onto the device.
package fbdev

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	fb "github.com/gonutz/framebuffer"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

type Options struct {
	// Device path, /dev/fb0 when empty.
	Path string
	// Logical canvas size; the device size when zero.
	Size image.Point
	// Canvas format, RGB565 when unknown.
	Format pixfmt.Format
	// Scaler used when the canvas and device sizes differ.
	Scaler xdraw.Interpolator
	// Switch the active VT to graphics mode while open.
	GraphicsMode bool
	Logger       logger
}

type Display struct {
	dev      *fb.Device
	canvas   *pixfmt.Image
	scaler   xdraw.Interpolator
	graphics bool
	log      logger
}

func Open(o Options) (*Display, error) {
	if o.Path == "" {
		o.Path = "/dev/fb0"
	}
	if o.Format == pixfmt.Unknown {
		o.Format = pixfmt.RGB565
	}
	if o.Scaler == nil {
		o.Scaler = xdraw.NearestNeighbor
	}
	dev, err := fb.Open(o.Path)
	if err != nil {
		return nil, fmt.Errorf("fbdev: open %s: %w", o.Path, err)
	}
	bounds := dev.Bounds()
	if o.Size == (image.Point{}) {
		o.Size = bounds.Size()
	}
	d := &Display{
		dev:      dev,
		canvas:   pixfmt.NewImage(o.Format, image.Rectangle{Max: o.Size}),
		scaler:   o.Scaler,
		graphics: o.GraphicsMode,
		log:      o.Logger,
	}
	d.infof("framebuffer %s open, bounds=%dx%d canvas=%dx%d %s", o.Path, bounds.Dx(), bounds.Dy(), o.Size.X, o.Size.Y, o.Format)
	if d.graphics {
		if err := setGraphicsMode(); err != nil {
			d.errorf("KD_GRAPHICS failed: %v", err)
		}
		if err := hideCursor(); err != nil {
			d.errorf("hide cursor failed: %v", err)
		}
	}
	return d, nil
}

func (d *Display) Size() image.Point { return d.canvas.Rect.Size() }

func (d *Display) Format() pixfmt.Format { return d.canvas.Format }

func (d *Display) FrameBuffer() ([]byte, int) { return d.canvas.Pix, d.canvas.Stride }

// Canvas returns the offscreen image rendering writes to.
func (d *Display) Canvas() *pixfmt.Image { return d.canvas }

func (d *Display) Refresh() error {
	blit(d.dev, d.canvas, d.scaler)
	return nil
}

func (d *Display) Close() error {
	if d.graphics {
		if err := restoreTextMode(); err != nil {
			d.errorf("KD_TEXT failed: %v", err)
		}
		if err := showCursor(); err != nil {
			d.errorf("show cursor failed: %v", err)
		}
	}
	d.dev.Close()
	return nil
}

func (d *Display) infof(format string, args ...interface{}) {
	if d.log != nil {
		d.log.Infof("fb", format, args...)
	}
}

func (d *Display) errorf(format string, args ...interface{}) {
	if d.log != nil {
		d.log.Errorf("fb", format, args...)
	}
}

// blit copies src onto dst, scaling when the sizes differ.
func blit(dst draw.Image, src image.Image, s xdraw.Interpolator) {
	db, sb := dst.Bounds(), src.Bounds()
	if db.Size() == sb.Size() {
		draw.Draw(dst, db, src, sb.Min, draw.Src)
		return
	}
	s.Scale(dst, db, src, sb, xdraw.Src, nil)
}

// ParseScaler maps a config name to an interpolator.
func ParseScaler(name string) (xdraw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "nearest", "nn":
		return xdraw.NearestNeighbor, nil
	case "approx", "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "catmullrom":
		return xdraw.CatmullRom, nil
	}
	return nil, fmt.Errorf("fbdev: unknown scaler %q", name)
}
