// Package spipanel drives ST7789-class RGB565 panels over SPI. The panel
// keeps its own memory, so it only accepts rectangle fills and copies; it
// serves as the blitter sink for progressive rendering.
package spipanel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/rook-computer/shapekit/internal/dma2d"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVON   = 0x21
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A

	colmod16bpp = 0x55
)

// Opts is the panel configuration.
type Opts struct {
	// Visible size in pixels (default 240x240).
	W, H int
	// Offset of the visible area inside panel memory.
	XOffset, YOffset int
	// Memory access control: rotation, mirroring and RGB/BGR order.
	MADCTL byte
	// Invert colors; most IPS panels need it.
	Invert bool
	// Bus clock (default 40 MHz).
	Speed physic.Frequency
	// Bytes per SPI transaction (default 4096, rounded down to even).
	ChunkSize int
	// Optional hardware reset pin.
	RST gpio.PinOut
}

// Dev is an open panel.
type Dev struct {
	c    conn.Conn
	dc   gpio.PinOut
	rst  gpio.PinOut
	rect image.Rectangle
	xoff int
	yoff int

	mu  sync.Mutex
	buf []byte
}

// NewSPI connects to the panel on p and runs the init sequence. opts can be
// nil for the defaults.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	o := *opts
	if o.W == 0 && o.H == 0 {
		o.W, o.H = 240, 240
	}
	if o.W <= 0 || o.H <= 0 || o.W+o.XOffset > 320 || o.H+o.YOffset > 320 {
		return nil, fmt.Errorf("spipanel: %dx%d at offset %d,%d does not fit panel memory", o.W, o.H, o.XOffset, o.YOffset)
	}
	if o.Speed == 0 {
		o.Speed = 40 * physic.MegaHertz
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = 4096
	}
	o.ChunkSize &^= 1
	if o.ChunkSize < 2 {
		return nil, errors.New("spipanel: chunk size must be at least 2 bytes")
	}
	c, err := p.Connect(o.Speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spipanel: connect: %w", err)
	}
	return newDev(c, dc, o)
}

func newDev(c conn.Conn, dc gpio.PinOut, o Opts) (*Dev, error) {
	d := &Dev{
		c:    c,
		dc:   dc,
		rst:  o.RST,
		rect: image.Rect(0, 0, o.W, o.H),
		xoff: o.XOffset,
		yoff: o.YOffset,
		buf:  make([]byte, o.ChunkSize),
	}
	if err := d.init(o); err != nil {
		return nil, err
	}
	return d, nil
}

// Open initializes the host drivers and opens the panel by bus and pin
// names, e.g. "SPI0.0", "GPIO25" and "GPIO27". An empty reset name means no
// reset line.
func Open(bus, dcPin, rstPin string, opts *Opts) (*Dev, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("spipanel: host init: %w", err)
	}
	port, err := spireg.Open(bus)
	if err != nil {
		return nil, nil, fmt.Errorf("spipanel: open %s: %w", bus, err)
	}
	dc := gpioreg.ByName(dcPin)
	if dc == nil {
		port.Close()
		return nil, nil, fmt.Errorf("spipanel: no GPIO named %q", dcPin)
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if rstPin != "" {
		rst := gpioreg.ByName(rstPin)
		if rst == nil {
			port.Close()
			return nil, nil, fmt.Errorf("spipanel: no GPIO named %q", rstPin)
		}
		o.RST = rst
	}
	d, err := NewSPI(port, dc, &o)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	return d, port, nil
}

type initStep struct {
	cmd   byte
	data  []byte
	pause time.Duration
}

func (d *Dev) init(o Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("spipanel: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("spipanel: failed to pull RST high: %w", err)
		}
		time.Sleep(120 * time.Millisecond)
	}
	steps := []initStep{
		{cmd: cmdSWRESET, pause: 150 * time.Millisecond},
		{cmd: cmdSLPOUT, pause: 10 * time.Millisecond},
		{cmd: cmdCOLMOD, data: []byte{colmod16bpp}},
		{cmd: cmdMADCTL, data: []byte{o.MADCTL}},
	}
	if o.Invert {
		steps = append(steps, initStep{cmd: cmdINVON})
	}
	steps = append(steps, initStep{cmd: cmdNORON}, initStep{cmd: cmdDISPON})
	for _, s := range steps {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("spipanel: init command %#02x: %w", s.cmd, err)
		}
		if s.pause > 0 {
			time.Sleep(s.pause)
		}
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("spipanel{%s, %dx%d}", d.c, d.rect.Dx(), d.rect.Dy())
}

func (d *Dev) Size() image.Point { return d.rect.Size() }

// Supports accepts opaque fills and RGB565 copies.
func (d *Dev) Supports(req *dma2d.Request) bool {
	switch req.Kind {
	case dma2d.KindFill:
		return req.Alpha == 0xFF
	case dma2d.KindCopy:
		return req.Src.Format == pixfmt.RGB565
	}
	return false
}

func (d *Dev) Fill(dst image.Rectangle, c color.RGBA, alpha uint8) error {
	if alpha != 0xFF {
		return fmt.Errorf("spipanel: blended fill not supported")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.window(dst); err != nil {
		return err
	}
	v := pixfmt.ToRGB565(c)
	total := dst.Dx() * dst.Dy() * 2
	for i := 0; i < len(d.buf); i += 2 {
		d.buf[i], d.buf[i+1] = byte(v>>8), byte(v)
	}
	for total > 0 {
		n := min(total, len(d.buf))
		if err := d.data(d.buf[:n]); err != nil {
			return err
		}
		total -= n
	}
	return nil
}

// Copy streams little-endian RGB565 rows to the panel, which expects big
// endian.
func (d *Dev) Copy(dst image.Rectangle, src dma2d.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.window(dst); err != nil {
		return err
	}
	n := 0
	for y := 0; y < dst.Dy(); y++ {
		row := src.Row(y)[:dst.Dx()*2]
		for i := 0; i < len(row); i += 2 {
			d.buf[n], d.buf[n+1] = row[i+1], row[i]
			n += 2
			if n == len(d.buf) {
				if err := d.data(d.buf); err != nil {
					return err
				}
				n = 0
			}
		}
	}
	if n > 0 {
		return d.data(d.buf[:n])
	}
	return nil
}

// Refresh is a no-op: the panel scans its own memory.
func (d *Dev) Refresh() error { return nil }

func (d *Dev) window(r image.Rectangle) error {
	if r.Empty() || !r.In(d.rect) {
		return fmt.Errorf("spipanel: window %v outside %v", r, d.rect)
	}
	x0, x1 := r.Min.X+d.xoff, r.Max.X-1+d.xoff
	y0, y1 := r.Min.Y+d.yoff, r.Max.Y-1+d.yoff
	if err := d.command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(cmdRAMWR)
}

func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

func (d *Dev) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(b, nil)
}
