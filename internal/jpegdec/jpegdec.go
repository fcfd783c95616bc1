// Package jpegdec decodes baseline JPEG streams one MCU row at a time into
// RGB565, optionally downscaled by 2, 4 or 8. A caller never holds more than
// one row of MCUs of decoded pixels, and decoding stops as soon as the
// caller has seen the rows it needs.
package jpegdec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/shapekit/internal/pixfmt"
)

var (
	ErrFormat         = errors.New("jpegdec: invalid JPEG stream")
	ErrUnsupported    = errors.New("jpegdec: unsupported JPEG feature")
	ErrBufferTooSmall = errors.New("jpegdec: row buffer too small")
)

// MaxScale is the largest downscale exponent (1/8 size).
const MaxScale = 3

// maxMCUHeight bounds the MCU height for the sampling factors accepted here.
const maxMCUHeight = 16

// RowBufferSize returns the bytes needed for one MCU row of an image up to
// maxWidth pixels wide at scale 0.
func RowBufferSize(maxWidth int) int {
	return maxWidth * maxMCUHeight * 2
}

// RowFunc receives one decoded MCU row. r is in scaled image coordinates,
// pix holds r.Dy() rows of RGB565 pixels, stride bytes apart. pix is only
// valid during the call. Returning false stops decoding.
type RowFunc func(r image.Rectangle, pix []byte, stride int) bool

type component struct {
	id     uint8
	h, v   int
	tq     uint8
	td, ta uint8
	pred   int32
}

type huffman struct {
	present bool
	maxCode [17]int32
	valPtr  [17]int32
	minCode [17]int32
	vals    [256]uint8
}

// Decoder holds all decoding state in fixed-size fields; its only variable
// memory is the row buffer handed to Reset.
type Decoder struct {
	data  []byte
	pos   int
	scale int
	out   []byte

	width, height int
	size          image.Point
	stride        int
	ncomp         int
	comps         [3]component
	hmax, vmax    int
	quant         [4][64]int32
	huff          [2][4]huffman
	restart       int
	scanStart     int

	acc    uint32
	nacc   int
	marker bool
	pad    int

	coef   [64]int32
	planes [3][256]uint8
}

// Reset prepares d to decode data at the given scale into out, which must
// hold at least one scaled MCU row.
func (d *Decoder) Reset(data []byte, scale int, out []byte) error {
	if scale < 0 || scale > MaxScale {
		return fmt.Errorf("%w: scale %d", ErrUnsupported, scale)
	}
	*d = Decoder{data: data, scale: scale}
	if err := d.parseHeaders(); err != nil {
		return err
	}
	d.size = ScaledSize(image.Pt(d.width, d.height), scale)
	d.stride = d.size.X * 2
	need := d.stride * ((8 * d.vmax) >> scale)
	if len(out) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, len(out))
	}
	d.out = out
	return nil
}

// Size returns the scaled image size.
func (d *Decoder) Size() image.Point { return d.size }

// MCUHeight returns the scaled height of one MCU row.
func (d *Decoder) MCUHeight() int { return (8 * d.vmax) >> d.scale }

// ScaledSize rounds up so that partial blocks still produce a pixel.
func ScaledSize(full image.Point, scale int) image.Point {
	n := 1<<scale - 1
	return image.Pt((full.X+n)>>scale, (full.Y+n)>>scale)
}

// ReadSize returns the unscaled size from the frame header without
// building any tables.
func ReadSize(data []byte) (image.Point, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return image.Point{}, fmt.Errorf("%w: missing SOI", ErrFormat)
	}
	pos := 2
	for {
		m, next, err := nextMarker(data, pos)
		if err != nil {
			return image.Point{}, err
		}
		pos = next
		if standalone(m) {
			continue
		}
		seg, next, err := segment(data, pos)
		if err != nil {
			return image.Point{}, err
		}
		pos = next
		switch {
		case m == 0xC0 || m == 0xC1:
			if len(seg) < 6 {
				return image.Point{}, fmt.Errorf("%w: short SOF", ErrFormat)
			}
			w := int(binary.BigEndian.Uint16(seg[3:]))
			h := int(binary.BigEndian.Uint16(seg[1:]))
			if w == 0 || h == 0 {
				return image.Point{}, fmt.Errorf("%w: empty frame", ErrFormat)
			}
			return image.Pt(w, h), nil
		case isOtherSOF(m):
			return image.Point{}, fmt.Errorf("%w: SOF%d", ErrUnsupported, m-0xC0)
		case m == 0xDA:
			return image.Point{}, fmt.Errorf("%w: SOS before SOF", ErrFormat)
		}
	}
}

func standalone(m byte) bool {
	return m == 0x01 || m == 0xD8 || (m >= 0xD0 && m <= 0xD7)
}

func isOtherSOF(m byte) bool {
	return m >= 0xC2 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC
}

func nextMarker(data []byte, pos int) (byte, int, error) {
	if pos >= len(data) || data[pos] != 0xFF {
		return 0, pos, fmt.Errorf("%w: expected marker at %d", ErrFormat, pos)
	}
	for pos < len(data) && data[pos] == 0xFF {
		pos++
	}
	if pos >= len(data) {
		return 0, pos, fmt.Errorf("%w: truncated marker", ErrFormat)
	}
	m := data[pos]
	if m == 0xD9 {
		return 0, pos, fmt.Errorf("%w: EOI before image data", ErrFormat)
	}
	return m, pos + 1, nil
}

func segment(data []byte, pos int) ([]byte, int, error) {
	if pos+2 > len(data) {
		return nil, pos, fmt.Errorf("%w: truncated segment", ErrFormat)
	}
	n := int(binary.BigEndian.Uint16(data[pos:]))
	if n < 2 || pos+n > len(data) {
		return nil, pos, fmt.Errorf("%w: bad segment length %d", ErrFormat, n)
	}
	return data[pos+2 : pos+n], pos + n, nil
}

func (d *Decoder) parseHeaders() error {
	if len(d.data) < 4 || d.data[0] != 0xFF || d.data[1] != 0xD8 {
		return fmt.Errorf("%w: missing SOI", ErrFormat)
	}
	d.pos = 2
	for {
		m, next, err := nextMarker(d.data, d.pos)
		if err != nil {
			return err
		}
		d.pos = next
		if standalone(m) {
			continue
		}
		seg, next, err := segment(d.data, d.pos)
		if err != nil {
			return err
		}
		d.pos = next
		switch {
		case m == 0xDB:
			err = d.parseDQT(seg)
		case m == 0xC4:
			err = d.parseDHT(seg)
		case m == 0xC0 || m == 0xC1:
			err = d.parseSOF(seg)
		case isOtherSOF(m):
			err = fmt.Errorf("%w: SOF%d", ErrUnsupported, m-0xC0)
		case m == 0xDD:
			if len(seg) < 2 {
				err = fmt.Errorf("%w: short DRI", ErrFormat)
			} else {
				d.restart = int(binary.BigEndian.Uint16(seg))
			}
		case m == 0xDA:
			if err := d.parseSOS(seg); err != nil {
				return err
			}
			d.scanStart = d.pos
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (d *Decoder) parseDQT(seg []byte) error {
	for len(seg) > 0 {
		pq, tq := seg[0]>>4, seg[0]&0x0F
		if tq > 3 {
			return fmt.Errorf("%w: quantization table %d", ErrFormat, tq)
		}
		seg = seg[1:]
		q := &d.quant[tq]
		switch pq {
		case 0:
			if len(seg) < 64 {
				return fmt.Errorf("%w: short DQT", ErrFormat)
			}
			for k := range q {
				q[k] = int32(seg[k])
			}
			seg = seg[64:]
		case 1:
			if len(seg) < 128 {
				return fmt.Errorf("%w: short DQT", ErrFormat)
			}
			for k := range q {
				q[k] = int32(binary.BigEndian.Uint16(seg[2*k:]))
			}
			seg = seg[128:]
		default:
			return fmt.Errorf("%w: DQT precision %d", ErrFormat, pq)
		}
	}
	return nil
}

func (d *Decoder) parseDHT(seg []byte) error {
	for len(seg) > 0 {
		if len(seg) < 17 {
			return fmt.Errorf("%w: short DHT", ErrFormat)
		}
		tc, th := seg[0]>>4, seg[0]&0x0F
		if tc > 1 || th > 3 {
			return fmt.Errorf("%w: huffman table %d/%d", ErrFormat, tc, th)
		}
		counts := seg[1:17]
		total := 0
		for _, n := range counts {
			total += int(n)
		}
		if total > 256 || len(seg) < 17+total {
			return fmt.Errorf("%w: short DHT values", ErrFormat)
		}
		h := &d.huff[tc][th]
		copy(h.vals[:], seg[17:17+total])
		code, k := int32(0), int32(0)
		for l := 1; l <= 16; l++ {
			n := int32(counts[l-1])
			if n == 0 {
				h.maxCode[l] = -1
			} else {
				h.valPtr[l] = k
				h.minCode[l] = code
				code += n
				k += n
				h.maxCode[l] = code - 1
			}
			if code > 1<<l {
				return fmt.Errorf("%w: oversubscribed huffman table", ErrFormat)
			}
			code <<= 1
		}
		h.present = true
		seg = seg[17+total:]
	}
	return nil
}

func (d *Decoder) parseSOF(seg []byte) error {
	if len(seg) < 6 {
		return fmt.Errorf("%w: short SOF", ErrFormat)
	}
	if seg[0] != 8 {
		return fmt.Errorf("%w: %d-bit samples", ErrUnsupported, seg[0])
	}
	d.height = int(binary.BigEndian.Uint16(seg[1:]))
	d.width = int(binary.BigEndian.Uint16(seg[3:]))
	if d.width == 0 || d.height == 0 {
		return fmt.Errorf("%w: empty frame", ErrFormat)
	}
	d.ncomp = int(seg[5])
	if d.ncomp != 1 && d.ncomp != 3 {
		return fmt.Errorf("%w: %d components", ErrUnsupported, d.ncomp)
	}
	if len(seg) < 6+3*d.ncomp {
		return fmt.Errorf("%w: short SOF", ErrFormat)
	}
	d.hmax, d.vmax = 1, 1
	for i := 0; i < d.ncomp; i++ {
		p := seg[6+3*i:]
		c := &d.comps[i]
		c.id, c.h, c.v, c.tq = p[0], int(p[1]>>4), int(p[1]&0x0F), p[2]
		if d.ncomp == 1 {
			c.h, c.v = 1, 1
		}
		if c.h < 1 || c.h > 2 || c.v < 1 || c.v > 2 || c.tq > 3 {
			return fmt.Errorf("%w: sampling %dx%d", ErrUnsupported, c.h, c.v)
		}
		d.hmax = max(d.hmax, c.h)
		d.vmax = max(d.vmax, c.v)
	}
	for i := 0; i < d.ncomp; i++ {
		c := &d.comps[i]
		if d.hmax%c.h != 0 || d.vmax%c.v != 0 {
			return fmt.Errorf("%w: sampling %dx%d", ErrUnsupported, c.h, c.v)
		}
	}
	return nil
}

func (d *Decoder) parseSOS(seg []byte) error {
	if d.ncomp == 0 {
		return fmt.Errorf("%w: SOS before SOF", ErrFormat)
	}
	if len(seg) < 1 {
		return fmt.Errorf("%w: short SOS", ErrFormat)
	}
	ns := int(seg[0])
	if ns != d.ncomp {
		return fmt.Errorf("%w: non-interleaved scan", ErrUnsupported)
	}
	if len(seg) < 1+2*ns+3 {
		return fmt.Errorf("%w: short SOS", ErrFormat)
	}
	for i := 0; i < ns; i++ {
		id, tables := seg[1+2*i], seg[2+2*i]
		found := false
		for j := 0; j < d.ncomp; j++ {
			c := &d.comps[j]
			if c.id != id {
				continue
			}
			c.td, c.ta = tables>>4, tables&0x0F
			if c.td > 3 || c.ta > 3 || !d.huff[0][c.td].present || !d.huff[1][c.ta].present {
				return fmt.Errorf("%w: missing huffman table", ErrFormat)
			}
			found = true
		}
		if !found {
			return fmt.Errorf("%w: unknown scan component %d", ErrFormat, id)
		}
	}
	return nil
}

// DecompressRows decodes the MCU rows covering scaled rows [startY, height)
// and hands each to fn. Rows above startY are entropy-decoded but not
// reconstructed.
func (d *Decoder) DecompressRows(startY int, fn RowFunc) error {
	if d.scanStart == 0 {
		return fmt.Errorf("%w: decoder not reset", ErrFormat)
	}
	if startY >= d.size.Y {
		return nil
	}
	startY = max(startY, 0)

	d.pos = d.scanStart
	d.acc, d.nacc, d.marker, d.pad = 0, 0, false, 0
	for i := range d.comps {
		d.comps[i].pred = 0
	}

	mcuW, mcuH := 8*d.hmax, 8*d.vmax
	mcusX := (d.width + mcuW - 1) / mcuW
	mcusY := (d.height + mcuH - 1) / mcuH
	firstRow := (startY << d.scale) / mcuH

	count := 0
	for my := 0; my < mcusY; my++ {
		skip := my < firstRow
		for mx := 0; mx < mcusX; mx++ {
			if d.restart > 0 && count > 0 && count%d.restart == 0 {
				if err := d.processRestart(); err != nil {
					return err
				}
			}
			if err := d.decodeMCU(skip); err != nil {
				return err
			}
			count++
			if !skip {
				d.emitMCU(mx, my)
			}
		}
		if skip {
			continue
		}
		y0 := (my * mcuH) >> d.scale
		y1 := min(((my+1)*mcuH)>>d.scale, d.size.Y)
		if !fn(image.Rect(0, y0, d.size.X, y1), d.out, d.stride) {
			return nil
		}
	}
	return nil
}

func (d *Decoder) processRestart() error {
	d.acc, d.nacc, d.pad = 0, 0, 0
	d.marker = false
	pos := d.pos
	for pos < len(d.data) && d.data[pos] == 0xFF {
		pos++
	}
	if pos >= len(d.data) || d.data[pos] < 0xD0 || d.data[pos] > 0xD7 {
		return fmt.Errorf("%w: missing restart marker", ErrFormat)
	}
	d.pos = pos + 1
	for i := range d.comps {
		d.comps[i].pred = 0
	}
	return nil
}

func (d *Decoder) fill() {
	for d.nacc <= 24 {
		var b byte
		switch {
		case d.marker || d.pos >= len(d.data):
			d.pad++
		case d.data[d.pos] == 0xFF:
			if d.pos+1 < len(d.data) && d.data[d.pos+1] == 0x00 {
				b = 0xFF
				d.pos += 2
			} else {
				d.marker = true
				d.pad++
			}
		default:
			b = d.data[d.pos]
			d.pos++
		}
		d.acc |= uint32(b) << (24 - d.nacc)
		d.nacc += 8
	}
}

// overrun reports whether more than one byte of zero padding was consumed,
// which only happens on truncated or corrupt streams.
func (d *Decoder) overrun() bool {
	return d.pad*8-d.nacc > 8
}

func (d *Decoder) bit() int32 {
	if d.nacc == 0 {
		d.fill()
	}
	b := int32(d.acc >> 31)
	d.acc <<= 1
	d.nacc--
	return b
}

func (d *Decoder) bits(n uint8) int32 {
	if n == 0 {
		return 0
	}
	if d.nacc < int(n) {
		d.fill()
	}
	v := int32(d.acc >> (32 - n))
	d.acc <<= n
	d.nacc -= int(n)
	return v
}

func extend(v int32, s uint8) int32 {
	if v < 1<<(s-1) {
		v += -(1 << s) + 1
	}
	return v
}

func (d *Decoder) decodeHuff(h *huffman) (uint8, error) {
	code := int32(0)
	for l := 1; l <= 16; l++ {
		code = code<<1 | d.bit()
		if code <= h.maxCode[l] {
			return h.vals[h.valPtr[l]+code-h.minCode[l]], nil
		}
	}
	return 0, fmt.Errorf("%w: bad huffman code", ErrFormat)
}

func (d *Decoder) decodeMCU(skip bool) error {
	for ci := 0; ci < d.ncomp; ci++ {
		c := &d.comps[ci]
		stride := 8 * c.h
		for by := 0; by < c.v; by++ {
			for bx := 0; bx < c.h; bx++ {
				if err := d.decodeBlock(c, skip); err != nil {
					return err
				}
				if !skip {
					idct(&d.coef, d.planes[ci][by*8*stride+bx*8:], stride)
				}
			}
		}
	}
	if d.overrun() {
		return fmt.Errorf("%w: truncated entropy data", ErrFormat)
	}
	return nil
}

func (d *Decoder) decodeBlock(c *component, skip bool) error {
	q := &d.quant[c.tq]
	t, err := d.decodeHuff(&d.huff[0][c.td])
	if err != nil {
		return err
	}
	if t > 11 {
		return fmt.Errorf("%w: DC magnitude %d", ErrFormat, t)
	}
	if t > 0 {
		c.pred += extend(d.bits(t), t)
	}
	if !skip {
		d.coef = [64]int32{}
		d.coef[0] = c.pred * q[0]
	}
	ac := &d.huff[1][c.ta]
	for k := 1; k < 64; {
		rs, err := d.decodeHuff(ac)
		if err != nil {
			return err
		}
		r, s := int(rs>>4), rs&0x0F
		if s == 0 {
			if r != 15 {
				break
			}
			k += 16
			continue
		}
		k += r
		if k > 63 {
			return fmt.Errorf("%w: coefficient index overflow", ErrFormat)
		}
		v := extend(d.bits(s), s)
		if !skip {
			d.coef[unzig[k]] = v * q[k]
		}
		k++
	}
	return nil
}

func (d *Decoder) sample(lx, ly int) (r, g, b uint8) {
	c0 := &d.comps[0]
	y := d.planes[0][(ly*c0.v/d.vmax)*8*c0.h+lx*c0.h/d.hmax]
	if d.ncomp == 1 {
		return y, y, y
	}
	c1, c2 := &d.comps[1], &d.comps[2]
	cb := d.planes[1][(ly*c1.v/d.vmax)*8*c1.h+lx*c1.h/d.hmax]
	cr := d.planes[2][(ly*c2.v/d.vmax)*8*c2.h+lx*c2.h/d.hmax]
	return color.YCbCrToRGB(y, cb, cr)
}

// emitMCU writes the MCU at (mx, my) into the row buffer, box-averaging
// 2^scale square blocks of source pixels.
func (d *Decoder) emitMCU(mx, my int) {
	s := d.scale
	n := 1 << s
	mcuW, mcuH := 8*d.hmax, 8*d.vmax
	baseX, baseY := mx*mcuW, my*mcuH
	ox1 := min((baseX+mcuW)>>s, d.size.X)
	oy0 := baseY >> s
	oy1 := min((baseY+mcuH)>>s, d.size.Y)
	for oy := oy0; oy < oy1; oy++ {
		row := d.out[(oy-oy0)*d.stride:]
		for ox := baseX >> s; ox < ox1; ox++ {
			var sr, sg, sb, cnt uint32
			for dy := 0; dy < n; dy++ {
				py := oy<<s + dy
				if py >= d.height {
					break
				}
				for dx := 0; dx < n; dx++ {
					px := ox<<s + dx
					if px >= d.width {
						break
					}
					r, g, b := d.sample(px-baseX, py-baseY)
					sr += uint32(r)
					sg += uint32(g)
					sb += uint32(b)
					cnt++
				}
			}
			c := color.RGBA{
				R: uint8((sr + cnt/2) / cnt),
				G: uint8((sg + cnt/2) / cnt),
				B: uint8((sb + cnt/2) / cnt),
				A: 0xFF,
			}
			binary.LittleEndian.PutUint16(row[ox*2:], pixfmt.ToRGB565(c))
		}
	}
}
