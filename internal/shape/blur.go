package shape

import (
	"encoding/binary"
	"fmt"
	"image"
)

// Blur is a streaming box blur over RGB565 rows. Rows go in top to bottom
// with Push and come out, blurred by a (2r+1)x(2r+1) box clipped to the
// image, with Pop. Only 2r+1 rows of horizontal sums are kept.
//
// Row p may be pushed once p < height and p <= q+r, where q is the next row
// to pop. Row q may be popped once every row it depends on was pushed.
type Blur struct {
	size   image.Point
	radius int
	rows   []byte
	totals []byte
	push   int
	pop    int
}

// MaxBlurRadius keeps the horizontal sums of a full-scale green channel
// (63 per pixel over 2r+1 pixels) within the 16 bits a row slot holds.
const MaxBlurRadius = (0xFFFF/0x3F - 1) / 2

// BlurBufferSize returns the working memory for rows up to width pixels.
func BlurBufferSize(width, radius int) int {
	return (2*radius+1)*width*3*2 + width*3*4
}

// Reset starts a new image. buf must hold BlurBufferSize(size.X, radius).
func (b *Blur) Reset(size image.Point, radius int, buf []byte) error {
	if radius < 0 || size.X <= 0 || size.Y <= 0 {
		return contentError("blur", fmt.Errorf("invalid blur %v radius %d", size, radius))
	}
	if radius > MaxBlurRadius {
		return configError("blur", fmt.Errorf("%w: radius %d above %d", ErrBufferTooSmall, radius, MaxBlurRadius))
	}
	need := BlurBufferSize(size.X, radius)
	if len(buf) < need {
		return configError("blur", fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, len(buf)))
	}
	rowBytes := (2*radius + 1) * size.X * 6
	*b = Blur{
		size:   size,
		radius: radius,
		rows:   buf[:rowBytes],
		totals: buf[rowBytes:need],
	}
	clear(b.totals)
	return nil
}

// Restart rewinds to the first row of the same image.
func (b *Blur) Restart() {
	b.push, b.pop = 0, 0
	clear(b.totals)
}

func (b *Blur) Size() image.Point { return b.size }

func (b *Blur) Radius() int { return b.radius }

// PushReady returns the next row to push.
func (b *Blur) PushReady() (int, bool) {
	p := b.push
	return p, p < b.size.Y && p <= b.pop+b.radius
}

// PopReady returns the next row to pop.
func (b *Blur) PopReady() (int, bool) {
	q := b.pop
	return q, q < b.size.Y && b.push-1 >= min(b.size.Y-1, q+b.radius)
}

// Push adds the RGB565 row from PushReady.
func (b *Blur) Push(row []byte) {
	w, r := b.size.X, b.radius
	slot := b.slot(b.push)
	var sr, sg, sb int
	add := func(x, sign int) {
		v := binary.LittleEndian.Uint16(row[x*2:])
		sr += sign * int(v>>11)
		sg += sign * int(v>>5&0x3F)
		sb += sign * int(v&0x1F)
	}
	for x := 0; x <= min(r, w-1); x++ {
		add(x, 1)
	}
	for x := 0; x < w; x++ {
		binary.LittleEndian.PutUint16(slot[x*6:], uint16(sr))
		binary.LittleEndian.PutUint16(slot[x*6+2:], uint16(sg))
		binary.LittleEndian.PutUint16(slot[x*6+4:], uint16(sb))
		if x+r+1 < w {
			add(x+r+1, 1)
		}
		if x-r >= 0 {
			add(x-r, -1)
		}
	}
	b.accumulate(slot, 1)
	b.push++
}

// Pop writes the blurred RGB565 row from PopReady into dst.
func (b *Blur) Pop(dst []byte) {
	w, r, q := b.size.X, b.radius, b.pop
	vcount := min(b.size.Y-1, q+r) - max(0, q-r) + 1
	for x := 0; x < w; x++ {
		hcount := min(w-1, x+r) - max(0, x-r) + 1
		div := uint32(vcount * hcount)
		cr := (binary.LittleEndian.Uint32(b.totals[x*12:]) + div/2) / div
		cg := (binary.LittleEndian.Uint32(b.totals[x*12+4:]) + div/2) / div
		cb := (binary.LittleEndian.Uint32(b.totals[x*12+8:]) + div/2) / div
		binary.LittleEndian.PutUint16(dst[x*2:], uint16(cr<<11|cg<<5|cb))
	}
	if q-r >= 0 {
		b.accumulate(b.slot(q-r), -1)
	}
	b.pop++
}

func (b *Blur) slot(y int) []byte {
	n := 2*b.radius + 1
	size := b.size.X * 6
	i := y % n
	return b.rows[i*size : (i+1)*size]
}

func (b *Blur) accumulate(slot []byte, sign int) {
	for i := 0; i < b.size.X*3; i++ {
		v := int64(binary.LittleEndian.Uint16(slot[i*2:]))
		t := int64(binary.LittleEndian.Uint32(b.totals[i*4:]))
		binary.LittleEndian.PutUint32(b.totals[i*4:], uint32(t+int64(sign)*v))
	}
}
