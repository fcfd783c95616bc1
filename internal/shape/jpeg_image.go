package shape

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image"

	"github.com/rook-computer/shapekit/internal/jpegdec"
	"github.com/rook-computer/shapekit/internal/layout"
	"github.com/rook-computer/shapekit/internal/pixfmt"
)

// JpegImage draws a baseline JPEG, optionally downscaled by 2^scale and box
// blurred. A blurred image drawn band by band keeps its blur state in the
// cache between bands, keyed by BlurKey.
type JpegImage struct {
	pos    image.Point
	data   []byte
	halign layout.Align
	valign layout.Align
	scale  int
	radius int
	key    uint64
}

func NewJpegImage(pos image.Point, data []byte) JpegImage {
	return JpegImage{pos: pos, data: data}
}

func (j JpegImage) WithAlign(h, v layout.Align) JpegImage {
	j.halign, j.valign = h, v
	return j
}

// WithScale downscales by 2^scale, up to 1/8.
func (j JpegImage) WithScale(scale int) JpegImage {
	j.scale = scale
	return j
}

func (j JpegImage) WithBlur(radius int) JpegImage {
	j.radius = max(radius, 0)
	return j
}

// WithBlurKey overrides the key derived from the image data.
func (j JpegImage) WithBlurKey(key uint64) JpegImage {
	j.key = key
	return j
}

func (j JpegImage) Shape() Shape { return Shape{kind: KindJpeg, jpeg: j} }

func (j JpegImage) Render(r Renderer) error { return r.RenderShape(j.Shape()) }

// BlurKey identifies the blur session for this image: the explicit key, or
// a hash of the data, radius, scale and position.
func (j *JpegImage) BlurKey() uint64 {
	if j.key != 0 {
		return j.key
	}
	const sample = 256
	h := fnv.New64a()
	var hdr [32]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(len(j.data)))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(j.radius)<<8|uint64(j.scale))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(int64(j.pos.X)))
	binary.LittleEndian.PutUint64(hdr[24:], uint64(int64(j.pos.Y)))
	h.Write(hdr[:])
	if len(j.data) <= 2*sample {
		h.Write(j.data)
	} else {
		h.Write(j.data[:sample])
		h.Write(j.data[len(j.data)-sample:])
	}
	return h.Sum64()
}

func (j *JpegImage) bounds() (image.Rectangle, error) {
	if j.scale < 0 || j.scale > jpegdec.MaxScale {
		return image.Rectangle{}, contentError("jpeg", fmt.Errorf("%w: scale %d", jpegdec.ErrUnsupported, j.scale))
	}
	full, err := jpegdec.ReadSize(j.data)
	if err != nil {
		return image.Rectangle{}, contentError("jpeg", err)
	}
	return layout.Anchored(j.pos, jpegdec.ScaledSize(full, j.scale), j.halign, j.valign), nil
}

func (j *JpegImage) draw(c Canvas, cache *DrawingCache) error {
	r, err := j.bounds()
	if err != nil {
		return err
	}
	vis := visible(c, r)
	if vis.Empty() {
		return nil
	}
	if j.radius > 0 {
		return j.drawBlurred(c, cache, r, vis)
	}
	dec, err := cache.JpegDecoder(j.data, j.scale)
	if err != nil {
		return err
	}
	defer cache.Release(LeaseJpeg)

	y1 := vis.Max.Y - r.Min.Y
	var drawErr error
	err = dec.DecompressRows(vis.Min.Y-r.Min.Y, func(rr image.Rectangle, pix []byte, stride int) bool {
		bm, err := NewBitmap(pixfmt.RGB565, rr.Size(), stride, pix)
		if err == nil {
			err = c.DrawBitmap(rr.Add(r.Min), bm.View())
		}
		if err != nil {
			drawErr = err
			return false
		}
		return rr.Max.Y < y1
	})
	if drawErr != nil {
		return drawErr
	}
	if err != nil {
		return contentError("jpeg", err)
	}
	return nil
}

// drawBlurred pops blurred rows as soon as the rows they depend on were
// pushed and stops once a popped row falls below the visible part. A later
// band continues from where the previous one stopped; a session already past
// the first visible row starts over.
func (j *JpegImage) drawBlurred(c Canvas, cache *DrawingCache, r, vis image.Rectangle) error {
	size := r.Size()
	blur, err := cache.Blur(size, j.radius, j.BlurKey())
	if err != nil {
		return err
	}
	cy0, cy1 := vis.Min.Y-r.Min.Y, vis.Max.Y-r.Min.Y
	if y, _ := blur.PopReady(); y > cy0 {
		blur.Restart()
	}
	line, err := cache.ImageBuffer()
	if err != nil {
		return err
	}
	defer cache.Release(LeaseImage)
	bm, err := NewBitmap(pixfmt.RGB565, image.Pt(size.X, 1), 0, line)
	if err != nil {
		return err
	}
	bm.SetDMAVisible(true)
	view := bm.View()

	pop := func() (bool, error) {
		for {
			y, ok := blur.PopReady()
			if !ok {
				return false, nil
			}
			if y >= cy1 {
				return true, nil
			}
			bm.Sync()
			blur.Pop(line)
			if y < cy0 {
				continue
			}
			if err := c.DrawBitmap(image.Rect(r.Min.X, r.Min.Y+y, r.Max.X, r.Min.Y+y+1), view); err != nil {
				return true, err
			}
		}
	}
	defer bm.Sync()

	if done, err := pop(); done || err != nil {
		return err
	}
	start, ok := blur.PushReady()
	if !ok {
		return nil
	}
	dec, err := cache.JpegDecoder(j.data, j.scale)
	if err != nil {
		return err
	}
	defer cache.Release(LeaseJpeg)

	var drawErr error
	err = dec.DecompressRows(start, func(rr image.Rectangle, pix []byte, stride int) bool {
		for {
			y, ok := blur.PushReady()
			if !ok || y >= rr.Max.Y {
				return true
			}
			blur.Push(pix[(y-rr.Min.Y)*stride:])
			done, err := pop()
			if err != nil {
				drawErr = err
				return false
			}
			if done {
				return false
			}
		}
	})
	if drawErr != nil {
		return drawErr
	}
	if err != nil {
		return contentError("jpeg", err)
	}
	_, err = pop()
	return err
}

func (j *JpegImage) cleanup(cache *DrawingCache) {
	if j.radius > 0 {
		cache.ReleaseBlur(j.BlurKey())
	}
}
