package shape

import (
	"errors"
	"fmt"
	"image"

	"github.com/rook-computer/shapekit/internal/jpegdec"
	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/toif"
)

// Budget fixes the largest workload a pass may hand the cache. The arena
// sizes follow from it.
type Budget struct {
	MaxImageWidth int
	MaxJpegWidth  int
	MaxBlurRadius int
	BandWidth     int
	BandHeight    int
	MaxShapes     int
}

// DefaultBudget suits a display width pixels wide.
func DefaultBudget(width int) Budget {
	return Budget{
		MaxImageWidth: width,
		MaxJpegWidth:  width,
		MaxBlurRadius: 8,
		BandWidth:     width,
		BandHeight:    16,
		MaxShapes:     45,
	}
}

func (b Budget) Validate() error {
	switch {
	case b.MaxImageWidth <= 0:
		return fmt.Errorf("max image width must be positive (got %d)", b.MaxImageWidth)
	case b.MaxJpegWidth < 0:
		return fmt.Errorf("max jpeg width must not be negative (got %d)", b.MaxJpegWidth)
	case b.MaxBlurRadius < 0:
		return fmt.Errorf("max blur radius must not be negative (got %d)", b.MaxBlurRadius)
	case b.MaxBlurRadius > MaxBlurRadius:
		return fmt.Errorf("%w: max blur radius %d above %d", ErrBufferTooSmall, b.MaxBlurRadius, MaxBlurRadius)
	case b.BandWidth < 0 || b.BandHeight < 0:
		return fmt.Errorf("band size must not be negative (got %dx%d)", b.BandWidth, b.BandHeight)
	case b.MaxShapes < 0:
		return fmt.Errorf("max shapes must not be negative (got %d)", b.MaxShapes)
	}
	return nil
}

// ImageBufferSize is the scratch line used for icon rows, glyphs and
// blurred output rows.
func (b Budget) ImageBufferSize() int {
	return max(max(b.MaxImageWidth, b.MaxJpegWidth)*4, 2048)
}

func (b Budget) JpegBufferSize() int {
	if b.MaxJpegWidth == 0 {
		return 0
	}
	return jpegdec.RowBufferSize(b.MaxJpegWidth)
}

func (b Budget) BlurBufferSize() int {
	if b.MaxJpegWidth == 0 || b.MaxBlurRadius == 0 {
		return 0
	}
	return BlurBufferSize(b.MaxJpegWidth, b.MaxBlurRadius)
}

func (b Budget) BandBufferSize() int { return b.BandWidth * b.BandHeight * 2 }

// BumpASize is the general-purpose arena: JPEG rows and blur state.
func (b Budget) BumpASize() int {
	return align4(b.JpegBufferSize()) + align4(b.BlurBufferSize())
}

// BumpBSize is the DMA-visible arena: the image line and two band buffers.
func (b Budget) BumpBSize() int {
	return align4(b.ImageBufferSize()) + 2*align4(b.BandBufferSize())
}

// Lease names a cache resource checked out by one shape at a time.
type Lease uint8

const (
	LeaseImage Lease = iota
	LeaseJpeg
	LeaseToif
	leaseCount
)

func (l Lease) String() string {
	switch l {
	case LeaseImage:
		return "image buffer"
	case LeaseJpeg:
		return "jpeg decoder"
	case LeaseToif:
		return "toif decoder"
	}
	return "lease"
}

type heldShape struct {
	shape    Shape
	viewport Viewport
	failed   bool
}

// DrawingCache owns the per-pass scratch memory. Every buffer is carved
// from arena A or B on first use and reused until Reset.
type DrawingCache struct {
	budget Budget
	a, b   *Arena

	busy     [leaseCount]bool
	imageBuf []byte
	jpegBuf  []byte
	blurBuf  []byte
	bandBuf  [2][]byte
	band     [2]Bitmap

	jpeg jpegdec.Decoder
	toif toif.Decoder

	blur      Blur
	blurKey   uint64
	blurOwner int
	blurLive  bool

	// owner is the index of the held shape being drawn, or -1 outside a
	// progressive pass.
	owner  int
	shapes []heldShape
}

// NewDrawingCache checks that a and b are exactly the sizes budget needs.
// b must be DMA-visible.
func NewDrawingCache(a, b *Arena, budget Budget) (*DrawingCache, error) {
	if err := budget.Validate(); err != nil {
		return nil, configError("drawing cache", err)
	}
	if a.Cap() != budget.BumpASize() {
		return nil, configError("drawing cache", fmt.Errorf("%w: arena %s is %d bytes, budget needs %d",
			ErrArenaExhausted, a.Name(), a.Cap(), budget.BumpASize()))
	}
	if b.Cap() != budget.BumpBSize() {
		return nil, configError("drawing cache", fmt.Errorf("%w: arena %s is %d bytes, budget needs %d",
			ErrArenaExhausted, b.Name(), b.Cap(), budget.BumpBSize()))
	}
	if b.Class() != MemoryDMA {
		return nil, configError("drawing cache", fmt.Errorf("arena %s must be DMA-visible", b.Name()))
	}
	return &DrawingCache{
		budget: budget,
		a:      a,
		b:      b,
		owner:  -1,
		shapes: make([]heldShape, 0, budget.MaxShapes),
	}, nil
}

func (c *DrawingCache) Budget() Budget { return c.budget }

// Reset returns all memory to the arenas. Bands still being read by the
// blitter are waited for first.
func (c *DrawingCache) Reset() {
	for i := range c.band {
		c.band[i].Sync()
	}
	c.a.Reset()
	c.b.Reset()
	c.busy = [leaseCount]bool{}
	c.imageBuf, c.jpegBuf, c.blurBuf = nil, nil, nil
	c.bandBuf = [2][]byte{}
	c.blurLive = false
	c.owner = -1
	clear(c.shapes)
	c.shapes = c.shapes[:0]
}

func (c *DrawingCache) lease(l Lease) error {
	if c.busy[l] {
		return configError("cache "+l.String(), ErrLeaseBusy)
	}
	c.busy[l] = true
	return nil
}

// Release returns a lease taken by ImageBuffer, JpegDecoder or ToifDecoder.
func (c *DrawingCache) Release(l Lease) { c.busy[l] = false }

// ImageBuffer leases the scratch line. Release with LeaseImage.
func (c *DrawingCache) ImageBuffer() ([]byte, error) {
	if err := c.lease(LeaseImage); err != nil {
		return nil, err
	}
	if c.imageBuf == nil {
		buf, err := c.b.Alloc(c.budget.ImageBufferSize())
		if err != nil {
			c.Release(LeaseImage)
			return nil, err
		}
		c.imageBuf = buf
	}
	return c.imageBuf, nil
}

// JpegDecoder leases the decoder reset to data. Release with LeaseJpeg.
func (c *DrawingCache) JpegDecoder(data []byte, scale int) (*jpegdec.Decoder, error) {
	if err := c.lease(LeaseJpeg); err != nil {
		return nil, err
	}
	if c.jpegBuf == nil {
		buf, err := c.a.Alloc(c.budget.JpegBufferSize())
		if err != nil {
			c.Release(LeaseJpeg)
			return nil, err
		}
		c.jpegBuf = buf
	}
	if err := c.jpeg.Reset(data, scale, c.jpegBuf); err != nil {
		c.Release(LeaseJpeg)
		if errors.Is(err, jpegdec.ErrBufferTooSmall) {
			return nil, configError("jpeg", fmt.Errorf("%w: %w", ErrBufferTooSmall, err))
		}
		return nil, contentError("jpeg", err)
	}
	return &c.jpeg, nil
}

// ToifDecoder leases the decoder reset to img. Release with LeaseToif.
func (c *DrawingCache) ToifDecoder(img toif.Image) (*toif.Decoder, error) {
	if err := c.lease(LeaseToif); err != nil {
		return nil, err
	}
	if err := c.toif.Reset(img); err != nil {
		c.Release(LeaseToif)
		return nil, contentError("toif", err)
	}
	return &c.toif, nil
}

// Blur returns the blur session for key. The session carries over between
// calls from the same held shape with the same key, size and radius, so a
// shape drawn band by band keeps its state; anything else starts a fresh
// session.
func (c *DrawingCache) Blur(size image.Point, radius int, key uint64) (*Blur, error) {
	if c.blurLive && c.blurKey == key && c.blurOwner == c.owner && c.blur.size == size && c.blur.radius == radius {
		return &c.blur, nil
	}
	if radius > c.budget.MaxBlurRadius || size.X > c.budget.MaxJpegWidth {
		return nil, configError("blur", fmt.Errorf("%w: %dx%d radius %d exceeds budget",
			ErrArenaExhausted, size.X, size.Y, radius))
	}
	if c.blurBuf == nil {
		buf, err := c.a.Alloc(c.budget.BlurBufferSize())
		if err != nil {
			return nil, err
		}
		c.blurBuf = buf
	}
	c.blurLive = false
	if err := c.blur.Reset(size, radius, c.blurBuf); err != nil {
		return nil, err
	}
	c.blurKey, c.blurOwner, c.blurLive = key, c.owner, true
	return &c.blur, nil
}

// ReleaseBlur ends the session for key held by the current shape.
func (c *DrawingCache) ReleaseBlur(key uint64) {
	if c.blurLive && c.blurKey == key && c.blurOwner == c.owner {
		c.blurLive = false
	}
}

// BandBitmap returns ping-pong band buffer i%2 shaped to size. It waits for
// any transfer still reading the buffer.
func (c *DrawingCache) BandBitmap(i int, size image.Point) (*Bitmap, error) {
	i %= 2
	b := &c.band[i]
	b.Sync()
	if c.bandBuf[i] == nil {
		buf, err := c.b.Alloc(c.budget.BandBufferSize())
		if err != nil {
			return nil, err
		}
		c.bandBuf[i] = buf
	}
	if err := b.init(pixfmt.RGB565, size, 0, c.bandBuf[i]); err != nil {
		return nil, configError("band", err)
	}
	// Arena B is DMA-visible; NewDrawingCache refuses anything else.
	b.SetDMAVisible(true)
	return b, nil
}

func (c *DrawingCache) hold(s Shape, vp Viewport) error {
	if len(c.shapes) == cap(c.shapes) {
		return configError("hold "+s.Kind().String(), fmt.Errorf("%w: limit %d", ErrTooManyShapes, cap(c.shapes)))
	}
	c.shapes = append(c.shapes, heldShape{shape: s, viewport: vp})
	return nil
}
