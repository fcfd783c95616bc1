package shape

import (
	"errors"
	"fmt"

	"github.com/rook-computer/shapekit/internal/dma2d"
)

var (
	ErrArenaExhausted    = errors.New("shape: arena exhausted")
	ErrUnsupportedFormat = errors.New("shape: unsupported pixel format combination")
	ErrTooManyShapes     = errors.New("shape: shape list full")
	ErrDMAPending        = errors.New("shape: bitmap has a DMA transfer pending")
	ErrBufferTooSmall    = errors.New("shape: buffer too small")
	ErrReentrant         = errors.New("shape: render pass already in progress")
	ErrLeaseBusy         = errors.New("shape: cache lease already checked out")
	ErrNoFont            = errors.New("shape: text has no font")
)

// ErrorKind separates build/config mismatches from bad content and from a
// busy blitter.
type ErrorKind uint8

const (
	ConfigError ErrorKind = iota + 1
	ContentError
	HardwareBusy
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigError:
		return "config"
	case ContentError:
		return "content"
	case HardwareBusy:
		return "hardware busy"
	default:
		return "unknown"
	}
}

// Error is a classified rendering failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func configError(op string, err error) error { return &Error{Kind: ConfigError, Op: op, Err: err} }

func contentError(op string, err error) error { return &Error{Kind: ContentError, Op: op, Err: err} }

// KindOf returns the classification of err, or 0 for nil and unclassified
// errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, dma2d.ErrBusy) {
		return HardwareBusy
	}
	return 0
}

func shapeError(k Kind, err error) error {
	return fmt.Errorf("%s: %w", k, err)
}
