package shape

import "fmt"

// MemoryClass tells whether an arena lives in memory the blitter can read.
type MemoryClass uint8

const (
	MemoryGeneral MemoryClass = iota
	MemoryDMA
)

func (m MemoryClass) String() string {
	if m == MemoryDMA {
		return "dma"
	}
	return "general"
}

// Arena is a bump allocator over a fixed buffer. Allocations are 4-byte
// aligned and live until Reset.
type Arena struct {
	name  string
	class MemoryClass
	buf   []byte
	used  int
}

// NewArena allocates size bytes up front.
func NewArena(name string, size int, class MemoryClass) *Arena {
	return NewArenaOn(name, make([]byte, size), class)
}

// NewArenaOn manages caller-provided memory.
func NewArenaOn(name string, buf []byte, class MemoryClass) *Arena {
	return &Arena{name: name, class: class, buf: buf}
}

func (a *Arena) Alloc(n int) ([]byte, error) {
	start := align4(a.used)
	if n < 0 || start+n > len(a.buf) {
		return nil, configError("arena "+a.name, fmt.Errorf("%w: need %d bytes, %d of %d used",
			ErrArenaExhausted, n, a.used, len(a.buf)))
	}
	a.used = start + n
	return a.buf[start : start+n : start+n], nil
}

func (a *Arena) Reset() { a.used = 0 }

func (a *Arena) Name() string { return a.name }

func (a *Arena) Class() MemoryClass { return a.class }

func (a *Arena) Used() int { return a.used }

func (a *Arena) Cap() int { return len(a.buf) }

func align4(n int) int { return (n + 3) &^ 3 }
