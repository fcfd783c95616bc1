// Package pixfmt describes the pixel layouts the renderer reads and writes
// and the color arithmetic shared by software canvases and display drivers.
package pixfmt

import (
	"fmt"
	"strings"
)

// Format identifies a pixel layout.
//
// Mono1P packs 8 pixels per byte, most significant bit first.
// Mono4 packs 2 pixels per byte, the even (left) pixel in the low nibble.
// RGB565 pixels are stored little endian. RGBA8888 pixels are R, G, B, A bytes.
type Format uint8

const (
	Unknown Format = iota
	Mono1P
	Mono4
	Mono8
	RGB565
	RGBA8888
)

func (f Format) String() string {
	switch f {
	case Mono1P:
		return "mono1p"
	case Mono4:
		return "mono4"
	case Mono8:
		return "mono8"
	case RGB565:
		return "rgb565"
	case RGBA8888:
		return "rgba8888"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// BitsPerPixel returns 0 for Unknown.
func (f Format) BitsPerPixel() int {
	switch f {
	case Mono1P:
		return 1
	case Mono4:
		return 4
	case Mono8:
		return 8
	case RGB565:
		return 16
	case RGBA8888:
		return 32
	default:
		return 0
	}
}

// MinStride returns the smallest row length in bytes that holds width pixels.
func (f Format) MinStride(width int) int {
	return (width*f.BitsPerPixel() + 7) / 8
}

// ParseFormat accepts the names produced by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mono1p":
		return Mono1P, nil
	case "mono4":
		return Mono4, nil
	case "mono8", "gray", "grey":
		return Mono8, nil
	case "rgb565":
		return RGB565, nil
	case "rgba8888", "rgba":
		return RGBA8888, nil
	default:
		return Unknown, fmt.Errorf("unknown pixel format %q", s)
	}
}
