package pixfmt

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ToRGB565 packs c, dropping alpha.
func ToRGB565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

// FromRGB565 expands v to an opaque color.
func FromRGB565(v uint16) color.RGBA {
	r := uint32(v>>11) & 0x1F
	g := uint32(v>>5) & 0x3F
	b := uint32(v) & 0x1F
	return color.RGBA{R: uint8(r * 255 / 31), G: uint8(g * 255 / 63), B: uint8(b * 255 / 31), A: 0xFF}
}

// Luminance returns the gray level of c.
func Luminance(c color.RGBA) uint8 {
	y := (19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16
	return uint8(y)
}

// Blend8 mixes two channel values, alpha weighting fg.
func Blend8(fg, bg, alpha uint8) uint8 {
	return uint8((uint32(fg)*uint32(alpha) + uint32(bg)*(255-uint32(alpha))) / 255)
}

// Blend mixes fg over bg with the given alpha. The result is opaque.
func Blend(fg, bg color.RGBA, alpha uint8) color.RGBA {
	return color.RGBA{
		R: Blend8(fg.R, bg.R, alpha),
		G: Blend8(fg.G, bg.G, alpha),
		B: Blend8(fg.B, bg.B, alpha),
		A: 0xFF,
	}
}

// BlendRGB565 mixes two packed colors channel by channel in 5-6-5 space.
func BlendRGB565(fg, bg uint16, alpha uint8) uint16 {
	a := uint32(alpha)
	ia := 255 - a
	r := ((uint32(fg>>11)&0x1F)*a + (uint32(bg>>11)&0x1F)*ia) / 255
	g := ((uint32(fg>>5)&0x3F)*a + (uint32(bg>>5)&0x3F)*ia) / 255
	b := ((uint32(fg)&0x1F)*a + (uint32(bg)&0x1F)*ia) / 255
	return uint16(r<<11 | g<<5 | b)
}

// Gradient16 returns the 16 steps between bg (index 0) and fg (index 15).
func Gradient16(fg, bg color.RGBA) [16]color.RGBA {
	var out [16]color.RGBA
	for i := range out {
		out[i] = Blend(fg, bg, uint8(i*17))
	}
	return out
}

// ParseHex parses "#rrggbb", "#rrggbbaa" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	if len(raw) != 6 && len(raw) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q must be #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(raw) == 6 {
		v = v<<8 | 0xFF
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
