package pixel

import (
	"fmt"
	"image/color"
)

// Models for the e-paper color types.
var (
	// Model maps any color to White, Black or Red.
	Model color.Model = color.ModelFunc(triModel)

	// MonoModel maps any color to White or Black.
	MonoModel color.Model = color.ModelFunc(monoModel)
)

// Color is an e-paper ink.
type Color uint8

// Supported inks. White is the absence of ink and the zero value.
const (
	White Color = iota
	Black
	Red
)

func (c Color) RGBA() (r, g, b, a uint32) {
	switch c {
	case Black:
		return 0, 0, 0, 0xffff
	case Red:
		return 0xffff, 0, 0, 0xffff
	default:
		return 0xffff, 0xffff, 0xffff, 0xffff
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
}

// luma returns the 8-bit perceived brightness of c.
func luma(r, g, b uint32) uint32 {
	// Rec. 601 weights in 16.16 fixed point; the 16-bit channels leave 8 bits after >>24.
	return (19595*r + 38470*g + 7471*b + 1<<15) >> 24
}

func monoModel(c color.Color) color.Color {
	switch c {
	case White, Black:
		return c
	case Red:
		return Black
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return White
	}
	if luma(r, g, b) < 0x80 {
		return Black
	}
	return White
}

func triModel(c color.Color) color.Color {
	if v, ok := c.(Color); ok && v <= Red {
		return c
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return White
	}

	// Red dominance over the strongest other channel, in 8-bit units.
	r8, g8, b8 := r>>8, g>>8, b>>8
	other := g8
	if b8 > other {
		other = b8
	}
	if r8 > 0x80 && r8 > other+0x20 {
		return Red
	}

	if luma(r, g, b) < 0x80 {
		return Black
	}
	return White
}
