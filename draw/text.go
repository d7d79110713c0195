package draw

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Face is an alias for [font.Face].
type Face = font.Face

// DefaultFace is a 7x13 bitmap face that needs no font data.
var DefaultFace Face = basicfont.Face7x13

// TrueTypeFace parses TrueType font data and returns a face of size points at 72 DPI, so one
// point is one pixel. Hinting snaps glyphs to the pixel grid, which suits 1-bit panels.
func TrueTypeFace(data []byte, size float64) (Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("draw: parse TrueType font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// RegularFace returns the Go Regular font at size points.
func RegularFace(size float64) (Face, error) {
	return TrueTypeFace(goregular.TTF, size)
}

// Text draws s with the left end of its baseline at dot and returns the dot after the last glyph.
func Text(dst Image, face Face, dot image.Point, s string, c color.Color) image.Point {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// TextBounds returns the pixels covered by s drawn with its baseline at dot.
func TextBounds(face Face, dot image.Point, s string) image.Rectangle {
	b, _ := font.BoundString(face, s)
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil()).Add(dot)
}

// CenteredText draws s centered in rect and returns the bounds of the drawn text.
func CenteredText(dst Image, face Face, rect image.Rectangle, s string, c color.Color) image.Rectangle {
	var (
		m     = face.Metrics()
		width = font.MeasureString(face, s).Ceil()
		asc   = m.Ascent.Ceil()
		desc  = m.Descent.Ceil()
		dot   = image.Pt(
			rect.Min.X+(rect.Dx()-width)/2,
			rect.Min.Y+(rect.Dy()-asc-desc)/2+asc,
		)
	)
	Text(dst, face, dot, s, c)
	return TextBounds(face, dot, s)
}
