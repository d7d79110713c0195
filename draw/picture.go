package draw

import (
	"image"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
)

// Ditherer reduces a grayscale image to black and white.
type Ditherer interface {
	Apply(gray *image.Gray) *image.Gray
}

// Dither methods for Picture.
var (
	// FloydSteinberg diffuses the quantization error, best for photos.
	FloydSteinberg Ditherer = halfgone.FloydSteinbergDitherer{}

	// Threshold cuts at mid gray, best for line art and screenshots.
	Threshold Ditherer = halfgone.ThresholdDitherer{Threshold: 127}
)

// Picture scales src to fit rect, keeping its aspect ratio, dithers it with d and draws the
// result centered in rect. A nil d uses FloydSteinberg. It returns the rectangle drawn.
func Picture(dst Image, rect image.Rectangle, src image.Image, d Ditherer) image.Rectangle {
	rect = rect.Canon()
	if rect.Empty() || src.Bounds().Empty() {
		return image.Rectangle{}
	}
	if d == nil {
		d = FloydSteinberg
	}

	var scaled image.Image = src
	if size := src.Bounds().Size(); size.X > rect.Dx() || size.Y > rect.Dy() {
		scaled = imaging.Fit(src, rect.Dx(), rect.Dy(), imaging.Lanczos)
	}

	var (
		bounds = scaled.Bounds()
		gray   = image.NewGray(image.Rectangle{Max: bounds.Size()})
	)
	Draw(gray, gray.Bounds(), scaled, bounds.Min, Src)

	var (
		size   = gray.Bounds().Size()
		offset = image.Pt((rect.Dx()-size.X)/2, (rect.Dy()-size.Y)/2)
		target = image.Rectangle{Max: size}.Add(rect.Min).Add(offset)
	)
	Draw(dst, target, d.Apply(gray), image.Point{}, Src)
	return target
}
