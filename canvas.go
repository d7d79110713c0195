package epaper

import (
	"image"
	"image/color"

	"github.com/BeatGlow/epaper/draw"
	"github.com/BeatGlow/epaper/pixel"
)

// Canvas is a drawing surface over the display framebuffer. It implements draw.Image, so the
// standard library and the draw package can render into it. Unlike Display.SetPixel, writes
// outside the canvas are ignored.
type Canvas struct {
	fb    *pixel.Framebuffer
	model color.Model
}

// Canvas returns a drawing surface for the display. Colors are reduced to black and white, plus
// red on displays with two planes.
func (d *Display) Canvas() *Canvas {
	model := pixel.MonoModel
	if d.fb.Planes() > 1 {
		model = pixel.Model
	}
	return &Canvas{fb: d.fb, model: model}
}

func (c *Canvas) ColorModel() color.Model {
	return c.model
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.fb.Bounds()
}

func (c *Canvas) At(x, y int) color.Color {
	v, err := c.fb.Pixel(x, y)
	if err != nil {
		return color.Transparent
	}
	return v
}

func (c *Canvas) Set(x, y int, v color.Color) {
	_ = c.fb.SetPixel(x, y, c.model.Convert(v).(pixel.Color))
}

var _ draw.Image = (*Canvas)(nil)
