package pixel

import (
	"errors"
	"image"
)

// Errors
var (
	ErrOutOfBounds      = errors.New("pixel: coordinate out of framebuffer bounds")
	ErrUnsupportedColor = errors.New("pixel: color not supported by the allocated planes")
)

// Plane selects one of the framebuffer bit planes.
type Plane uint8

// Planes.
const (
	BlackPlane Plane = iota
	RedPlane
)

func (p Plane) String() string {
	if p == RedPlane {
		return "red"
	}
	return "black"
}

// Framebuffer holds one or two bit planes for a panel.
//
// Each plane stores one bit per pixel, row-major and MSB first, with Stride bytes per physical
// row. A set bit means the plane's ink is present at that pixel. Coordinates passed to SetPixel
// and Pixel are logical: they are rotated onto the physical panel before the bit is addressed.
type Framebuffer struct {
	width    int
	height   int
	stride   int
	rotation Rotation
	planes   [][]byte
}

// NewFramebuffer allocates a white framebuffer for a panel with the native (physical) size
// width×height. planes is 1 for black/white or 2 for black/white/red panels.
func NewFramebuffer(width, height int, rotation Rotation, planes int) *Framebuffer {
	if planes < 1 {
		planes = 1
	} else if planes > 2 {
		planes = 2
	}
	stride := (width + 7) / 8 // round up to whole bytes
	fb := &Framebuffer{
		width:    width,
		height:   height,
		stride:   stride,
		rotation: rotation % 4,
		planes:   make([][]byte, planes),
	}
	for i := range fb.planes {
		fb.planes[i] = make([]byte, stride*height)
	}
	return fb
}

// Bounds is the logical bounding box, after rotation.
func (fb *Framebuffer) Bounds() image.Rectangle {
	if fb.rotation.swapsAxes() {
		return image.Rect(0, 0, fb.height, fb.width)
	}
	return image.Rect(0, 0, fb.width, fb.height)
}

// Size is the physical panel size.
func (fb *Framebuffer) Size() image.Point {
	return image.Pt(fb.width, fb.height)
}

// Stride is the number of bytes per physical row.
func (fb *Framebuffer) Stride() int {
	return fb.stride
}

// Planes is the number of allocated planes.
func (fb *Framebuffer) Planes() int {
	return len(fb.planes)
}

// Rotation is the logical to physical rotation.
func (fb *Framebuffer) Rotation() Rotation {
	return fb.rotation
}

// offset returns the byte index and bit mask for logical (x, y).
func (fb *Framebuffer) offset(x, y int) (index int, mask byte, ok bool) {
	if !(image.Point{x, y}).In(fb.Bounds()) {
		return 0, 0, false
	}
	px, py := fb.rotation.transform(x, y, fb.width, fb.height)
	return py*fb.stride + px/8, 0x80 >> uint(px%8), true
}

// SetPixel sets the pixel at logical (x, y) to c.
func (fb *Framebuffer) SetPixel(x, y int, c Color) error {
	if c == Red && len(fb.planes) < 2 || c > Red {
		return ErrUnsupportedColor
	}
	index, mask, ok := fb.offset(x, y)
	if !ok {
		return ErrOutOfBounds
	}

	black := fb.planes[BlackPlane]
	if c == Black {
		black[index] |= mask
	} else {
		black[index] &^= mask
	}
	if len(fb.planes) > 1 {
		red := fb.planes[RedPlane]
		if c == Red {
			red[index] |= mask
		} else {
			red[index] &^= mask
		}
	}
	return nil
}

// Pixel returns the color at logical (x, y).
func (fb *Framebuffer) Pixel(x, y int) (Color, error) {
	index, mask, ok := fb.offset(x, y)
	if !ok {
		return White, ErrOutOfBounds
	}
	if len(fb.planes) > 1 && fb.planes[RedPlane][index]&mask != 0 {
		return Red, nil
	}
	if fb.planes[BlackPlane][index]&mask != 0 {
		return Black, nil
	}
	return White, nil
}

// Clear sets every pixel to c.
func (fb *Framebuffer) Clear(c Color) error {
	if c == Red && len(fb.planes) < 2 || c > Red {
		return ErrUnsupportedColor
	}
	var black, red byte
	switch c {
	case Black:
		black = 0xff
	case Red:
		red = 0xff
	}
	fill(fb.planes[BlackPlane], black)
	if len(fb.planes) > 1 {
		fill(fb.planes[RedPlane], red)
	}
	return nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// Bytes returns the plane contents without copying, or nil if the plane is not allocated.
func (fb *Framebuffer) Bytes(p Plane) []byte {
	if int(p) >= len(fb.planes) {
		return nil
	}
	return fb.planes[p]
}

// PhysicalRect maps the logical rectangle r onto the physical panel, clipped to the panel and
// widened horizontally to whole bytes. The result is empty if r does not overlap the panel.
func (fb *Framebuffer) PhysicalRect(r image.Rectangle) image.Rectangle {
	r = r.Canon().Intersect(fb.Bounds())
	if r.Empty() {
		return image.Rectangle{}
	}
	x0, y0 := fb.rotation.transform(r.Min.X, r.Min.Y, fb.width, fb.height)
	x1, y1 := fb.rotation.transform(r.Max.X-1, r.Max.Y-1, fb.width, fb.height)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	p := image.Rect(x0, y0, x1+1, y1+1)

	p.Min.X &^= 7
	p.Max.X = (p.Max.X + 7) &^ 7
	if p.Max.X > fb.width {
		p.Max.X = fb.width
	}
	return p
}

// Window copies the byte-aligned physical rectangle r out of plane p, row by row. r must come
// from PhysicalRect.
func (fb *Framebuffer) Window(p Plane, r image.Rectangle) []byte {
	plane := fb.Bytes(p)
	if plane == nil || r.Empty() {
		return nil
	}
	var (
		x0  = r.Min.X / 8
		x1  = (r.Max.X + 7) / 8
		out = make([]byte, 0, (x1-x0)*r.Dy())
	)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * fb.stride
		out = append(out, plane[row+x0:row+x1]...)
	}
	return out
}
