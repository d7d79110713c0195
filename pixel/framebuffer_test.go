package pixel

import (
	"errors"
	"fmt"
	"image"
	"math/bits"
	"testing"
)

var testRotations = []Rotation{NoRotation, Rotate90, Rotate180, Rotate270}

func countBits(planes ...[]byte) (n int) {
	for _, plane := range planes {
		for _, b := range plane {
			n += bits.OnesCount8(b)
		}
	}
	return
}

func TestFramebufferBijection(t *testing.T) {
	for _, rotation := range testRotations {
		t.Run(rotation.String(), func(it *testing.T) {
			var (
				size = image.Pt(8, 8)
				seen = make(map[[2]int]image.Point)
			)
			for y := 0; y < size.Y; y++ {
				for x := 0; x < size.X; x++ {
					fb := NewFramebuffer(size.X, size.Y, rotation, 1)
					if err := fb.SetPixel(x, y, Black); err != nil {
						it.Fatalf("set pixel (%d,%d): %v", x, y, err)
					}
					if v, err := fb.Pixel(x, y); err != nil || v != Black {
						it.Fatalf("pixel (%d,%d) is %s (%v), expected black", x, y, v, err)
					}

					plane := fb.Bytes(BlackPlane)
					if n := countBits(plane); n != 1 {
						it.Fatalf("pixel (%d,%d) set %d bits, expected 1", x, y, n)
					}
					for i, b := range plane {
						if b == 0 {
							continue
						}
						key := [2]int{i, bits.LeadingZeros8(b)}
						if prev, dup := seen[key]; dup {
							it.Fatalf("pixel (%d,%d) maps to the same bit as %s", x, y, prev)
						}
						seen[key] = image.Pt(x, y)
					}
				}
			}
			if len(seen) != size.X*size.Y {
				it.Errorf("expected %d distinct bits, got %d", size.X*size.Y, len(seen))
			}
		})
	}
}

func TestFramebufferReadBack(t *testing.T) {
	for _, rotation := range testRotations {
		t.Run(rotation.String(), func(it *testing.T) {
			fb := NewFramebuffer(16, 8, rotation, 2)
			r := fb.Bounds()
			colors := []Color{Black, White, Red}
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					if err := fb.SetPixel(x, y, colors[(x+y)%3]); err != nil {
						it.Fatal(err)
					}
				}
			}
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					want := colors[(x+y)%3]
					if v, _ := fb.Pixel(x, y); v != want {
						it.Fatalf("pixel (%d,%d) is %s, expected %s", x, y, v, want)
					}
				}
			}
		})
	}
}

func TestFramebufferBounds(t *testing.T) {
	tests := []struct {
		Rotation Rotation
		Want     image.Point
	}{
		{NoRotation, image.Pt(104, 212)},
		{Rotate90, image.Pt(212, 104)},
		{Rotate180, image.Pt(104, 212)},
		{Rotate270, image.Pt(212, 104)},
	}
	for _, test := range tests {
		t.Run(test.Rotation.String(), func(it *testing.T) {
			fb := NewFramebuffer(104, 212, test.Rotation, 1)
			if v := fb.Bounds().Size(); !v.Eq(test.Want) {
				it.Errorf("expected logical size %s, got %s", test.Want, v)
			}
			if v := fb.Size(); !v.Eq(image.Pt(104, 212)) {
				it.Errorf("expected physical size 104x212, got %s", v)
			}
			if v := len(fb.Bytes(BlackPlane)); v != 13*212 {
				it.Errorf("expected %d bytes per plane, got %d", 13*212, v)
			}
		})
	}
}

func TestFramebufferClear(t *testing.T) {
	sizes := []image.Point{
		image.Pt(8, 8),
		image.Pt(12, 5),
		image.Pt(13, 3),
		image.Pt(128, 296),
	}
	for _, size := range sizes {
		for _, rotation := range testRotations {
			t.Run(fmt.Sprintf("%s/%s", size, rotation), func(it *testing.T) {
				fb := NewFramebuffer(size.X, size.Y, rotation, 1)
				if v, want := fb.Stride(), (size.X+7)/8; v != want {
					it.Fatalf("expected stride %d, got %d", want, v)
				}
				for _, c := range []Color{Black, White} {
					if err := fb.Clear(c); err != nil {
						it.Fatal(err)
					}
					r := fb.Bounds()
					for y := r.Min.Y; y < r.Max.Y; y++ {
						for x := r.Min.X; x < r.Max.X; x++ {
							if v, _ := fb.Pixel(x, y); v != c {
								it.Fatalf("pixel (%d,%d) is %s after clear, expected %s", x, y, v, c)
							}
						}
					}
				}
			})
		}
	}
}

func TestFramebufferClearRed(t *testing.T) {
	fb := NewFramebuffer(12, 4, NoRotation, 2)
	if err := fb.Clear(Red); err != nil {
		t.Fatal(err)
	}
	if v, _ := fb.Pixel(11, 3); v != Red {
		t.Errorf("expected red, got %s", v)
	}
	if n := countBits(fb.Bytes(BlackPlane)); n != 0 {
		t.Errorf("expected an empty black plane, got %d bits", n)
	}
}

func TestFramebufferErrors(t *testing.T) {
	mono := NewFramebuffer(16, 8, NoRotation, 1)
	if err := mono.SetPixel(0, 0, Red); !errors.Is(err, ErrUnsupportedColor) {
		t.Errorf("expected ErrUnsupportedColor for red on one plane, got %v", err)
	}
	if err := mono.Clear(Red); !errors.Is(err, ErrUnsupportedColor) {
		t.Errorf("expected ErrUnsupportedColor clearing to red on one plane, got %v", err)
	}
	if err := mono.SetPixel(0, 0, Color(7)); !errors.Is(err, ErrUnsupportedColor) {
		t.Errorf("expected ErrUnsupportedColor for an unknown color, got %v", err)
	}
	if v := mono.Bytes(RedPlane); v != nil {
		t.Errorf("expected no red plane, got %d bytes", len(v))
	}

	rotated := NewFramebuffer(16, 8, Rotate90, 1)
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {8, 0}, {0, 16}, {16, 0}} {
		if err := rotated.SetPixel(p.X, p.Y, Black); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("expected ErrOutOfBounds at %s, got %v", p, err)
		}
		if _, err := rotated.Pixel(p.X, p.Y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("expected ErrOutOfBounds reading %s, got %v", p, err)
		}
	}
	if n := countBits(rotated.Bytes(BlackPlane)); n != 0 {
		t.Errorf("out of bounds writes changed %d bits", n)
	}
}

func TestFramebufferCorners(t *testing.T) {
	fb := NewFramebuffer(128, 296, NoRotation, 1)
	if err := fb.SetPixel(0, 0, Black); err != nil {
		t.Fatal(err)
	}
	if err := fb.SetPixel(127, 295, Black); err != nil {
		t.Fatal(err)
	}
	plane := fb.Bytes(BlackPlane)
	if n := countBits(plane); n != 2 {
		t.Fatalf("expected 2 set bits, got %d", n)
	}
	if plane[0] != 0x80 {
		t.Errorf("expected first byte %#02x, got %#02x", 0x80, plane[0])
	}
	if v := plane[len(plane)-1]; v != 0x01 {
		t.Errorf("expected last byte %#02x, got %#02x", 0x01, v)
	}
}

func TestFramebufferWindow(t *testing.T) {
	tests := []struct {
		Name     string
		Rotation Rotation
		Logical  image.Rectangle
		Physical image.Rectangle
	}{
		{"aligned", NoRotation, image.Rect(8, 1, 16, 3), image.Rect(8, 1, 16, 3)},
		{"widened", NoRotation, image.Rect(3, 1, 10, 3), image.Rect(0, 1, 16, 3)},
		{"clipped", NoRotation, image.Rect(-4, -4, 4, 2), image.Rect(0, 0, 8, 2)},
		{"outside", NoRotation, image.Rect(40, 40, 50, 50), image.Rectangle{}},
		{"rotate-90", Rotate90, image.Rect(0, 0, 1, 1), image.Rect(8, 0, 16, 1)},
		{"rotate-180", Rotate180, image.Rect(0, 0, 2, 2), image.Rect(8, 6, 16, 8)},
		{"rotate-270", Rotate270, image.Rect(0, 0, 16, 2), image.Rect(0, 0, 8, 8)},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			fb := NewFramebuffer(16, 8, test.Rotation, 1)
			r := fb.PhysicalRect(test.Logical)
			if !r.Eq(test.Physical) {
				it.Fatalf("expected physical window %s, got %s", test.Physical, r)
			}
			if r.Empty() {
				if v := fb.Window(BlackPlane, r); v != nil {
					it.Errorf("expected no window bytes, got %d", len(v))
				}
				return
			}

			_ = fb.Clear(Black)
			w := fb.Window(BlackPlane, r)
			if v, want := len(w), r.Dx()/8*r.Dy(); v != want {
				it.Fatalf("expected %d window bytes, got %d", want, v)
			}
			for i, b := range w {
				if b != 0xff {
					it.Fatalf("window byte %d is %#02x, expected 0xff", i, b)
				}
			}
		})
	}
}
