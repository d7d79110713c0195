package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, inclusive.
func Line(dst Image, a, b image.Point, c color.Color) {
	bresenham(dst, a.X, a.Y, b.X, b.Y, c)
}

// HorizontalLine draws a line between (x,y) and (x+w-1,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	for i := 0; i < w; i++ {
		dst.Set(x+i, y, c)
	}
}

// VerticalLine draws a line between (x,y) and (x,y+h-1).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	for i := 0; i < h; i++ {
		dst.Set(x, y+i, c)
	}
}

// Rectangle draws the outline of rect. Like all rectangles in package image, Max is exclusive.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	var (
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		HorizontalLine(dst, rect.Min.X, y, rect.Dx(), c)
	}
}

// clampRadius keeps the corner radius inside half the shortest side.
func clampRadius(rect image.Rectangle, radius int) int {
	if limit := min(rect.Dx(), rect.Dy()) / 2; radius > limit {
		radius = limit
	}
	if radius < 0 {
		radius = 0
	}
	return radius
}

// RoundedRectangle draws the outline of rect with radius pixels rounded corners.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	var (
		r  = clampRadius(rect, radius)
		x0 = rect.Min.X
		y0 = rect.Min.Y
		x1 = rect.Max.X - 1
		y1 = rect.Max.Y - 1
	)
	HorizontalLine(dst, x0+r, y0, rect.Dx()-2*r, c)
	HorizontalLine(dst, x0+r, y1, rect.Dx()-2*r, c)
	VerticalLine(dst, x0, y0+r, rect.Dy()-2*r, c)
	VerticalLine(dst, x1, y0+r, rect.Dy()-2*r, c)
	corners(x0+r, y0+r, x1-r, y1-r, r, func(x, y int) {
		dst.Set(x, y, c)
	})
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	var (
		r  = clampRadius(rect, radius)
		x0 = rect.Min.X
		y0 = rect.Min.Y
		x1 = rect.Max.X - 1
		y1 = rect.Max.Y - 1
	)
	Box(dst, image.Rect(x0, y0+r, x1+1, y1-r+1), c)
	// Span the top and bottom bands from each left arc point to its mirror on the right.
	corners(x0+r, y0+r, x1-r, y1-r, r, func(x, y int) {
		if x <= x0+r {
			HorizontalLine(dst, x, y, x0+x1-2*x+1, c)
		}
	})
}

// corners walks the quarter circles of radius r centered on the four inner corner points
// (left,top), (right,top), (left,bottom) and (right,bottom) using the midpoint algorithm.
func corners(left, top, right, bottom, r int, plot func(x, y int)) {
	if r == 0 {
		return
	}
	var (
		f    = 1 - r
		ddFx = 1
		ddFy = -2 * r
		x    = 0
		y    = r
	)
	point := func(dx, dy int) {
		plot(left-dx, top-dy)
		plot(right+dx, top-dy)
		plot(left-dx, bottom+dy)
		plot(right+dx, bottom+dy)
	}
	point(0, r)
	point(r, 0)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx

		point(x, y)
		point(y, x)
	}
}

// bresenham plots the integer line from (x0,y0) to (x1,y1), both inclusive.
func bresenham(dst Image, x0, y0, x1, y1 int, c color.Color) {
	var (
		dx  = abs(x1 - x0)
		dy  = -abs(y1 - y0)
		sx  = 1
		sy  = 1
		err = dx + dy
	)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	for {
		dst.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
