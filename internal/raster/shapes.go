package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// ellipseSegments is the polyline resolution used to approximate ellipses.
const ellipseSegments = 96

// Point is a floating-point coordinate on a surface.
type Point struct {
	X, Y float64
}

// Stroke describes an outline centred on a shape's edge.
type Stroke struct {
	Color color.NRGBA
	Width float64
}

// Box is an axis-aligned rectangle, optionally rotated about its centre.
type Box struct {
	X, Y, Width, Height float64

	// Rotation is in degrees, clockwise in image space.
	Rotation float64
}

func (b Box) center() Point {
	return Point{b.X + b.Width/2, b.Y + b.Height/2}
}

// rotate returns p rotated by deg degrees about c.
func rotate(p, c Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Point{c.X + dx*cos - dy*sin, c.Y + dx*sin + dy*cos}
}

// rectContour returns the corners of an inset (negative d) or outset
// rectangle, clockwise.
func rectContour(b Box, d float64) []Point {
	x0, y0 := b.X-d, b.Y-d
	x1, y1 := b.X+b.Width+d, b.Y+b.Height+d
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// ellipseContour samples the ellipse inscribed in b, grown by d on each
// radius, clockwise.
func ellipseContour(b Box, d float64) []Point {
	c := b.center()
	rx, ry := b.Width/2+d, b.Height/2+d
	pts := make([]Point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = Point{c.X + rx*math.Cos(a), c.Y + ry*math.Sin(a)}
	}
	return pts
}

// fillContours rasterizes the closed contours onto s with source-over
// compositing. Contours wound in opposite directions cancel, which is how
// stroke rings get their hole.
func fillContours(s *Surface, c color.NRGBA, contours ...[]Point) {
	if c.A == 0 {
		return
	}
	w, h := s.Width(), s.Height()
	z := vector.NewRasterizer(w, h)
	for _, pts := range contours {
		if len(pts) < 3 {
			continue
		}
		z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
		for _, p := range pts[1:] {
			z.LineTo(float32(p.X), float32(p.Y))
		}
		z.ClosePath()
	}
	z.Draw(s.img, image.Rect(0, 0, w, h), image.NewUniform(c), image.Point{})
}

func transform(pts []Point, c Point, deg float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = rotate(p, c, deg)
	}
	return out
}

func reversed(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// DrawRectangle fills and/or strokes b. A nil fill or stroke is skipped.
// The stroke is drawn after the fill.
func DrawRectangle(s *Surface, b Box, fill *color.NRGBA, stroke *Stroke) {
	drawShape(s, b, rectContour, fill, stroke)
}

// DrawEllipse fills and/or strokes the ellipse inscribed in b.
func DrawEllipse(s *Surface, b Box, fill *color.NRGBA, stroke *Stroke) {
	drawShape(s, b, ellipseContour, fill, stroke)
}

func drawShape(s *Surface, b Box, contour func(Box, float64) []Point, fill *color.NRGBA, stroke *Stroke) {
	c := b.center()
	if fill != nil {
		fillContours(s, *fill, transform(contour(b, 0), c, b.Rotation))
	}
	if stroke != nil && stroke.Width > 0 {
		half := stroke.Width / 2
		outer := transform(contour(b, half), c, b.Rotation)
		if half >= b.Width/2 || half >= b.Height/2 {
			fillContours(s, stroke.Color, outer)
			return
		}
		inner := transform(contour(b, -half), c, b.Rotation)
		fillContours(s, stroke.Color, outer, reversed(inner))
	}
}
