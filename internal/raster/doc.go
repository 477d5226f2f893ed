// Package raster provides the working surface that editing operations draw
// on, together with the drawing primitives they need: filled and stroked
// rectangles and ellipses, rotated about their centre, and single-line text
// with alignment, baseline, stroke and shadow.
//
// A Surface is owned by exactly one render call and is never shared. Shapes
// are rasterized with golang.org/x/image/vector, text with the Go fonts via
// golang.org/x/image/font/opentype, and rotated text layers are composited
// with golang.org/x/image/draw.
package raster
