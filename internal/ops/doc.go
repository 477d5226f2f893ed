// Package ops defines the editing operations: crop, resize, text and shape
// overlays, ten filters and five tonal adjustments.
//
// An Operation is a tagged union. Kind selects which payload is set, and
// Validate, Check, Project and Apply switch over it. Operations are values:
// the New* constructors fill in defaults, clamp ranged inputs and reject
// invalid parameters with an error matching ErrInvalidParams, after which
// the parameters never change.
//
// # Filters
//
// Every filter computes a fully transformed buffer and blends it with the
// original by Intensity in [0,1], leaving alpha untouched. Grayscale, sepia,
// invert, posterize, vignette and vintage are evaluated per pixel. Blur,
// sharpen, edge detection and pixelate are handed to a pixel.Runner so they
// can run on a worker pool; the output is identical either way.
//
// # Adjustments
//
// Adjustment values are clamped to [-100,100] at construction:
//
//	brightness   c + v*2.55
//	contrast     f*(c-128)+128, f = 259(v+255) / 255(259-v)
//	saturation   l + f*(c-l),   f = (v+100)/100, l = luma
//	exposure     c * 2^(v/100)
//	temperature  R + 0.4v, B - 0.4v
package ops
