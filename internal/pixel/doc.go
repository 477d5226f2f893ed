// Package pixel provides the stateless numeric kernels used by the editing
// pipeline.
//
// All kernels work on tightly packed, non-premultiplied RGBA8 buffers: four
// bytes per pixel, rows of exactly 4*width bytes, origin at the top-left.
// This is the layout of *image.NRGBA when its bounds start at (0,0).
//
// # Rounding
//
// Every computed channel value is stored through Clamp, which clamps to
// [0,255] and rounds half to even. Kernels that need an intermediate
// "nearest integer" (pixelate block means, posterize levels) round half up
// before the final store.
//
// # Borders
//
// 3x3 convolutions sample out-of-range coordinates from the nearest valid
// row or column. The Sobel edge kernel leaves its 1-pixel border as a copy
// of the source.
//
// # Offloading
//
// Task and Runner describe the boundary used to move the expensive kernels
// (blur, sharpen, edge detection, pixelate) onto other goroutines. Execute is
// the single implementation every Runner must call, so a kernel produces the
// same bytes whether it runs inline or in a worker pool.
package pixel
