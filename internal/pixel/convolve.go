package pixel

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Kernel3 is a row-major 3x3 convolution kernel.
type Kernel3 [9]float64

// BlurKernel is the Gaussian-like 3x3 blur, normalised by 16.
var BlurKernel = Kernel3{
	1.0 / 16, 2.0 / 16, 1.0 / 16,
	2.0 / 16, 4.0 / 16, 2.0 / 16,
	1.0 / 16, 2.0 / 16, 1.0 / 16,
}

// SharpenKernel is the 3x3 Laplacian sharpen.
var SharpenKernel = Kernel3{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Sobel operators for the X and Y gradients.
var (
	SobelX = Kernel3{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	SobelY = Kernel3{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

// Convolve3x3 convolves the RGB channels of pix with k and returns a new
// buffer. Out-of-range samples clamp to the nearest valid row or column;
// alpha is copied from the source.
//
// Rows are split across goroutines. Each output pixel depends only on the
// source, so the result does not depend on scheduling.
func Convolve3x3(pix []uint8, width, height int, k Kernel3) []uint8 {
	out := make([]uint8, len(pix))
	stride := width * 4

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var r, g, b float64
				for ky := 0; ky < 3; ky++ {
					py := ClampInt(y+ky-1, 0, height-1)
					for kx := 0; kx < 3; kx++ {
						px := ClampInt(x+kx-1, 0, width-1)
						i := py*stride + px*4
						w := k[ky*3+kx]
						r += float64(pix[i]) * w
						g += float64(pix[i+1]) * w
						b += float64(pix[i+2]) * w
					}
				}
				o := y*stride + x*4
				out[o] = Clamp(r)
				out[o+1] = Clamp(g)
				out[o+2] = Clamp(b)
				out[o+3] = pix[o+3]
			}
		}
	})

	return out
}

// SobelMagnitude converts pix to luma and returns the Euclidean magnitude
// sqrt(gx²+gy²) of the Sobel gradients, written to all three colour
// channels. The 1-pixel border copies the source pixel; alpha is preserved.
func SobelMagnitude(pix []uint8, width, height int) []uint8 {
	stride := width * 4
	gray := make([]uint8, width*height)
	for p := 0; p < width*height; p++ {
		i := p * 4
		gray[p] = Clamp(Luma(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])))
	}

	out := make([]uint8, len(pix))
	copy(out, pix)
	if width < 3 || height < 3 {
		return out
	}

	parallel.Line(height-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < width-1; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						v := float64(gray[(y+ky)*width+x+kx])
						ki := (ky+1)*3 + (kx + 1)
						gx += v * SobelX[ki]
						gy += v * SobelY[ki]
					}
				}
				m := Clamp(math.Sqrt(gx*gx + gy*gy))
				o := y*stride + x*4
				out[o], out[o+1], out[o+2] = m, m, m
			}
		}
	})

	return out
}

// Pixelate partitions the buffer into blockSize x blockSize blocks, clipped
// at the right and bottom edges, and fills each block with the mean of its
// pixels rounded to the nearest integer. Alpha is preserved.
func Pixelate(pix []uint8, width, height, blockSize int) []uint8 {
	if blockSize < 1 {
		blockSize = 1
	}
	stride := width * 4
	out := make([]uint8, len(pix))
	copy(out, pix)

	for by := 0; by < height; by += blockSize {
		yEnd := min(by+blockSize, height)
		for bx := 0; bx < width; bx += blockSize {
			xEnd := min(bx+blockSize, width)

			var r, g, b, n float64
			for y := by; y < yEnd; y++ {
				for x := bx; x < xEnd; x++ {
					i := y*stride + x*4
					r += float64(pix[i])
					g += float64(pix[i+1])
					b += float64(pix[i+2])
					n++
				}
			}
			mr := Clamp(RoundHalfUp(r / n))
			mg := Clamp(RoundHalfUp(g / n))
			mb := Clamp(RoundHalfUp(b / n))

			for y := by; y < yEnd; y++ {
				for x := bx; x < xEnd; x++ {
					i := y*stride + x*4
					out[i], out[i+1], out[i+2] = mr, mg, mb
				}
			}
		}
	}

	return out
}
