package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrSurface reports that a working surface could not be allocated.
var ErrSurface = errors.New("surface unavailable")

// MaxDimension is the largest width or height a surface may have.
const MaxDimension = 16384

// Surface is a mutable RGBA8 pixel grid owned by a single render call.
//
// The backing image always has its origin at (0,0) and a stride of exactly
// 4*width, so Pix can be handed to the pixel kernels as is.
type Surface struct {
	img *image.NRGBA
}

// New allocates a transparent surface of the given size.
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: cannot allocate %dx%d", ErrSurface, width, height)
	}
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

// FromImage allocates a surface holding a copy of img.
func FromImage(img image.Image) (*Surface, error) {
	b := img.Bounds()
	s, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(s.img, s.img.Bounds(), img, b.Min, draw.Src)
	return s, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Bounds returns the surface rectangle, always anchored at (0,0).
func (s *Surface) Bounds() image.Rectangle { return s.img.Rect }

// Pix returns the live pixel buffer. Writes are visible on the surface.
func (s *Surface) Pix() []uint8 { return s.img.Pix }

// Image returns the backing image. It is live, not a copy.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Replace swaps in a new backing image, resizing the surface. The image is
// normalised to a (0,0) origin and tight stride.
func (s *Surface) Replace(img *image.NRGBA) {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		s.img = img
		return
	}
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	s.img = n
}

// Clone returns an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	n := image.NewNRGBA(s.img.Rect)
	copy(n.Pix, s.img.Pix)
	return &Surface{img: n}
}

// At returns the non-premultiplied color at (x, y).
func (s *Surface) At(x, y int) (r, g, b, a uint8) {
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	return p[0], p[1], p[2], p[3]
}
