// Package source holds the original image an editing session starts from.
package source

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// ErrEmpty is returned when constructing a State from an image with no
// pixels.
var ErrEmpty = errors.New("source image is empty")

// Metadata describes the original image.
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// State is the immutable original image. Its pixel buffer is shared between
// clones and must never be written.
type State struct {
	img  *image.NRGBA
	meta Metadata
}

// New decodes img into a private RGBA8 buffer. format is the name of the
// encoding the image was decoded from, or "" when unknown.
func New(img image.Image, format string) (*State, error) {
	if img == nil {
		return nil, ErrEmpty
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, b.Dx(), b.Dy())
	}

	nrgba := imaging.Clone(img)
	return &State{
		img: nrgba,
		meta: Metadata{
			CreatedAt: time.Now(),
			Format:    format,
			Width:     nrgba.Rect.Dx(),
			Height:    nrgba.Rect.Dy(),
		},
	}, nil
}

// Width returns the image width in pixels.
func (s *State) Width() int { return s.meta.Width }

// Height returns the image height in pixels.
func (s *State) Height() int { return s.meta.Height }

// Metadata returns the creation time, format and size.
func (s *State) Metadata() Metadata { return s.meta }

// Image returns the original image. Callers must treat it as read-only.
func (s *State) Image() *image.NRGBA { return s.img }

// Pixels returns a copy of the original RGBA8 buffer.
func (s *State) Pixels() []uint8 {
	out := make([]uint8, len(s.img.Pix))
	copy(out, s.img.Pix)
	return out
}

// CopyTo writes the original pixels into dst, which must be exactly
// 4*Width*Height bytes.
func (s *State) CopyTo(dst []uint8) error {
	if len(dst) != len(s.img.Pix) {
		return fmt.Errorf("destination of %d bytes does not match %dx%d source", len(dst), s.meta.Width, s.meta.Height)
	}
	copy(dst, s.img.Pix)
	return nil
}

// Clone returns a State sharing the same original pixels.
func (s *State) Clone() *State {
	c := *s
	return &c
}
