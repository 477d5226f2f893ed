package ops

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// Resize qualities.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// CropParams selects the sub-rectangle kept by a crop.
type CropParams struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewCrop returns a crop of the rectangle at (x, y) sized width x height.
// Bounds against an image are checked by the caller before enqueueing.
func NewCrop(x, y, width, height int) (Operation, error) {
	p := &CropParams{X: x, Y: y, Width: width, Height: height}
	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: (%d,%d) %dx%d", ErrInvalidCrop, x, y, width, height)
	}
	op := newOperation(KindCrop)
	op.Crop = p
	return op, nil
}

func (p *CropParams) validate() bool {
	return p.X >= 0 && p.Y >= 0 && p.Width > 0 && p.Height > 0
}

func (p *CropParams) within(width, height int) error {
	if p.X+p.Width > width || p.Y+p.Height > height {
		return fmt.Errorf("%w: area (%d,%d) %dx%d exceeds image bounds %dx%d",
			ErrInvalidCrop, p.X, p.Y, p.Width, p.Height, width, height)
	}
	return nil
}

func (p *CropParams) apply(s *raster.Surface) error {
	if err := p.within(s.Width(), s.Height()); err != nil {
		return err
	}
	rect := image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
	s.Replace(imaging.Crop(s.Image(), rect))
	return nil
}

// ResizeOptions are the optional resize settings. A nil MaintainAspectRatio
// means false.
type ResizeOptions struct {
	Quality             string
	MaintainAspectRatio *bool
}

// ResizeParams are the normalized resize settings.
type ResizeParams struct {
	Width               int    `json:"width"`
	Height              int    `json:"height"`
	Quality             string `json:"quality"`
	MaintainAspectRatio bool   `json:"maintainAspectRatio"`
}

// NewResize returns a resize to exactly width x height.
//
// By default the whole image is stretched to the target. With
// MaintainAspectRatio it is scaled to fit inside the target and centred on
// transparent padding. No source pixels are dropped either way.
func NewResize(width, height int, opts ResizeOptions) (Operation, error) {
	p := &ResizeParams{
		Width:   width,
		Height:  height,
		Quality: opts.Quality,
	}
	if p.Quality == "" {
		p.Quality = QualityHigh
	}
	if opts.MaintainAspectRatio != nil {
		p.MaintainAspectRatio = *opts.MaintainAspectRatio
	}

	if width > raster.MaxDimension || height > raster.MaxDimension {
		return Operation{}, fmt.Errorf("%w: %dx%d exceeds maximum size %dx%d",
			ErrInvalidDimensions, width, height, raster.MaxDimension, raster.MaxDimension)
	}
	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: %dx%d quality %q", ErrInvalidDimensions, width, height, p.Quality)
	}

	op := newOperation(KindResize)
	op.Resize = p
	return op, nil
}

func (p *ResizeParams) validate() bool {
	if p.Width <= 0 || p.Height <= 0 {
		return false
	}
	switch p.Quality {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	default:
		return false
	}
}

func (p *ResizeParams) filter() imaging.ResampleFilter {
	switch p.Quality {
	case QualityLow:
		return imaging.NearestNeighbor
	case QualityMedium:
		return imaging.Linear
	default:
		return imaging.Lanczos
	}
}

func (p *ResizeParams) apply(s *raster.Surface) error {
	if p.Width > raster.MaxDimension || p.Height > raster.MaxDimension {
		return fmt.Errorf("%w: cannot resize to %dx%d", raster.ErrSurface, p.Width, p.Height)
	}
	if s.Width() == p.Width && s.Height() == p.Height {
		return nil
	}
	if !p.MaintainAspectRatio {
		s.Replace(imaging.Resize(s.Image(), p.Width, p.Height, p.filter()))
		return nil
	}

	w, h := p.fit(s.Width(), s.Height())
	scaled := imaging.Resize(s.Image(), w, h, p.filter())
	s.Replace(imaging.PasteCenter(imaging.New(p.Width, p.Height, color.NRGBA{}), scaled))
	return nil
}

// fit returns the largest size with the source aspect ratio that fits in
// the target box.
func (p *ResizeParams) fit(width, height int) (int, int) {
	scale := math.Min(float64(p.Width)/float64(width), float64(p.Height)/float64(height))
	w := pixel.ClampInt(int(math.Round(float64(width)*scale)), 1, p.Width)
	h := pixel.ClampInt(int(math.Round(float64(height)*scale)), 1, p.Height)
	return w, h
}
