package ops

import (
	"context"
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// FilterType names one of the built-in filters.
type FilterType string

const (
	FilterGrayscale     FilterType = "grayscale"
	FilterSepia         FilterType = "sepia"
	FilterInvert        FilterType = "invert"
	FilterPosterize     FilterType = "posterize"
	FilterVintage       FilterType = "vintage"
	FilterVignette      FilterType = "vignette"
	FilterPixelate      FilterType = "pixelate"
	FilterBlur          FilterType = "blur"
	FilterSharpen       FilterType = "sharpen"
	FilterEdgeDetection FilterType = "edgeDetection"
)

// FilterTypes lists every filter in a stable order.
var FilterTypes = []FilterType{
	FilterGrayscale, FilterSepia, FilterInvert, FilterPosterize, FilterVintage,
	FilterVignette, FilterPixelate, FilterBlur, FilterSharpen, FilterEdgeDetection,
}

// Filter parameter defaults and limits.
const (
	DefaultIntensity = 1.0
	DefaultLevels    = 4
	MinLevels        = 2
	MaxLevels        = 16
	DefaultBlockSize = 10
	DefaultStrength  = 0.5
	DefaultRadius    = 1
	MaxRadius        = 10

	vintageVignette = 0.5
)

// FilterOptions are the optional filter settings. Nil fields take their
// defaults; out-of-range values are clamped. Only the fields relevant to the
// filter type are kept.
type FilterOptions struct {
	Intensity *float64
	Levels    *int
	BlockSize *int
	Strength  *float64
	Radius    *int
}

// FilterParams are the normalized filter settings.
type FilterParams struct {
	Type      FilterType `json:"filterType"`
	Intensity float64    `json:"intensity"`
	Levels    int        `json:"levels,omitempty"`
	BlockSize int        `json:"blockSize,omitempty"`
	Strength  float64    `json:"strength,omitempty"`
	Radius    int        `json:"radius,omitempty"`
}

// NewFilter returns a filter of type t blended by the (clamped) intensity.
func NewFilter(t FilterType, opts FilterOptions) (Operation, error) {
	p := &FilterParams{Type: t, Intensity: DefaultIntensity}
	if opts.Intensity != nil {
		if math.IsNaN(*opts.Intensity) {
			return Operation{}, fmt.Errorf("%w: intensity is NaN", ErrInvalidParams)
		}
		p.Intensity = pixel.ClampFloat(*opts.Intensity, 0, 1)
	}

	switch t {
	case FilterPosterize:
		p.Levels = DefaultLevels
		if opts.Levels != nil {
			p.Levels = pixel.ClampInt(*opts.Levels, MinLevels, MaxLevels)
		}
	case FilterPixelate:
		p.BlockSize = DefaultBlockSize
		if opts.BlockSize != nil {
			p.BlockSize = max(*opts.BlockSize, 1)
		}
	case FilterVignette:
		p.Strength = DefaultStrength
		if opts.Strength != nil {
			if math.IsNaN(*opts.Strength) {
				return Operation{}, fmt.Errorf("%w: strength is NaN", ErrInvalidParams)
			}
			p.Strength = pixel.ClampFloat(*opts.Strength, 0, 1)
		}
	case FilterBlur:
		p.Radius = DefaultRadius
		if opts.Radius != nil {
			p.Radius = pixel.ClampInt(*opts.Radius, 1, MaxRadius)
		}
	}

	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: unknown filter %q", ErrInvalidParams, t)
	}
	op := newOperation(KindFilter)
	op.Filter = p
	return op, nil
}

func (p *FilterParams) validate() bool {
	if p.Intensity < 0 || p.Intensity > 1 {
		return false
	}
	switch p.Type {
	case FilterGrayscale, FilterSepia, FilterInvert, FilterVintage, FilterSharpen, FilterEdgeDetection:
		return true
	case FilterPosterize:
		return p.Levels >= MinLevels && p.Levels <= MaxLevels
	case FilterPixelate:
		return p.BlockSize >= 1
	case FilterVignette:
		return p.Strength >= 0 && p.Strength <= 1
	case FilterBlur:
		return p.Radius >= 1 && p.Radius <= MaxRadius
	default:
		return false
	}
}

func (p *FilterParams) apply(ctx context.Context, s *raster.Surface, r pixel.Runner) error {
	if p.Intensity == 0 {
		return nil
	}

	task := pixel.Task{Pix: s.Pix(), Width: s.Width(), Height: s.Height()}
	switch p.Type {
	case FilterBlur:
		task.Kind = pixel.KindBlur
		task.Passes = p.Radius
	case FilterSharpen:
		task.Kind = pixel.KindSharpen
	case FilterEdgeDetection:
		task.Kind = pixel.KindEdgeDetection
	case FilterPixelate:
		task.Kind = pixel.KindPixelate
		task.BlockSize = p.BlockSize
	default:
		p.applyPoint(s)
		return nil
	}

	out, err := r.Run(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to run %s filter: %w", p.Type, err)
	}
	pixel.BlendInto(s.Pix(), out, p.Intensity)
	return nil
}

// pointFunc maps one pixel at (x, y) to its fully filtered RGB values.
type pointFunc func(x, y int, r, g, b float64) (float64, float64, float64)

// applyPoint runs a per-pixel filter and blends the unrounded result with
// the original by intensity, rounding once on store.
func (p *FilterParams) applyPoint(s *raster.Surface) {
	w, h := s.Width(), s.Height()
	f := p.pointFunc(w, h)
	pix := s.Pix()
	t := p.Intensity

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
				nr, ng, nb := f(x, y, r, g, b)
				pix[i] = pixel.Mix(r, nr, t)
				pix[i+1] = pixel.Mix(g, ng, t)
				pix[i+2] = pixel.Mix(b, nb, t)
			}
		}
	})
}

func (p *FilterParams) pointFunc(w, h int) pointFunc {
	switch p.Type {
	case FilterGrayscale:
		return func(_, _ int, r, g, b float64) (float64, float64, float64) {
			l := pixel.Luma(r, g, b)
			return l, l, l
		}
	case FilterSepia:
		return func(_, _ int, r, g, b float64) (float64, float64, float64) {
			return 0.393*r + 0.769*g + 0.189*b,
				0.349*r + 0.686*g + 0.168*b,
				0.272*r + 0.534*g + 0.131*b
		}
	case FilterInvert:
		return func(_, _ int, r, g, b float64) (float64, float64, float64) {
			return 255 - r, 255 - g, 255 - b
		}
	case FilterPosterize:
		step := 255 / float64(p.Levels-1)
		q := func(v float64) float64 { return pixel.RoundHalfUp(v/step) * step }
		return func(_, _ int, r, g, b float64) (float64, float64, float64) {
			return q(r), q(g), q(b)
		}
	case FilterVignette:
		falloff := radialFalloff(w, h, p.Strength)
		return func(x, y int, r, g, b float64) (float64, float64, float64) {
			f := falloff(x, y)
			return r * f, g * f, b * f
		}
	case FilterVintage:
		falloff := radialFalloff(w, h, vintageVignette)
		return func(x, y int, r, g, b float64) (float64, float64, float64) {
			nr, ng, nb := r*0.9+30, g*0.85+10, b*0.7
			gray := (nr + ng + nb) / 3
			nr, ng, nb = nr*0.8+gray*0.2, ng*0.8+gray*0.2, nb*0.8+gray*0.2
			f := falloff(x, y)
			return nr * f, ng * f, nb * f
		}
	default:
		return func(_, _ int, r, g, b float64) (float64, float64, float64) { return r, g, b }
	}
}

// radialFalloff returns 1 - (d/maxd)*strength clamped to [0,1], where d is
// the distance of (x, y) from the image centre and maxd the centre-to-corner
// distance.
func radialFalloff(w, h int, strength float64) func(x, y int) float64 {
	cx, cy := float64(w)/2, float64(h)/2
	maxd := math.Hypot(cx, cy)
	return func(x, y int) float64 {
		if maxd == 0 {
			return 1
		}
		d := math.Hypot(float64(x)-cx, float64(y)-cy)
		return pixel.ClampFloat(1-(d/maxd)*strength, 0, 1)
	}
}
