package ops

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// AdjustmentType names a tonal adjustment.
type AdjustmentType string

const (
	AdjustBrightness  AdjustmentType = "brightness"
	AdjustContrast    AdjustmentType = "contrast"
	AdjustSaturation  AdjustmentType = "saturation"
	AdjustExposure    AdjustmentType = "exposure"
	AdjustTemperature AdjustmentType = "temperature"
)

// AdjustmentTypes lists every adjustment in a stable order.
var AdjustmentTypes = []AdjustmentType{
	AdjustBrightness, AdjustContrast, AdjustSaturation, AdjustExposure, AdjustTemperature,
}

// Adjustment value range.
const (
	MinAdjustment = -100
	MaxAdjustment = 100
)

// AdjustmentParams hold a clamped adjustment value.
type AdjustmentParams struct {
	Type  AdjustmentType `json:"adjustmentType"`
	Value float64        `json:"value"`
}

// NewAdjustment returns an adjustment of type t. The value is clamped to
// [-100, 100].
func NewAdjustment(t AdjustmentType, value float64) (Operation, error) {
	if math.IsNaN(value) {
		return Operation{}, fmt.Errorf("%w: %s value is NaN", ErrInvalidParams, t)
	}
	p := &AdjustmentParams{Type: t, Value: pixel.ClampFloat(value, MinAdjustment, MaxAdjustment)}
	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: unknown adjustment %q", ErrInvalidParams, t)
	}
	op := newOperation(KindAdjustment)
	op.Adjust = p
	return op, nil
}

func (p *AdjustmentParams) validate() bool {
	if p.Value < MinAdjustment || p.Value > MaxAdjustment {
		return false
	}
	switch p.Type {
	case AdjustBrightness, AdjustContrast, AdjustSaturation, AdjustExposure, AdjustTemperature:
		return true
	default:
		return false
	}
}

// transform returns the per-pixel function for the adjustment.
func (p *AdjustmentParams) transform() func(r, g, b float64) (float64, float64, float64) {
	v := p.Value
	switch p.Type {
	case AdjustBrightness:
		d := v * 2.55
		return func(r, g, b float64) (float64, float64, float64) {
			return r + d, g + d, b + d
		}
	case AdjustContrast:
		f := 259 * (v + 255) / (255 * (259 - v))
		return func(r, g, b float64) (float64, float64, float64) {
			return f*(r-128) + 128, f*(g-128) + 128, f*(b-128) + 128
		}
	case AdjustSaturation:
		f := (v + 100) / 100
		return func(r, g, b float64) (float64, float64, float64) {
			l := pixel.Luma(r, g, b)
			return l + f*(r-l), l + f*(g-l), l + f*(b-l)
		}
	case AdjustExposure:
		f := math.Pow(2, v/100)
		return func(r, g, b float64) (float64, float64, float64) {
			return r * f, g * f, b * f
		}
	case AdjustTemperature:
		d := v / 100 * 40
		return func(r, g, b float64) (float64, float64, float64) {
			return r + d, g, b - d
		}
	default:
		return func(r, g, b float64) (float64, float64, float64) { return r, g, b }
	}
}

func (p *AdjustmentParams) apply(s *raster.Surface) {
	f := p.transform()
	pix := s.Pix()
	stride := s.Width() * 4

	parallel.Line(s.Height(), func(start, end int) {
		for i := start * stride; i < end*stride; i += 4 {
			r, g, b := f(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
			pix[i] = pixel.Clamp(r)
			pix[i+1] = pixel.Clamp(g)
			pix[i+2] = pixel.Clamp(b)
		}
	})
}
