package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// ErrOutOfBounds is returned when a sample point lies outside the rendered
// image.
var ErrOutOfBounds = errors.New("coordinates outside image bounds")

// RGBA is an 8-bit color.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSL is a color in degrees (H, 0-360) and percent (S, L, 0-100).
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// Color is one pixel value in several notations. Hex omits alpha.
type Color struct {
	Hex  string `json:"hex"`
	RGBA RGBA   `json:"rgba"`
	HSL  HSL    `json:"hsl"`
}

func newColor(c color.NRGBA) Color {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()
	return Color{
		Hex:  raster.Hex(c),
		RGBA: RGBA{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:  HSL{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}

// Point is a sample location with an optional label.
type Point struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// Sample is the color found at a Point.
type Sample struct {
	Point
	Color Color `json:"color"`
}

// SampleColor renders the image and returns the color at (x, y).
func (e *Editor) SampleColor(ctx context.Context, x, y int) (*Color, error) {
	samples, err := e.SampleColors(ctx, []Point{{X: x, Y: y}})
	if err != nil {
		return nil, err
	}
	return &samples[0].Color, nil
}

// SampleColors renders the image once and returns the colors at points, in
// order. Any point outside the image fails the whole call.
func (e *Editor) SampleColors(ctx context.Context, points []Point) ([]Sample, error) {
	s, err := e.Render(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Sample, 0, len(points))
	for _, p := range points {
		if !image.Pt(p.X, p.Y).In(s.Bounds()) {
			return nil, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, p.X, p.Y, s.Width(), s.Height())
		}
		r, g, b, a := s.At(p.X, p.Y)
		out = append(out, Sample{Point: p, Color: newColor(color.NRGBA{R: r, G: g, B: b, A: a})})
	}
	return out, nil
}

// Swatch is a quantized color and the share of pixels it covers.
type Swatch struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
	RGBA       RGBA    `json:"rgba"`
}

// DominantColors renders the image and returns up to count of its most
// common colors, most frequent first. Channels are quantized to multiples of
// 16 so near-identical shades group together; alpha is ignored.
func (e *Editor) DominantColors(ctx context.Context, count int) ([]Swatch, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	s, err := e.Render(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[color.NRGBA]int)
	pix := s.Pix()
	for i := 0; i < len(pix); i += 4 {
		counts[color.NRGBA{R: pix[i] &^ 15, G: pix[i+1] &^ 15, B: pix[i+2] &^ 15, A: 255}]++
	}

	total := float64(len(pix) / 4)
	swatches := make([]Swatch, 0, len(counts))
	for c, n := range counts {
		swatches = append(swatches, Swatch{
			Hex:        raster.Hex(c),
			Percentage: float64(n) / total * 100,
			RGBA:       RGBA{R: c.R, G: c.G, B: c.B, A: c.A},
		})
	}
	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].Percentage != swatches[j].Percentage {
			return swatches[i].Percentage > swatches[j].Percentage
		}
		return swatches[i].Hex < swatches[j].Hex
	})

	if len(swatches) > count {
		swatches = swatches[:count]
	}
	return swatches, nil
}
