package ops

import (
	"fmt"
	"image/color"

	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// Text defaults.
const (
	DefaultFontSize   = 24
	DefaultFontFamily = "sans-serif"
	DefaultTextColor  = "#000000"
)

// ShapeType names a drawable shape.
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeEllipse   ShapeType = "ellipse"
)

// StrokeOptions describe an outline.
type StrokeOptions struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

func (o *StrokeOptions) clone() *StrokeOptions {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func (o *StrokeOptions) resolve() (*raster.Stroke, error) {
	if o == nil {
		return nil, nil
	}
	if !(o.Width >= 0 && o.Width <= raster.MaxStrokeWidth) {
		return nil, fmt.Errorf("%w: stroke width %v out of range [0, %d]", ErrInvalidParams, o.Width, raster.MaxStrokeWidth)
	}
	c, err := raster.ParseColor(o.Color)
	if err != nil {
		return nil, fmt.Errorf("%w: stroke %v", ErrInvalidParams, err)
	}
	return &raster.Stroke{Color: c, Width: o.Width}, nil
}

// ShadowOptions describe a drop shadow.
type ShadowOptions struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// TextParams describe a text overlay. Zero values of FontSize, FontFamily,
// Color, Align and Baseline are replaced by their defaults at construction.
type TextParams struct {
	Text       string         `json:"text"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	FontSize   float64        `json:"fontSize"`
	FontFamily string         `json:"fontFamily"`
	Color      string         `json:"color"`
	Align      string         `json:"align"`
	Baseline   string         `json:"baseline"`
	MaxWidth   float64        `json:"maxWidth"`
	Bold       bool           `json:"bold"`
	Italic     bool           `json:"italic"`
	Rotation   float64        `json:"rotation"`
	Stroke     *StrokeOptions `json:"stroke,omitempty"`
	Shadow     *ShadowOptions `json:"shadow,omitempty"`

	fill   color.NRGBA
	stroke *raster.Stroke
	shadow *raster.Shadow
}

// NewText returns an operation drawing p.Text anchored at (p.X, p.Y).
func NewText(p TextParams) (Operation, error) {
	if p.FontSize == 0 {
		p.FontSize = DefaultFontSize
	}
	if p.FontFamily == "" {
		p.FontFamily = DefaultFontFamily
	}
	if p.Color == "" {
		p.Color = DefaultTextColor
	}
	if p.Align == "" {
		p.Align = raster.AlignLeft
	}
	if p.Baseline == "" {
		p.Baseline = raster.BaselineAlphabetic
	}
	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: text %q at (%v,%v) size %v", ErrInvalidParams, p.Text, p.X, p.Y, p.FontSize)
	}

	var err error
	if p.fill, err = raster.ParseColor(p.Color); err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.stroke, err = p.Stroke.resolve(); err != nil {
		return Operation{}, err
	}
	if p.Shadow != nil {
		c, err := raster.ParseColor(p.Shadow.Color)
		if err != nil {
			return Operation{}, fmt.Errorf("%w: shadow %v", ErrInvalidParams, err)
		}
		if !(p.Shadow.Blur >= 0 && p.Shadow.Blur <= raster.MaxShadowBlur) {
			return Operation{}, fmt.Errorf("%w: shadow blur %v out of range [0, %d]", ErrInvalidParams, p.Shadow.Blur, raster.MaxShadowBlur)
		}
		p.shadow = &raster.Shadow{Color: c, Blur: p.Shadow.Blur, OffsetX: p.Shadow.OffsetX, OffsetY: p.Shadow.OffsetY}
	}

	op := newOperation(KindText)
	op.Text = &p
	return op, nil
}

func (p *TextParams) validate() bool {
	if p.Text == "" || !(p.FontSize > 0 && p.FontSize <= raster.MaxFontSize) || p.X < 0 || p.Y < 0 || p.MaxWidth < 0 {
		return false
	}
	switch p.Align {
	case raster.AlignLeft, raster.AlignCenter, raster.AlignRight:
	default:
		return false
	}
	switch p.Baseline {
	case raster.BaselineTop, raster.BaselineMiddle, raster.BaselineBottom, raster.BaselineAlphabetic:
		return true
	default:
		return false
	}
}

func (p *TextParams) apply(s *raster.Surface) error {
	err := raster.DrawText(s, raster.Text{
		Text:     p.Text,
		X:        p.X,
		Y:        p.Y,
		Size:     p.FontSize,
		Family:   p.FontFamily,
		Color:    p.fill,
		Align:    p.Align,
		Baseline: p.Baseline,
		MaxWidth: p.MaxWidth,
		Bold:     p.Bold,
		Italic:   p.Italic,
		Rotation: p.Rotation,
		Stroke:   p.stroke,
		Shadow:   p.shadow,
	})
	if err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}

// ShapeParams describe a rectangle or ellipse overlay. Fill and Stroke are
// optional; an empty Fill draws no fill.
type ShapeParams struct {
	Type     ShapeType      `json:"type"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Fill     string         `json:"fill,omitempty"`
	Stroke   *StrokeOptions `json:"stroke,omitempty"`
	Rotation float64        `json:"rotation"`

	fill   *color.NRGBA
	stroke *raster.Stroke
}

// NewShape returns an operation drawing the shape described by p, rotated
// about the centre of its bounding box.
func NewShape(p ShapeParams) (Operation, error) {
	if !p.validate() {
		return Operation{}, fmt.Errorf("%w: shape %q at (%v,%v) %vx%v", ErrInvalidParams, p.Type, p.X, p.Y, p.Width, p.Height)
	}
	if p.Fill != "" {
		c, err := raster.ParseColor(p.Fill)
		if err != nil {
			return Operation{}, fmt.Errorf("%w: fill %v", ErrInvalidParams, err)
		}
		p.fill = &c
	}
	var err error
	if p.stroke, err = p.Stroke.resolve(); err != nil {
		return Operation{}, err
	}

	op := newOperation(KindShape)
	op.Shape = &p
	return op, nil
}

func (p *ShapeParams) validate() bool {
	return p.Width > 0 && p.Height > 0 && p.X >= 0 && p.Y >= 0 &&
		(p.Type == ShapeRectangle || p.Type == ShapeEllipse)
}

func (p *ShapeParams) apply(s *raster.Surface) {
	box := raster.Box{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height, Rotation: p.Rotation}
	if p.Type == ShapeEllipse {
		raster.DrawEllipse(s, box, p.fill, p.stroke)
		return
	}
	raster.DrawRectangle(s, box, p.fill, p.stroke)
}
