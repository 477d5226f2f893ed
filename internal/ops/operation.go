package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// Parameter errors. Dimension and crop errors also match ErrInvalidParams.
var (
	ErrInvalidParams     = errors.New("invalid operation parameters")
	ErrInvalidDimensions = fmt.Errorf("%w: invalid dimensions", ErrInvalidParams)
	ErrInvalidCrop       = fmt.Errorf("%w: invalid crop", ErrInvalidParams)
)

// Kind discriminates the operation variants.
type Kind string

const (
	KindCrop       Kind = "crop"
	KindResize     Kind = "resize"
	KindText       Kind = "text"
	KindShape      Kind = "shape"
	KindFilter     Kind = "filter"
	KindAdjustment Kind = "adjustment"
)

// Operation is one immutable editing step. Exactly one payload field,
// selected by Kind, is set. Operations are built by the New* constructors,
// which apply defaults and reject invalid parameters.
type Operation struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`

	Crop   *CropParams       `json:"crop,omitempty"`
	Resize *ResizeParams     `json:"resize,omitempty"`
	Text   *TextParams       `json:"text,omitempty"`
	Shape  *ShapeParams      `json:"shape,omitempty"`
	Filter *FilterParams     `json:"filter,omitempty"`
	Adjust *AdjustmentParams `json:"adjustment,omitempty"`
}

func newOperation(kind Kind) Operation {
	return Operation{ID: ulid.Make().String(), Kind: kind}
}

// Clone returns a deep copy of o. Payloads are pointers, so anything that
// stores or hands out operations keeps its own copy.
func (o Operation) Clone() Operation {
	out := Operation{ID: o.ID, Kind: o.Kind}
	if o.Crop != nil {
		c := *o.Crop
		out.Crop = &c
	}
	if o.Resize != nil {
		r := *o.Resize
		out.Resize = &r
	}
	if o.Text != nil {
		t := *o.Text
		t.Stroke = t.Stroke.clone()
		if t.Shadow != nil {
			sh := *t.Shadow
			t.Shadow = &sh
		}
		if t.stroke != nil {
			st := *t.stroke
			t.stroke = &st
		}
		if t.shadow != nil {
			sh := *t.shadow
			t.shadow = &sh
		}
		out.Text = &t
	}
	if o.Shape != nil {
		sp := *o.Shape
		sp.Stroke = sp.Stroke.clone()
		if sp.fill != nil {
			f := *sp.fill
			sp.fill = &f
		}
		if sp.stroke != nil {
			st := *sp.stroke
			sp.stroke = &st
		}
		out.Shape = &sp
	}
	if o.Filter != nil {
		f := *o.Filter
		out.Filter = &f
	}
	if o.Adjust != nil {
		a := *o.Adjust
		out.Adjust = &a
	}
	return out
}

// Name returns a short label such as "crop" or "filter:blur".
func (o Operation) Name() string {
	switch o.Kind {
	case KindFilter:
		if o.Filter != nil {
			return "filter:" + string(o.Filter.Type)
		}
	case KindAdjustment:
		if o.Adjust != nil {
			return "adjustment:" + string(o.Adjust.Type)
		}
	case KindShape:
		if o.Shape != nil {
			return "shape:" + string(o.Shape.Type)
		}
	}
	return string(o.Kind)
}

// Validate reports whether the parameters are sane. It does not look at any
// surface.
func (o Operation) Validate() bool {
	switch o.Kind {
	case KindCrop:
		return o.Crop != nil && o.Crop.validate()
	case KindResize:
		return o.Resize != nil && o.Resize.validate()
	case KindText:
		return o.Text != nil && o.Text.validate()
	case KindShape:
		return o.Shape != nil && o.Shape.validate()
	case KindFilter:
		return o.Filter != nil && o.Filter.validate()
	case KindAdjustment:
		return o.Adjust != nil && o.Adjust.validate()
	default:
		return false
	}
}

// Check verifies the preconditions that depend on the surface the operation
// is about to be applied to.
func (o Operation) Check(width, height int) error {
	if !o.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalidParams, o.Name())
	}
	if o.Kind == KindCrop {
		return o.Crop.within(width, height)
	}
	return nil
}

// Project returns the surface size after applying the operation to a
// surface of the given size.
func (o Operation) Project(width, height int) (int, int) {
	switch o.Kind {
	case KindCrop:
		return o.Crop.Width, o.Crop.Height
	case KindResize:
		return o.Resize.Width, o.Resize.Height
	default:
		return width, height
	}
}

// Apply mutates s in place. Kernel filters are executed through r; a nil
// Runner runs them inline.
func (o Operation) Apply(ctx context.Context, s *raster.Surface, r pixel.Runner) error {
	if r == nil {
		r = pixel.Inline{}
	}
	switch o.Kind {
	case KindCrop:
		return o.Crop.apply(s)
	case KindResize:
		return o.Resize.apply(s)
	case KindText:
		return o.Text.apply(s)
	case KindShape:
		o.Shape.apply(s)
		return nil
	case KindFilter:
		return o.Filter.apply(ctx, s, r)
	case KindAdjustment:
		o.Adjust.apply(s)
		return nil
	default:
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidParams, o.Kind)
	}
}
