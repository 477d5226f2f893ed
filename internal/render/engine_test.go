package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/ops"
	"github.com/ironsheep/image-editor-mcp/internal/source"
)

func createPatternSource(t *testing.T, width, height int) *source.State {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), uint8(y * 40), uint8(x ^ y), 255})
		}
	}
	src, err := source.New(img, "png")
	if err != nil {
		t.Fatalf("source.New failed: %v", err)
	}
	return src
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// must unwraps an operation constructor; the arguments in these tests are
// always valid.
func must(op ops.Operation, err error) ops.Operation {
	if err != nil {
		panic(fmt.Sprintf("constructing operation: %v", err))
	}
	return op
}

func TestRender_NoOperationsCopiesSource(t *testing.T) {
	src := createPatternSource(t, 5, 4)
	s, err := New(nil, quietLogger()).Render(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.Equal(s.Pix(), src.Pixels()) {
		t.Error("render without operations should equal the source")
	}

	s.Pix()[0] = 1
	if src.Pixels()[0] == 1 {
		t.Error("writing to the rendered surface changed the source")
	}
}

func TestRender_Crop(t *testing.T) {
	src := createPatternSource(t, 6, 6)
	crop := must(ops.NewCrop(2, 1, 3, 4))

	s, err := New(nil, quietLogger()).Render(context.Background(), src, []ops.Operation{crop})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if s.Width() != 3 || s.Height() != 4 {
		t.Fatalf("dimensions: got %dx%d, want 3x4", s.Width(), s.Height())
	}

	orig := src.Image()
	for j := 0; j < 4; j++ {
		for i := 0; i < 3; i++ {
			r, g, b, a := s.At(i, j)
			want := orig.NRGBAAt(2+i, 1+j)
			if (color.NRGBA{r, g, b, a}) != want {
				t.Errorf("pixel (%d,%d): got %v, want %v", i, j, color.NRGBA{r, g, b, a}, want)
			}
		}
	}
}

func TestRender_OrderMatters(t *testing.T) {
	src := createPatternSource(t, 8, 8)
	resize := must(ops.NewResize(4, 4, ops.ResizeOptions{}))
	crop := must(ops.NewCrop(0, 0, 6, 6))

	e := New(nil, quietLogger())
	s, err := e.Render(context.Background(), src, []ops.Operation{crop, resize})
	if err != nil {
		t.Fatalf("crop then resize failed: %v", err)
	}
	if s.Width() != 4 || s.Height() != 4 {
		t.Errorf("dimensions: got %dx%d, want 4x4", s.Width(), s.Height())
	}

	// The same crop no longer fits once the surface is 4x4.
	_, err = e.Render(context.Background(), src, []ops.Operation{resize, crop})
	if !errors.Is(err, ops.ErrInvalidCrop) {
		t.Errorf("resize then crop: got %v, want ErrInvalidCrop", err)
	}
}

func TestRender_Idempotent(t *testing.T) {
	src := createPatternSource(t, 7, 5)
	list := []ops.Operation{
		must(ops.NewFilter(ops.FilterBlur, ops.FilterOptions{})),
		must(ops.NewAdjustment(ops.AdjustContrast, 30)),
		must(ops.NewShape(ops.ShapeParams{Type: ops.ShapeEllipse, X: 1, Y: 1, Width: 4, Height: 3, Fill: "#ff000080"})),
		must(ops.NewFilter(ops.FilterEdgeDetection, ops.FilterOptions{})),
	}

	e := New(nil, quietLogger())
	first, err := e.Render(context.Background(), src, list)
	if err != nil {
		t.Fatalf("first render failed: %v", err)
	}
	second, err := e.Render(context.Background(), src, list)
	if err != nil {
		t.Fatalf("second render failed: %v", err)
	}

	if !bytes.Equal(first.Pix(), second.Pix()) {
		t.Error("renders with the same inputs differ")
	}
}

func TestRender_Examples(t *testing.T) {
	red := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	src, err := source.New(red, "png")
	if err != nil {
		t.Fatalf("source.New failed: %v", err)
	}

	tests := []struct {
		name string
		op   ops.Operation
		want color.NRGBA
	}{
		{"brightness -100", must(ops.NewAdjustment(ops.AdjustBrightness, -100)), color.NRGBA{0, 0, 0, 255}},
		{"grayscale", must(ops.NewFilter(ops.FilterGrayscale, ops.FilterOptions{})), color.NRGBA{76, 76, 76, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(nil, quietLogger()).Render(context.Background(), src, []ops.Operation{tt.op})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					r, g, b, a := s.At(x, y)
					if got := (color.NRGBA{r, g, b, a}); got != tt.want {
						t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, tt.want)
					}
				}
			}
		})
	}
}

func TestRender_LogsOperations(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)

	src := createPatternSource(t, 3, 3)
	op := must(ops.NewFilter(ops.FilterInvert, ops.FilterOptions{}))
	if _, err := New(nil, l).Render(context.Background(), src, []ops.Operation{op}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("op=\"filter:invert\"")) {
		t.Errorf("expected operation name in debug log, got %q", buf.String())
	}
}
