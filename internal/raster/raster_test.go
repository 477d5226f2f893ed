package raster

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
)

// createSurface returns a surface filled with c.
func createSurface(t *testing.T, width, height int, c color.NRGBA) *Surface {
	t.Helper()
	s, err := New(width, height)
	if err != nil {
		t.Fatalf("New(%d,%d) failed: %v", width, height, err)
	}
	pix := s.Pix()
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return s
}

func pixelAt(s *Surface, x, y int) color.NRGBA {
	r, g, b, a := s.At(x, y)
	return color.NRGBA{r, g, b, a}
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

func TestNew_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"negative height", 10, -1},
		{"too large", MaxDimension + 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h)
			if !errors.Is(err, ErrSurface) {
				t.Errorf("New(%d,%d): got %v, want ErrSurface", tt.w, tt.h, err)
			}
		})
	}
}

func TestFromImage_Normalizes(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 13, 22))
	src.Set(10, 20, red)

	s, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if s.Width() != 3 || s.Height() != 2 {
		t.Fatalf("dimensions: got %dx%d, want 3x2", s.Width(), s.Height())
	}
	if got := pixelAt(s, 0, 0); got != red {
		t.Errorf("origin pixel: got %v, want %v", got, red)
	}
	if len(s.Pix()) != 3*2*4 {
		t.Errorf("pix length: got %d, want %d", len(s.Pix()), 24)
	}
}

func TestReplace_OffsetImage(t *testing.T) {
	s := createSurface(t, 4, 4, white)
	big := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	sub := big.SubImage(image.Rect(2, 2, 4, 5)).(*image.NRGBA)
	sub.Set(2, 2, blue)

	s.Replace(sub)

	if s.Width() != 2 || s.Height() != 3 {
		t.Fatalf("dimensions: got %dx%d, want 2x3", s.Width(), s.Height())
	}
	if s.Bounds().Min != (image.Point{}) {
		t.Errorf("bounds not normalised: %v", s.Bounds())
	}
	if got := pixelAt(s, 0, 0); got != blue {
		t.Errorf("pixel: got %v, want %v", got, blue)
	}
}

func TestClone_Independent(t *testing.T) {
	s := createSurface(t, 2, 2, white)
	c := s.Clone()
	c.Pix()[0] = 0

	if s.Pix()[0] != 255 {
		t.Error("writing to the clone changed the original")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"#00ff00", color.NRGBA{0, 255, 0, 255}, false},
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#FF000080", color.NRGBA{255, 0, 0, 128}, false},
		{"0000FF", color.NRGBA{0, 0, 255, 255}, false},
		{"Black", color.NRGBA{0, 0, 0, 255}, false},
		{"transparent", color.NRGBA{}, false},
		{"", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
		{"rgba(1,2,3,4)", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.NRGBA{255, 16, 1, 7}); got != "#FF1001" {
		t.Errorf("Hex: got %s, want #FF1001", got)
	}
}

func TestDrawRectangle_Fill(t *testing.T) {
	s := createSurface(t, 20, 20, white)
	DrawRectangle(s, Box{X: 5, Y: 5, Width: 10, Height: 4}, &red, nil)

	if got := pixelAt(s, 7, 6); got != red {
		t.Errorf("inside: got %v, want red", got)
	}
	if got := pixelAt(s, 2, 2); got != white {
		t.Errorf("outside: got %v, want white", got)
	}
	if got := pixelAt(s, 7, 10); got != white {
		t.Errorf("below: got %v, want white", got)
	}
}

func TestDrawRectangle_Rotated(t *testing.T) {
	s := createSurface(t, 40, 40, white)
	// 20x4 bar centred at (20,20), rotated to vertical.
	DrawRectangle(s, Box{X: 10, Y: 18, Width: 20, Height: 4, Rotation: 90}, &red, nil)

	if got := pixelAt(s, 20, 12); got != red {
		t.Errorf("rotated bar should cover (20,12): got %v", got)
	}
	if got := pixelAt(s, 12, 20); got != white {
		t.Errorf("rotated bar should not cover (12,20): got %v", got)
	}
}

func TestDrawRectangle_StrokeLeavesHole(t *testing.T) {
	s := createSurface(t, 30, 30, white)
	DrawRectangle(s, Box{X: 5, Y: 5, Width: 20, Height: 20}, nil, &Stroke{Color: blue, Width: 2})

	if got := pixelAt(s, 5, 15); got != blue {
		t.Errorf("edge: got %v, want blue", got)
	}
	if got := pixelAt(s, 15, 15); got != white {
		t.Errorf("interior: got %v, want white", got)
	}
}

func TestDrawEllipse(t *testing.T) {
	s := createSurface(t, 40, 40, white)
	DrawEllipse(s, Box{X: 0, Y: 0, Width: 40, Height: 40}, &blue, nil)

	if got := pixelAt(s, 20, 20); got != blue {
		t.Errorf("center: got %v, want blue", got)
	}
	if got := pixelAt(s, 0, 0); got != white {
		t.Errorf("corner: got %v, want white", got)
	}
}

func TestDrawText_MarksSurface(t *testing.T) {
	s := createSurface(t, 120, 40, white)
	err := DrawText(s, Text{
		Text:     "Hello",
		X:        5,
		Y:        30,
		Size:     24,
		Color:    color.NRGBA{0, 0, 0, 255},
		Align:    AlignLeft,
		Baseline: BaselineAlphabetic,
	})
	if err != nil {
		t.Fatalf("DrawText failed: %v", err)
	}

	if countNonWhite(s) == 0 {
		t.Error("DrawText did not change any pixel")
	}
}

func TestDrawText_StrokeAndShadowAddCoverage(t *testing.T) {
	plain := createSurface(t, 160, 60, white)
	styled := createSurface(t, 160, 60, white)
	base := Text{Text: "Go", X: 20, Y: 40, Size: 32, Color: color.NRGBA{0, 0, 0, 255}}

	if err := DrawText(plain, base); err != nil {
		t.Fatalf("DrawText failed: %v", err)
	}
	base.Stroke = &Stroke{Color: red, Width: 4}
	base.Shadow = &Shadow{Color: color.NRGBA{0, 0, 0, 128}, Blur: 2, OffsetX: 3, OffsetY: 3}
	if err := DrawText(styled, base); err != nil {
		t.Fatalf("DrawText styled failed: %v", err)
	}

	if countNonWhite(styled) <= countNonWhite(plain) {
		t.Errorf("stroke and shadow should cover more pixels: plain %d, styled %d",
			countNonWhite(plain), countNonWhite(styled))
	}
}

func TestDrawText_RejectsOversize(t *testing.T) {
	ink := color.NRGBA{0, 0, 0, 255}
	tests := []struct {
		name string
		text Text
	}{
		{"huge font size", Text{Text: "hello", X: 1, Y: 1, Size: 1e12, Color: ink}},
		{"NaN font size", Text{Text: "hello", X: 1, Y: 1, Size: math.NaN(), Color: ink}},
		{"wide stroke", Text{Text: "hello", X: 1, Y: 1, Size: 12, Color: ink, Stroke: &Stroke{Color: red, Width: 1e6}}},
		{"wide shadow blur", Text{Text: "hello", X: 1, Y: 1, Size: 12, Color: ink, Shadow: &Shadow{Color: ink, Blur: 1e9}}},
		{"mask wider than a surface", Text{Text: strings.Repeat("W", 40), X: 1, Y: 1, Size: MaxFontSize, Color: ink}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createSurface(t, 20, 20, white)
			if err := DrawText(s, tt.text); !errors.Is(err, ErrSurface) {
				t.Fatalf("got %v, want ErrSurface", err)
			}
			if n := countNonWhite(s); n != 0 {
				t.Errorf("surface modified: %d pixels changed", n)
			}
		})
	}
}

func TestMeasureText(t *testing.T) {
	short, err := MeasureText("a", "sans-serif", false, false, 20)
	if err != nil {
		t.Fatalf("MeasureText failed: %v", err)
	}
	long, err := MeasureText("aaaa", "sans-serif", false, false, 20)
	if err != nil {
		t.Fatalf("MeasureText failed: %v", err)
	}
	if long <= short {
		t.Errorf("longer text should measure wider: %v <= %v", long, short)
	}

	mono1, _ := MeasureText("i", "monospace", false, false, 20)
	mono2, _ := MeasureText("W", "monospace", false, false, 20)
	if mono1 != mono2 {
		t.Errorf("monospace advances differ: %v vs %v", mono1, mono2)
	}
}

func countNonWhite(s *Surface) int {
	n := 0
	pix := s.Pix()
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != 255 || pix[i+1] != 255 || pix[i+2] != 255 {
			n++
		}
	}
	return n
}
