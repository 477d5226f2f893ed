package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/blur"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Text alignment relative to the anchor X.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Text baselines relative to the anchor Y.
const (
	BaselineTop        = "top"
	BaselineMiddle     = "middle"
	BaselineBottom     = "bottom"
	BaselineAlphabetic = "alphabetic"
)

// Text limits. Larger values are rejected before any mask is allocated.
const (
	MaxFontSize    = 2048
	MaxStrokeWidth = 64
	MaxShadowBlur  = 100
)

// Shadow is a blurred, offset copy of drawn text.
type Shadow struct {
	Color   color.NRGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// Text describes a single line of text anchored at (X, Y).
type Text struct {
	Text     string
	X, Y     float64
	Size     float64
	Family   string
	Color    color.NRGBA
	Align    string
	Baseline string

	// MaxWidth condenses the line horizontally when it is wider. 0 disables.
	MaxWidth float64

	Bold, Italic bool

	// Rotation is in degrees about the anchor.
	Rotation float64

	Stroke *Stroke
	Shadow *Shadow
}

type faceKey struct {
	mono, bold, italic bool
	size               float64
}

var (
	fontsMu sync.Mutex
	fonts   = map[faceKey]*opentype.Font{}
	faces   = map[faceKey]font.Face{}
)

func fontData(mono, bold, italic bool) []byte {
	switch {
	case mono && bold && italic:
		return gomonobolditalic.TTF
	case mono && bold:
		return gomonobold.TTF
	case mono && italic:
		return gomonoitalic.TTF
	case mono:
		return gomono.TTF
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// isMonospace reports whether a CSS-style family list asks for a fixed-pitch
// face.
func isMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

// loadFace returns a cached face for the family, style and pixel size.
func loadFace(family string, bold, italic bool, size float64) (font.Face, error) {
	mono := isMonospace(family)
	key := faceKey{mono: mono, bold: bold, italic: italic, size: size}

	fontsMu.Lock()
	defer fontsMu.Unlock()

	if f, ok := faces[key]; ok {
		return f, nil
	}

	fk := faceKey{mono: mono, bold: bold, italic: italic}
	parsed, ok := fonts[fk]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData(mono, bold, italic))
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		fonts[fk] = parsed
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	faces[key] = face
	return face, nil
}

// MeasureText returns the advance width of s in pixels for the given style.
func MeasureText(s, family string, bold, italic bool, size float64) (float64, error) {
	face, err := loadFace(family, bold, italic, size)
	if err != nil {
		return 0, err
	}
	fontsMu.Lock()
	defer fontsMu.Unlock()
	return float64(font.MeasureString(face, s)) / 64, nil
}

// DrawText renders t onto s. The stroke, when present, is drawn before the
// fill; the shadow is drawn under each of them.
func DrawText(s *Surface, t Text) error {
	if !(t.Size > 0 && t.Size <= MaxFontSize) {
		return fmt.Errorf("%w: font size %v out of range (0, %d]", ErrSurface, t.Size, MaxFontSize)
	}
	strokeWidth := 0.0
	if t.Stroke != nil {
		strokeWidth = t.Stroke.Width
		if !(strokeWidth >= 0 && strokeWidth <= MaxStrokeWidth) {
			return fmt.Errorf("%w: stroke width %v out of range [0, %d]", ErrSurface, strokeWidth, MaxStrokeWidth)
		}
	}
	blurPad := 0.0
	if t.Shadow != nil {
		if !(t.Shadow.Blur >= 0 && t.Shadow.Blur <= MaxShadowBlur) {
			return fmt.Errorf("%w: shadow blur %v out of range [0, %d]", ErrSurface, t.Shadow.Blur, MaxShadowBlur)
		}
		blurPad = 2 * t.Shadow.Blur
	}

	face, err := loadFace(t.Family, t.Bold, t.Italic, t.Size)
	if err != nil {
		return err
	}
	pad := int(math.Ceil(strokeWidth/2+blurPad+t.Size/8)) + 2

	// Faces are not safe for concurrent use.
	fontsMu.Lock()
	metrics := face.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64
	advance := float64(font.MeasureString(face, t.Text)) / 64

	baseY := pad + int(math.Ceil(ascent))
	maskW := math.Ceil(advance) + float64(2*pad)
	maskH := float64(baseY) + math.Ceil(descent) + float64(pad)
	if maskW > MaxDimension || maskH > MaxDimension {
		fontsMu.Unlock()
		return fmt.Errorf("%w: text mask %vx%v exceeds %d", ErrSurface, maskW, maskH, MaxDimension)
	}
	mask := image.NewAlpha(image.Rect(0, 0, int(maskW), int(maskH)))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(pad), Y: fixed.I(baseY)},
	}
	d.DrawString(t.Text)
	fontsMu.Unlock()

	scaleX := 1.0
	if t.MaxWidth > 0 && advance > t.MaxWidth {
		scaleX = t.MaxWidth / advance
	}

	var dx, dy float64
	switch t.Align {
	case AlignCenter:
		dx = -advance * scaleX / 2
	case AlignRight:
		dx = -advance * scaleX
	}
	switch t.Baseline {
	case BaselineTop:
		dy = ascent
	case BaselineMiddle:
		dy = (ascent - descent) / 2
	case BaselineBottom:
		dy = -descent
	}

	sin, cos := math.Sincos(t.Rotation * math.Pi / 180)
	tx := dx - scaleX*float64(pad)
	ty := dy - float64(baseY)
	m := f64.Aff3{
		cos * scaleX, -sin, t.X + cos*tx - sin*ty,
		sin * scaleX, cos, t.Y + sin*tx + cos*ty,
	}

	if t.Stroke != nil && t.Stroke.Width > 0 {
		outline := dilate(mask, t.Stroke.Width/2)
		drawLayer(s, outline, t.Stroke.Color, m, t.Shadow)
	}
	drawLayer(s, mask, t.Color, m, t.Shadow)
	return nil
}

// drawLayer composites a colored mask through m, preceded by its shadow.
func drawLayer(s *Surface, mask *image.Alpha, c color.NRGBA, m f64.Aff3, shadow *Shadow) {
	if shadow != nil && shadow.Color.A > 0 {
		var layer image.Image = colorize(mask, shadow.Color)
		if shadow.Blur > 0 {
			layer = blur.Gaussian(layer, shadow.Blur/2)
		}
		sm := m
		sm[2] += shadow.OffsetX
		sm[5] += shadow.OffsetY
		xdraw.BiLinear.Transform(s.img, sm, layer, layer.Bounds(), xdraw.Over, nil)
	}
	layer := colorize(mask, c)
	xdraw.BiLinear.Transform(s.img, m, layer, layer.Bounds(), xdraw.Over, nil)
}

// colorize paints c through mask, scaling c's alpha by the mask coverage.
func colorize(mask *image.Alpha, c color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(mask.Rect)
	for i, a := range mask.Pix {
		o := i * 4
		out.Pix[o] = c.R
		out.Pix[o+1] = c.G
		out.Pix[o+2] = c.B
		out.Pix[o+3] = uint8((uint32(a)*uint32(c.A) + 127) / 255)
	}
	return out
}

// dilate grows mask by a disc of the given radius, the coverage of a stroke
// centred on the glyph outlines.
func dilate(mask *image.Alpha, radius float64) *image.Alpha {
	r := int(math.Ceil(radius))
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	out := image.NewAlpha(mask.Rect)
	r2 := radius * radius

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var best uint8
			for oy := -r; oy <= r && best < 255; oy++ {
				sy := y + oy
				if sy < 0 || sy >= h {
					continue
				}
				for ox := -r; ox <= r; ox++ {
					sx := x + ox
					if sx < 0 || sx >= w || float64(ox*ox+oy*oy) > r2 {
						continue
					}
					if v := mask.Pix[sy*mask.Stride+sx]; v > best {
						best = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = best
		}
	}
	return out
}
