package editor

import (
	"context"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/imageio"
	"github.com/ironsheep/image-editor-mcp/internal/ops"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
)

// WatermarkText is stamped on exports made without a valid license.
const WatermarkText = "UNLICENSED"

var (
	watermarkFill    = color.NRGBA{R: 255, G: 255, B: 255, A: 128}
	watermarkOutline = color.NRGBA{R: 0, G: 0, B: 0, A: 96}
)

// Licensed reports whether exports are currently unwatermarked.
func (e *Editor) Licensed() bool {
	return e.license != nil && e.license.IsValid()
}

// Export renders the image and encodes it as format (image/png, image/jpeg
// or image/webp, or a short name). quality in (0,1] applies to JPEG.
func (e *Editor) Export(ctx context.Context, format string, quality float64) (*imageio.Encoded, error) {
	if _, err := imageio.NormalizeFormat(format); err != nil {
		return nil, err
	}
	s, err := e.Render(ctx)
	if err != nil {
		return nil, err
	}
	if !e.Licensed() {
		if err := stampWatermark(s); err != nil {
			return nil, err
		}
	}
	enc, err := imageio.Encode(s.Image(), format, quality)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"mime":     enc.MimeType,
		"bytes":    len(enc.Data),
		"width":    s.Width(),
		"height":   s.Height(),
		"licensed": e.Licensed(),
	}).Debug("image exported")
	return enc, nil
}

// Download exports the image and writes it to path.
func (e *Editor) Download(ctx context.Context, path, format string, quality float64) (*imageio.Encoded, error) {
	enc, err := e.Export(ctx, format, quality)
	if err != nil {
		return nil, err
	}
	if err := imageio.WriteFile(path, enc); err != nil {
		return nil, err
	}
	return enc, nil
}

// stampWatermark draws WatermarkText in the bottom-right corner, sized to
// the shorter side of s.
func stampWatermark(s *raster.Surface) error {
	w, h := float64(s.Width()), float64(s.Height())
	size := math.Max(12, math.Min(w, h)/12)
	margin := size / 2

	t := raster.Text{
		Text:     WatermarkText,
		X:        w - margin,
		Y:        h - margin,
		Size:     size,
		Family:   ops.DefaultFontFamily,
		Color:    watermarkFill,
		Align:    raster.AlignRight,
		Baseline: raster.BaselineBottom,
		Bold:     true,
		Stroke:   &raster.Stroke{Color: watermarkOutline, Width: math.Min(raster.MaxStrokeWidth, math.Max(1, size/16))},
	}
	if fit := w - 2*margin; fit > 0 {
		t.MaxWidth = fit
	}
	return raster.DrawText(s, t)
}
