package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ErrExport is returned when an image cannot be encoded or written.
var ErrExport = errors.New("failed to export image")

// Export MIME types.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 0.92

// Encoded is an encoded image. MimeType is the format actually produced,
// which for WebP requests is PNG.
type Encoded struct {
	MimeType string
	Data     []byte
}

// Base64 returns the encoded bytes in standard base64.
func (e *Encoded) Base64() string {
	return base64.StdEncoding.EncodeToString(e.Data)
}

// DataURL returns the image as a "data:" URL.
func (e *Encoded) DataURL() string {
	return "data:" + e.MimeType + ";base64," + e.Base64()
}

// Extension returns the file extension for the encoded format.
func (e *Encoded) Extension() string {
	if e.MimeType == MimeJPEG {
		return ".jpg"
	}
	return ".png"
}

// NormalizeFormat maps short names such as "jpg" or "png" to MIME types.
// An empty format means PNG.
func NormalizeFormat(format string) (string, error) {
	switch format {
	case "", "png", MimePNG:
		return MimePNG, nil
	case "jpg", "jpeg", MimeJPEG:
		return MimeJPEG, nil
	case "webp", MimeWebP:
		return MimeWebP, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrExport, format)
	}
}

// Encode encodes img in format. quality in (0,1] applies to JPEG; 0 or an
// out-of-range value uses DefaultQuality. There is no WebP encoder, so WebP
// requests produce PNG.
func Encode(img image.Image, format string, quality float64) (*Encoded, error) {
	mime, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch mime {
	case MimeJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality)))
	default:
		mime = MimePNG
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	return &Encoded{MimeType: mime, Data: buf.Bytes()}, nil
}

// jpegQuality maps a 0..1 quality onto the 1..100 JPEG scale.
func jpegQuality(q float64) int {
	if q <= 0 || q > 1 || math.IsNaN(q) {
		q = DefaultQuality
	}
	return max(1, int(math.Round(q*100)))
}

// WriteFile writes enc to path, creating parent directories as needed.
func WriteFile(path string, enc *Encoded) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: failed to create directory: %v", ErrExport, err)
		}
	}
	if err := os.WriteFile(path, enc.Data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write file: %v", ErrExport, err)
	}
	return nil
}
