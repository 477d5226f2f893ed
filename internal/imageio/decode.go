package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrImageLoad is returned when an image cannot be read or decoded.
var ErrImageLoad = errors.New("failed to load image")

// MaxDownloadBytes bounds the size of an image fetched over HTTP.
const MaxDownloadBytes = 64 << 20

// Decoded is a decoded image and the name of the format it was stored in.
type Decoded struct {
	Image  image.Image
	Format string
}

// Decode reads and decodes an image from r. EXIF orientation is applied to
// JPEG images.
func Decode(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) (*Decoded, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrImageLoad, format, err)
	}
	return &Decoded{Image: img, Format: format}, nil
}

// DecodeBase64 decodes a base64 image, with or without a "data:" URL
// prefix.
func DecodeBase64(s string) (*Decoded, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.Contains(s[:i], ";base64") {
			return nil, fmt.Errorf("%w: malformed data URL", ErrImageLoad)
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrImageLoad, err)
	}
	return decodeBytes(data)
}

// Fetcher downloads images over HTTP.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and decodes the image at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Decoded, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrImageLoad, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrImageLoad, url, MaxDownloadBytes)
	}
	return decodeBytes(data)
}
