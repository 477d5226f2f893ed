package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImage writes a PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	if err := os.WriteFile(path, encodePNG(t, createInMemoryImage(width, height, c)), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(7, 3, color.NRGBA{10, 20, 30, 255}))

	d, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Format != "png" {
		t.Errorf("Format: got %s, want png", d.Format)
	}
	if b := d.Image.Bounds(); b.Dx() != 7 || b.Dy() != 3 {
		t.Errorf("dimensions: got %dx%d, want 7x3", b.Dx(), b.Dy())
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"))
	if !errors.Is(err, ErrImageLoad) {
		t.Errorf("got %v, want ErrImageLoad", err)
	}
}

func TestDecodeBase64(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(encodePNG(t, createInMemoryImage(2, 2, color.White)))

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain base64", raw, false},
		{"data URL", "data:image/png;base64," + raw, false},
		{"data URL without base64", "data:image/png," + raw, true},
		{"invalid base64", "!!!", true},
		{"valid base64 but not an image", base64.StdEncoding.EncodeToString([]byte("hello")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBase64(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrImageLoad) {
					t.Errorf("got %v, want ErrImageLoad", err)
				}
				return
			}
			if err != nil {
				t.Errorf("DecodeBase64 failed: %v", err)
			}
		})
	}
}

func TestLoader_Cache(t *testing.T) {
	path := createTestImage(t, 4, 4, color.Black)
	l := NewLoader()

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !l.Cached(path) {
		t.Error("image should be cached after Load")
	}

	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("second Load should return the cached image")
	}

	l.Evict(path)
	if l.Cached(path) {
		t.Error("image should not be cached after Evict")
	}

	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	l.Clear()
	if l.Cached(path) {
		t.Error("image should not be cached after Clear")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrImageLoad) {
		t.Errorf("got %v, want ErrImageLoad", err)
	}
}

func TestFetcher(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(5, 6, color.White))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		case "/garbage":
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	d, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if b := d.Image.Bounds(); b.Dx() != 5 || b.Dy() != 6 {
		t.Errorf("dimensions: got %dx%d, want 5x6", b.Dx(), b.Dy())
	}

	for _, p := range []string{"/missing.png", "/garbage"} {
		if _, err := f.Fetch(context.Background(), srv.URL+p); !errors.Is(err, ErrImageLoad) {
			t.Errorf("Fetch(%s): got %v, want ErrImageLoad", p, err)
		}
	}
}

func TestEncode(t *testing.T) {
	img := createInMemoryImage(8, 8, color.NRGBA{200, 100, 50, 255})

	tests := []struct {
		format   string
		wantMime string
	}{
		{"png", MimePNG},
		{MimePNG, MimePNG},
		{"jpg", MimeJPEG},
		{MimeJPEG, MimeJPEG},
		{MimeWebP, MimePNG},
		{"", MimePNG},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := Encode(img, tt.format, 0.8)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if enc.MimeType != tt.wantMime {
				t.Errorf("MimeType: got %s, want %s", enc.MimeType, tt.wantMime)
			}
			if !strings.HasPrefix(enc.DataURL(), "data:"+tt.wantMime+";base64,") {
				t.Errorf("DataURL prefix: got %.40s", enc.DataURL())
			}

			d, err := Decode(bytes.NewReader(enc.Data))
			if err != nil {
				t.Fatalf("encoded image does not decode: %v", err)
			}
			if b := d.Image.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
				t.Errorf("decoded dimensions: got %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(createInMemoryImage(1, 1, color.White), "image/avif", 1)
	if !errors.Is(err, ErrExport) {
		t.Errorf("got %v, want ErrExport", err)
	}
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 92},
		{-1, 92},
		{1.5, 92},
		{1, 100},
		{0.5, 50},
		{0.001, 1},
	}

	for _, tt := range tests {
		if got := jpegQuality(tt.in); got != tt.want {
			t.Errorf("jpegQuality(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	enc, err := Encode(createInMemoryImage(3, 3, color.White), "png", 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "out"+enc.Extension())

	if err := WriteFile(path, enc); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if !bytes.Equal(got, enc.Data) {
		t.Error("file contents differ from encoded data")
	}
}
