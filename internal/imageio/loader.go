package imageio

import (
	"fmt"
	"os"
	"sync"
)

// Loader provides thread-safe caching of images decoded from disk.
//
// Decoded images are keyed by the exact path string given to Load and stay
// cached until Evict or Clear. Editing sessions never write to a loaded
// image; they copy it into their own source state.
//
// Loader is safe for concurrent use by multiple goroutines.
type Loader struct {
	mu     sync.RWMutex
	images map[string]*Decoded
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{
		images: make(map[string]*Decoded),
	}
}

// Load returns the cached image for path, decoding it from disk on first
// use. Supported formats are PNG, JPEG, GIF, WebP, BMP and TIFF.
//
// Errors wrap ErrImageLoad.
func (l *Loader) Load(path string) (*Decoded, error) {
	l.mu.RLock()
	if d, ok := l.images[path]; ok {
		l.mu.RUnlock()
		return d, nil
	}
	l.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %v", ErrImageLoad, err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.images[path] = d
	l.mu.Unlock()

	return d, nil
}

// Cached reports whether path is in the cache.
func (l *Loader) Cached(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.images[path]
	return ok
}

// Evict removes path from the cache. The next Load reads from disk.
func (l *Loader) Evict(path string) {
	l.mu.Lock()
	delete(l.images, path)
	l.mu.Unlock()
}

// Clear removes all images from the cache.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.images = make(map[string]*Decoded)
	l.mu.Unlock()
}
