package editor

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/history"
	"github.com/ironsheep/image-editor-mcp/internal/imageio"
	"github.com/ironsheep/image-editor-mcp/internal/ops"
	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
	"github.com/ironsheep/image-editor-mcp/internal/render"
	"github.com/ironsheep/image-editor-mcp/internal/source"
)

// Entitlement reports whether exports may be produced without a watermark.
// *license.Manager satisfies it.
type Entitlement interface {
	IsValid() bool
}

// Editor edits one image.
type Editor struct {
	src     *source.State
	engine  *render.Engine
	license Entitlement
	log     logrus.FieldLogger

	mu      sync.Mutex
	history *history.Queue
}

type options struct {
	runner  pixel.Runner
	license Entitlement
	log     logrus.FieldLogger
}

// Option configures an Editor.
type Option func(*options)

// WithRunner executes kernel filters through r, typically a worker pool.
func WithRunner(r pixel.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithEntitlement sets the license consulted at export time. Without one,
// every export is watermarked.
func WithEntitlement(e Entitlement) Option {
	return func(o *options) { o.license = e }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// New returns an editor over src with an empty history.
func New(src *source.State, opts ...Option) *Editor {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Editor{
		src:     src,
		engine:  render.New(o.runner, o.log),
		license: o.license,
		log:     o.log,
		history: history.New(),
	}
}

// FromImage returns an editor over a copy of img.
func FromImage(img image.Image, opts ...Option) (*Editor, error) {
	return fromImage(img, "", opts...)
}

func fromImage(img image.Image, format string, opts ...Option) (*Editor, error) {
	src, err := source.New(img, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imageio.ErrImageLoad, err)
	}
	return New(src, opts...), nil
}

// FromDecoded returns an editor over an image produced by imageio.
func FromDecoded(d *imageio.Decoded, opts ...Option) (*Editor, error) {
	return fromImage(d.Image, d.Format, opts...)
}

// FromReader decodes an image from r.
func FromReader(r io.Reader, opts ...Option) (*Editor, error) {
	d, err := imageio.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromDecoded(d, opts...)
}

// FromFile decodes the image at path.
func FromFile(path string, opts ...Option) (*Editor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %v", imageio.ErrImageLoad, err)
	}
	defer f.Close()
	return FromReader(f, opts...)
}

// FromURL downloads and decodes the image at url.
func FromURL(ctx context.Context, f *imageio.Fetcher, url string, opts ...Option) (*Editor, error) {
	d, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return FromDecoded(d, opts...)
}

// Source returns the immutable source image.
func (e *Editor) Source() *source.State { return e.src }

// Original returns a copy of the source pixels (RGBA8, row-major).
func (e *Editor) Original() []uint8 { return e.src.Pixels() }

// Append validates op and adds it to the history, discarding any redo
// entries. Operations whose preconditions depend on the surface, such as a
// crop rectangle, are checked against the size the active operations
// produce. An invalid operation is not recorded.
func (e *Editor) Append(op ops.Operation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, h := e.projectedSize()
	if err := op.Check(w, h); err != nil {
		return err
	}
	e.history.Append(op)
	e.log.WithFields(logrus.Fields{
		"op":     op.Name(),
		"id":     op.ID,
		"cursor": e.history.Cursor(),
	}).Debug("operation appended")
	return nil
}

func (e *Editor) add(op ops.Operation, err error) error {
	if err != nil {
		return err
	}
	return e.Append(op)
}

// Crop appends a crop to the rectangle at (x, y).
func (e *Editor) Crop(x, y, width, height int) error {
	return e.add(ops.NewCrop(x, y, width, height))
}

// Resize appends a resize to exactly width x height.
func (e *Editor) Resize(width, height int, opts ops.ResizeOptions) error {
	return e.add(ops.NewResize(width, height, opts))
}

// AddText appends a text overlay.
func (e *Editor) AddText(p ops.TextParams) error {
	return e.add(ops.NewText(p))
}

// AddShape appends a shape overlay.
func (e *Editor) AddShape(p ops.ShapeParams) error {
	return e.add(ops.NewShape(p))
}

// Filter appends a filter.
func (e *Editor) Filter(t ops.FilterType, opts ops.FilterOptions) error {
	return e.add(ops.NewFilter(t, opts))
}

// Adjust appends a tonal adjustment.
func (e *Editor) Adjust(t ops.AdjustmentType, value float64) error {
	return e.add(ops.NewAdjustment(t, value))
}

// Undo deactivates the most recent active operation, if any.
func (e *Editor) Undo() {
	e.mu.Lock()
	e.history.Undo()
	e.mu.Unlock()
}

// Redo reactivates the next undone operation, if any.
func (e *Editor) Redo() {
	e.mu.Lock()
	e.history.Redo()
	e.mu.Unlock()
}

// CanUndo reports whether Undo would change the output.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change the output.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// ActiveHistory returns the operations a render applies, oldest first.
func (e *Editor) ActiveHistory() []ops.Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Active()
}

// AllHistory returns every recorded operation, including undone ones.
func (e *Editor) AllHistory() []ops.Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.All()
}

// Cursor returns the index of the last active operation, or -1.
func (e *Editor) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Cursor()
}

// Reset deactivates every operation. They remain available to Redo.
func (e *Editor) Reset() {
	e.mu.Lock()
	e.history.Reset()
	e.mu.Unlock()
}

// Clear forgets every operation.
func (e *Editor) Clear() {
	e.mu.Lock()
	e.history.Clear()
	e.mu.Unlock()
}

// ProjectedSize returns the size a render would produce.
func (e *Editor) ProjectedSize() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectedSize()
}

func (e *Editor) projectedSize() (int, int) {
	w, h := e.src.Width(), e.src.Height()
	for _, op := range e.history.Active() {
		w, h = op.Project(w, h)
	}
	return w, h
}

// Render replays the active operations over a fresh copy of the source and
// returns the result. The returned surface belongs to the caller.
func (e *Editor) Render(ctx context.Context) (*raster.Surface, error) {
	return e.engine.Render(ctx, e.src, e.ActiveHistory())
}
