// Package render replays an operation list over a source image.
//
// Every render starts from a fresh copy of the original pixels and applies
// the operations in order, each one seeing the surface left by the previous
// one. Nothing is cached between renders, so undoing an operation is always
// exact no matter which operations resize the surface.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/ops"
	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/raster"
	"github.com/ironsheep/image-editor-mcp/internal/source"
)

// Engine replays operations. It holds no per-render state and may be shared
// by concurrent renders.
type Engine struct {
	runner pixel.Runner
	log    logrus.FieldLogger
}

// New returns an engine that hands kernel filters to runner. A nil runner
// runs them inline; a nil logger uses the standard logrus logger.
func New(runner pixel.Runner, log logrus.FieldLogger) *Engine {
	if runner == nil {
		runner = pixel.Inline{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{runner: runner, log: log}
}

// Render builds a new surface from src and applies list to it in order.
//
// Before each operation its surface-dependent preconditions are checked
// against the live surface; a failure aborts the render with an error naming
// the operation. There is no partial result: on error the surface is
// discarded.
func (e *Engine) Render(ctx context.Context, src *source.State, list []ops.Operation) (*raster.Surface, error) {
	s, err := raster.New(src.Width(), src.Height())
	if err != nil {
		return nil, err
	}
	if err := src.CopyTo(s.Pix()); err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrSurface, err)
	}

	start := time.Now()
	for i, op := range list {
		if err := op.Check(s.Width(), s.Height()); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Name(), err)
		}

		t := time.Now()
		if err := op.Apply(ctx, s, e.runner); err != nil {
			return nil, fmt.Errorf("failed to apply operation %d (%s): %w", i, op.Name(), err)
		}
		e.log.WithFields(logrus.Fields{
			"index":    i,
			"op":       op.Name(),
			"width":    s.Width(),
			"height":   s.Height(),
			"duration": time.Since(t),
		}).Debug("applied operation")
	}

	e.log.WithFields(logrus.Fields{
		"operations": len(list),
		"width":      s.Width(),
		"height":     s.Height(),
		"duration":   time.Since(start),
	}).Debug("render complete")

	return s, nil
}
