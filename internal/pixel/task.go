package pixel

import (
	"context"
	"fmt"
)

// Kind names an offloadable kernel.
type Kind string

const (
	KindBlur          Kind = "blur"
	KindSharpen       Kind = "sharpen"
	KindEdgeDetection Kind = "edgeDetection"
	KindPixelate      Kind = "pixelate"
)

// Task is a unit of kernel work: a kernel kind, a pixel buffer and the
// kind-specific parameters. The buffer is read, never written.
type Task struct {
	Kind   Kind
	Pix    []uint8
	Width  int
	Height int

	// Passes is the number of successive blur passes (blur only).
	Passes int

	// BlockSize is the pixelate block edge (pixelate only).
	BlockSize int
}

// Runner executes kernel tasks. Implementations must produce the output of
// Execute for the same task.
type Runner interface {
	Run(ctx context.Context, task Task) ([]uint8, error)
}

// Inline runs tasks on the calling goroutine.
type Inline struct{}

// Run implements Runner.
func (Inline) Run(_ context.Context, task Task) ([]uint8, error) {
	return Execute(task)
}

// Execute computes the fully transformed buffer for task.
func Execute(task Task) ([]uint8, error) {
	if task.Width <= 0 || task.Height <= 0 || len(task.Pix) != task.Width*task.Height*4 {
		return nil, fmt.Errorf("pixel buffer of %d bytes does not match %dx%d", len(task.Pix), task.Width, task.Height)
	}

	switch task.Kind {
	case KindBlur:
		out := task.Pix
		passes := task.Passes
		if passes < 1 {
			passes = 1
		}
		for i := 0; i < passes; i++ {
			out = Convolve3x3(out, task.Width, task.Height, BlurKernel)
		}
		return out, nil
	case KindSharpen:
		return Convolve3x3(task.Pix, task.Width, task.Height, SharpenKernel), nil
	case KindEdgeDetection:
		return SobelMagnitude(task.Pix, task.Width, task.Height), nil
	case KindPixelate:
		return Pixelate(task.Pix, task.Width, task.Height, task.BlockSize), nil
	default:
		return nil, fmt.Errorf("unknown kernel: %s", task.Kind)
	}
}
