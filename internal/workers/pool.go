// Package workers runs pixel kernels on a fixed set of goroutines.
//
// A Pool accepts pixel.Task values over a bounded queue and returns the
// transformed buffer or an error. Callers block on the queue rather than
// polling for a free worker, and every task is bounded by the pool timeout.
// Workers call pixel.Execute, so results are byte-identical to running the
// kernel inline.
package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/pixel"
)

var (
	// ErrTimeout is returned when a task does not complete within the pool
	// timeout.
	ErrTimeout = errors.New("worker task timed out")

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("worker pool closed")
)

// DefaultTimeout bounds each task when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config sizes a Pool. Zero values pick defaults: one worker per CPU, a
// queue twice that long and DefaultTimeout.
type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Logger    logrus.FieldLogger
}

type result struct {
	pix []uint8
	err error
}

type job struct {
	ctx  context.Context
	task pixel.Task
	done chan<- result
}

// Pool is a fixed-size worker pool. It implements pixel.Runner.
type Pool struct {
	jobs    chan job
	quit    chan struct{}
	timeout time.Duration
	log     logrus.FieldLogger
	size    int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ pixel.Runner = (*Pool)(nil)

// New starts a pool.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	p := &Pool{
		jobs:    make(chan job, cfg.QueueSize),
		quit:    make(chan struct{}),
		timeout: cfg.Timeout,
		log:     cfg.Logger,
		size:    cfg.Workers,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work(i)
	}
	p.log.WithFields(logrus.Fields{
		"workers": cfg.Workers,
		"queue":   cfg.QueueSize,
		"timeout": cfg.Timeout,
	}).Debug("worker pool started")
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			if err := j.ctx.Err(); err != nil {
				j.done <- result{err: err}
				continue
			}
			start := time.Now()
			out, err := pixel.Execute(j.task)
			j.done <- result{pix: out, err: err}
			p.log.WithFields(logrus.Fields{
				"worker":   id,
				"kernel":   j.task.Kind,
				"pixels":   j.task.Width * j.task.Height,
				"duration": time.Since(start),
			}).Debug("kernel finished")
		}
	}
}

// Run queues task and waits for its result. It blocks while the queue is
// full. The wait is bounded by the pool timeout and by ctx.
func (p *Pool) Run(ctx context.Context, task pixel.Task) ([]uint8, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan result, 1)
	select {
	case <-p.quit:
		return nil, ErrClosed
	case p.jobs <- job{ctx: tctx, task: task, done: done}:
	case <-tctx.Done():
		return nil, p.waitError(ctx, task)
	}

	select {
	case r := <-done:
		if r.err != nil && tctx.Err() != nil {
			return nil, p.waitError(ctx, task)
		}
		return r.pix, r.err
	case <-p.quit:
		return nil, ErrClosed
	case <-tctx.Done():
		return nil, p.waitError(ctx, task)
	}
}

// waitError distinguishes a cancelled caller from an expired pool timeout.
func (p *Pool) waitError(ctx context.Context, task pixel.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s after %v", ErrTimeout, task.Kind, p.timeout)
}

// Close stops the workers. Tasks still queued are abandoned and their
// callers receive ErrClosed. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.log.Debug("worker pool stopped")
	})
}
