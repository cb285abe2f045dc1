// Package diffjob computes diffs off the UI goroutine. At most one computation is active; a newer request replaces
// a pending one and cancels the running one, and results from older requests are dropped.
//
// Cancellation reaches LoadFunc only. linediff.Diff takes no context, so a superseded job that is already diffing
// runs to completion and its result is discarded.
package diffjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sidediff/internal/linediff"
)

var (
	ErrClosed         = errors.New("diffjob: runner closed")
	ErrBudgetExceeded = errors.New("diff exceeded its time budget")
)

// LoadFunc reads both revisions of a request.
type LoadFunc func(ctx context.Context) (base, target linediff.Revision, err error)

type Request struct {
	Key  string
	Load LoadFunc
}

type Result struct {
	Gen      uint64
	Key      string
	Base     linediff.Revision
	Target   linediff.Revision
	Segments []linediff.Segment
	Err      error
	Elapsed  time.Duration
}

type job struct {
	gen uint64
	req Request
}

type Runner struct {
	logger  *slog.Logger
	results chan Result
	wake    chan struct{}
	stop    context.CancelFunc
	g       *errgroup.Group

	mu        sync.Mutex
	gen       uint64
	abandoned uint64
	pending   *job
	cancelRun context.CancelFunc
	closed    bool
}

// NewRunner starts the worker. Close must be called to stop it.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, stop := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	r := &Runner{
		logger:  logger,
		results: make(chan Result, 1),
		wake:    make(chan struct{}, 1),
		stop:    stop,
		g:       g,
	}
	g.Go(func() error { return r.work(ctx) })
	return r
}

// Submit queues req and returns its generation. Any pending request is replaced and a running one is cancelled.
func (r *Runner) Submit(req Request) (uint64, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	r.gen++
	gen := r.gen
	if r.pending != nil {
		r.logger.Debug("diff request superseded", "key", r.pending.req.Key, "gen", r.pending.gen)
	}
	r.pending = &job{gen: gen, req: req}
	if r.cancelRun != nil {
		r.cancelRun()
	}
	r.drain()
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return gen, nil
}

// Abandon drops the result of gen if it has not been delivered yet.
func (r *Runner) Abandon(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.gen {
		r.abandoned = gen
		if r.cancelRun != nil {
			r.cancelRun()
		}
		r.drain()
		r.logger.Debug("diff request abandoned", "gen", gen)
	}
}

// drain discards an undelivered result. The buffer only ever holds the latest generation, so after a Submit or an
// Abandon it is stale. Callers hold mu.
func (r *Runner) drain() {
	select {
	case res := <-r.results:
		r.logger.Debug("stale diff result dropped", "key", res.Key, "gen", res.Gen)
	default:
	}
}

// Latest returns the most recent generation handed out by Submit.
func (r *Runner) Latest() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Results delivers the outcome of the latest request. It is closed by Close.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Close stops the worker and waits for it.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.stop()
	err := r.g.Wait()
	close(r.results)
	return err
}

func (r *Runner) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
		}

		for {
			j, runCtx := r.take(ctx)
			if j == nil {
				break
			}
			r.deliver(r.compute(runCtx, j))
		}
	}
}

// deliver publishes res if it is still the latest generation. The check and the send happen under mu, so a Submit
// can never slip in between and leave an older generation in Results.
func (r *Runner) deliver(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Gen != r.gen || res.Gen == r.abandoned {
		r.logger.Debug("stale diff result dropped", "key", res.Key, "gen", res.Gen)
		return
	}
	select {
	case r.results <- res:
	default:
		r.logger.Warn("diff result dropped, results buffer full", "key", res.Key, "gen", res.Gen)
	}
}

func (r *Runner) take(ctx context.Context) (*job, context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRun != nil {
		r.cancelRun()
		r.cancelRun = nil
	}
	j := r.pending
	r.pending = nil
	if j == nil {
		return nil, nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelRun = cancel
	return j, runCtx
}

func (r *Runner) compute(ctx context.Context, j *job) Result {
	start := time.Now()
	res := Result{Gen: j.gen, Key: j.req.Key}

	base, target, err := j.req.Load(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		res.Segments, err = linediff.Diff(base, target)
	}
	res.Base, res.Target = base, target
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("diff %s: %w", j.req.Key, err)
		r.logger.Debug("diff failed", "key", j.req.Key, "gen", j.gen, "err", err)
		return res
	}
	r.logger.Debug("diff computed", "key", j.req.Key, "gen", j.gen, "segments", len(res.Segments), "elapsed", res.Elapsed)
	return res
}
