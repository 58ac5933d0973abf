package dispatch

import (
	"context"
	"errors"
	"sync"
)

// Runner accepts a run request for asynchronous execution. The caller gets
// an acknowledgment immediately; progress is observable only on the event
// channel.
type Runner interface {
	Dispatch(ctx context.Context, msg Message) error
}

// RunFunc executes one run request. Implementations own their error
// reporting; by the time it runs the dispatching request has returned.
type RunFunc func(ctx context.Context, msg Message)

// LocalRunner executes runs in-process, one goroutine per dispatch.
type LocalRunner struct {
	Run RunFunc

	wg sync.WaitGroup
}

func NewLocalRunner(run RunFunc) *LocalRunner {
	return &LocalRunner{Run: run}
}

func (r *LocalRunner) Dispatch(ctx context.Context, msg Message) error {
	if r.Run == nil {
		return errors.New("local runner not configured")
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// The triggering request has already returned; the run gets its
		// own lifetime.
		r.Run(context.Background(), msg)
	}()
	return nil
}

// WaitIdle blocks until all dispatched runs have finished. Used in tests
// and for graceful shutdown.
func (r *LocalRunner) WaitIdle() {
	r.wg.Wait()
}

var _ Runner = (*LocalRunner)(nil)
