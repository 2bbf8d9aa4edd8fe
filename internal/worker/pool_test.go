package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResult struct{ err error }

func (r stubResult) GetError() error { return r.err }

// funcJob adapts a plain function to Job.
type funcJob func(ctx context.Context) error

func (f funcJob) Execute(ctx context.Context) Result { return stubResult{err: f(ctx)} }

func noop(context.Context) error { return nil }

func TestNewPool_ClampsSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		assert.Equal(t, 1, NewPool(context.Background(), size).size, "size %d", size)
	}
	assert.Equal(t, 4, NewPool(context.Background(), 4).size)
}

func TestPool_RunsEverySubmittedJob(t *testing.T) {
	p := NewPool(context.Background(), 3)
	p.Start()

	// More jobs than queue, workers and result buffer hold together, so the
	// feeder must run while results are drained.
	var ran atomic.Int32
	accepted := make(chan int, 1)
	go func() {
		defer p.Close()
		n := 0
		for range 25 {
			if p.Submit(funcJob(func(context.Context) error {
				ran.Add(1)
				return nil
			})) {
				n++
			}
		}
		accepted <- n
	}()

	var got int
	for range p.Results() {
		got++
	}
	assert.Equal(t, 25, <-accepted)
	assert.Equal(t, 25, got)
	assert.EqualValues(t, 25, ran.Load())
}

func TestPool_WaitCollectsQueuedResults(t *testing.T) {
	p := NewPool(context.Background(), 3)
	p.Start()

	for range 6 {
		require.True(t, p.Submit(funcJob(noop)))
	}
	assert.Len(t, p.Wait(), 6)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 4
	p := NewPool(context.Background(), size)
	p.Start()

	var inFlight, peak atomic.Int32
	go func() {
		defer p.Close()
		for range 40 {
			p.Submit(funcJob(func(context.Context) error {
				n := inFlight.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			}))
		}
	}()

	var got int
	for range p.Results() {
		got++
	}
	assert.Equal(t, 40, got)
	assert.LessOrEqual(t, peak.Load(), int32(size))
}

func TestPool_ReportsJobErrors(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()

	failed := errors.New("embed failed")
	p.Submit(funcJob(func(context.Context) error { return failed }))
	p.Submit(funcJob(noop))

	var errs []error
	for _, r := range p.Wait() {
		if err := r.GetError(); err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], failed)
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 1)
	p.Start()
	cancel()

	assert.False(t, p.Submit(funcJob(noop)))

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked after the parent context was cancelled")
	}
}

func TestPool_ShutdownInterruptsRunningJob(t *testing.T) {
	p := NewPool(context.Background(), 1)
	p.Start()

	started := make(chan struct{})
	p.Submit(funcJob(func(ctx context.Context) error {
		close(started)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}))
	<-started

	finished := make(chan struct{})
	go func() {
		p.Shutdown()
		for range p.Results() {
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.False(t, p.Submit(funcJob(noop)))
}
