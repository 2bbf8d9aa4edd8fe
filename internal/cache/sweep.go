package cache

import (
	"context"
	"sync"
	"time"
)

// Sweeper runs a function on a fixed interval until stopped. The goroutine
// does not keep the process alive; callers stop it on shutdown.
type Sweeper struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartSweeper starts calling fn every interval.
func StartSweeper(interval time.Duration, fn func()) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return s
}

// Done is closed once the sweep goroutine has exited.
func (s *Sweeper) Done() <-chan struct{} {
	return s.done
}

// Stop cancels the sweep and waits for the goroutine to exit.
func (s *Sweeper) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}
