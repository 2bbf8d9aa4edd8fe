package worker

import (
	"context"
	"fmt"
	"sort"
)

// Task is one limited call run by RunAll.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of one task. Index is the task's position in the
// input slice.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// GetError returns the task error
func (o *Outcome[T]) GetError() error {
	return o.Err
}

type taskJob[T any] struct {
	index   int
	task    Task[T]
	limiter *Limiter
	key     string
}

func (j *taskJob[T]) Execute(ctx context.Context) Result {
	out := &Outcome[T]{Index: j.index}
	if err := j.limiter.Wait(ctx, j.key); err != nil {
		out.Err = fmt.Errorf("rate limit: %w", err)
		return out
	}

	out.Value, out.Err = j.task(ctx)
	return out
}

// RunAll runs tasks on a pool of workers, waiting on limiter under key before
// each call. Every task gets an Outcome, returned in input order; a failed
// task never cancels the others. Tasks not started before ctx is cancelled
// report ctx.Err().
func RunAll[T any](ctx context.Context, workers int, limiter *Limiter, key string, tasks []Task[T]) []Outcome[T] {
	if len(tasks) == 0 {
		return []Outcome[T]{}
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	// Results are drained while jobs are still being queued so a full
	// results buffer never stalls the feeder.
	go func() {
		defer pool.Close()
		for i, task := range tasks {
			if !pool.Submit(&taskJob[T]{index: i, task: task, limiter: limiter, key: key}) {
				return
			}
		}
	}()

	done := make([]bool, len(tasks))
	outcomes := make([]Outcome[T], 0, len(tasks))
	for res := range pool.Results() {
		out := res.(*Outcome[T])
		done[out.Index] = true
		outcomes = append(outcomes, *out)
	}
	pool.Shutdown()

	for i, ok := range done {
		if ok {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		outcomes = append(outcomes, Outcome[T]{Index: i, Err: err})
	}

	sortOutcomes(outcomes)
	return outcomes
}

// Batches splits items into consecutive slices of at most size elements.
func Batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func sortOutcomes[T any](outcomes []Outcome[T]) {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })
}
