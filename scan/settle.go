package scan

import (
	"context"
	"fmt"
	"sync"
)

// Settled is the result-or-error of one task. Exactly one of Value and
// Err is meaningful.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleAll runs every task concurrently and waits for all of them to
// settle. It never short-circuits: one task's error (or panic) does not
// cancel or mask the others. Results come back indexed by task, not by
// completion order, so callers stay deterministic.
func SettleAll[T any](ctx context.Context, tasks []func(context.Context) (T, error)) []Settled[T] {
	results := make([]Settled[T], len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			results[i].Value, results[i].Err = task(ctx)
		}(i, task)
	}
	wg.Wait()

	return results
}
