package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSettleAllMixedOutcomes(t *testing.T) {
	boom := errors.New("boom")
	tasks := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results := SettleAll(context.Background(), tasks)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Value != 1 || results[0].Err != nil {
		t.Errorf("task 0: got (%d, %v)", results[0].Value, results[0].Err)
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("task 1: expected boom, got %v", results[1].Err)
	}
	if results[2].Value != 3 || results[2].Err != nil {
		t.Errorf("task 2: got (%d, %v)", results[2].Value, results[2].Err)
	}
}

func TestSettleAllDoesNotShortCircuit(t *testing.T) {
	var completed atomic.Int32
	tasks := []func(context.Context) (bool, error){
		func(ctx context.Context) (bool, error) { return false, errors.New("fails fast") },
		func(ctx context.Context) (bool, error) {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return true, nil
		},
		func(ctx context.Context) (bool, error) {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return true, nil
		},
	}

	results := SettleAll(context.Background(), tasks)
	if completed.Load() != 2 {
		t.Errorf("expected both slow tasks to finish, got %d", completed.Load())
	}
	if results[1].Err != nil || results[2].Err != nil {
		t.Error("slow tasks should have settled successfully")
	}
}

func TestSettleAllRecoversPanics(t *testing.T) {
	tasks := []func(context.Context) (string, error){
		func(ctx context.Context) (string, error) { panic("adapter bug") },
		func(ctx context.Context) (string, error) { return "ok", nil },
	}

	results := SettleAll(context.Background(), tasks)
	if results[0].Err == nil {
		t.Error("expected panicking task to settle with an error")
	}
	if results[1].Value != "ok" {
		t.Error("sibling task should be unaffected by the panic")
	}
}

func TestSettleAllIndexedByTask(t *testing.T) {
	// Tasks finish in reverse order; results must still be positional.
	tasks := make([]func(context.Context) (int, error), 4)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(len(tasks)-i) * 5 * time.Millisecond)
			return i, nil
		}
	}

	results := SettleAll(context.Background(), tasks)
	for i, r := range results {
		if r.Value != i {
			t.Errorf("results[%d].Value = %d, want %d", i, r.Value, i)
		}
	}
}

func TestSettleAllEmpty(t *testing.T) {
	results := SettleAll[int](context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
