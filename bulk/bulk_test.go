package bulk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"visibility-scan-service/models"
)

type fakeScanner struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	delay    time.Duration
	failFor  map[string]error
}

func (f *fakeScanner) RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, []models.Citation, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if current > f.peak {
		f.peak = current
	}
	err := f.failFor[req.Query]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return &models.ScanResult{Query: req.Query, OverallScore: 50}, nil, nil
}

func requests(n int) []models.ScanRequest {
	out := make([]models.ScanRequest, n)
	for i := range out {
		out[i] = models.ScanRequest{Query: string(rune('a' + i)), BrandDomain: "acme.com"}
	}
	return out
}

func TestRunAllSucceed(t *testing.T) {
	scanner := &fakeScanner{}
	runner := NewRunner(scanner, 4)

	results := runner.Run(context.Background(), requests(8))
	if len(results) != 8 {
		t.Fatalf("results = %d, want 8", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
		}
		if r.Result == nil || r.Result.Query != r.Request.Query {
			t.Errorf("results[%d] not matched to its request", i)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	scanner := &fakeScanner{delay: 20 * time.Millisecond}
	runner := NewRunner(scanner, 3)

	runner.Run(context.Background(), requests(10))

	scanner.mu.Lock()
	peak := scanner.peak
	scanner.mu.Unlock()
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestRunOneFailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("scan exploded")
	scanner := &fakeScanner{failFor: map[string]error{"b": boom}}
	runner := NewRunner(scanner, 2)

	results := runner.Run(context.Background(), requests(4))
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("results[1].Err = %v, want boom", results[1].Err)
	}
	for _, i := range []int{0, 2, 3} {
		if results[i].Err != nil {
			t.Errorf("results[%d].Err = %v, want nil", i, results[i].Err)
		}
	}
}

func TestRunCanceledContextMarksUnstarted(t *testing.T) {
	scanner := &fakeScanner{}
	runner := NewRunner(scanner, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, requests(3))
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("results[%d] should carry the context error", i)
		}
	}
}

func TestNewRunnerClampsConcurrency(t *testing.T) {
	scanner := &fakeScanner{delay: 5 * time.Millisecond}
	runner := NewRunner(scanner, 0)

	runner.Run(context.Background(), requests(4))

	scanner.mu.Lock()
	peak := scanner.peak
	scanner.mu.Unlock()
	if peak > 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
}
