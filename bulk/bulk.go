// Package bulk runs many visibility scans with bounded concurrency.
// Each scan already fans out to six providers, so the cap here limits
// total provider pressure, not just goroutine count.
package bulk

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"visibility-scan-service/models"
)

// Scanner runs one visibility scan. Implemented by scan.Engine.
type Scanner interface {
	RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, []models.Citation, error)
}

// Result pairs one request with its scan outcome. Err is set when the
// scan itself could not run; provider failures inside a completed scan
// live in Result as usual.
type Result struct {
	Request   models.ScanRequest
	Result    *models.ScanResult
	Citations []models.Citation
	Err       error
}

// Runner executes scan batches against a shared engine.
type Runner struct {
	scanner     Scanner
	concurrency int64
}

// NewRunner creates a bulk runner. concurrency bounds how many scans
// run at once; values below 1 are clamped to 1.
func NewRunner(scanner Scanner, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{scanner: scanner, concurrency: int64(concurrency)}
}

// Run executes every request and returns results indexed by request.
// One scan erroring never stops the rest; cancellation of ctx stops
// scheduling and marks unstarted scans with the context error.
func (r *Runner) Run(ctx context.Context, requests []models.ScanRequest) []Result {
	results := make([]Result, len(requests))
	sem := semaphore.NewWeighted(r.concurrency)
	var g errgroup.Group

	for i, req := range requests {
		i, req := i, req
		results[i].Request = req

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = fmt.Errorf("scan not started: %w", err)
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i].Result, results[i].Citations, results[i].Err = r.scanner.RunScan(ctx, req)
			return nil
		})
	}

	g.Wait()
	return results
}
