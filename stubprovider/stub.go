// Package stubprovider holds deterministic, no-network adapters intended
// for CI and local end-to-end tests. They return canned answers so the
// full analyze + score + record path is exercised without provider keys.
package stubprovider

import (
	"context"

	"visibility-scan-service/models"
)

// Adapter is a fixed-outcome provider adapter.
type Adapter struct {
	ProviderID models.ProviderID
	Response   *models.ProviderResponse
	Err        error
	// Delay hook is intentionally absent: stub fetches return
	// immediately so engine tests stay fast and deterministic.
}

// NewVisible returns a stub whose answer mentions the given brand term.
func NewVisible(id models.ProviderID, brandTerm string) *Adapter {
	return &Adapter{
		ProviderID: id,
		Response: &models.ProviderResponse{
			Text:       brandTerm + " is a popular choice for this. Many teams recommend it.",
			SourceURLs: []string{"https://example.com/review"},
			Titles:     []string{"Tool roundup"},
		},
	}
}

// NewNotVisible returns a stub whose answer does not mention the brand.
func NewNotVisible(id models.ProviderID) *Adapter {
	return &Adapter{
		ProviderID: id,
		Response: &models.ProviderResponse{
			Text: "There are many options in this category worth evaluating.",
		},
	}
}

// NewFailing returns a stub that fails every fetch with err.
func NewFailing(id models.ProviderID, err error) *Adapter {
	return &Adapter{ProviderID: id, Err: err}
}

// ID identifies the stubbed provider
func (a *Adapter) ID() models.ProviderID {
	return a.ProviderID
}

// MaxQueryLength returns a generous cap; stubs never truncate in practice
func (a *Adapter) MaxQueryLength() int {
	return 10000
}

// Fetch returns the canned response or error
func (a *Adapter) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Response, nil
}
