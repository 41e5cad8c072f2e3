// Package provider defines the adapter contract every answer provider
// implements, the shared error taxonomy, and the closed registry the scan
// engine fans out over.
package provider

import (
	"context"

	"visibility-scan-service/models"
)

// Adapter is one answer provider. Implementations must be concurrency-safe:
// a single adapter is shared by every scan in flight.
//
// Fetch builds the provider-specific request, sends it, and parses the
// provider-specific response shape into the common ProviderResponse.
// Transport, timeout and auth failures are returned as wrapped sentinel
// errors from this package; Fetch never panics across its boundary.
type Adapter interface {
	// ID returns the provider's identity within the closed provider set.
	ID() models.ProviderID
	// MaxQueryLength returns the provider-specific maximum query length.
	// Longer queries are truncated silently at the adapter boundary.
	MaxQueryLength() int
	Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error)
}

// TruncateQuery caps a query at max runes. Truncation happens at the
// adapter boundary, never upstream.
func TruncateQuery(query string, max int) string {
	if max <= 0 {
		return query
	}
	runes := []rune(query)
	if len(runes) <= max {
		return query
	}
	return string(runes[:max])
}
