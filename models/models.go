package models

import (
	"strings"
	"time"
)

// ProviderID identifies one of the six answer providers queried per scan.
type ProviderID string

const (
	ProviderGoogleSERP ProviderID = "google-serp"
	ProviderBingSERP   ProviderID = "bing-serp"
	ProviderChatGPT    ProviderID = "chatgpt"
	ProviderClaude     ProviderID = "claude"
	ProviderGemini     ProviderID = "gemini"
	ProviderPerplexity ProviderID = "perplexity"
)

// AllProviders returns the closed set of provider IDs in their canonical
// fan-out order. The order is fixed so scan results are deterministic.
func AllProviders() []ProviderID {
	return []ProviderID{
		ProviderGoogleSERP,
		ProviderBingSERP,
		ProviderChatGPT,
		ProviderClaude,
		ProviderGemini,
		ProviderPerplexity,
	}
}

// IsValidProvider reports whether id names one of the six known providers.
func IsValidProvider(id ProviderID) bool {
	for _, p := range AllProviders() {
		if p == id {
			return true
		}
	}
	return false
}

// Sentiment classifies how an answer talks about the brand.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// FailureKind distinguishes why a provider did not respond.
type FailureKind string

const (
	// FailureUnavailable means the call itself was rejected (network,
	// transport, auth, rate limit).
	FailureUnavailable FailureKind = "unavailable"
	// FailureEmpty means the call completed but returned nothing usable.
	FailureEmpty FailureKind = "empty"
)

// ScanRequest is the normalized input for one visibility scan.
// It is immutable once constructed; BrandDomain must be normalized with
// NormalizeDomain before use.
type ScanRequest struct {
	Query             string   `json:"query"`
	BrandDomain       string   `json:"brand_domain"`
	BrandNames        []string `json:"brand_names"`
	CompetitorDomains []string `json:"competitor_domains"`
	RegionHint        string   `json:"region_hint,omitempty"`
}

// ProviderResponse is the common record every adapter normalizes its
// provider-specific payload into. The wire structs stay private to each
// adapter package.
type ProviderResponse struct {
	Text       string   `json:"text"`
	SourceURLs []string `json:"source_urls"`
	Titles     []string `json:"titles"`
	// BrandRank is the absolute rank of the first result on the brand's
	// own domain, when the provider exposes ranking. Zero means unknown.
	BrandRank int `json:"brand_rank"`
}

// ProviderOutcome is the per-provider result of one scan.
// Invariants: Responded == false implies Visible == false;
// Visible == true implies Excerpt is non-empty.
type ProviderOutcome struct {
	ProviderID    ProviderID `json:"provider_id"`
	Responded     bool       `json:"responded"`
	Visible       bool       `json:"visible"`
	Excerpt       string     `json:"excerpt"`
	SourceURLs    []string   `json:"source_urls,omitempty"`
	Sentiment     Sentiment  `json:"sentiment"`
	StatusMessage string     `json:"status_message,omitempty"`
}

// Citation is the persistable record of one provider's visible mention.
type Citation struct {
	ID          string     `json:"id"`
	ProviderID  ProviderID `json:"provider_id"`
	Query       string     `json:"query"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Position    int        `json:"position"`
	Sentiment   Sentiment  `json:"sentiment"`
	Competitors []string   `json:"competitors"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ScanResult is the single output of one scan. The engine never mutates
// it after construction.
type ScanResult struct {
	Query          string                         `json:"query"`
	BrandName      string                         `json:"brand_name"`
	Timestamp      time.Time                      `json:"timestamp"`
	Outcomes       map[ProviderID]ProviderOutcome `json:"outcomes"`
	OverallScore   int                            `json:"overall_score"`
	RespondedCount int                            `json:"responded_count"`
	VisibleCount   int                            `json:"visible_count"`
	TotalProviders int                            `json:"total_providers"`
}

// NormalizeDomain strips the protocol, a leading "www." and any path or
// trailing slash from a domain, and lowercases it.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

// BaseLabel returns the domain minus its TLD ("acme" for "acme.com").
// Returns an empty string when the label would be shorter than 3 runes,
// which is too ambiguous to match against free text.
func BaseLabel(domain string) string {
	d := NormalizeDomain(domain)
	if i := strings.Index(d, "."); i >= 0 {
		d = d[:i]
	}
	if len(d) < 3 {
		return ""
	}
	return d
}
