// Package scan runs the provider fan-out at the heart of a visibility
// scan: it queries every registered provider concurrently, analyzes the
// answers that came back, and folds them into a single deterministic
// result with a fairness-adjusted score.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"visibility-scan-service/analyzer"
	"visibility-scan-service/metrics"
	"visibility-scan-service/models"
	"visibility-scan-service/provider"
)

// Store persists scan results and citation records. Implementations
// must tolerate concurrent calls.
type Store interface {
	SaveScan(ctx context.Context, result *models.ScanResult) error
	InsertCitations(ctx context.Context, citations []models.Citation) error
}

// EventPublisher emits scan lifecycle events to interested consumers.
type EventPublisher interface {
	PublishScanCompleted(result *models.ScanResult) error
	PublishBillingAlert(providerID models.ProviderID) error
}

// Engine orchestrates visibility scans. Store and publisher are
// optional; a nil value disables persistence or events without
// affecting the scan itself.
type Engine struct {
	registry        *provider.Registry
	analyzer        *analyzer.Analyzer
	store           Store
	publisher       EventPublisher
	providerTimeout time.Duration

	now func() time.Time
}

// NewEngine creates a scan engine. providerTimeout bounds each
// individual provider call; the caller's context bounds the scan as a
// whole.
func NewEngine(registry *provider.Registry, an *analyzer.Analyzer, store Store, publisher EventPublisher, providerTimeout time.Duration) *Engine {
	return &Engine{
		registry:        registry,
		analyzer:        an,
		store:           store,
		publisher:       publisher,
		providerTimeout: providerTimeout,
		now:             time.Now,
	}
}

// RunScan queries every registered provider for req and aggregates the
// answers into one ScanResult plus the citation records for visible
// outcomes. All providers failing is a valid result with score zero,
// not an error; RunScan returns an error only when ctx is canceled
// before aggregation, in which case no partial result is produced.
func (e *Engine) RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, []models.Citation, error) {
	req.BrandDomain = models.NormalizeDomain(req.BrandDomain)
	adapters := e.registry.Ordered()
	start := time.Now()

	tasks := make([]func(context.Context) (*models.ProviderResponse, error), len(adapters))
	for i, a := range adapters {
		a := a
		tasks[i] = func(ctx context.Context) (*models.ProviderResponse, error) {
			callCtx, cancel := context.WithTimeout(ctx, e.providerTimeout)
			defer cancel()
			callStart := time.Now()
			resp, err := a.Fetch(callCtx, req)
			metrics.ProviderCallDurationSeconds.WithLabelValues(string(a.ID())).Observe(time.Since(callStart).Seconds())
			return resp, err
		}
	}

	settled := SettleAll(ctx, tasks)

	if err := ctx.Err(); err != nil {
		metrics.ScansTotal.WithLabelValues("canceled").Inc()
		return nil, nil, fmt.Errorf("scan canceled: %w", err)
	}

	timestamp := e.now().UTC()
	result := &models.ScanResult{
		Query:          req.Query,
		BrandName:      req.BrandDomain,
		Timestamp:      timestamp,
		Outcomes:       make(map[models.ProviderID]models.ProviderOutcome, len(adapters)),
		TotalProviders: len(adapters),
	}
	var citations []models.Citation

	for i, a := range adapters {
		id := a.ID()
		resp, err := settled[i].Value, settled[i].Err
		if err != nil {
			result.Outcomes[id] = e.failureOutcome(id, err)
			continue
		}

		result.RespondedCount++
		metrics.ProviderCallsTotal.WithLabelValues(string(id), "ok").Inc()

		an := e.analyzer.Analyze(resp.Text, resp.SourceURLs, resp.Titles, req.BrandDomain, req.BrandNames, req.CompetitorDomains)
		outcome := models.ProviderOutcome{
			ProviderID: id,
			Responded:  true,
			Visible:    an.Visible,
			Excerpt:    an.Excerpt,
			Sentiment:  an.Sentiment,
		}
		if an.Visible {
			result.VisibleCount++
			outcome.SourceURLs = resp.SourceURLs
			citations = append(citations, BuildCitation(CitationInput{
				ProviderID:  id,
				Excerpt:     an.Excerpt,
				Sentiment:   an.Sentiment,
				Competitors: an.Competitors,
				SourceURLs:  resp.SourceURLs,
				Titles:      resp.Titles,
				Rank:        resp.BrandRank,
			}, req.Query, req.BrandDomain, timestamp))
		}
		result.Outcomes[id] = outcome
	}

	result.OverallScore = FairnessScore(result.VisibleCount, result.RespondedCount)

	e.persist(ctx, result, citations)
	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds())
	log.Infof("scan complete for %s: score=%d responded=%d/%d visible=%d",
		req.BrandDomain, result.OverallScore, result.RespondedCount, result.TotalProviders, result.VisibleCount)

	return result, citations, nil
}

// CheckProvider runs a single provider for req, outside a full scan.
// Unknown provider IDs are an error; a provider failure is reported
// through the outcome, same as during a scan.
func (e *Engine) CheckProvider(ctx context.Context, id models.ProviderID, req models.ScanRequest) (*models.ProviderOutcome, error) {
	a := e.registry.Get(id)
	if a == nil {
		return nil, fmt.Errorf("no adapter registered for provider %s", id)
	}
	req.BrandDomain = models.NormalizeDomain(req.BrandDomain)

	callCtx, cancel := context.WithTimeout(ctx, e.providerTimeout)
	defer cancel()
	callStart := time.Now()
	resp, err := a.Fetch(callCtx, req)
	metrics.ProviderCallDurationSeconds.WithLabelValues(string(id)).Observe(time.Since(callStart).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("provider check canceled: %w", ctxErr)
		}
		outcome := e.failureOutcome(id, err)
		return &outcome, nil
	}
	metrics.ProviderCallsTotal.WithLabelValues(string(id), "ok").Inc()

	an := e.analyzer.Analyze(resp.Text, resp.SourceURLs, resp.Titles, req.BrandDomain, req.BrandNames, req.CompetitorDomains)
	outcome := models.ProviderOutcome{
		ProviderID: id,
		Responded:  true,
		Visible:    an.Visible,
		Excerpt:    an.Excerpt,
		Sentiment:  an.Sentiment,
	}
	if an.Visible {
		outcome.SourceURLs = resp.SourceURLs
	}
	return &outcome, nil
}

// failureOutcome classifies a provider error into a non-responded
// outcome with a user-facing status message. Billing exhaustion is
// surfaced to operators separately; users see the same friendly
// unavailable message either way.
func (e *Engine) failureOutcome(id models.ProviderID, err error) models.ProviderOutcome {
	kind := models.FailureUnavailable
	metricResult := "unavailable"

	switch {
	case errors.Is(err, provider.ErrEmpty):
		kind = models.FailureEmpty
		metricResult = "empty"
		log.Infof("provider %s returned no usable content: %v", id, err)
	case errors.Is(err, provider.ErrBillingExhausted):
		metricResult = "billing"
		metrics.BillingExhaustedTotal.WithLabelValues(string(id)).Inc()
		log.Errorf("provider %s billing exhausted: %v", id, err)
		if e.publisher != nil {
			if pubErr := e.publisher.PublishBillingAlert(id); pubErr != nil {
				log.Errorf("publishing billing alert for %s: %v", id, pubErr)
			}
		}
	case errors.Is(err, provider.ErrRateLimited):
		metricResult = "rate_limited"
		log.Warnf("provider %s rate limited: %v", id, err)
	default:
		log.Warnf("provider %s unavailable: %v", id, err)
	}
	metrics.ProviderCallsTotal.WithLabelValues(string(id), metricResult).Inc()

	return models.ProviderOutcome{
		ProviderID:    id,
		Responded:     false,
		Visible:       false,
		Sentiment:     models.SentimentNeutral,
		StatusMessage: StatusMessage(id, kind),
	}
}

// persist saves the result and citations and emits the completion
// event. Persistence problems never fail the scan; the result has
// already been computed and belongs to the caller.
func (e *Engine) persist(ctx context.Context, result *models.ScanResult, citations []models.Citation) {
	if e.store != nil {
		if err := e.store.SaveScan(ctx, result); err != nil {
			log.Errorf("saving scan result: %v", err)
		}
		if len(citations) > 0 {
			if err := e.store.InsertCitations(ctx, citations); err != nil {
				log.Errorf("saving citations: %v", err)
			}
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishScanCompleted(result); err != nil {
			log.Errorf("publishing scan completed event: %v", err)
		}
	}
}
