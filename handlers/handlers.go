// Package handlers exposes the scan service HTTP API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"visibility-scan-service/bulk"
	"visibility-scan-service/credits"
	"visibility-scan-service/database"
	"visibility-scan-service/metrics"
	"visibility-scan-service/models"
	"visibility-scan-service/scan"
)

const maxBulkRequests = 100

// Handlers represents the HTTP handlers
type Handlers struct {
	engine         *scan.Engine
	runner         *bulk.Runner
	db             *database.Database
	ledger         *credits.Ledger
	creditsPerScan int
}

// NewHandlers creates new HTTP handlers. db and ledger may be nil, which
// disables history endpoints and credit enforcement respectively.
func NewHandlers(engine *scan.Engine, runner *bulk.Runner, db *database.Database, ledger *credits.Ledger, creditsPerScan int) *Handlers {
	return &Handlers{
		engine:         engine,
		runner:         runner,
		db:             db,
		ledger:         ledger,
		creditsPerScan: creditsPerScan,
	}
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v3")
	api.POST("/scan", h.RunScan)
	api.POST("/scan/bulk", h.RunBulkScan)
	api.POST("/provider/check", h.CheckProvider)
	api.GET("/brands/:brand/stats", h.GetBrandStats)
	api.GET("/citations", h.GetRecentCitations)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "visibility-scan-service",
	})
}

// ScanRequestBody is the POST /scan payload.
type ScanRequestBody struct {
	AccountID         string   `json:"account_id" binding:"required"`
	Query             string   `json:"query" binding:"required"`
	BrandDomain       string   `json:"brand_domain" binding:"required"`
	BrandNames        []string `json:"brand_names"`
	CompetitorDomains []string `json:"competitor_domains"`
	RegionHint        string   `json:"region_hint"`
}

func (b *ScanRequestBody) toScanRequest() models.ScanRequest {
	return models.ScanRequest{
		Query:             b.Query,
		BrandDomain:       b.BrandDomain,
		BrandNames:        b.BrandNames,
		CompetitorDomains: b.CompetitorDomains,
		RegionHint:        b.RegionHint,
	}
}

// RunScan executes one visibility scan. Credits are debited up front
// and refunded if the scan cannot complete.
func (h *Handlers) RunScan(c *gin.Context) {
	var body ScanRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	scanID := uuid.New().String()
	if !h.debit(c, body.AccountID, h.creditsPerScan, scanID) {
		return
	}

	result, citations, err := h.engine.RunScan(c.Request.Context(), body.toScanRequest())
	if err != nil {
		h.refund(body.AccountID, h.creditsPerScan, scanID+":refund")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scan did not complete"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scan_id":   scanID,
		"result":    result,
		"citations": citations,
	})
}

// BulkScanRequestBody is the POST /scan/bulk payload.
type BulkScanRequestBody struct {
	AccountID string            `json:"account_id" binding:"required"`
	Requests  []ScanRequestBody `json:"requests" binding:"required"`
}

// RunBulkScan executes a batch of scans with bounded concurrency.
// Credits for scans that could not run are refunded.
func (h *Handlers) RunBulkScan(c *gin.Context) {
	var body BulkScanRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(body.Requests) == 0 || len(body.Requests) > maxBulkRequests {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bulk scans accept between 1 and 100 requests"})
		return
	}
	for _, r := range body.Requests {
		if r.Query == "" || r.BrandDomain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Every request needs a query and brand_domain"})
			return
		}
	}

	batchID := uuid.New().String()
	total := h.creditsPerScan * len(body.Requests)
	if !h.debit(c, body.AccountID, total, batchID) {
		return
	}

	requests := make([]models.ScanRequest, len(body.Requests))
	for i, r := range body.Requests {
		requests[i] = r.toScanRequest()
	}

	results := h.runner.Run(c.Request.Context(), requests)

	failed := 0
	out := make([]gin.H, len(results))
	for i, r := range results {
		entry := gin.H{"query": r.Request.Query}
		if r.Err != nil {
			failed++
			entry["completed"] = false
		} else {
			entry["completed"] = true
			entry["result"] = r.Result
			entry["citations"] = r.Citations
		}
		out[i] = entry
	}
	if failed > 0 {
		h.refund(body.AccountID, h.creditsPerScan*failed, batchID+":refund")
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"results":  out,
	})
}

// ProviderCheckBody is the POST /provider/check payload.
type ProviderCheckBody struct {
	ProviderID  string `json:"provider_id" binding:"required"`
	Query       string `json:"query" binding:"required"`
	BrandDomain string `json:"brand_domain" binding:"required"`
	RegionHint  string `json:"region_hint"`
}

// CheckProvider runs a single provider outside a full scan. No credits
// are charged; this exists for connectivity checks.
func (h *Handlers) CheckProvider(c *gin.Context) {
	var body ProviderCheckBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	id := models.ProviderID(body.ProviderID)
	if !models.IsValidProvider(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider"})
		return
	}

	outcome, err := h.engine.CheckProvider(c.Request.Context(), id, models.ScanRequest{
		Query:       body.Query,
		BrandDomain: body.BrandDomain,
		RegionHint:  body.RegionHint,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Provider check did not complete"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetBrandStats returns aggregate scan history for one brand.
func (h *Handlers) GetBrandStats(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Scan history is not enabled"})
		return
	}

	brand := models.NormalizeDomain(c.Param("brand"))
	stats, err := h.db.GetBrandStats(c.Request.Context(), brand)
	if err != nil {
		log.Errorf("querying brand stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get brand stats"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand has not been scanned"})
		return
	}

	counts, err := h.db.GetCitationCountsByProvider(c.Request.Context())
	if err != nil {
		log.Errorf("querying citation counts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get brand stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":                 stats,
		"citations_by_provider": counts,
	})
}

// GetRecentCitations returns the newest stored citations.
func (h *Handlers) GetRecentCitations(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Scan history is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	citations, err := h.db.GetRecentCitations(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("querying citations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get citations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"citations": citations})
}

// debit charges the account and writes the HTTP error response itself
// when the charge cannot be made. Returns true when the scan may
// proceed.
func (h *Handlers) debit(c *gin.Context, accountID string, amount int, idempotencyKey string) bool {
	if h.ledger == nil {
		return true
	}
	err := h.ledger.Debit(c.Request.Context(), accountID, amount, idempotencyKey)
	if errors.Is(err, credits.ErrInsufficientCredits) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient scan credits"})
		return false
	}
	if err != nil {
		log.Errorf("debiting credits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve scan credits"})
		return false
	}
	metrics.CreditsDebitedTotal.Add(float64(amount))
	return true
}

func (h *Handlers) refund(accountID string, amount int, idempotencyKey string) {
	if h.ledger == nil {
		return
	}
	// The request context may already be canceled when a refund runs.
	if err := h.ledger.Refund(context.Background(), accountID, amount, idempotencyKey); err != nil {
		log.Errorf("refunding credits: %v", err)
		return
	}
	metrics.CreditsRefundedTotal.Add(float64(amount))
}
