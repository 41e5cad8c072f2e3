package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"visibility-scan-service/models"
)

// SaveScan persists one scan result. Per-provider outcomes are stored
// as a JSON document alongside the aggregate columns.
func (d *Database) SaveScan(ctx context.Context, result *models.ScanResult) error {
	outcomes, err := json.Marshal(result.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}

	query := `
	INSERT INTO scans (id, query, brand_name, overall_score, responded_count, visible_count, total_providers, outcomes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = d.db.ExecContext(ctx, query,
		uuid.New().String(),
		result.Query,
		result.BrandName,
		result.OverallScore,
		result.RespondedCount,
		result.VisibleCount,
		result.TotalProviders,
		outcomes,
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}

	return nil
}

// InsertCitations persists citation records in a single multi-row insert.
func (d *Database) InsertCitations(ctx context.Context, citations []models.Citation) error {
	if len(citations) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(citations))
	args := make([]interface{}, 0, len(citations)*9)
	for _, c := range citations {
		competitors, err := json.Marshal(c.Competitors)
		if err != nil {
			return fmt.Errorf("failed to marshal competitors: %w", err)
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, c.ID, string(c.ProviderID), c.Query, c.URL, c.Title, c.Excerpt, c.Position, string(c.Sentiment), competitors, c.CreatedAt)
	}

	query := `
	INSERT INTO citations (id, provider_id, query, url, title, excerpt, position, sentiment, competitors, created_at)
	VALUES ` + strings.Join(placeholders, ", ")

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert citations: %w", err)
	}

	return nil
}

// BrandStats aggregates a brand's scan history.
type BrandStats struct {
	BrandName    string    `json:"brand_name"`
	ScanCount    int       `json:"scan_count"`
	AverageScore float64   `json:"average_score"`
	LatestScore  int       `json:"latest_score"`
	LastScanAt   time.Time `json:"last_scan_at"`
}

// GetBrandStats returns aggregate scan statistics for one brand, or nil
// when the brand has never been scanned.
func (d *Database) GetBrandStats(ctx context.Context, brandName string) (*BrandStats, error) {
	query := `
	SELECT brand_name, COUNT(*), AVG(overall_score), MAX(created_at)
	FROM scans
	WHERE brand_name = ?
	GROUP BY brand_name`

	stats := &BrandStats{}
	err := d.db.QueryRowContext(ctx, query, brandName).Scan(
		&stats.BrandName,
		&stats.ScanCount,
		&stats.AverageScore,
		&stats.LastScanAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query brand stats: %w", err)
	}

	latest := `
	SELECT overall_score FROM scans
	WHERE brand_name = ?
	ORDER BY created_at DESC
	LIMIT 1`
	if err := d.db.QueryRowContext(ctx, latest, brandName).Scan(&stats.LatestScore); err != nil {
		return nil, fmt.Errorf("failed to query latest score: %w", err)
	}

	return stats, nil
}

// GetCitationCountsByProvider returns how many stored citations each
// provider has produced.
func (d *Database) GetCitationCountsByProvider(ctx context.Context) (map[models.ProviderID]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT provider_id, COUNT(*) FROM citations GROUP BY provider_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query citation counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ProviderID]int)
	for rows.Next() {
		var providerID string
		var count int
		if err := rows.Scan(&providerID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan citation count: %w", err)
		}
		counts[models.ProviderID(providerID)] = count
	}

	return counts, rows.Err()
}

// GetRecentCitations returns the newest citations for a brand's queries,
// newest first.
func (d *Database) GetRecentCitations(ctx context.Context, limit int) ([]models.Citation, error) {
	query := `
	SELECT id, provider_id, query, url, title, excerpt, position, sentiment, competitors, created_at
	FROM citations
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query citations: %w", err)
	}
	defer rows.Close()

	var citations []models.Citation
	for rows.Next() {
		var c models.Citation
		var providerID, sentiment string
		var title sql.NullString
		var competitors []byte
		if err := rows.Scan(&c.ID, &providerID, &c.Query, &c.URL, &title, &c.Excerpt, &c.Position, &sentiment, &competitors, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		c.ProviderID = models.ProviderID(providerID)
		c.Sentiment = models.Sentiment(sentiment)
		c.Title = title.String
		if len(competitors) > 0 {
			if err := json.Unmarshal(competitors, &c.Competitors); err != nil {
				return nil, fmt.Errorf("failed to unmarshal competitors: %w", err)
			}
		}
		citations = append(citations, c)
	}

	return citations, rows.Err()
}
