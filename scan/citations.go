package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"visibility-scan-service/models"
)

// CitationInput carries the per-provider analysis needed to mint
// citation records for a visible outcome.
type CitationInput struct {
	ProviderID  models.ProviderID
	Excerpt     string
	Sentiment   models.Sentiment
	Competitors []string
	SourceURLs  []string
	Titles      []string
	Rank        int
}

// BuildCitation turns a visible provider outcome into a stored citation.
// The first cited source becomes the citation URL; providers that cite
// nothing fall back to the brand's own domain so the record always has
// a destination.
func BuildCitation(in CitationInput, query, brandDomain string, now time.Time) models.Citation {
	url := fmt.Sprintf("https://%s", brandDomain)
	title := ""
	if len(in.SourceURLs) > 0 {
		url = in.SourceURLs[0]
	}
	if len(in.Titles) > 0 {
		title = in.Titles[0]
	}

	position := 1
	if in.Rank > 0 {
		position = in.Rank
	}

	return models.Citation{
		ID:          uuid.New().String(),
		ProviderID:  in.ProviderID,
		Query:       query,
		URL:         url,
		Title:       title,
		Excerpt:     in.Excerpt,
		Position:    position,
		Sentiment:   in.Sentiment,
		Competitors: in.Competitors,
		CreatedAt:   now,
	}
}
