package scan

import (
	"testing"
	"time"

	"visibility-scan-service/models"
)

func TestBuildCitationUsesFirstSource(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	in := CitationInput{
		ProviderID: models.ProviderChatGPT,
		Excerpt:    "Acme is a popular choice.",
		Sentiment:  models.SentimentPositive,
		SourceURLs: []string{"https://reviews.example.com/acme", "https://other.example.com"},
		Titles:     []string{"Acme review", "Other"},
	}

	c := BuildCitation(in, "best crm", "acme.com", now)
	if c.URL != "https://reviews.example.com/acme" {
		t.Errorf("URL = %q", c.URL)
	}
	if c.Title != "Acme review" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.Position != 1 {
		t.Errorf("Position = %d, want 1", c.Position)
	}
	if c.Query != "best crm" {
		t.Errorf("Query = %q", c.Query)
	}
	if !c.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v", c.CreatedAt)
	}
	if c.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestBuildCitationFallsBackToBrandDomain(t *testing.T) {
	in := CitationInput{
		ProviderID: models.ProviderClaude,
		Excerpt:    "Acme leads the category.",
		Sentiment:  models.SentimentNeutral,
	}

	c := BuildCitation(in, "best crm", "acme.com", time.Now())
	if c.URL != "https://acme.com" {
		t.Errorf("URL = %q, want brand domain fallback", c.URL)
	}
	if c.Title != "" {
		t.Errorf("Title = %q, want empty", c.Title)
	}
}

func TestBuildCitationKeepsSERPRank(t *testing.T) {
	in := CitationInput{
		ProviderID: models.ProviderGoogleSERP,
		Excerpt:    "Acme dashboard for teams.",
		Sentiment:  models.SentimentNeutral,
		SourceURLs: []string{"https://acme.com/product"},
		Rank:       3,
	}

	c := BuildCitation(in, "crm tools", "acme.com", time.Now())
	if c.Position != 3 {
		t.Errorf("Position = %d, want 3", c.Position)
	}
}

func TestBuildCitationUniqueIDs(t *testing.T) {
	in := CitationInput{ProviderID: models.ProviderGemini, Excerpt: "x"}
	a := BuildCitation(in, "q", "acme.com", time.Now())
	b := BuildCitation(in, "q", "acme.com", time.Now())
	if a.ID == b.ID {
		t.Error("expected distinct citation IDs")
	}
}
