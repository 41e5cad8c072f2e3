package analyzer

import (
	"strings"
	"testing"

	"visibility-scan-service/models"
)

var testGenericDomains = []string{
	"facebook.com", "twitter.com", "wikipedia.org", "reddit.com",
	"github.com", "quora.com", "youtube.com",
}

func newTestAnalyzer() *Analyzer {
	return New(testGenericDomains)
}

func TestAnalyzeMentionDetectionCaseInsensitive(t *testing.T) {
	a := newTestAnalyzer()

	upper := a.Analyze("ACME is great", nil, nil, "acme.com", []string{"Acme"}, nil)
	lower := a.Analyze("acme is great", nil, nil, "acme.com", []string{"Acme"}, nil)

	if !upper.Visible || !lower.Visible {
		t.Errorf("expected both casings visible, got upper=%v lower=%v", upper.Visible, lower.Visible)
	}
	if upper.Visible != lower.Visible {
		t.Error("mention detection should be case-insensitive")
	}
}

func TestAnalyzeMentionSources(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name    string
		text    string
		urls    []string
		titles  []string
		visible bool
	}{
		{
			name:    "full domain in text",
			text:    "see acme.com for details",
			visible: true,
		},
		{
			name:    "base label in text",
			text:    "Acme has a generous free tier",
			visible: true,
		},
		{
			name:    "brand name in text",
			text:    "Acme Corp remains the leader",
			visible: true,
		},
		{
			name:    "mention only in citation url",
			text:    "several tools are worth a look",
			urls:    []string{"https://acme.com/pricing"},
			visible: true,
		},
		{
			name:    "mention only in citation title",
			text:    "several tools are worth a look",
			titles:  []string{"Acme pricing overview"},
			visible: true,
		},
		{
			name:    "no mention anywhere",
			text:    "several tools are worth a look",
			urls:    []string{"https://rival.com"},
			titles:  []string{"Tool roundup"},
			visible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text, tt.urls, tt.titles, "acme.com", []string{"Acme Corp"}, nil)
			if got.Visible != tt.visible {
				t.Errorf("Visible = %v, want %v", got.Visible, tt.visible)
			}
		})
	}
}

func TestAnalyzeShortTermsIgnored(t *testing.T) {
	a := newTestAnalyzer()

	// Base label under 3 chars and brand names under 2 chars must not
	// count as mention terms.
	got := a.Analyze("an unrelated answer", nil, nil, "hq.io", []string{"a"}, nil)
	if got.Visible {
		t.Error("short brand terms should not trigger visibility")
	}
}

func TestAnalyzeExcerptFirstMatchingSentence(t *testing.T) {
	a := newTestAnalyzer()

	text := "Many tools exist. Acme is the most popular option! Others trail behind."
	got := a.Analyze(text, nil, nil, "acme.com", nil, nil)
	if !got.Visible {
		t.Fatal("expected visible")
	}
	if got.Excerpt != "Acme is the most popular option!" {
		t.Errorf("Excerpt = %q, want the acme sentence", got.Excerpt)
	}
}

func TestAnalyzeExcerptFallsBackToPrefix(t *testing.T) {
	a := newTestAnalyzer()

	// Visible via citation URL but no sentence mentions the brand, so the
	// excerpt is the text prefix.
	longText := strings.Repeat("word ", 200)
	got := a.Analyze(longText, []string{"https://acme.com"}, nil, "acme.com", nil, nil)
	if !got.Visible {
		t.Fatal("expected visible via citation url")
	}
	if len(got.Excerpt) != 500 {
		t.Errorf("excerpt length = %d, want 500", len(got.Excerpt))
	}
}

func TestAnalyzeVisibleImpliesExcerpt(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("acme", nil, nil, "acme.com", nil, nil)
	if !got.Visible {
		t.Fatal("expected visible")
	}
	if got.Excerpt == "" {
		t.Error("visible outcome must carry a non-empty excerpt")
	}
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.Sentiment
	}{
		{
			name:     "two positive zero negative",
			text:     "Acme is the best and most popular pick",
			expected: models.SentimentPositive,
		},
		{
			name:     "two negative zero positive",
			text:     "Acme is the worst and most problematic pick",
			expected: models.SentimentNegative,
		},
		{
			name:     "tie is neutral",
			text:     "Acme is the best but expensive",
			expected: models.SentimentNeutral,
		},
		{
			name:     "no keywords is neutral",
			text:     "Acme exists",
			expected: models.SentimentNeutral,
		},
		{
			name:     "keywords inside words do not count",
			text:     "the bestowed badge",
			expected: models.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySentiment(tt.text); got != tt.expected {
				t.Errorf("classifySentiment(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}
