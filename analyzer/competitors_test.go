package analyzer

import (
	"fmt"
	"testing"
)

func TestExtractCompetitorsFromText(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze(
		"Acme competes with rival.com and challenger.io in this space.",
		nil, nil, "acme.com", nil, nil,
	)
	want := []string{"rival.com", "challenger.io"}
	assertCompetitors(t, got.Competitors, want)
}

func TestExtractCompetitorsFromCitationURLs(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze(
		"A comparison of popular tools.",
		[]string{
			"https://www.rival.com/compare",
			"https://blog.challenger.io/acme-vs-rival",
			"https://en.wikipedia.org/wiki/CRM",
		},
		nil, "acme.com", nil, nil,
	)
	want := []string{"rival.com", "challenger.io"}
	assertCompetitors(t, got.Competitors, want)
}

func TestExtractCompetitorsExcludesBrand(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze(
		"acme.com and app.acme.com are both the brand itself, rival.com is not.",
		[]string{"https://acme.com/about"},
		nil, "acme.com", nil, nil,
	)
	for _, c := range got.Competitors {
		if c == "acme.com" {
			t.Error("brand domain must never appear in competitors")
		}
	}
	assertCompetitors(t, got.Competitors, []string{"rival.com"})
}

func TestExtractCompetitorsExcludesGenericAndRestricted(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze(
		"Discussed on reddit.com, github.com and quora.com alongside rival.com.",
		[]string{"https://www.irs.gov/page", "https://mit.edu/research"},
		nil, "acme.com", nil, nil,
	)
	assertCompetitors(t, got.Competitors, []string{"rival.com"})
}

func TestExtractCompetitorsConfiguredBaseLabel(t *testing.T) {
	a := newTestAnalyzer()

	// "challenger" appears without a full domain string; the configured
	// competitor list still catches it.
	got := a.Analyze(
		"Challenger remains a strong alternative.",
		nil, nil, "acme.com", nil, []string{"challenger.io"},
	)
	assertCompetitors(t, got.Competitors, []string{"challenger.io"})
}

func TestExtractCompetitorsCap(t *testing.T) {
	a := newTestAnalyzer()

	text := ""
	for i := 0; i < 15; i++ {
		text += fmt.Sprintf("tool%02d.com ", i)
	}
	got := a.Analyze(text, nil, nil, "acme.com", nil, nil)
	if len(got.Competitors) != 10 {
		t.Errorf("expected competitor cap of 10, got %d", len(got.Competitors))
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain host",
			input:    "https://rival.com/page",
			expected: "rival.com",
		},
		{
			name:     "www and subdomain stripped",
			input:    "https://www.blog.rival.com/post",
			expected: "rival.com",
		},
		{
			name:     "two part public suffix",
			input:    "https://shop.rival.co.uk/item",
			expected: "rival.co.uk",
		},
		{
			name:     "schemeless",
			input:    "rival.com/page",
			expected: "rival.com",
		},
		{
			name:     "not a domain",
			input:    "not a url",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := registrableDomain(tt.input); got != tt.expected {
				t.Errorf("registrableDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func assertCompetitors(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("competitors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("competitors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
