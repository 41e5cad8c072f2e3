package models

import "testing"

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare domain",
			input:    "acme.com",
			expected: "acme.com",
		},
		{
			name:     "https with www and trailing slash",
			input:    "https://www.acme.com/",
			expected: "acme.com",
		},
		{
			name:     "http with path",
			input:    "http://acme.com/pricing",
			expected: "acme.com",
		},
		{
			name:     "uppercase",
			input:    "WWW.Acme.COM",
			expected: "acme.com",
		},
		{
			name:     "query string",
			input:    "acme.com?utm_source=x",
			expected: "acme.com",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDomain(tt.input); got != tt.expected {
				t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBaseLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple domain",
			input:    "acme.com",
			expected: "acme",
		},
		{
			name:     "with protocol",
			input:    "https://www.monday.com",
			expected: "monday",
		},
		{
			name:     "label too short",
			input:    "hq.io",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseLabel(tt.input); got != tt.expected {
				t.Errorf("BaseLabel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAllProvidersStable(t *testing.T) {
	a := AllProviders()
	b := AllProviders()
	if len(a) != 6 || len(b) != 6 {
		t.Fatalf("expected 6 providers, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("provider order not stable at %d: %s vs %s", i, a[i], b[i])
		}
	}
	if !IsValidProvider(ProviderClaude) {
		t.Error("claude should be a valid provider")
	}
	if IsValidProvider("yahoo") {
		t.Error("yahoo should not be a valid provider")
	}
}
