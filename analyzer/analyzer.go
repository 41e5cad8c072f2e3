// Package analyzer detects brand mentions, extracts supporting excerpts,
// classifies sentiment and pulls competitor domains out of provider
// answers. Everything here is pure text processing; no network.
package analyzer

import (
	"strings"

	"visibility-scan-service/models"
)

const maxExcerptLength = 500

// Analysis is the result of analyzing one provider answer.
type Analysis struct {
	Visible     bool
	Excerpt     string
	Sentiment   models.Sentiment
	Competitors []string
}

// Analyzer holds the immutable configuration shared by all scans: the
// generic-domain exclusion set for competitor detection.
type Analyzer struct {
	generic map[string]bool
}

// New creates an analyzer with the given generic-domain exclusion set.
func New(genericDomains []string) *Analyzer {
	generic := make(map[string]bool, len(genericDomains))
	for _, d := range genericDomains {
		if n := models.NormalizeDomain(d); n != "" {
			generic[n] = true
		}
	}
	return &Analyzer{generic: generic}
}

// Analyze runs mention detection, excerpt extraction, sentiment and
// competitor extraction over one provider answer. citationURLs and
// citationTitles come from the provider's cited sources and count toward
// mention detection alongside the answer text.
func (a *Analyzer) Analyze(rawText string, citationURLs, citationTitles []string, brandDomain string, brandNames, competitorDomains []string) Analysis {
	terms := brandTerms(brandDomain, brandNames)

	haystack := strings.ToLower(strings.Join(append(append([]string{rawText}, citationTitles...), citationURLs...), "\n"))
	visible := containsAny(haystack, terms)

	analysis := Analysis{
		Visible:     visible,
		Sentiment:   classifySentiment(rawText),
		Competitors: a.extractCompetitors(rawText, citationURLs, brandDomain, competitorDomains),
	}
	if visible {
		analysis.Excerpt = extractExcerpt(rawText, terms)
	}
	return analysis
}

// brandTerms builds the lowercase terms whose presence counts as a brand
// mention: the full domain, the domain's base label (3+ chars) and every
// brand name of 2+ chars.
func brandTerms(brandDomain string, brandNames []string) []string {
	var terms []string
	if d := models.NormalizeDomain(brandDomain); d != "" {
		terms = append(terms, d)
	}
	if label := models.BaseLabel(brandDomain); label != "" {
		terms = append(terms, label)
	}
	for _, name := range brandNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if len(name) >= 2 {
			terms = append(terms, name)
		}
	}
	return terms
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// extractExcerpt returns the first sentence containing a brand term, or
// the first 500 characters of the raw text when no single sentence
// matches.
func extractExcerpt(rawText string, terms []string) string {
	for _, sentence := range splitSentences(rawText) {
		if containsAny(strings.ToLower(sentence), terms) {
			return sentence
		}
	}
	if len(rawText) > maxExcerptLength {
		return rawText[:maxExcerptLength]
	}
	return rawText
}

// splitSentences splits on sentence punctuation and trims whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
