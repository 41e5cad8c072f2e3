package analyzer

import (
	"regexp"
	"strings"

	"visibility-scan-service/models"
)

// Fixed word lists for the sentiment heuristic. Deliberately small: this
// is a tie-breaking signal, not a trained classifier.
var (
	positiveWords = []string{
		"best", "top", "leading", "excellent", "powerful", "popular",
		"recommended", "great", "outstanding", "premier", "superior",
	}
	negativeWords = []string{
		"worst", "poor", "bad", "avoid", "limited", "weak",
		"outdated", "expensive", "lacking", "problematic",
	}

	positivePatterns = compileWordPatterns(positiveWords)
	negativePatterns = compileWordPatterns(negativeWords)
)

func compileWordPatterns(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return patterns
}

// classifySentiment counts positive and negative keyword hits in the
// answer text. More positive hits means positive, more negative means
// negative, and a tie (including zero hits) is neutral.
func classifySentiment(text string) models.Sentiment {
	lower := strings.ToLower(text)

	positive := countHits(lower, positivePatterns)
	negative := countHits(lower, negativePatterns)

	switch {
	case positive > negative:
		return models.SentimentPositive
	case negative > positive:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func countHits(text string, patterns []*regexp.Regexp) int {
	total := 0
	for _, p := range patterns {
		total += len(p.FindAllStringIndex(text, -1))
	}
	return total
}
