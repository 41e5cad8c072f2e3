package scan

import (
	"fmt"

	"visibility-scan-service/models"
)

var providerLabels = map[models.ProviderID]string{
	models.ProviderGoogleSERP: "Google Search",
	models.ProviderBingSERP:   "Bing Search",
	models.ProviderChatGPT:    "ChatGPT",
	models.ProviderClaude:     "Claude",
	models.ProviderGemini:     "Gemini",
	models.ProviderPerplexity: "Perplexity",
}

// ProviderLabel returns the user-facing display name for a provider.
func ProviderLabel(id models.ProviderID) string {
	if label, ok := providerLabels[id]; ok {
		return label
	}
	return string(id)
}

// StatusMessage builds the user-facing explanation attached to a
// provider outcome that did not respond. Messages stay reassuring:
// they describe the gap without alarming words and always point at
// the providers that did answer.
func StatusMessage(id models.ProviderID, kind models.FailureKind) string {
	label := ProviderLabel(id)
	switch kind {
	case models.FailureEmpty:
		return fmt.Sprintf("%s was slow to respond for this query, so it was left out of the score. Results from the other providers are complete.", label)
	case models.FailureUnavailable:
		return fmt.Sprintf("%s was temporarily busy and was left out of the score. Results from the other providers are complete.", label)
	default:
		return fmt.Sprintf("%s did not take part in this scan. Results from the other providers are complete.", label)
	}
}
