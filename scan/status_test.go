package scan

import (
	"strings"
	"testing"

	"visibility-scan-service/models"
)

func TestStatusMessageAvoidsAlarmingWords(t *testing.T) {
	forbidden := []string{"error", "failed", "broken"}

	for _, id := range models.AllProviders() {
		for _, kind := range []models.FailureKind{models.FailureUnavailable, models.FailureEmpty} {
			msg := strings.ToLower(StatusMessage(id, kind))
			for _, word := range forbidden {
				if strings.Contains(msg, word) {
					t.Errorf("%s/%s message contains %q: %s", id, kind, word, msg)
				}
			}
		}
	}
}

func TestStatusMessageMentionsOtherProviders(t *testing.T) {
	for _, id := range models.AllProviders() {
		for _, kind := range []models.FailureKind{models.FailureUnavailable, models.FailureEmpty} {
			msg := StatusMessage(id, kind)
			if !strings.Contains(msg, "other providers") {
				t.Errorf("%s/%s message does not reference the remaining providers: %s", id, kind, msg)
			}
		}
	}
}

func TestStatusMessageUsesDisplayName(t *testing.T) {
	msg := StatusMessage(models.ProviderChatGPT, models.FailureEmpty)
	if !strings.Contains(msg, "ChatGPT") {
		t.Errorf("expected display name in message: %s", msg)
	}

	msg = StatusMessage(models.ProviderGoogleSERP, models.FailureUnavailable)
	if !strings.Contains(msg, "Google Search") {
		t.Errorf("expected display name in message: %s", msg)
	}
}

func TestStatusMessageDistinguishesEmptyFromUnavailable(t *testing.T) {
	empty := StatusMessage(models.ProviderGemini, models.FailureEmpty)
	unavailable := StatusMessage(models.ProviderGemini, models.FailureUnavailable)
	if empty == unavailable {
		t.Error("empty and unavailable outcomes should read differently")
	}
	if !strings.Contains(empty, "slow to respond") {
		t.Errorf("empty message should use the slow-to-respond wording: %s", empty)
	}
	if !strings.Contains(unavailable, "temporarily busy") {
		t.Errorf("unavailable message should use the temporarily-busy wording: %s", unavailable)
	}
}

func TestProviderLabelFallsBackToID(t *testing.T) {
	if got := ProviderLabel(models.ProviderID("unknown-thing")); got != "unknown-thing" {
		t.Errorf("ProviderLabel fallback = %q", got)
	}
}
