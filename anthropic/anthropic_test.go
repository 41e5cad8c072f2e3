package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"visibility-scan-service/models"
	"visibility-scan-service/provider"
)

func newTestClient(url string) *Client {
	c := NewClient("test-key", "primary-model", "fallback-model")
	c.endpoint = url
	return c
}

func answerJSON(text string) string {
	resp := MessagesResponse{Content: []ContentBlock{{Type: "text", Text: text}}}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestFetchFallsBackOnModelNotFound(t *testing.T) {
	var modelsSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req MessagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		modelsSeen = append(modelsSeen, req.Model)
		if req.Model == "primary-model" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"not_found_error","message":"model: primary-model"}}`))
			return
		}
		w.Write([]byte(answerJSON("Acme is a leading platform.")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Fetch(context.Background(), models.ScanRequest{Query: "best crm"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if resp.Text != "Acme is a leading platform." {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if len(modelsSeen) != 2 || modelsSeen[0] != "primary-model" || modelsSeen[1] != "fallback-model" {
		t.Errorf("expected primary then fallback, got %v", modelsSeen)
	}
}

func TestFetchDoesNotRetryOtherFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.ScanRequest{Query: "best crm"})
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestFetchClassifiesBillingExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"billing_error","message":"credit balance too low"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.ScanRequest{Query: "best crm"})
	if !errors.Is(err, provider.ErrBillingExhausted) {
		t.Errorf("expected ErrBillingExhausted, got %v", err)
	}
}

func TestFetchClassifiesRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.ScanRequest{Query: "best crm"})
	if !errors.Is(err, provider.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestFetchEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), models.ScanRequest{Query: "best crm"})
	if !errors.Is(err, provider.ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestFetchNoFallbackWhenUnconfigured(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"not_found_error","message":"model"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "primary-model", "")
	c.endpoint = srv.URL
	_, err := c.Fetch(context.Background(), models.ScanRequest{Query: "q"})
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call without fallback model, got %d", calls)
	}
}
