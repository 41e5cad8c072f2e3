// Package perplexity implements the Perplexity conversational adapter.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"visibility-scan-service/models"
	"visibility-scan-service/provider"
	"visibility-scan-service/regions"
)

const perplexityEndpoint = "https://api.perplexity.ai/chat/completions"

const maxQueryLength = 2048

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type WebSearchOptions struct {
	UserLocation *struct {
		Country string `json:"country"`
	} `json:"user_location,omitempty"`
}

type ChatRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	WebSearchOptions *WebSearchOptions `json:"web_search_options,omitempty"`
}

type ChatResponse struct {
	Citations []string `json:"citations"`
	Choices   []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents a Perplexity API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new Perplexity client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ID identifies this provider within the scan fan-out
func (c *Client) ID() models.ProviderID {
	return models.ProviderPerplexity
}

// MaxQueryLength returns the longest query this adapter will send upstream
func (c *Client) MaxQueryLength() int {
	return maxQueryLength
}

// Fetch asks Perplexity the query and normalizes the answer plus its
// citation URLs into the common response record.
func (c *Client) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	query := provider.TruncateQuery(req.Query, maxQueryLength)

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: query}},
	}
	if req.RegionHint != "" {
		loc := &struct {
			Country string `json:"country"`
		}{Country: regions.Resolve(req.RegionHint).ISOCode}
		reqBody.WebSearchOptions = &WebSearchOptions{UserLocation: loc}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", perplexityEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", provider.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", provider.ErrEmpty, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", provider.ErrEmpty)
	}

	content := chatResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty answer", provider.ErrEmpty)
	}

	out := &models.ProviderResponse{Text: content}
	for _, url := range chatResp.Citations {
		if url != "" {
			out.SourceURLs = append(out.SourceURLs, url)
		}
	}
	return out, nil
}

// classifyStatus maps a Perplexity error status onto the provider error
// taxonomy.
func classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: API error (status %d): %s", provider.ErrBillingExhausted, status, string(body))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: API error (status %d)", provider.ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: API error (status %d): %s", provider.ErrUnavailable, status, string(body))
	}
}
