// Package openai implements the ChatGPT conversational adapter.
package openai

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

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const maxQueryLength = 4096

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type UserLocation struct {
	Type        string `json:"type"`
	Approximate struct {
		Country string `json:"country"`
	} `json:"approximate"`
}

type WebSearchOptions struct {
	UserLocation *UserLocation `json:"user_location,omitempty"`
}

type ChatRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	WebSearchOptions *WebSearchOptions `json:"web_search_options,omitempty"`
}

type Annotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"url_citation"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content     string       `json:"content"`
			Annotations []Annotation `json:"annotations"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ID identifies this provider within the scan fan-out
func (c *Client) ID() models.ProviderID {
	return models.ProviderChatGPT
}

// MaxQueryLength returns the longest query this adapter will send upstream
func (c *Client) MaxQueryLength() int {
	return maxQueryLength
}

// Fetch asks ChatGPT the query with web search enabled and normalizes the
// answer text plus any URL citations into the common response record.
func (c *Client) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	query := provider.TruncateQuery(req.Query, maxQueryLength)

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: query},
		},
	}
	if req.RegionHint != "" {
		loc := &UserLocation{Type: "approximate"}
		loc.Approximate.Country = regions.Resolve(req.RegionHint).ISOCode
		reqBody.WebSearchOptions = &WebSearchOptions{UserLocation: loc}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", openAIEndpoint, bytes.NewBuffer(jsonData))
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

	message := chatResp.Choices[0].Message
	if strings.TrimSpace(message.Content) == "" {
		return nil, fmt.Errorf("%w: empty answer", provider.ErrEmpty)
	}

	out := &models.ProviderResponse{Text: message.Content}
	for _, a := range message.Annotations {
		if a.Type != "url_citation" || a.URLCitation.URL == "" {
			continue
		}
		out.SourceURLs = append(out.SourceURLs, a.URLCitation.URL)
		out.Titles = append(out.Titles, a.URLCitation.Title)
	}
	return out, nil
}

// classifyStatus maps an OpenAI error status onto the provider error
// taxonomy. A 429 with code insufficient_quota is the account running dry,
// not a transient rate limit.
func classifyStatus(status int, body []byte) error {
	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusTooManyRequests && apiErr.Error.Code == "insufficient_quota":
		return fmt.Errorf("%w: %s", provider.ErrBillingExhausted, apiErr.Error.Message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, apiErr.Error.Message)
	default:
		return fmt.Errorf("%w: API error (status %d): %s", provider.ErrUnavailable, status, apiErr.Error.Message)
	}
}
