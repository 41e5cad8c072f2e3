// Package anthropic implements the Claude conversational adapter. It is
// the one adapter with a bounded fallback: when the configured primary
// model is reported not found, the request is retried exactly once
// against the configured fallback model before giving up.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"visibility-scan-service/models"
	"visibility-scan-service/provider"
	"visibility-scan-service/regions"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"
	maxQueryLength  = 8192
	maxTokens       = 1024
)

type WebSearchTool struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	UserLocation *struct {
		Type    string `json:"type"`
		Country string `json:"country"`
	} `json:"user_location,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MessagesRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []Message       `json:"messages"`
	Tools     []WebSearchTool `json:"tools,omitempty"`
}

type ContentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Citations []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"citations"`
}

type MessagesResponse struct {
	Content []ContentBlock `json:"content"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client represents an Anthropic API client
type Client struct {
	apiKey        string
	model         string
	fallbackModel string
	endpoint      string
	client        *http.Client
}

// NewClient creates a new Anthropic client. fallbackModel may be empty,
// which disables the fallback retry.
func NewClient(apiKey, model, fallbackModel string) *Client {
	return &Client{
		apiKey:        apiKey,
		model:         model,
		fallbackModel: fallbackModel,
		endpoint:      defaultEndpoint,
		client:        &http.Client{Timeout: 60 * time.Second},
	}
}

// ID identifies this provider within the scan fan-out
func (c *Client) ID() models.ProviderID {
	return models.ProviderClaude
}

// MaxQueryLength returns the longest query this adapter will send upstream
func (c *Client) MaxQueryLength() int {
	return maxQueryLength
}

// Fetch asks Claude the query with web search enabled. A not-found answer
// for the primary model triggers the single bounded fallback; every other
// failure is returned as-is.
func (c *Client) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	resp, err := c.fetchWithModel(ctx, req, c.model)
	if err != nil && isModelNotFound(err) && c.fallbackModel != "" {
		return c.fetchWithModel(ctx, req, c.fallbackModel)
	}
	return resp, err
}

func (c *Client) fetchWithModel(ctx context.Context, req models.ScanRequest, model string) (*models.ProviderResponse, error) {
	query := provider.TruncateQuery(req.Query, maxQueryLength)

	tool := WebSearchTool{Type: "web_search_20250305", Name: "web_search"}
	if req.RegionHint != "" {
		tool.UserLocation = &struct {
			Type    string `json:"type"`
			Country string `json:"country"`
		}{Type: "approximate", Country: regions.Resolve(req.RegionHint).ISOCode}
	}

	reqBody := MessagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []Message{{Role: "user", Content: query}},
		Tools:     []WebSearchTool{tool},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
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

	var msgResp MessagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", provider.ErrEmpty, err)
	}

	out := &models.ProviderResponse{}
	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type != "text" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(block.Text)
		for _, cit := range block.Citations {
			if cit.URL == "" {
				continue
			}
			out.SourceURLs = append(out.SourceURLs, cit.URL)
			out.Titles = append(out.Titles, cit.Title)
		}
	}
	out.Text = text.String()
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("%w: empty answer", provider.ErrEmpty)
	}
	return out, nil
}

// modelNotFoundError wraps ErrUnavailable while staying recognizable to
// the fallback check.
type modelNotFoundError struct {
	message string
}

func (e *modelNotFoundError) Error() string { return "model not found: " + e.message }
func (e *modelNotFoundError) Unwrap() error { return provider.ErrUnavailable }

func isModelNotFound(err error) bool {
	var nf *modelNotFoundError
	return errors.As(err, &nf)
}

// classifyStatus maps an Anthropic error status onto the provider error
// taxonomy. A 404 not_found_error for the model is the only condition the
// fallback retry applies to.
func classifyStatus(status int, body []byte) error {
	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusNotFound && apiErr.Error.Type == "not_found_error":
		return &modelNotFoundError{message: apiErr.Error.Message}
	case status == http.StatusPaymentRequired || apiErr.Error.Type == "billing_error":
		return fmt.Errorf("%w: %s", provider.ErrBillingExhausted, apiErr.Error.Message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, apiErr.Error.Message)
	default:
		return fmt.Errorf("%w: API error (status %d): %s", provider.ErrUnavailable, status, apiErr.Error.Message)
	}
}
