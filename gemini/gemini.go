// Package gemini implements the Gemini conversational adapter.
package gemini

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
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

const maxQueryLength = 8192

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type GenerateRequest struct {
	Contents []Content `json:"contents"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type GroundingChunk struct {
	Web struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web"`
}

type GenerateResponse struct {
	Candidates []struct {
		Content           Content `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []GroundingChunk `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client represents a Gemini API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new Gemini client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ID identifies this provider within the scan fan-out
func (c *Client) ID() models.ProviderID {
	return models.ProviderGemini
}

// MaxQueryLength returns the longest query this adapter will send upstream
func (c *Client) MaxQueryLength() int {
	return maxQueryLength
}

// Fetch asks Gemini the query with Google Search grounding enabled.
// The API has no country parameter, so the request's region hint is
// ignored here.
func (c *Client) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	query := provider.TruncateQuery(req.Query, maxQueryLength)

	reqBody := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: query}}}},
		Tools:    []Tool{{}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiEndpoint, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
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

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", provider.ErrEmpty, err)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", provider.ErrEmpty)
	}

	candidate := genResp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%w: empty answer", provider.ErrEmpty)
	}

	out := &models.ProviderResponse{Text: text.String()}
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk.Web.URI == "" {
			continue
		}
		out.SourceURLs = append(out.SourceURLs, chunk.Web.URI)
		out.Titles = append(out.Titles, chunk.Web.Title)
	}
	return out, nil
}

// classifyStatus maps a Gemini error status onto the provider error
// taxonomy. RESOURCE_EXHAUSTED covers both rate limits and exhausted
// quota; the free-quota wording distinguishes the latter.
func classifyStatus(status int, body []byte) error {
	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case apiErr.Error.Status == "RESOURCE_EXHAUSTED" && strings.Contains(apiErr.Error.Message, "quota"):
		return fmt.Errorf("%w: %s", provider.ErrBillingExhausted, apiErr.Error.Message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, apiErr.Error.Message)
	default:
		return fmt.Errorf("%w: API error (status %d): %s", provider.ErrUnavailable, status, apiErr.Error.Message)
	}
}
