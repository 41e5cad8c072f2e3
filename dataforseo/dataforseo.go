// Package dataforseo implements the two structured-search adapters
// (google and bing organic SERP surfaces) on the DataForSEO live API.
// Both engines share one transport; NewGoogle and NewBing return
// independently registered adapters.
package dataforseo

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

const baseEndpoint = "https://api.dataforseo.com/v3/serp"

const maxQueryLength = 700

type task struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
}

type serpItem struct {
	Type         string `json:"type"`
	RankAbsolute int    `json:"rank_absolute"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Domain       string `json:"domain"`
}

type serpResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []serpItem `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// Client is one SERP surface (google or bing) on the DataForSEO API.
type Client struct {
	login    string
	password string
	engine   string
	id       models.ProviderID
	client   *http.Client
}

// NewGoogle creates the google-serp adapter
func NewGoogle(login, password string) *Client {
	return newClient(login, password, "google", models.ProviderGoogleSERP)
}

// NewBing creates the bing-serp adapter
func NewBing(login, password string) *Client {
	return newClient(login, password, "bing", models.ProviderBingSERP)
}

func newClient(login, password, engine string, id models.ProviderID) *Client {
	return &Client{
		login:    login,
		password: password,
		engine:   engine,
		id:       id,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ID identifies this provider within the scan fan-out
func (c *Client) ID() models.ProviderID {
	return c.id
}

// MaxQueryLength returns the longest keyword the SERP API accepts
func (c *Client) MaxQueryLength() int {
	return maxQueryLength
}

// Fetch runs a live organic SERP task for the query and flattens titles,
// snippets and result URLs into the common response record. BrandRank is
// the absolute rank of the first organic result on the brand's domain.
func (c *Client) Fetch(ctx context.Context, req models.ScanRequest) (*models.ProviderResponse, error) {
	region := regions.Resolve(req.RegionHint)
	body := []task{{
		Keyword:      provider.TruncateQuery(req.Query, maxQueryLength),
		LocationCode: region.LocationCode,
		LanguageCode: region.LanguageCode,
		Depth:        20,
	}}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/organic/live/regular", baseEndpoint, c.engine)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.login, c.password)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", provider.ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: API error (status %d)", provider.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API error (status %d): %s", provider.ErrUnavailable, resp.StatusCode, string(respBody))
	}

	return parseSERP(respBody, req.BrandDomain)
}

// parseSERP converts a DataForSEO live SERP payload into the common
// response record. Split out of Fetch so it can be tested without a
// network.
func parseSERP(body []byte, brandDomain string) (*models.ProviderResponse, error) {
	var serp serpResponse
	if err := json.Unmarshal(body, &serp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", provider.ErrEmpty, err)
	}

	// 402xx status codes signal an out-of-credit account.
	if serp.StatusCode >= 40200 && serp.StatusCode < 40300 {
		return nil, fmt.Errorf("%w: %s", provider.ErrBillingExhausted, serp.StatusMessage)
	}
	if len(serp.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks in response", provider.ErrEmpty)
	}
	serpTask := serp.Tasks[0]
	if serpTask.StatusCode >= 40000 {
		return nil, fmt.Errorf("%w: task error %d: %s", provider.ErrUnavailable, serpTask.StatusCode, serpTask.StatusMessage)
	}
	if len(serpTask.Result) == 0 || len(serpTask.Result[0].Items) == 0 {
		return nil, fmt.Errorf("%w: no organic results", provider.ErrEmpty)
	}

	brand := models.NormalizeDomain(brandDomain)
	out := &models.ProviderResponse{}
	var text strings.Builder
	for _, item := range serpTask.Result[0].Items {
		if item.Type != "organic" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(item.Title)
		if item.Description != "" {
			text.WriteString(". ")
			text.WriteString(item.Description)
		}
		out.Titles = append(out.Titles, item.Title)
		if item.URL != "" {
			out.SourceURLs = append(out.SourceURLs, item.URL)
		}
		if out.BrandRank == 0 && brand != "" && models.NormalizeDomain(item.Domain) == brand {
			out.BrandRank = item.RankAbsolute
		}
	}
	out.Text = text.String()
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("%w: no organic results", provider.ErrEmpty)
	}
	return out, nil
}
