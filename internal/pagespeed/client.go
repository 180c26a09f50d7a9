// Package pagespeed fetches PageSpeed Insights reports for website pages
// and stores the resulting runs.
package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrNotFound = errors.New("pagespeed: not found")
	ErrFetch    = errors.New("pagespeed: fetch failed")
)

const defaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Strategy selects the simulated device of a run.
type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Report is the subset of a PSI response the service keeps: the overall
// performance score plus each weighted audit.
type Report struct {
	Strategy Strategy         `json:"strategy"`
	Score    float64          `json:"score"`
	Audits   map[string]Audit `json:"audits"`
}

// Audit is one weighted performance audit result.
type Audit struct {
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

// Client talks to the PageSpeed Insights API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// NewClient constructs a PSI client. The api key is required by the live
// endpoint but not validated here.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// psiResponse mirrors the parts of the PSI payload the report needs.
type psiResponse struct {
	LighthouseResult struct {
		Audits map[string]struct {
			Score        float64 `json:"score"`
			NumericValue float64 `json:"numericValue"`
			NumericUnit  string  `json:"numericUnit"`
		} `json:"audits"`
		Categories struct {
			Performance struct {
				Score     float64 `json:"score"`
				AuditRefs []struct {
					ID     string  `json:"id"`
					Weight float64 `json:"weight"`
				} `json:"auditRefs"`
			} `json:"performance"`
		} `json:"categories"`
	} `json:"lighthouseResult"`
}

// Fetch runs a PSI analysis of the page URL with the given strategy and
// reduces the response to the weighted audits.
func (c *Client) Fetch(ctx context.Context, pageURL string, strategy Strategy) (*Report, error) {
	query := url.Values{}
	query.Set("url", pageURL)
	query.Set("strategy", string(strategy))
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	var payload psiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}

	report := &Report{
		Strategy: strategy,
		Score:    payload.LighthouseResult.Categories.Performance.Score,
		Audits:   make(map[string]Audit),
	}
	audits := payload.LighthouseResult.Audits
	for _, ref := range payload.LighthouseResult.Categories.Performance.AuditRefs {
		if ref.Weight <= 0 {
			continue
		}
		audit, ok := audits[ref.ID]
		if !ok {
			continue
		}
		report.Audits[ref.ID] = Audit{
			Weight: ref.Weight,
			Score:  audit.Score,
			Value:  audit.NumericValue,
			Unit:   audit.NumericUnit,
		}
	}
	return report, nil
}
