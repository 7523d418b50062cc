// Package client provides a typed HTTP client for the ratings API. The
// desktop application and the seed tool both talk to the service through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError carries the status and error body of a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api returned %d: %s", e.StatusCode, e.Message)
}

// TemplateStats mirrors one element of the GET /api/ratings response.
type TemplateStats struct {
	TemplateID    string  `json:"templateId"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
	DownloadCount int64   `json:"downloadCount"`
}

// RecentRating is a single commented rating in a template detail.
type RecentRating struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TemplateDetail mirrors the GET /api/ratings/{templateId} response.
type TemplateDetail struct {
	TemplateID    string         `json:"templateId"`
	AverageRating float64        `json:"averageRating"`
	RatingCount   int64          `json:"ratingCount"`
	UserRating    *int           `json:"userRating"`
	UserComment   *string        `json:"userComment"`
	RecentRatings []RecentRating `json:"recentRatings"`
}

// SubmitRatingParams is the POST /api/ratings payload.
type SubmitRatingParams struct {
	TemplateID string  `json:"templateId"`
	UserHash   string  `json:"userHash"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment,omitempty"`
}

// SubmitResult is the POST /api/ratings response.
type SubmitResult struct {
	Success       bool    `json:"success"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

// DownloadCounter mirrors one element of the GET /api/downloads response.
type DownloadCounter struct {
	TemplateID    string `json:"templateId"`
	DownloadCount int64  `json:"downloadCount"`
}

// Health mirrors the GET /api/health response.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the ratings API over HTTP.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	logger  zerolog.Logger
}

// New constructs a ratings API client for the given base URL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ratings api url: %w", err)
	}
	return &Client{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Health probes the liveness endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

// ListStats fetches every template's aggregate and download count.
func (c *Client) ListStats(ctx context.Context) ([]TemplateStats, error) {
	var out []TemplateStats
	err := c.do(ctx, http.MethodGet, "/api/ratings", nil, &out)
	return out, err
}

// GetTemplate fetches the detail for one template. userHash may be empty.
func (c *Client) GetTemplate(ctx context.Context, templateID, userHash string) (TemplateDetail, error) {
	path := "/api/ratings/" + url.PathEscape(templateID)
	if userHash != "" {
		path += "?userHash=" + url.QueryEscape(userHash)
	}
	var out TemplateDetail
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// SubmitRating submits or overwrites the user's rating for a template.
func (c *Client) SubmitRating(ctx context.Context, params SubmitRatingParams) (SubmitResult, error) {
	var out SubmitResult
	err := c.do(ctx, http.MethodPost, "/api/ratings", params, &out)
	return out, err
}

// ListDownloads fetches every template's download counter.
func (c *Client) ListDownloads(ctx context.Context) ([]DownloadCounter, error) {
	var out []DownloadCounter
	err := c.do(ctx, http.MethodGet, "/api/downloads", nil, &out)
	return out, err
}

// RecordDownload counts one download for a template and returns the new total.
func (c *Client) RecordDownload(ctx context.Context, templateID string) (int64, error) {
	var out incrementResponse
	path := "/api/downloads/" + url.PathEscape(templateID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return 0, err
	}
	return out.DownloadCount, nil
}

type incrementResponse struct {
	Success       bool  `json:"success"`
	DownloadCount int64 `json:"downloadCount"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse request path: %w", err)
	}
	endpoint := c.baseURL.ResolveReference(rel)

	var payload *bytes.Buffer
	if body != nil {
		payload = &bytes.Buffer{}
		if err := json.NewEncoder(payload).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var req *http.Request
	if payload != nil {
		req, err = http.NewRequestWithContext(ctx, method, endpoint.String(), payload)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	}
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorPayload
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("error", apiErr.Error).
			Msg("client: request rejected")
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
