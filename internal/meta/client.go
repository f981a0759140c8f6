package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIVersion = "v19.0"

// Config holds the Graph API client settings. BaseURL is overridable for
// tests; production leaves it empty.
type Config struct {
	AccessToken string
	APIVersion  string
	BaseURL     string
	HTTPTimeout time.Duration
}

// Client talks to the Meta Marketing API. All outbound requests pass through
// the shared rate limiter; rate-limited pages are retried per the policy.
type Client struct {
	httpc       *http.Client
	baseURL     string
	accessToken string
	limiter     *Limiter
	retry       RetryPolicy
	log         *slog.Logger

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, limiter *Limiter, log *slog.Logger) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://graph.facebook.com"
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if limiter == nil {
		limiter = NewLimiter()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     base + "/" + version,
		accessToken: cfg.AccessToken,
		limiter:     limiter,
		retry:       DefaultRetryPolicy(),
		log:         log,
		sleep:       sleepCtx,
	}
}

// graphEnvelope is the common Graph API response shape.
type graphEnvelope struct {
	Data   []insightRow `json:"data"`
	Paging *pagingInfo  `json:"paging,omitempty"`
	Error  *graphError  `json:"error,omitempty"`
}

type pagingInfo struct {
	Next string `json:"next,omitempty"`
}

type graphError struct {
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (g *graphError) toAPIError() *APIError {
	return &APIError{
		Message: g.Message,
		Code:    g.Code,
		Subcode: g.Subcode,
		TraceID: g.FBTraceID,
	}
}

// fetchAllPages walks the cursor chain starting at firstURL and returns every
// row in page order. A terminal failure returns no rows at all: partial pages
// are never surfaced. A fresh call always starts from page one.
func (c *Client) fetchAllPages(ctx context.Context, firstURL string) ([]insightRow, error) {
	var rows []insightRow
	nextURL := firstURL
	retries := 0

	for nextURL != "" {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		var envelope graphEnvelope
		if err := c.getJSON(ctx, nextURL, &envelope); err != nil {
			return nil, err
		}

		if envelope.Error != nil {
			apiErr := envelope.Error.toAPIError()
			if apiErr.IsRateLimited() && retries < c.retry.MaxRetries {
				delay := c.retry.Backoff(retries)
				c.log.Warn("meta rate limited, retrying page",
					"retry", retries+1, "delay", delay.String(), "trace_id", apiErr.TraceID)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
				retries++
				continue // same page
			}
			return nil, apiErr
		}

		retries = 0
		rows = append(rows, envelope.Data...)
		if envelope.Paging != nil {
			nextURL = envelope.Paging.Next
		} else {
			nextURL = ""
		}
	}
	return rows, nil
}

// getJSON issues one GET and decodes the body. Graph reports errors in the
// body with non-2xx statuses, so the body is decoded before the status is
// considered; an undecodable non-2xx body becomes a transport error.
func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("meta: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("meta: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("meta: read response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("meta: unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("meta: decode response: %w", err)
	}
	return nil
}
