package crawlbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Crawlbase Crawling API endpoint.
const DefaultBaseURL = "https://api.crawlbase.com/"

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 50 * 1024 * 1024

// Result is the outcome of one Crawl call. Exactly one side is populated:
// OK=true carries the page body (and optionally a screenshot URL), OK=false
// carries a structured error. Network-level failures are folded into the
// failure side as well, so Crawl never surfaces an error to its caller.
type Result struct {
	OK            bool
	Body          string
	ScreenshotURL string
	Raw           json.RawMessage

	ErrorCode    string
	ErrorMessage string
}

// Config represents client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client issues single-shot requests against the Crawlbase API. It holds no
// request state and is safe for concurrent use.
type Client struct {
	config Config
	logger zerolog.Logger
	client *http.Client
}

// NewClient creates a new Crawlbase API client.
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}

	return &Client{
		config: config,
		logger: logger.With().Str("component", "crawlbase").Logger(),
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:       10,
				IdleConnTimeout:    30 * time.Second,
				DisableCompression: false,
			},
		},
	}
}

// upstreamResponse mirrors the format=json response shape of the API.
type upstreamResponse struct {
	Body          string `json:"body"`
	ScreenshotURL string `json:"screenshot_url"`
	Error         string `json:"error"`
	PCStatus      int    `json:"pc_status"`
	OriginalStat  int    `json:"original_status"`
}

// Crawl performs exactly one request/response cycle against the API. It
// never retries and never returns a Go error: DNS failures, refused
// connections and error payloads all come back as the failure variant.
func (c *Client) Crawl(ctx context.Context, p Parameters) Result {
	requestURL := c.config.BaseURL + "?" + p.Values().Encode()

	c.logger.Debug().
		Str("url", p.URL).
		Bool("screenshot", p.Screenshot).
		Msg("Calling Crawlbase API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return failure("request_error", err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", p.URL).Msg("Crawlbase request failed")
		return failure("network_error", err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure("network_error", fmt.Sprintf("reading response: %v", err))
	}

	var body upstreamResponse
	parsed := json.Unmarshal(data, &body) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if parsed && body.Error != "" {
			msg = body.Error
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("url", p.URL).Msg("Crawlbase returned non-2xx")
		return failure(fmt.Sprintf("http_%d", resp.StatusCode), msg)
	}

	if parsed && body.Error != "" {
		return failure("upstream_error", body.Error)
	}

	res := Result{OK: true, Raw: json.RawMessage(data)}
	if parsed {
		res.Body = body.Body
		res.ScreenshotURL = body.ScreenshotURL
	} else {
		// Some pass-through responses are plain HTML even with format=json.
		res.Body = string(data)
	}

	c.logger.Info().
		Str("url", p.URL).
		Int("body_length", len(res.Body)).
		Bool("has_screenshot_url", res.ScreenshotURL != "").
		Msg("Crawl completed")

	return res
}

func failure(code, message string) Result {
	return Result{ErrorCode: code, ErrorMessage: message}
}
