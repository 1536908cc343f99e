// Package rest implements optimizer.Client against a hosted optimization
// service speaking JSON over HTTP.
//
// Endpoints:
//
//	POST /v1/experiments                      register an experiment
//	POST /v1/experiments/{id}/suggestions     request the next assignment
//	POST /v1/experiments/{id}/observations    report an outcome
//	GET  /v1/experiments/{id}                 read progress
//
// Requests authenticate with HTTP basic auth, the API token as user name.
// Transient failures (connection errors, 5xx, 429) are retried with
// backoff; other non-2xx responses surface as *APIError.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/tunable"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string

	// RetryMax is the number of retries after the first attempt. Zero uses
	// the default of 4; a negative value disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration

	// Logger receives retry diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Client is an HTTP optimizer client. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	token   string
	http    *retryablehttp.Client
}

var _ optimizer.Client = (*Client)(nil)

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("optimizer API URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid optimizer API URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("optimizer API URL %q must use http or https", cfg.BaseURL)
	}

	rc := retryablehttp.NewClient()
	switch {
	case cfg.RetryMax > 0:
		rc.RetryMax = cfg.RetryMax
	case cfg.RetryMax < 0:
		rc.RetryMax = 0
	}
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	// *slog.Logger satisfies retryablehttp.LeveledLogger.
	rc.Logger = nil
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	}
	// Hand the last response back instead of a generic "giving up" error so
	// that its status and body end up in an *APIError.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{baseURL: base, token: cfg.Token, http: rc}, nil
}

type createExperimentRequest struct {
	Name              string               `json:"name"`
	ObservationBudget int                  `json:"observation_budget"`
	Parameters        []tunable.Descriptor `json:"parameters"`
}

type experimentResponse struct {
	optimizer.Experiment
	Progress *struct {
		ObservationCount int `json:"observation_count"`
	} `json:"progress,omitempty"`
}

func (c *Client) CreateExperiment(ctx context.Context, name string, budget int, params []tunable.Descriptor) (*optimizer.Experiment, error) {
	req := createExperimentRequest{Name: name, ObservationBudget: budget, Parameters: params}
	if req.Parameters == nil {
		req.Parameters = []tunable.Descriptor{}
	}

	var resp experimentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/experiments", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create experiment %q: %w", name, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("failed to create experiment %q: response carries no id", name)
	}
	ctxlog.FromContext(ctx).Debug("Remote experiment created.", "id", resp.ID, "name", name)
	return &resp.Experiment, nil
}

func (c *Client) CreateSuggestion(ctx context.Context, experimentID string) (*optimizer.Suggestion, error) {
	var resp optimizer.Suggestion
	if err := c.do(ctx, http.MethodPost, experimentPath(experimentID, "suggestions"), struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}
	for name, v := range resp.Assignment {
		resp.Assignment[name] = normalize(v)
	}
	return &resp, nil
}

func (c *Client) CreateObservation(ctx context.Context, experimentID string, obs optimizer.Observation) error {
	if err := c.do(ctx, http.MethodPost, experimentPath(experimentID, "observations"), obs, nil); err != nil {
		return fmt.Errorf("failed to report observation for suggestion %q: %w", obs.SuggestionID, err)
	}
	return nil
}

func (c *Client) FetchProgress(ctx context.Context, experimentID string) (*optimizer.Progress, error) {
	var resp experimentResponse
	if err := c.do(ctx, http.MethodGet, experimentPath(experimentID, ""), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}
	p := &optimizer.Progress{Budget: resp.Budget}
	if resp.Progress != nil {
		p.ObservationCount = resp.Progress.ObservationCount
	}
	return p, nil
}

func experimentPath(id, sub string) string {
	p := "/v1/experiments/" + id
	if sub != "" {
		p += "/" + sub
	}
	return p
}

// do sends a JSON request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	u := c.baseURL.JoinPath(path)
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.SetBasicAuth(c.token, "")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sending optimizer request.", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// normalize turns JSON numbers into int64 when whole and float64 otherwise.
func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
