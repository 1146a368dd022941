package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default per-operation timeouts. Infer and mitigate get a generous budget
// because the backend may be cold-starting its models.
const (
	DefaultHealthTimeout   = 5 * time.Second
	DefaultInferTimeout    = 120 * time.Second
	DefaultMitigateTimeout = 120 * time.Second
)

// Client talks to the JenAI-Moderator inference backend. All calls are
// synchronous, single-shot (no retries) and fail with *TransportError on
// network errors, timeouts, or non-2xx responses.
type Client struct {
	baseURL string
	client  *http.Client

	HealthTimeout   time.Duration
	InferTimeout    time.Duration
	MitigateTimeout time.Duration
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          &http.Client{},
		HealthTimeout:   DefaultHealthTimeout,
		InferTimeout:    DefaultInferTimeout,
		MitigateTimeout: DefaultMitigateTimeout,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckHealth probes GET /health and returns the backend device.
func (c *Client) CheckHealth(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus

	ctx, cancel := context.WithTimeout(ctx, c.HealthTimeout)
	defer cancel()

	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return status, &TransportError{Op: "health", URL: url, Err: err}
	}

	if err := c.do("health", req, &status); err != nil {
		return status, err
	}
	return status, nil
}

// Infer submits texts to POST /v1/infer. Entries that are blank after
// trimming are dropped; if nothing remains, no call is made and
// *MissingInputError is returned. The surviving texts are sent verbatim,
// untrimmed.
func (c *Client) Infer(ctx context.Context, texts []string) (*InferResponse, error) {
	var payload []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			payload = append(payload, t)
		}
	}
	if len(payload) == 0 {
		return nil, &MissingInputError{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.InferTimeout)
	defer cancel()

	url := c.baseURL + "/v1/infer"
	req, err := c.newJSONRequest(ctx, url, map[string]interface{}{"texts": payload})
	if err != nil {
		return nil, &TransportError{Op: "infer", URL: url, Err: err}
	}

	var resp InferResponse
	if err := c.do("infer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Mitigate submits one text to POST /v1/mitigate.
func (c *Client) Mitigate(ctx context.Context, text string) (*MitigateResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &MissingInputError{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.MitigateTimeout)
	defer cancel()

	url := c.baseURL + "/v1/mitigate"
	req, err := c.newJSONRequest(ctx, url, map[string]interface{}{"text": text})
	if err != nil {
		return nil, &TransportError{Op: "mitigate", URL: url, Err: err}
	}

	var result MitigateResult
	if err := c.do("mitigate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// newJSONRequest builds a POST request with a JSON body.
func (c *Client) newJSONRequest(ctx context.Context, url string, body map[string]interface{}) (*http.Request, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request and decodes a JSON response into out. Unknown
// keys are ignored and missing keys keep their zero values; the backend
// response shape is deliberately loosely validated.
func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &TransportError{Op: op, URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: req.URL.String(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
