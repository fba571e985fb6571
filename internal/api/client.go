package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks JSON over HTTP to a tgrab server. It carries no
// authentication state of its own; operations that need a token take it
// as an explicit parameter.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a Client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// statusError is a non-2xx server verdict carrying the detail field from
// the response body. Absence of a parseable body falls back to a generic
// message plus the numeric status.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.detail, e.status)
}

// postJSON sends body as JSON and decodes a 2xx response into out.
// A non-2xx response is returned as *statusError; out may be nil.
func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	resp, err := c.post(ctx, path, token, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// post sends body as JSON and returns the raw response. The caller owns
// the response body.
func (c *Client) post(ctx context.Context, path, token string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.HTTP.Do(req)
}

// getJSON issues a GET and decodes a 2xx response into out.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeStatusError extracts the detail field from an error response.
func decodeStatusError(resp *http.Response) *statusError {
	se := &statusError{status: resp.StatusCode, detail: "Unknown error"}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		se.detail = body.Detail
	}
	return se
}
