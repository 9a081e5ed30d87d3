package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Options configures the default net/http transport.
type Options struct {
	APIURL        string
	AppName       string
	InstanceID    string
	ConnectionID  string
	Authorization string        // optional bearer/token value, sent verbatim
	Interval      time.Duration // advertised to the server as a long-poll hint
	Client        *http.Client  // optional; defaults to a 10s-timeout client
}

// HTTP is the default API implementation over net/http.
type HTTP struct {
	baseURL    string
	headers    http.Header
	intervalMS string
	client     *http.Client
}

// NewHTTP builds the default transport. The identification headers are
// computed once here; every request carries the same set.
func NewHTTP(opts Options) *HTTP {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("UNLEASH-APPNAME", opts.AppName)
	headers.Set("appname", opts.AppName)
	headers.Set("UNLEASH-SDK", SDKVersion)
	headers.Set("UNLEASH-CONNECTION-ID", opts.ConnectionID)
	headers.Set("instance_id", opts.InstanceID)
	if opts.Authorization != "" {
		headers.Set("Authorization", opts.Authorization)
	}
	return &HTTP{
		baseURL:    TrimBaseURL(opts.APIURL),
		headers:    headers,
		intervalMS: strconv.FormatInt(opts.Interval.Milliseconds(), 10),
		client:     client,
	}
}

// GetJSON implements API.
func (h *HTTP) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build GET %s: %w", path, err)
	}
	h.decorate(req)
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode body: %w", path, err)
	}
	return nil
}

// PostJSON implements API.
func (h *HTTP) PostJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode POST %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build POST %s: %w", path, err)
	}
	h.decorate(req)
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("POST %s: unexpected status %s", path, resp.Status)
	}
	return nil
}

func (h *HTTP) decorate(req *http.Request) {
	for name, values := range h.headers {
		req.Header[name] = values
	}
	req.Header.Set("UNLEASH-INTERVAL", h.intervalMS)
}

// drainAndClose finishes the body so the underlying connection can be
// reused by the pool.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
