package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/draftsync/internal/core/domain"
)

// HTTPClient talks to the JSON HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for baseURL. timeout bounds every request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CreateAssistant POSTs payload to /assistants. The idempotency key from ctx,
// if any, is sent as the Idempotency-Key header.
func (c *HTTPClient) CreateAssistant(ctx context.Context, payload domain.AssistantPayload) (*domain.AssistantRecord, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assistants", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key, ok := IdempotencyKey(ctx); ok {
		req.Header.Set("Idempotency-Key", key)
	}

	var rec domain.AssistantRecord
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("create assistant: response has no id")
	}
	return &rec, nil
}

// ListPresets GETs /presets.
func (c *HTTPClient) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/presets", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var presets []domain.Preset
	if err := c.do(req, &presets); err != nil {
		return nil, err
	}
	if presets == nil {
		presets = []domain.Preset{}
	}
	return presets, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseStatusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseStatusError accepts {"error": "...", "message": "...", "field": "..."}
// bodies and falls back to the raw text.
func parseStatusError(code int, body []byte) *StatusError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	se := &StatusError{StatusCode: code}
	if err := json.Unmarshal(body, &payload); err == nil {
		se.Field = payload.Field
		se.Message = payload.Message
		if se.Message == "" {
			se.Message = payload.Error
		}
	}
	if se.Message == "" {
		se.Message = strings.TrimSpace(string(body))
	}
	if se.Message == "" {
		se.Message = http.StatusText(code)
	}
	return se
}
