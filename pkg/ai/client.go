package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client calls the internal ai-service chat endpoint. The service answers
// with {"agent": ..., "output": ...}.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Agent   string
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://ai-service:8000"
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Agent:   "auto",
		log:     slog.With("component", "ai", "backend", BackendService),
	}
}

// doPostWithRetry performs an HTTP POST to the given path with retry/backoff.
// Only transport failures are retried; any HTTP response is returned as is.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i < attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// Generate sends the prompt to /v1/chat. A schema, when given, travels both
// as a separate field for services that can enforce it and inside the
// prompt for those that cannot.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	chatReq := map[string]interface{}{
		"agent": c.Agent,
		"input": req.Prompt + schemaInstruction(req.Schema),
	}
	if req.System != "" {
		chatReq["system"] = req.System
	}
	if len(req.Schema) > 0 {
		chatReq["schema"] = req.Schema
	}
	b, err := json.Marshal(chatReq)
	if err != nil {
		return "", err
	}

	start := time.Now()
	c.log.Debug("POST /v1/chat", "url", c.BaseURL, "payload_bytes", len(b))

	resp, err := c.doPostWithRetry(ctx, "/v1/chat", b)
	if err != nil {
		return "", generationError(BackendService, 0, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", generationError(BackendService, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", generationError(BackendService, resp.StatusCode, fmt.Errorf("ai-service returned non-200 status: %s", snippet(respBytes)))
	}
	if !gjson.ValidBytes(respBytes) {
		return "", generationError(BackendService, resp.StatusCode, errors.New("ai-service returned a non-json envelope"))
	}
	out := gjson.GetBytes(respBytes, "output")
	if !out.Exists() {
		return "", generationError(BackendService, resp.StatusCode, errors.New("ai-service response has no output field"))
	}
	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", generationError(BackendService, resp.StatusCode, ErrEmptyResponse)
	}

	c.log.Info("generation finished",
		"agent", gjson.GetBytes(respBytes, "agent").String(),
		"output_bytes", len(text),
		"elapsed", time.Since(start))
	return text, nil
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
