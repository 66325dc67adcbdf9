package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linanwx/serifu/logger"
	"github.com/tidwall/gjson"
)

// ErrMalformedResponse is returned when a 2xx body lacks a string reply.
var ErrMalformedResponse = errors.New("malformed gateway response")

// StatusError is returned for non-2xx gateway replies.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway status %d: %s", e.StatusCode, e.Message)
}

// Client posts composed messages to the gateway endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a gateway client. Zero timeout means no limit.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat sends req and returns the reply text.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req.Wire())
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", &StatusError{
			StatusCode: httpResp.StatusCode,
			Message:    gjson.GetBytes(respBody, "error").String(),
		}
	}

	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	reply := gjson.GetBytes(respBody, "response")
	if reply.Type != gjson.String {
		return "", fmt.Errorf("%w: response field missing or not a string", ErrMalformedResponse)
	}

	logger.Debug(
		"gateway reply",
		"requestID", httpResp.Header.Get(requestIDHeader),
		"replyChars", len([]rune(reply.Str)),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return reply.Str, nil
}

// Status probes the endpoint with GET.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: httpResp.StatusCode}
	}
	var status StatusResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &status, nil
}
