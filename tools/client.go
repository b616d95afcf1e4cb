package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/internal/tlsutil"
	"github.com/BaSui01/browserpilot/types"
)

// Client talks to the automation REST surface. Tools are thin wrappers
// over it: agent call -> tool -> HTTP -> service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sends key in the X-API-Key header on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    tlsutil.SecureHTTPClient(150 * time.Second),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "automation_client"))
	return c
}

// Call posts args to the named automation operation and decodes the
// envelope. A transport failure is a Go error; an operation failure is
// a decoded envelope with Success=false.
func (c *Client) Call(ctx context.Context, operation string, args any) (*types.ActionResult, error) {
	return c.post(ctx, "/automation/"+operation, args)
}

func (c *Client) post(ctx context.Context, path string, args any) (*types.ActionResult, error) {
	body := []byte("{}")
	if args != nil {
		var err error
		body, err = json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", path, err)
	}

	var result types.ActionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode response from %s (status %d): %w", path, resp.StatusCode, err)
	}
	return &result, nil
}

// interventionStatusOf digs the status string out of an envelope's data
// payload.
func interventionStatusOf(res *types.ActionResult) string {
	data, ok := res.Data.(map[string]any)
	if !ok {
		return ""
	}
	status, _ := data["status"].(string)
	return status
}

func terminalStatus(status string) bool {
	switch status {
	case "completed", "cancelled", "timeout", "failed":
		return true
	}
	return false
}

// WaitForIntervention polls the intervention's status every interval
// until it reaches a terminal state or maxWait elapses. On expiry the
// request is cancelled server-side so no pending request dangles, and
// the cancellation outcome is returned.
func (c *Client) WaitForIntervention(ctx context.Context, id string, interval, maxWait time.Duration) (*types.ActionResult, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	deadline := time.Now().Add(maxWait)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := c.Call(ctx, "intervention_status", map[string]string{"intervention_id": id})
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return res, nil
		}
		if terminalStatus(interventionStatusOf(res)) {
			return res, nil
		}
		if time.Now().After(deadline) {
			c.logger.Info("intervention wait expired, cancelling", zap.String("id", id))
			return c.Call(ctx, "cancel_intervention", map[string]string{
				"intervention_id": id,
				"reason":          "client wait expired",
			})
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
