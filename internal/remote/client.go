// Package remote speaks the music server's JSON-RPC dialect: every call is
// a POST of {method, kwargs} answered by a {success, result} envelope.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"offbeat/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Offbeat/1.0"
)

// Client implements domain.Remote against a single server.
type Client struct {
	apiBase    string
	streamBase string
	token      string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(apiBase, streamBase, token, deviceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if streamBase == "" {
		streamBase = apiBase
	}
	return &Client{
		apiBase:    apiBase,
		streamBase: streamBase,
		token:      token,
		deviceID:   deviceID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// envelope is the server's uniform response shape. On failure, Error holds
// a machine-readable code and Message the human-readable detail.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// call performs one RPC. Transport failures and 5xx responses surface as
// domain.ErrServerOffline so callers can flip to offline mode; server-side
// failures surface as sentinel or *domain.RemoteError values that must
// reach the caller untranslated.
func (c *Client) call(ctx context.Context, method string, kwargs map[string]any, result any) error {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{
		"method": method,
		"kwargs": kwargs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/api", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("rpc request", "method", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("rpc request failed", "method", method, "error", err)
		return fmt.Errorf("%s: %w", method, domain.ErrServerOffline)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrNotAuthenticated
	case resp.StatusCode >= 500:
		c.logger.Error("rpc server error", "method", method, "status", resp.StatusCode)
		return fmt.Errorf("%s: status %d: %w", method, resp.StatusCode, domain.ErrServerOffline)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: unexpected status code: %d", method, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !env.Success {
		if env.Error == "NotAuthenticated" {
			return domain.ErrNotAuthenticated
		}
		return &domain.RemoteError{Code: env.Error, Message: env.Message}
	}
	if result == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

// FetchAudio downloads one song's encoded audio from the stream endpoint.
func (c *Client) FetchAudio(ctx context.Context, songUUID string) ([]byte, string, error) {
	reqURL := fmt.Sprintf("%s/stream/%s", c.streamBase, songUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("stream %s: %w", songUUID, domain.ErrServerOffline)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, "", domain.ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("stream %s: not found on server", songUUID)
	case resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("stream %s: status %d: %w", songUUID, resp.StatusCode, domain.ErrServerOffline)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("stream %s: unexpected status code: %d", songUUID, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("stream %s: %w", songUUID, domain.ErrServerOffline)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "audio/mpeg"
	}
	return data, mime, nil
}
