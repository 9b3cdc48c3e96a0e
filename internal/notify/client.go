package notify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Default timeout budgets for a single delivery attempt.
const (
	defaultConnectTimeout = 3 * time.Second
	defaultRequestTimeout = 8 * time.Second
	defaultHeaderTimeout  = 3 * time.Second
)

// Client errors.
var (
	// ErrUnavailable marks transient failures: transport errors and
	// provider 5xx responses. Callers may retry these.
	ErrUnavailable = errors.New("telegram temporarily unavailable")

	// ErrBadResponse marks a provider response that could not be decoded.
	// Not retryable.
	ErrBadResponse = errors.New("telegram returned an invalid response payload")
)

// APIError is a permanent rejection from the Telegram Bot API: either a
// non-2xx status that is not a server error, or a 2xx body with ok=false.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram API error (status %d): %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("telegram API error (status %d)", e.StatusCode)
}

// IsRetryable reports whether a delivery error is worth retrying.
// Transport failures and provider-side operational failures are; malformed
// responses and explicit rejections are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Response is the decoded sendMessage reply.
type Response struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Client sends messages through the Telegram Bot API over plain HTTP.
// It holds no state beyond the connection pool; recording delivery success
// is the caller's job.
type Client struct {
	token            string
	apiBase          string
	httpClient       *http.Client
	logger           *slog.Logger
	tokenFingerprint string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Token is the bot token. Required.
	Token string
	// APIBase is the API root, e.g. "https://api.telegram.org".
	APIBase string
	// HTTPClient overrides the default client; used in tests.
	HTTPClient *http.Client
}

// NewClient creates a Telegram client. The bot token is never logged; a
// short SHA-256 fingerprint is used in log lines instead.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		dialer := &net.Dialer{Timeout: defaultConnectTimeout}
		httpClient = &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: defaultHeaderTimeout,
			},
		}
	}

	sum := sha256.Sum256([]byte(cfg.Token))

	return &Client{
		token:            cfg.Token,
		apiBase:          strings.TrimRight(cfg.APIBase, "/"),
		httpClient:       httpClient,
		logger:           logger.With(slog.String("component", "telegram_client")),
		tokenFingerprint: hex.EncodeToString(sum[:])[:12],
	}, nil
}

// sendMessagePayload is the JSON body for the sendMessage endpoint.
type sendMessagePayload struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview *bool  `json:"disable_web_page_preview,omitempty"`
}

// SendMessage performs one delivery attempt for the given message.
// Errors are classified: wrap ErrUnavailable for transient conditions
// (retry), *APIError or ErrBadResponse for permanent ones (drop).
func (c *Client) SendMessage(ctx context.Context, msg Message) (*Response, error) {
	payload := sendMessagePayload{
		ChatID:                msg.ChatID,
		Text:                  msg.Text,
		ParseMode:             msg.ParseMode,
		DisableWebPagePreview: msg.DisableWebPagePreview,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sendMessage payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("transport error while contacting telegram",
			slog.String("bot_fingerprint", c.tokenFingerprint),
			slog.Int64("chat_id", msg.ChatID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close telegram response body",
				slog.String("error", closeErr.Error()))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var decoded Response
		_ = json.Unmarshal(raw, &decoded) // description is best-effort here

		if resp.StatusCode >= 500 {
			c.logger.Warn("telegram server error",
				slog.String("bot_fingerprint", c.tokenFingerprint),
				slog.Int("status", resp.StatusCode),
				slog.Int64("chat_id", msg.ChatID))
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}

		c.logger.Error("telegram rejected the message",
			slog.String("bot_fingerprint", c.tokenFingerprint),
			slog.Int("status", resp.StatusCode),
			slog.Int64("chat_id", msg.ChatID),
			slog.String("description", decoded.Description))
		return nil, &APIError{StatusCode: resp.StatusCode, Description: decoded.Description}
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Error("telegram returned invalid JSON",
			slog.String("bot_fingerprint", c.tokenFingerprint),
			slog.Int64("chat_id", msg.ChatID))
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if !decoded.OK {
		c.logger.Error("telegram reported an unsuccessful operation",
			slog.String("bot_fingerprint", c.tokenFingerprint),
			slog.Int64("chat_id", msg.ChatID),
			slog.String("description", decoded.Description))
		return nil, &APIError{StatusCode: resp.StatusCode, Description: decoded.Description}
	}

	return &decoded, nil
}
