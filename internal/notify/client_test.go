package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		Token:      "123456:test-token",
		APIBase:    server.URL,
		HTTPClient: server.Client(),
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{APIBase: "https://api.telegram.org"}, nil)
	assert.Error(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload sendMessagePayload

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 42}}`)
	})

	preview := false
	resp, err := client.SendMessage(context.Background(), Message{
		ChatID:                1001,
		Text:                  "buy milk\n29 Aug 2026 14:00",
		ParseMode:             "HTML",
		DisableWebPagePreview: &preview,
	})

	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "/bot123456:test-token/sendMessage", gotPath)
	assert.Equal(t, int64(1001), gotPayload.ChatID)
	assert.Equal(t, "buy milk\n29 Aug 2026 14:00", gotPayload.Text)
	assert.Equal(t, "HTML", gotPayload.ParseMode)
	require.NotNil(t, gotPayload.DisableWebPagePreview)
	assert.False(t, *gotPayload.DisableWebPagePreview)
}

func TestSendMessage_OmitsOptionalFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "parse_mode")
		assert.NotContains(t, raw, "disable_web_page_preview")
		fmt.Fprint(w, `{"ok": true}`)
	})

	_, err := client.SendMessage(context.Background(), Message{ChatID: 7, Text: "hi"})
	require.NoError(t, err)
}

func TestSendMessage_ErrorClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantAPIError  bool
	}{
		{
			name:          "server error is retryable",
			status:        http.StatusBadGateway,
			body:          `{"ok": false, "description": "Bad Gateway"}`,
			wantRetryable: true,
		},
		{
			name:          "internal error is retryable",
			status:        http.StatusInternalServerError,
			body:          ``,
			wantRetryable: true,
		},
		{
			name:         "client rejection is permanent",
			status:       http.StatusBadRequest,
			body:         `{"ok": false, "description": "Bad Request: chat not found"}`,
			wantAPIError: true,
		},
		{
			name:         "ok false on 200 is permanent",
			status:       http.StatusOK,
			body:         `{"ok": false, "description": "operation failed"}`,
			wantAPIError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			_, err := client.SendMessage(context.Background(), Message{ChatID: 1, Text: "x"})
			require.Error(t, err)
			assert.Equal(t, tc.wantRetryable, IsRetryable(err))

			if tc.wantAPIError {
				var apiErr *APIError
				assert.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tc.status, apiErr.StatusCode)
			}
		})
	}
}

func TestSendMessage_MalformedBodyIsPermanent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": tru`) // truncated JSON
	})

	_, err := client.SendMessage(context.Background(), Message{ChatID: 1, Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
	assert.False(t, IsRetryable(err))
}

func TestSendMessage_TransportErrorIsRetryable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(ClientConfig{
		Token:      "t",
		APIBase:    server.URL,
		HTTPClient: server.Client(),
	}, nil)
	require.NoError(t, err)
	server.Close() // connection refused from here on

	_, err = client.SendMessage(context.Background(), Message{ChatID: 1, Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsRetryable(err))
}
