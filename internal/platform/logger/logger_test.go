package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	testCases := []struct {
		name  string
		level string
	}{
		{name: "debug", level: "debug"},
		{name: "info", level: "info"},
		{name: "warn", level: "warn"},
		{name: "error", level: "error"},
		{name: "mixed case", level: "DeBuG"},
		{name: "invalid falls back to info", level: "verbose"},
		{name: "empty defaults to info", level: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Setup(tc.level)
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Without an attached logger the default comes back.
	assert.NotNil(t, FromContext(ctx))

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx = WithContext(ctx, attached)
	assert.Same(t, attached, FromContext(ctx))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	// No logger in context: the fallback wins over the process default.
	got := FromContextOrDefault(context.Background(), fallback)
	assert.Same(t, fallback, got)

	// Attached logger wins over the fallback.
	attached := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithContext(context.Background(), attached)
	assert.Same(t, attached, FromContextOrDefault(ctx, fallback))

	// Nil fallback degrades to the default logger.
	assert.NotNil(t, FromContextOrDefault(context.Background(), nil))
}
