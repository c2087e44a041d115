package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeeHandler_FansOutByLevel(t *testing.T) {
	var debugOut, infoOut bytes.Buffer
	tee := NewTeeHandler(
		slog.NewTextHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoOut, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(tee)

	logger.Debug("quiet detail")
	logger.Info("for everyone")

	assert.Contains(t, debugOut.String(), "quiet detail")
	assert.Contains(t, debugOut.String(), "for everyone")
	assert.NotContains(t, infoOut.String(), "quiet detail")
	assert.Contains(t, infoOut.String(), "for everyone")
}

func TestTeeHandler_EnabledWhenAnyHandlerIs(t *testing.T) {
	var out bytes.Buffer
	tee := NewTeeHandler(
		slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	assert.True(t, tee.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, tee.Enabled(context.Background(), slog.LevelError))
}

func TestTeeHandler_WithAttrsReachesAllHandlers(t *testing.T) {
	var a, b bytes.Buffer
	tee := NewTeeHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)
	logger := slog.New(tee).With("workspace", "/tmp/blog")

	logger.Info("attached")

	require.Contains(t, a.String(), "workspace=/tmp/blog")
	require.Contains(t, b.String(), "workspace=/tmp/blog")
}
