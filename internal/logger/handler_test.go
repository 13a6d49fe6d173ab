package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regcorpus/internal/correlation"
)

func TestContextHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, nil)
	h := NewContextHandler(jsonHandler)
	logger := slog.New(h)

	ctx := context.Background()
	ctx = correlation.WithRunID(ctx, "test-run-id")
	ctx = correlation.WithStage(ctx, "ingest")

	logger.InfoContext(ctx, "test message")

	var logMap map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logMap); err != nil {
		t.Fatalf("failed to unmarshal log: %v", err)
	}

	if logMap["run_id"] != "test-run-id" {
		t.Errorf("expected run_id 'test-run-id', got %v", logMap["run_id"])
	}
	if logMap["stage"] != "ingest" {
		t.Errorf("expected stage 'ingest', got %v", logMap["stage"])
	}
}

func TestContextHandler_WithAttrsKeepsDecoration(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	logger.InfoContext(correlation.WithRunID(context.Background(), "abc"), "hello")

	var logMap map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logMap))
	assert.Equal(t, "abc", logMap["run_id"])
	assert.Equal(t, "test", logMap["component"])
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "warn")
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")

	_, err = New(&buf, "xml", "info")
	assert.Error(t, err)

	_, err = New(&buf, "text", "loud")
	assert.Error(t, err)
}
