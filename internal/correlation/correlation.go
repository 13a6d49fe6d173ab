package correlation

import (
	"context"

	"github.com/google/uuid"
)

type key int

const (
	RunIDKey key = iota
	StageKey
)

// NewRunID returns a fresh identifier for one stage invocation.
func NewRunID() string {
	return uuid.New().String()
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return "unknown"
}

func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func Stage(ctx context.Context) string {
	if s, ok := ctx.Value(StageKey).(string); ok {
		return s
	}
	return ""
}
