package correlation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"regcorpus/internal/correlation"
)

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", correlation.RunID(ctx))

	ctx = correlation.WithRunID(ctx, "run-1")
	assert.Equal(t, "run-1", correlation.RunID(ctx))
}

func TestNewRunID_IsUUID(t *testing.T) {
	id := correlation.NewRunID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, correlation.NewRunID())
}

func TestStage(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, correlation.Stage(ctx))
	assert.Equal(t, "ingest", correlation.Stage(correlation.WithStage(ctx, "ingest")))
}
