package run_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regcorpus/features/job"
	"regcorpus/features/run"
	"regcorpus/internal/testutils"
)

func TestRunLedger_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()
	runs := run.NewPostgresRepo(s.DB)
	failures := job.NewPostgresRepo(s.DB)

	require.NoError(t, run.NewRecorder(runs, failures, nil).Record(ctx, finishedResult()))

	list, err := runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ingest", list[0].Stage)
	assert.Equal(t, []string{"a: timeout", "b: 404"}, list[0].Errors)

	var meta map[string]int
	require.NoError(t, json.Unmarshal(list[0].Metadata, &meta))
	assert.Equal(t, 1, meta["changed"])

	got, err := runs.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.WithinDuration(t, list[0].StartedAt, got.StartedAt, time.Millisecond)

	count, err := failures.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
