package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regcorpus/features/transform"
	"regcorpus/internal/config"
	"regcorpus/internal/events"
	"regcorpus/internal/pipeline"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func staticSource(records []transform.Record) RecordSource {
	return func(context.Context) ([]transform.Record, error) { return records, nil }
}

func TestStage_ExportsEveryDomain(t *testing.T) {
	dir := t.TempDir()
	pub := new(MockPublisher)
	pub.On("Publish", config.TopicCorpusExported, mock.Anything).Return(nil).Twice()

	records := familyRecords(map[string]int{"a": 2, "b": 3})
	stage := NewStage(newTestExporter(t, dir),
		[]Domain{recordDomain{name: "first"}, recordDomain{name: "second"}},
		staticSource(records), events.NewEmitter(pub, nil), nil)

	res, err := pipeline.NewRunner(nil, nil).Run(context.Background(), stage)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, 2, res.ProcessedItems)
	assert.Len(t, stage.Stats(), 2)

	b, err := os.ReadFile(filepath.Join(dir, "metadata", CombinedStatsFile))
	require.NoError(t, err)
	var combined CombinedStats
	require.NoError(t, json.Unmarshal(b, &combined))
	assert.Equal(t, 10, combined.TotalSamples)
	assert.Contains(t, combined.Datasets, "first")
	assert.Contains(t, combined.Datasets, "second")

	pub.AssertExpectations(t)
}

func TestStage_DomainFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	stage := NewStage(newTestExporter(t, dir),
		[]Domain{failingDomain{recordDomain{name: "broken"}}, recordDomain{name: "ok"}},
		staticSource(familyRecords(map[string]int{"a": 1})), nil, nil)

	res, err := pipeline.NewRunner(nil, nil).Run(context.Background(), stage)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ProcessedItems)
	assert.Equal(t, 1, res.FailedItems)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken", res.Failures[0].ItemID)
}

func TestStage_LoadFailure(t *testing.T) {
	load := func(context.Context) ([]transform.Record, error) { return nil, errors.New("disk gone") }
	stage := NewStage(newTestExporter(t, t.TempDir()), []Domain{recordDomain{name: "x"}}, load, nil, nil)

	res, err := pipeline.NewRunner(nil, nil).Run(context.Background(), stage)
	assert.ErrorContains(t, err, "disk gone")
	assert.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "setup failed")
}

func TestStage_NoDomains(t *testing.T) {
	stage := NewStage(newTestExporter(t, t.TempDir()), nil, staticSource(nil), nil, nil)
	_, err := stage.Prepare(context.Background())
	assert.Error(t, err)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, transform.WriteBatch(transform.BatchPath(dir, "b1"), []transform.Record{{"text": "a"}}))
	require.NoError(t, transform.WriteBatch(transform.BatchPath(dir, "b2"), []transform.Record{{"text": "b"}, {"text": "c"}}))

	records, err := DirSource(dir)(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
