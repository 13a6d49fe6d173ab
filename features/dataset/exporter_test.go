package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regcorpus/features/transform"
)

var pinned = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestExporter(t *testing.T, dir string) *Exporter {
	t.Helper()
	opts := DefaultOptions(dir)
	opts.Now = pinned
	e, err := NewExporter(opts, nil)
	require.NoError(t, err)
	return e
}

func readSamples(t *testing.T, path string) []Sample {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Sample
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s Sample
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		out = append(out, s)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestNewExporter_RejectsInvalidOptions(t *testing.T) {
	for _, ratio := range []float64{0, 1, -0.2, 1.5} {
		opts := DefaultOptions(t.TempDir())
		opts.SplitRatio = ratio
		_, err := NewExporter(opts, nil)
		assert.Error(t, err, "ratio %v", ratio)
	}

	opts := DefaultOptions("")
	_, err := NewExporter(opts, nil)
	assert.Error(t, err)
}

func TestExport_TwoFamilies(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter(t, dir)

	records := familyRecords(map[string]int{"fA": 10, "fB": 10})
	// One exact duplicate and one sample failing the quality gate.
	records = append(records, records[0].Clone())
	records = append(records, transform.Record{"family": "fA", "text": "Kort"})

	stats, err := e.Export(context.Background(), recordDomain{name: "demo"}, records)
	require.NoError(t, err)

	assert.Equal(t, 22, stats.TotalGenerated)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.QualityIssues)
	assert.Equal(t, 20, stats.TotalFiltered)
	assert.Equal(t, 1, stats.TrainFamilies)
	assert.Equal(t, 1, stats.ValFamilies)
	assert.Equal(t, stats.TotalGenerated-stats.DuplicatesRemoved-stats.QualityIssues, stats.TrainSamples+stats.ValSamples)
	assert.Equal(t, SplitAlgorithm, stats.SplitAlgorithm)
	assert.Equal(t, "2024-06-01T12:00:00Z", stats.CreatedAt)

	train := readSamples(t, SplitPath(dir, SplitTrain, "demo"))
	val := readSamples(t, SplitPath(dir, SplitVal, "demo"))
	require.Len(t, train, 10)
	require.Len(t, val, 10)

	trainFamily := train[0].Metadata.FamilyKey
	for _, s := range train {
		assert.Equal(t, trainFamily, s.Metadata.FamilyKey)
		assert.Equal(t, SplitTrain, s.Metadata.Split)
		assert.Equal(t, stats.CreatedAt, s.Metadata.CreatedAt)
	}
	for _, s := range val {
		assert.NotEqual(t, trainFamily, s.Metadata.FamilyKey)
		assert.Equal(t, SplitVal, s.Metadata.Split)
	}

	var onDisk Stats
	b, err := os.ReadFile(StatsPath(dir, "demo"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &onDisk))
	assert.Equal(t, stats, onDisk)
}

func TestExport_Deterministic(t *testing.T) {
	records := familyRecords(map[string]int{"a": 3, "b": 4, "c": 2, "d": 5, "e": 1})

	var outputs [2][2][]byte
	for i := range outputs {
		dir := t.TempDir()
		_, err := newTestExporter(t, dir).Export(context.Background(), recordDomain{name: "demo"}, records)
		require.NoError(t, err)

		outputs[i][0], err = os.ReadFile(SplitPath(dir, SplitTrain, "demo"))
		require.NoError(t, err)
		outputs[i][1], err = os.ReadFile(SplitPath(dir, SplitVal, "demo"))
		require.NoError(t, err)
	}
	assert.Equal(t, outputs[0][0], outputs[1][0])
	assert.Equal(t, outputs[0][1], outputs[1][1])
}

func TestExport_ValidatesCleanly(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter(t, dir)
	_, err := e.Export(context.Background(), recordDomain{name: "demo"}, familyRecords(map[string]int{"a": 3, "b": 2, "c": 4}))
	require.NoError(t, err)

	report, err := Validate(dir)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Issues)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 9, report.Samples)
}

type failingDomain struct{ recordDomain }

func (failingDomain) GenerateSamples([]transform.Record) ([]Sample, error) {
	return nil, errors.New("no input")
}

func TestExport_GenerateError(t *testing.T) {
	e := newTestExporter(t, t.TempDir())
	_, err := e.Export(context.Background(), failingDomain{recordDomain{name: "broken"}}, nil)
	assert.ErrorContains(t, err, "generate broken samples")
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExporter(t, t.TempDir())
	_, err := e.Export(ctx, recordDomain{name: "demo"}, familyRecords(map[string]int{"a": 1}))
	assert.ErrorIs(t, err, context.Canceled)
}
