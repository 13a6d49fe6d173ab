package run_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regcorpus/features/job"
	"regcorpus/features/run"
	"regcorpus/internal/pipeline"
)

type MockRuns struct {
	mock.Mock
}

func (m *MockRuns) Save(ctx context.Context, r *run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRuns) List(ctx context.Context, limit int) ([]run.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]run.Run), args.Error(1)
}

func (m *MockRuns) Get(ctx context.Context, id string) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

type MockFailures struct {
	mock.Mock
}

func (m *MockFailures) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func finishedResult() *pipeline.Result {
	res := pipeline.NewResult("ingest", "run-1")
	_ = res.Begin(3, time.Now())
	res.AddProcessed(1)
	res.AddFailure("a", errors.New("timeout"))
	res.AddFailure("b", errors.New("404"))
	res.SetMeta("changed", 1)
	res.Finish(time.Now())
	return res
}

func TestRecorder_Record(t *testing.T) {
	runs := new(MockRuns)
	failures := new(MockFailures)
	rec := run.NewRecorder(runs, failures, nil)

	runs.On("Save", mock.Anything, mock.MatchedBy(func(r *run.Run) bool {
		return r.RunID == "run-1" && r.Stage == "ingest" && !r.Success && r.FailedItems == 2 &&
			string(r.Metadata) == `{"changed":1}`
	})).Return(nil)
	failures.On("Save", mock.Anything, mock.MatchedBy(func(j *job.Job) bool {
		return j.RunID == "run-1" && j.Stage == "ingest" && j.SourceID == "a" && j.Error == "timeout"
	})).Return(nil)
	failures.On("Save", mock.Anything, mock.MatchedBy(func(j *job.Job) bool {
		return j.SourceID == "b" && j.Error == "404"
	})).Return(nil)

	require.NoError(t, rec.Record(context.Background(), finishedResult()))
	runs.AssertExpectations(t)
	failures.AssertExpectations(t)
}

func TestRecorder_SaveRunError(t *testing.T) {
	runs := new(MockRuns)
	failures := new(MockFailures)
	rec := run.NewRecorder(runs, failures, nil)

	runs.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := rec.Record(context.Background(), finishedResult())
	assert.ErrorContains(t, err, "db down")
	failures.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRecorder_WithoutFailureLedger(t *testing.T) {
	runs := new(MockRuns)
	runs.On("Save", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, run.NewRecorder(runs, nil, nil).Record(context.Background(), finishedResult()))
}

func TestRecorder_WiredIntoRunner(t *testing.T) {
	runs := new(MockRuns)
	runs.On("Save", mock.Anything, mock.MatchedBy(func(r *run.Run) bool {
		return r.Stage == "noop" && r.Success
	})).Return(nil)

	runner := pipeline.NewRunner(nil, run.NewRecorder(runs, nil, nil))
	_, err := runner.Run(context.Background(), noopStage{})
	require.NoError(t, err)
	runs.AssertExpectations(t)
}

type noopStage struct{}

func (noopStage) Name() string                                    { return "noop" }
func (noopStage) Prepare(context.Context) (int, error)            { return 0, nil }
func (noopStage) Execute(context.Context, *pipeline.Result) error { return nil }
