package job_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"regcorpus/features/job"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepo) List(ctx context.Context) ([]job.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepo) IncrementRetries(ctx context.Context, id, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

type MockRetrier struct {
	mock.Mock
}

func (m *MockRetrier) Retry(ctx context.Context, stage, sourceID string) error {
	args := m.Called(ctx, stage, sourceID)
	return args.Error(0)
}

func TestService_Retry_Success(t *testing.T) {
	repo := new(MockRepo)
	retrier := new(MockRetrier)
	svc := job.NewService(repo, retrier, nil)

	repo.On("Get", mock.Anything, "1").Return(&job.Job{ID: "1", Stage: "ingest", SourceID: "mva-loven"}, nil)
	retrier.On("Retry", mock.Anything, "ingest", "mva-loven").Return(nil)
	repo.On("Delete", mock.Anything, "1").Return(nil)

	assert.NoError(t, svc.Retry(context.Background(), "1"))
	repo.AssertExpectations(t)
	retrier.AssertExpectations(t)
}

func TestService_Retry_FailureIncrementsRetries(t *testing.T) {
	repo := new(MockRepo)
	retrier := new(MockRetrier)
	svc := job.NewService(repo, retrier, nil)

	repo.On("Get", mock.Anything, "1").Return(&job.Job{ID: "1", Stage: "transform", SourceID: "notes"}, nil)
	retrier.On("Retry", mock.Anything, "transform", "notes").Return(errors.New("no parser"))
	repo.On("IncrementRetries", mock.Anything, "1", "no parser").Return(nil)

	err := svc.Retry(context.Background(), "1")
	assert.ErrorContains(t, err, "no parser")
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestService_Retry_NotFound(t *testing.T) {
	repo := new(MockRepo)
	svc := job.NewService(repo, new(MockRetrier), nil)

	repo.On("Get", mock.Anything, "99").Return(nil, sql.ErrNoRows)

	assert.ErrorIs(t, svc.Retry(context.Background(), "99"), sql.ErrNoRows)
}

func TestService_Retry_DeleteError(t *testing.T) {
	repo := new(MockRepo)
	retrier := new(MockRetrier)
	svc := job.NewService(repo, retrier, nil)

	repo.On("Get", mock.Anything, "1").Return(&job.Job{ID: "1", Stage: "ingest", SourceID: "a"}, nil)
	retrier.On("Retry", mock.Anything, "ingest", "a").Return(nil)
	repo.On("Delete", mock.Anything, "1").Return(errors.New("delete failed"))

	err := svc.Retry(context.Background(), "1")
	assert.EqualError(t, err, "delete failed")
}

func TestService_Retry_NoRetrier(t *testing.T) {
	repo := new(MockRepo)
	svc := job.NewService(repo, nil, nil)
	repo.On("Get", mock.Anything, "1").Return(&job.Job{ID: "1", Stage: "ingest"}, nil)

	assert.Error(t, svc.Retry(context.Background(), "1"))
}

func TestService_ListAndCount(t *testing.T) {
	repo := new(MockRepo)
	svc := job.NewService(repo, nil, nil)

	repo.On("List", mock.Anything).Return([]job.Job{{ID: "1"}}, nil)
	repo.On("Count", mock.Anything).Return(1, nil)

	jobs, err := svc.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, jobs, 1)

	n, err := svc.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
