package job

import (
	"context"
	"fmt"
	"log/slog"
)

// Retrier re-runs one stage for a single source.
type Retrier interface {
	Retry(ctx context.Context, stage, sourceID string) error
}

type Service struct {
	repo    Repository
	retrier Retrier
	logger  *slog.Logger
}

func NewService(repo Repository, retrier Retrier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, retrier: retrier, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Retry re-runs the failed item. The row is deleted on success; on failure
// its retry count and last error are updated.
func (s *Service) Retry(ctx context.Context, id string) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.retrier == nil {
		return fmt.Errorf("no retrier configured for stage %s", job.Stage)
	}

	s.logger.InfoContext(ctx, "retrying failed item", "id", id, "stage", job.Stage, "source_id", job.SourceID, "retries", job.Retries)

	if retryErr := s.retrier.Retry(ctx, job.Stage, job.SourceID); retryErr != nil {
		if err := s.repo.IncrementRetries(ctx, id, retryErr.Error()); err != nil {
			s.logger.WarnContext(ctx, "failed to update retry count", "id", id, "error", err)
		}
		return fmt.Errorf("retry %s/%s: %w", job.Stage, job.SourceID, retryErr)
	}

	return s.repo.Delete(ctx, id)
}
