package run

import (
	"context"
	"fmt"
	"log/slog"

	"regcorpus/features/job"
	"regcorpus/internal/pipeline"
)

// FailureSaver stores one failed item.
type FailureSaver interface {
	Save(ctx context.Context, j *job.Job) error
}

// Recorder writes finished results to the run ledger and every item
// failure to the failed-item ledger.
type Recorder struct {
	runs     Repository
	failures FailureSaver
	logger   *slog.Logger
}

func NewRecorder(runs Repository, failures FailureSaver, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{runs: runs, failures: failures, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, res *pipeline.Result) error {
	row, err := FromResult(res)
	if err != nil {
		return fmt.Errorf("encode run metadata: %w", err)
	}
	if err := r.runs.Save(ctx, row); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	r.logger.DebugContext(ctx, "run recorded", "id", row.ID, "stage", row.Stage)

	if r.failures == nil {
		return nil
	}
	for _, f := range res.Failures {
		j := &job.Job{
			RunID:    res.RunID,
			Stage:    res.Stage,
			SourceID: f.ItemID,
			Error:    f.Error,
		}
		if err := r.failures.Save(ctx, j); err != nil {
			return fmt.Errorf("save failed item %s: %w", f.ItemID, err)
		}
	}
	return nil
}
