package pipeline

import (
	"context"
	"log/slog"
	"time"

	"regcorpus/internal/correlation"
)

// Stage is one pipeline step. Prepare does setup and reports how many items
// Execute will work through; Execute records per-item outcomes on the result.
type Stage interface {
	Name() string
	Prepare(ctx context.Context) (int, error)
	Execute(ctx context.Context, res *Result) error
}

// Recorder persists finished results.
type Recorder interface {
	Record(ctx context.Context, res *Result) error
}

type Runner struct {
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

func NewRunner(logger *slog.Logger, recorder Recorder) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, recorder: recorder, now: time.Now}
}

// Run drives stage through its lifecycle. A setup failure or a stage error is
// returned alongside the finished, unsuccessful result.
func (r *Runner) Run(ctx context.Context, stage Stage) (*Result, error) {
	runID := correlation.RunID(ctx)
	if runID == "unknown" {
		runID = correlation.NewRunID()
		ctx = correlation.WithRunID(ctx, runID)
	}
	ctx = correlation.WithStage(ctx, stage.Name())

	res := NewResult(stage.Name(), runID)
	res.StartedAt = r.now()

	total, err := stage.Prepare(ctx)
	if err != nil {
		res.AddError("setup failed: " + err.Error())
		res.Finish(r.now())
		res.Success = false
		r.logger.ErrorContext(ctx, "stage setup failed", "error", err)
		r.record(ctx, res)
		return res, err
	}

	if err := res.Begin(total, r.now()); err != nil {
		return res, err
	}
	r.logger.InfoContext(ctx, "stage started", "total_items", total)

	execErr := stage.Execute(ctx, res)
	res.Finish(r.now())
	if execErr != nil {
		res.AddError(execErr.Error())
		res.Success = false
		r.logger.ErrorContext(ctx, "stage failed", "error", execErr)
	}

	r.logger.InfoContext(ctx, "stage finished",
		"processed", res.ProcessedItems,
		"failed", res.FailedItems,
		"elapsed", res.Elapsed,
		"success", res.Success,
	)
	r.record(ctx, res)
	return res, execErr
}

func (r *Runner) record(ctx context.Context, res *Result) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, res); err != nil {
		r.logger.WarnContext(ctx, "failed to record run", "error", err)
	}
}
