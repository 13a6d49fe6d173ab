package pipeline

import "context"

// Rejected is an item that was dropped before the stage could see it, such
// as an unreadable catalog row.
type Rejected struct {
	ItemID string
	Err    error
}

// WithRejected counts rejected items towards stage's total and records each
// as a failure before the stage executes.
func WithRejected(stage Stage, rejected []Rejected) Stage {
	if len(rejected) == 0 {
		return stage
	}
	return &rejectedStage{Stage: stage, rejected: rejected}
}

type rejectedStage struct {
	Stage
	rejected []Rejected
}

func (s *rejectedStage) Prepare(ctx context.Context) (int, error) {
	n, err := s.Stage.Prepare(ctx)
	if err != nil {
		return n, err
	}
	return n + len(s.rejected), nil
}

func (s *rejectedStage) Execute(ctx context.Context, res *Result) error {
	for _, r := range s.rejected {
		res.AddFailure(r.ItemID, r.Err)
	}
	return s.Stage.Execute(ctx, res)
}
