package run

import (
	"encoding/json"
	"time"

	"regcorpus/internal/pipeline"
)

// Run is one recorded stage execution.
type Run struct {
	ID             string          `json:"id"`
	RunID          string          `json:"run_id"`
	Stage          string          `json:"stage"`
	Success        bool            `json:"success"`
	TotalItems     int             `json:"total_items"`
	ProcessedItems int             `json:"processed_items"`
	FailedItems    int             `json:"failed_items"`
	Errors         []string        `json:"errors"`
	Metadata       json.RawMessage `json:"metadata"`
	StartedAt      time.Time       `json:"started_at"`
	Elapsed        time.Duration   `json:"elapsed"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromResult converts a finished result into a ledger row.
func FromResult(res *pipeline.Result) (*Run, error) {
	meta, err := json.Marshal(res.Metadata)
	if err != nil {
		return nil, err
	}
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return &Run{
		RunID:          res.RunID,
		Stage:          res.Stage,
		Success:        res.Success,
		TotalItems:     res.TotalItems,
		ProcessedItems: res.ProcessedItems,
		FailedItems:    res.FailedItems,
		Errors:         errs,
		Metadata:       meta,
		StartedAt:      res.StartedAt,
		Elapsed:        res.Elapsed,
	}, nil
}
