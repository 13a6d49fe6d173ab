package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrAlreadyStarted = errors.New("result already started")

type Status string

const (
	StatusCreated  Status = "created"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// Failure is one item that could not be processed.
type Failure struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

// Result accumulates the outcome of one stage run.
type Result struct {
	Stage          string         `json:"stage"`
	RunID          string         `json:"run_id"`
	Status         Status         `json:"status"`
	Success        bool           `json:"success"`
	TotalItems     int            `json:"total_items"`
	ProcessedItems int            `json:"processed_items"`
	FailedItems    int            `json:"failed_items"`
	Errors         []string       `json:"errors"`
	Failures       []Failure      `json:"failures,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	Elapsed        time.Duration  `json:"elapsed"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func NewResult(stage, runID string) *Result {
	return &Result{
		Stage:    stage,
		RunID:    runID,
		Status:   StatusCreated,
		Metadata: make(map[string]any),
	}
}

// Begin fixes the item count and moves the result to running.
func (r *Result) Begin(total int, at time.Time) error {
	if r.Status != StatusCreated {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, r.Stage, r.Status)
	}
	r.TotalItems = total
	r.StartedAt = at
	r.Status = StatusRunning
	return nil
}

func (r *Result) AddProcessed(n int) {
	r.ProcessedItems += n
}

// AddFailure records an item-level failure.
func (r *Result) AddFailure(itemID string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.FailedItems++
	r.Failures = append(r.Failures, Failure{ItemID: itemID, Error: msg})
	if itemID != "" {
		r.Errors = append(r.Errors, itemID+": "+msg)
		return
	}
	r.Errors = append(r.Errors, msg)
}

// AddError records a stage-level message without touching item counts.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Result) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// Finish closes the result. Success means no item failed.
func (r *Result) Finish(at time.Time) {
	if !r.StartedAt.IsZero() {
		r.Elapsed = at.Sub(r.StartedAt)
	}
	r.Status = StatusFinished
	r.Success = r.FailedItems == 0
}

// SuccessRate is processed/total, or 0 when there was nothing to do.
func (r *Result) SuccessRate() float64 {
	if r.TotalItems == 0 {
		return 0
	}
	return float64(r.ProcessedItems) / float64(r.TotalItems)
}

// Merge folds others into r. Counts are summed and errors concatenated.
func (r *Result) Merge(others ...*Result) {
	for _, o := range others {
		if o == nil {
			continue
		}
		r.TotalItems += o.TotalItems
		r.ProcessedItems += o.ProcessedItems
		r.FailedItems += o.FailedItems
		r.Errors = append(r.Errors, o.Errors...)
		r.Failures = append(r.Failures, o.Failures...)
		r.Elapsed += o.Elapsed
	}
	if r.Status == StatusFinished {
		r.Success = r.FailedItems == 0
	}
}

func (r *Result) Summary(title, itemName string) string {
	rule := strings.Repeat("=", 50)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", rule, strings.ToUpper(title), rule)
	fmt.Fprintf(&b, "Total %s: %d\n", itemName, r.TotalItems)
	fmt.Fprintf(&b, "Processed %s: %d\n", itemName, r.ProcessedItems)
	fmt.Fprintf(&b, "Failed %s: %d\n", itemName, r.FailedItems)
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", r.SuccessRate()*100)
	fmt.Fprintf(&b, "Execution time: %.2fs\n", r.Elapsed.Seconds())
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\nErrors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  • %s\n", e)
		}
	}
	b.WriteString(rule + "\n")
	return b.String()
}
