package job

import (
	"time"
)

// Job is one item that failed inside a recorded stage run.
type Job struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	SourceID  string    `json:"source_id"`
	Error     string    `json:"error"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"created_at"`
}
