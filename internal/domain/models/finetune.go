package models

import "time"

// Fine-tune job statuses the tracker gives meaning to. The status column is
// an open provider-defined string, not a closed enum: the provider may report
// intermediate values like "validating_files" or "queued" and we store them
// as-is. Only StatusSucceeded makes a job's model usable for chat turns.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// FineTuneJob records one submitted fine-tuning run and the provider's last
// reported view of it. Rows are inserted by submission and mutated only by
// status polling.
type FineTuneJob struct {
	ID             int64      `json:"id"`
	FineTuneID     string     `json:"fine_tune_id"`
	Status         string     `json:"status"`
	ModelID        *string    `json:"model_id"`
	TrainingFile   string     `json:"training_file"`
	ValidationFile string     `json:"validation_file"`
	CreatedAt      time.Time  `json:"created_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

// IsTerminalStatus reports whether no further transition is expected after
// the given provider status.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
