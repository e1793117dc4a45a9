package model

import "time"

// Fine-tuning job statuses. Transitions are monotonic:
// queued → running → succeeded | failed, and queued/running → cancelled.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// FineTuningJob mirrors the OpenAI fine_tuning.job object.
type FineTuningJob struct {
	ID             string     `json:"id"`
	APIKeyID       string     `json:"-"`
	Model          string     `json:"model"`
	TrainingFile   string     `json:"training_file"`
	Status         string     `json:"status"`
	Error          *string    `json:"error,omitempty"`
	FineTunedModel *string    `json:"fine_tuned_model,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j *FineTuningJob) Terminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
