package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/platform"
)

// ErrInvalidTransition is returned when a job state change loses the race
// against another transition, e.g. cancelling an already-finished job.
var ErrInvalidTransition = errors.New("invalid job state transition")

// FineTuneService manages fine-tuning jobs. All state transitions are
// guarded UPDATEs conditioned on the expected current status, so they are
// monotonic and safe to retry.
type FineTuneService struct {
	db DB
}

// NewFineTuneService creates a new FineTuneService.
func NewFineTuneService(db DB) *FineTuneService {
	return &FineTuneService{db: db}
}

// Create inserts a job in the queued state.
func (s *FineTuneService) Create(ctx context.Context, apiKeyID, modelName, trainingFile string) (*model.FineTuningJob, error) {
	job := &model.FineTuningJob{
		ID:           platform.NewObjectID("ftjob"),
		APIKeyID:     apiKeyID,
		Model:        modelName,
		TrainingFile: trainingFile,
		Status:       model.JobStatusQueued,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO fine_tuning_jobs (id, api_key_id, model, training_file, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		job.ID, job.APIKeyID, job.Model, job.TrainingFile, job.Status,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert fine-tuning job: %w", err)
	}

	return job, nil
}

const jobColumns = `j.id, j.api_key_id, j.model, j.training_file, j.status, j.error,
	j.fine_tuned_model, j.created_at, j.started_at, j.finished_at`

func scanJob(row interface{ Scan(dest ...any) error }) (*model.FineTuningJob, error) {
	var j model.FineTuningJob
	err := row.Scan(&j.ID, &j.APIKeyID, &j.Model, &j.TrainingFile, &j.Status, &j.Error,
		&j.FineTunedModel, &j.CreatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetForUser retrieves a job visible to the given user. Polling is
// idempotent: the same ID always reports the current (or final) status.
func (s *FineTuneService) GetForUser(ctx context.Context, userID, jobID string) (*model.FineTuningJob, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM fine_tuning_jobs j
		 JOIN api_keys k ON k.id = j.api_key_id
		 WHERE j.id = $1 AND k.user_id = $2`, jobID, userID,
	)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fine-tuning job %s: %w", jobID, err)
	}
	return job, nil
}

// ListForUser returns the user's jobs, newest first.
func (s *FineTuneService) ListForUser(ctx context.Context, userID string, limit int) ([]model.FineTuningJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM fine_tuning_jobs j
		 JOIN api_keys k ON k.id = j.api_key_id
		 WHERE k.user_id = $1 ORDER BY j.created_at DESC LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list fine-tuning jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.FineTuningJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fine-tuning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fine-tuning jobs: %w", err)
	}
	return jobs, nil
}

// Cancel moves a queued or running job to cancelled.
func (s *FineTuneService) Cancel(ctx context.Context, userID, jobID string) (*model.FineTuningJob, error) {
	job, err := s.GetForUser(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return nil, ErrInvalidTransition
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE fine_tuning_jobs SET status = $1, finished_at = now()
		 WHERE id = $2 AND status IN ($3, $4)`,
		model.JobStatusCancelled, jobID, model.JobStatusQueued, model.JobStatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel fine-tuning job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidTransition
	}

	return s.GetForUser(ctx, userID, jobID)
}

// ClaimQueued atomically moves the oldest queued job to running and returns
// it. Returns ErrNotFound when the queue is empty.
func (s *FineTuneService) ClaimQueued(ctx context.Context) (*model.FineTuningJob, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE fine_tuning_jobs j SET status = $1, started_at = now()
		 WHERE j.id = (
		     SELECT id FROM fine_tuning_jobs WHERE status = $2
		     ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
		model.JobStatusRunning, model.JobStatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim queued job: %w", err)
	}
	return job, nil
}

// Complete moves a running job to succeeded and records the resulting model.
func (s *FineTuneService) Complete(ctx context.Context, jobID, fineTunedModel string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE fine_tuning_jobs SET status = $1, fine_tuned_model = $2, finished_at = now()
		 WHERE id = $3 AND status = $4`,
		model.JobStatusSucceeded, fineTunedModel, jobID, model.JobStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("complete fine-tuning job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// Fail moves a running job to failed with an error message.
func (s *FineTuneService) Fail(ctx context.Context, jobID, message string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE fine_tuning_jobs SET status = $1, error = $2, finished_at = now()
		 WHERE id = $3 AND status = $4`,
		model.JobStatusFailed, message, jobID, model.JobStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("fail fine-tuning job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// StatusOf returns only the current status, used by the runner to notice
// cancellations mid-training.
func (s *FineTuneService) StatusOf(ctx context.Context, jobID string) (string, error) {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM fine_tuning_jobs WHERE id = $1`, jobID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get job status %s: %w", jobID, err)
	}
	return status, nil
}
