package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

// FineTuneRunner drives queued jobs through the running state in the
// background. Jobs are claimed with a guarded UPDATE, so several runners can
// share a database without double-processing.
type FineTuneRunner struct {
	svc    *FineTuneService
	logger zerolog.Logger

	// PollInterval is how often the queue is checked for work.
	PollInterval time.Duration
	// StepInterval is the pause between training steps; each step re-checks
	// for cancellation.
	StepInterval time.Duration
	// Steps is the number of training steps per job.
	Steps int
}

// NewFineTuneRunner creates a runner with default pacing.
func NewFineTuneRunner(svc *FineTuneService, logger zerolog.Logger) *FineTuneRunner {
	return &FineTuneRunner{
		svc:          svc,
		logger:       logger,
		PollInterval: 5 * time.Second,
		StepInterval: 2 * time.Second,
		Steps:        5,
	}
}

// Run claims and processes jobs until the context is done.
func (r *FineTuneRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.drainQueue(ctx)
		}
	}
}

func (r *FineTuneRunner) drainQueue(ctx context.Context) {
	for {
		job, err := r.svc.ClaimQueued(ctx)
		if errors.Is(err, ErrNotFound) {
			return
		}
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to claim fine-tuning job")
			return
		}
		r.process(ctx, job)
	}
}

// process walks one job through its training steps. A cancellation observed
// between steps stops the work; the guarded transitions make the final state
// write race-free either way.
func (r *FineTuneRunner) process(ctx context.Context, job *model.FineTuningJob) {
	logger := r.logger.With().Str("job_id", job.ID).Str("model", job.Model).Logger()
	logger.Info().Msg("fine-tuning job started")

	for step := 0; step < r.Steps; step++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.StepInterval):
		}

		status, err := r.svc.StatusOf(ctx, job.ID)
		if err != nil {
			logger.Error().Err(err).Msg("failed to check job status")
			return
		}
		if status != model.JobStatusRunning {
			logger.Info().Str("status", status).Msg("fine-tuning job no longer running, stopping")
			return
		}
	}

	fineTuned := fmt.Sprintf("ft:%s:%s", job.Model, strings.TrimPrefix(job.ID, "ftjob-"))
	if err := r.svc.Complete(ctx, job.ID, fineTuned); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Cancelled between the last step and completion.
			return
		}
		logger.Error().Err(err).Msg("failed to complete fine-tuning job")
		if ferr := r.svc.Fail(ctx, job.ID, "internal error finalizing job"); ferr != nil && !errors.Is(ferr, ErrInvalidTransition) {
			logger.Error().Err(ferr).Msg("failed to mark job failed")
		}
		return
	}

	logger.Info().Str("fine_tuned_model", fineTuned).Msg("fine-tuning job succeeded")
}
