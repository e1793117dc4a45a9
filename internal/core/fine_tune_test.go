package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

func scanTestJob(id, status string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = "key-1"
		*(dest[2].(*string)) = "gpt-4o-mini"
		*(dest[3].(*string)) = "file-abc"
		*(dest[4].(*string)) = status
		// dest[5] error, dest[6] fine_tuned_model stay nil
		*(dest[7].(*time.Time)) = time.Now()
		return nil
	}
}

func TestFineTuneCreate(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	job, err := svc.Create(ctx, "key-1", "gpt-4o-mini", "file-abc")
	require.NoError(t, err)
	assert.Contains(t, job.ID, "ftjob-")
	assert.Equal(t, model.JobStatusQueued, job.Status)
	assert.False(t, job.Terminal())
}

func TestFineTuneGetForUser_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	_, err := svc.GetForUser(ctx, "user-1", "ftjob-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFineTuneCancel_TerminalJobRejected(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanTestJob("ftjob-1", model.JobStatusSucceeded)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	_, err := svc.Cancel(ctx, "user-1", "ftjob-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestFineTuneCancel_LosesRace(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanTestJob("ftjob-1", model.JobStatusRunning)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()
	// Guarded UPDATE affects zero rows: the job finished first.
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

	_, err := svc.Cancel(ctx, "user-1", "ftjob-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFineTuneClaimQueued_Empty(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	_, err := svc.ClaimQueued(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFineTuneComplete_GuardedTransition(t *testing.T) {
	db := &mockDB{}
	svc := NewFineTuneService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()
	require.NoError(t, svc.Complete(ctx, "ftjob-1", "ft:gpt-4o-mini:abc"))

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()
	assert.ErrorIs(t, svc.Complete(ctx, "ftjob-1", "ft:gpt-4o-mini:abc"), ErrInvalidTransition)
}

func TestJobTerminal(t *testing.T) {
	for _, status := range []string{model.JobStatusSucceeded, model.JobStatusFailed, model.JobStatusCancelled} {
		j := &model.FineTuningJob{Status: status}
		assert.True(t, j.Terminal(), status)
	}
	for _, status := range []string{model.JobStatusQueued, model.JobStatusRunning} {
		j := &model.FineTuningJob{Status: status}
		assert.False(t, j.Terminal(), status)
	}
}
