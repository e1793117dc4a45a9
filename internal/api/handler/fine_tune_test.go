package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

func TestFineTuneCreate_MissingTrainingFile(t *testing.T) {
	h := NewFineTune(nil, testRecorder())
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodPost, "/v1/fine-tuning/jobs", map[string]any{
		"model": "gpt-4o-mini",
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFineTuneCreate_UnknownModel(t *testing.T) {
	h := NewFineTune(nil, testRecorder())
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodPost, "/v1/fine-tuning/jobs", map[string]any{
		"model":         "dall-e-3",
		"training_file": "file-abc",
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFineTuneList_InvalidLimit(t *testing.T) {
	h := NewFineTune(nil, testRecorder())
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodGet, "/v1/fine-tuning/jobs?limit=0", nil))

	h.List(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToJobObject(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	finished := created.Add(10 * time.Minute)
	tuned := "ft:gpt-4o-mini:custom"

	job := &model.FineTuningJob{
		ID:             "ftjob-abc",
		Model:          "gpt-4o-mini",
		TrainingFile:   "file-abc",
		Status:         model.JobStatusSucceeded,
		FineTunedModel: &tuned,
		CreatedAt:      created,
		StartedAt:      &started,
		FinishedAt:     &finished,
	}

	o := toJobObject(job)

	assert.Equal(t, "fine_tuning.job", o.Object)
	assert.Equal(t, "ftjob-abc", o.ID)
	assert.Equal(t, created.Unix(), o.CreatedAt)
	assert.Equal(t, started.Unix(), *o.StartedAt)
	assert.Equal(t, finished.Unix(), *o.FinishedAt)
	assert.Equal(t, tuned, *o.FineTunedModel)
	assert.Nil(t, o.Error)
}

func TestToJobObject_QueuedHasNilTimestamps(t *testing.T) {
	job := &model.FineTuningJob{
		ID:           "ftjob-q",
		Model:        "gpt-4o-mini",
		TrainingFile: "file-q",
		Status:       model.JobStatusQueued,
		CreatedAt:    time.Now(),
	}

	o := toJobObject(job)

	assert.Equal(t, "queued", o.Status)
	assert.Nil(t, o.StartedAt)
	assert.Nil(t, o.FinishedAt)
	assert.Nil(t, o.FineTunedModel)
}
