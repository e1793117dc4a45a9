package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/request"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/catalog"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

const fineTuneEndpoint = "/v1/fine-tuning/jobs"

const defaultJobListLimit = 20

// jobObject is the OpenAI fine_tuning.job shape with unix timestamps.
type jobObject struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	Model          string  `json:"model"`
	TrainingFile   string  `json:"training_file"`
	Status         string  `json:"status"`
	Error          *string `json:"error"`
	FineTunedModel *string `json:"fine_tuned_model"`
	CreatedAt      int64   `json:"created_at"`
	StartedAt      *int64  `json:"started_at"`
	FinishedAt     *int64  `json:"finished_at"`
}

type jobList struct {
	Object  string      `json:"object"`
	Data    []jobObject `json:"data"`
	HasMore bool        `json:"has_more"`
}

func toJobObject(j *model.FineTuningJob) jobObject {
	o := jobObject{
		ID:             j.ID,
		Object:         "fine_tuning.job",
		Model:          j.Model,
		TrainingFile:   j.TrainingFile,
		Status:         j.Status,
		Error:          j.Error,
		FineTunedModel: j.FineTunedModel,
		CreatedAt:      j.CreatedAt.Unix(),
	}
	if j.StartedAt != nil {
		ts := j.StartedAt.Unix()
		o.StartedAt = &ts
	}
	if j.FinishedAt != nil {
		ts := j.FinishedAt.Unix()
		o.FinishedAt = &ts
	}
	return o
}

type FineTune struct {
	svc      *core.FineTuneService
	recorder *core.Recorder
}

func NewFineTune(svc *core.FineTuneService, recorder *core.Recorder) *FineTune {
	return &FineTune{svc: svc, recorder: recorder}
}

// Create handles POST /v1/fine-tuning/jobs.
func (h *FineTune) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req request.CreateFineTuningJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	if !catalog.Supports(req.Model, catalog.CapabilityChat) {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist or cannot be fine-tuned.", req.Model))
		return
	}

	identity := middleware.GetIdentity(r.Context())
	job, err := h.svc.Create(r.Context(), identity.ID, req.Model, req.TrainingFile)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.recorder.Record(usageRow(r, fineTuneEndpoint, req.Model, start, http.StatusOK))
	response.WriteJSON(w, http.StatusOK, toJobObject(job))
}

// List handles GET /v1/fine-tuning/jobs.
func (h *FineTune) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	limit := defaultJobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest,
				"limit must be an integer between 1 and 100.")
			return
		}
		limit = n
	}

	jobs, err := h.svc.ListForUser(r.Context(), identity.UserID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	list := jobList{Object: "list", Data: make([]jobObject, 0, len(jobs))}
	for i := range jobs {
		list.Data = append(list.Data, toJobObject(&jobs[i]))
	}
	response.WriteJSON(w, http.StatusOK, list)
}

// Get handles GET /v1/fine-tuning/jobs/{id}. Polling a terminal job keeps
// returning the same terminal state.
func (h *FineTune) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	job, err := h.svc.GetForUser(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toJobObject(job))
}

// Cancel handles POST /v1/fine-tuning/jobs/{id}/cancel.
func (h *FineTune) Cancel(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	job, err := h.svc.Cancel(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if errors.Is(err, core.ErrInvalidTransition) {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest,
			"Job is already in a terminal state and cannot be cancelled.")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toJobObject(job))
}
