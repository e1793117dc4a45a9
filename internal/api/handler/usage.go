package handler

import (
	"errors"
	"net/http"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
)

type Usage struct {
	svc *core.UsageService
}

func NewUsage(svc *core.UsageService) *Usage {
	return &Usage{svc: svc}
}

// Overview handles GET /dashboard/usage/overview.
func (h *Usage) Overview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	overview, err := h.svc.GetOverview(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, overview)
}

// Report handles GET /dashboard/usage/report?period={day|week|month|year}.
func (h *Usage) Report(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}

	report, err := h.svc.GetReport(r.Context(), user.ID, period)
	if errors.Is(err, core.ErrInvalidPeriod) {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest,
			"period must be one of day, week, month, year.")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, report)
}
