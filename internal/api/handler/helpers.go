package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

// writeServiceError maps service-layer errors onto the error taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound, "Resource not found.")
	case errors.Is(err, core.ErrLastKey):
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest,
			"Cannot delete the last API key. Create another key first.")
	default:
		response.WriteError(w, http.StatusInternalServerError, response.CodeInternalError, "Internal error.")
	}
}

// writeUpstreamError translates an upstream provider failure and returns the
// HTTP status used so the caller can record it. Timeouts surface as 408;
// everything else collapses to internal_error.
func writeUpstreamError(w http.ResponseWriter, err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		response.WriteError(w, http.StatusRequestTimeout, response.CodeTimeout,
			"Upstream request timed out.")
		return http.StatusRequestTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusRequestTimeout {
		response.WriteError(w, http.StatusRequestTimeout, response.CodeTimeout,
			"Upstream request timed out.")
		return http.StatusRequestTimeout
	}
	response.WriteError(w, http.StatusInternalServerError, response.CodeInternalError,
		"Upstream provider error.")
	return http.StatusInternalServerError
}

// clientIP returns the originating address, preferring X-Forwarded-For when
// the gateway sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// usageRow builds a ledger row for the current request. Token and cost
// fields start zeroed; the handler fills them from the upstream response.
func usageRow(r *http.Request, endpoint, modelName string, start time.Time, status int) *model.Usage {
	row := &model.Usage{
		Endpoint:   endpoint,
		Model:      modelName,
		LatencyMs:  int(time.Since(start).Milliseconds()),
		StatusCode: status,
		ClientIP:   clientIP(r),
		UserAgent:  r.UserAgent(),
	}
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		row.APIKeyID = identity.ID
	}
	return row
}
