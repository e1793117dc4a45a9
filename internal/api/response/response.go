// Package response writes JSON responses in the OpenAI wire format.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/ratelimit"
)

// Error codes in the platform's taxonomy. These appear in the error body's
// "code" field and map onto fixed HTTP statuses.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeUnauthenticated   = "unauthenticated"
	CodeInvalidAPIKey     = "invalid_api_key"
	CodeKeyDeactivated    = "key_deactivated"
	CodeNotFound          = "not_found"
	CodeTimeout           = "timeout"
	CodeRateLimitExceeded = "rate_limit_exceeded"
	CodeInternalError     = "internal_error"
)

// ErrorBody is the OpenAI-compatible error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the message, type, and code fields clients branch on.
type ErrorDetail struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an OpenAI-style error envelope. The type field groups
// codes the way the OpenAI SDKs expect.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{
		Message: message,
		Type:    errorType(code),
		Code:    code,
	}})
}

// WriteRateLimited writes a 429 with the Retry-After header and the
// retry_after field set from the limiter decision.
func WriteRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteJSON(w, http.StatusTooManyRequests, ErrorBody{Error: ErrorDetail{
		Message:    "Rate limit exceeded. Please retry later.",
		Type:       "rate_limit_error",
		Code:       CodeRateLimitExceeded,
		RetryAfter: retryAfter,
	}})
}

// SetRateLimitHeaders writes the standard x-ratelimit response headers.
func SetRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("x-ratelimit-limit-requests", strconv.Itoa(d.Limit))
	w.Header().Set("x-ratelimit-remaining-requests", strconv.Itoa(d.Remaining))
	w.Header().Set("x-ratelimit-reset-requests", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func errorType(code string) string {
	switch code {
	case CodeInvalidRequest, CodeNotFound:
		return "invalid_request_error"
	case CodeUnauthenticated, CodeInvalidAPIKey, CodeKeyDeactivated:
		return "authentication_error"
	case CodeRateLimitExceeded:
		return "rate_limit_error"
	case CodeTimeout:
		return "timeout_error"
	}
	return "api_error"
}
