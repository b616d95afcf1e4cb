package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/types"
)

// =============================================================================
// 📦 Envelope helpers
// =============================================================================

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteResult writes an ActionResult envelope. The HTTP status mirrors
// the envelope's error code; the body is the envelope either way, so
// clients can parse every response the same way.
func WriteResult(w http.ResponseWriter, res *types.ActionResult) {
	status := http.StatusOK
	if !res.Success {
		status = statusForCode(types.ErrorCode(res.Code))
	}
	WriteJSON(w, status, res)
}

// WriteError converts a structured error into the envelope.
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	if logger != nil {
		logger.Warn("request failed",
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Error(err.Cause))
	}
	res := types.FailWith(err)
	status := err.HTTPStatus
	if status == 0 {
		status = statusForCode(err.Code)
	}
	WriteJSON(w, status, res)
}

// =============================================================================
// 🔄 Error code to HTTP status mapping
// =============================================================================

func statusForCode(code types.ErrorCode) int {
	switch code {
	// 4xx client errors
	case types.ErrInvalidRequest, types.ErrToolValidation:
		return http.StatusBadRequest
	case types.ErrAuthentication, types.ErrUnauthorized:
		return http.StatusUnauthorized
	case types.ErrForbidden:
		return http.StatusForbidden
	case types.ErrElementNotFound, types.ErrFrameNotFound,
		types.ErrTabNotFound, types.ErrInterventionNotFound:
		return http.StatusNotFound
	case types.ErrNoResolvableTarget, types.ErrInterventionTerminal:
		return http.StatusConflict
	case types.ErrRateLimited:
		return http.StatusTooManyRequests

	// 5xx server errors
	case types.ErrTimeout:
		return http.StatusGatewayTimeout
	case types.ErrSessionUnavailable, types.ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	case types.ErrStaleContext, types.ErrActionFailed,
		types.ErrNavigationFailed, types.ErrExtractionFailed,
		types.ErrInternalError:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 🛡️ Request decoding
// =============================================================================

// DecodeJSONBody decodes the request body into dst. An empty body is
// accepted as an empty object so parameterless operations can POST
// without one. On failure the error response is already written.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		apiErr := types.NewError(types.ErrInvalidRequest, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, logger)
		return apiErr
	}
	return nil
}

// =============================================================================
// 📊 Response wrapper (captures the status code for middleware)
// =============================================================================

// ResponseWriter wraps http.ResponseWriter to capture the status code.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter creates a wrapped writer.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
