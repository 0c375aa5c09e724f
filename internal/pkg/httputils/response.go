package httputils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sendit/messenger/api/response"
	"sendit/messenger/internal/pkg/apperr"
)

const internalErrorMessage = "Something went wrong, please try again."

// ResponseAppError writes err with the status of its code. Internal failures
// are logged and answered with a generic message.
func ResponseAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(internalErrorMessage, err)
	}

	status := appErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", err)
	}

	body := response.ErrorResponse{
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Metadata,
	}
	if !appErr.Code.Public() {
		body.Message = internalErrorMessage
		body.Details = nil
	}

	ResponseJSON(w, status, body)
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// DecodeJSON reads a JSON request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "Invalid request format", err)
	}
	return nil
}
