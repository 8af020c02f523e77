package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondPermissionDenied sends a 403 with the given reason.
func RespondPermissionDenied(w http.ResponseWriter, initTime time.Time, reason string) {
	if reason == "" {
		reason = constants.MsgPermissionDenied
	}
	RespondError(w, initTime, nil, reason, http.StatusForbidden)
}

// RespondServiceError maps a domain error to its HTTP status. Unknown errors
// are logged and hidden behind a generic 500 message.
func RespondServiceError(w http.ResponseWriter, initTime time.Time, err error) {
	switch {
	case errors.Is(err, constants.ErrValidation):
		RespondError(w, initTime, err, "", http.StatusBadRequest)
	case errors.Is(err, constants.ErrNotFound):
		RespondError(w, initTime, nil, constants.MsgNotFound, http.StatusNotFound)
	case errors.Is(err, constants.ErrForbidden):
		RespondPermissionDenied(w, initTime, "")
	case errors.Is(err, constants.ErrInsufficientBalance):
		RespondError(w, initTime, nil, constants.MsgInsufficientFunds, http.StatusUnprocessableEntity)
	case errors.Is(err, constants.ErrInvalidTransition),
		errors.Is(err, constants.ErrConflict),
		errors.Is(err, constants.ErrTicketClosed):
		RespondError(w, initTime, err, "", http.StatusConflict)
	case errors.Is(err, constants.ErrTokenExpired), errors.Is(err, constants.ErrTokenUsed):
		RespondError(w, initTime, err, "", http.StatusGone)
	default:
		logging.Error("Request failed", "error", err)
		RespondError(w, initTime, nil, constants.MsgInternal, http.StatusInternalServerError)
	}
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
