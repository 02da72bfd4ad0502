package server

import (
	"errors"
	"net/http"

	"github.com/avro07/spay/internal/flow"
	"github.com/avro07/spay/internal/service"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string    `json:"error"`
	Kind  flow.Kind `json:"kind,omitempty"`
}

// statusFor maps a service or flow error to an HTTP status and a kind tag.
func statusFor(err error) (int, flow.Kind) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrFlowNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, flow.KindAuthentication
	case errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict, flow.KindBusinessRule
	case errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidPIN),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNegativeBalance):
		return http.StatusUnprocessableEntity, flow.KindValidation
	}

	switch kind := flow.KindOf(err); kind {
	case flow.KindValidation:
		return http.StatusUnprocessableEntity, kind
	case flow.KindBusinessRule, flow.KindState:
		return http.StatusConflict, kind
	case flow.KindInsufficientFunds:
		return http.StatusPaymentRequired, kind
	case flow.KindAuthentication:
		return http.StatusUnauthorized, kind
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError reports err with the status statusFor assigns it.
// Internal errors are logged by the caller and returned without detail.
func writeServiceError(w http.ResponseWriter, err error) int {
	status, kind := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondJSON(w, status, errorResponse{Error: msg, Kind: kind})
	return status
}
