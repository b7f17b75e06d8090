package response

import (
	"errors"
	"net/http"

	"justEatMore/domain"
)

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func Error(code, message string, details interface{}) ErrorEnvelope {
	return ErrorEnvelope{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrInfeasible), errors.Is(err, domain.ErrSolverTimeout):
		return http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrBundleTypeNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "TOO_MANY_REQUESTS"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidWebhookToken):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}
