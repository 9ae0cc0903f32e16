package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type AppError struct {
	Code     string   `json:"code"`
	Messages []string `json:"messages"`
	HTTPCode int      `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Messages, "; "))
}

// IsTransient reports whether err is a temporary gateway failure worth
// retrying.
func IsTransient(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "TRANSIENT_GATEWAY_ERROR"
}

func ErrValidation(reasons ...string) *AppError {
	return &AppError{
		Code:     "VALIDATION_ERROR",
		Messages: reasons,
		HTTPCode: http.StatusBadRequest,
	}
}

func ErrNotFound(kind, id string) *AppError {
	return &AppError{
		Code:     "NOT_FOUND",
		Messages: []string{fmt.Sprintf("%s '%s' not found", kind, id)},
		HTTPCode: http.StatusNotFound,
	}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{
		Code:     "UNAUTHORIZED",
		Messages: []string{msg},
		HTTPCode: http.StatusUnauthorized,
	}
}

func ErrIllegalPaymentTransition(from, to PaymentStatus) *AppError {
	return &AppError{
		Code:     "ILLEGAL_PAYMENT_TRANSITION",
		Messages: []string{fmt.Sprintf("payment cannot move from %s to %s", from, to)},
		HTTPCode: http.StatusConflict,
	}
}

func ErrIllegalBookingTransition(from, to BookingStatus) *AppError {
	return &AppError{
		Code:     "ILLEGAL_BOOKING_TRANSITION",
		Messages: []string{fmt.Sprintf("booking cannot move from %s to %s", from, to)},
		HTTPCode: http.StatusConflict,
	}
}

func ErrGatewayMismatch(detail string) *AppError {
	return &AppError{
		Code:     "GATEWAY_MISMATCH",
		Messages: []string{detail},
		HTTPCode: http.StatusConflict,
	}
}

func ErrTransientGateway(gateway string, cause error) *AppError {
	return &AppError{
		Code:     "TRANSIENT_GATEWAY_ERROR",
		Messages: []string{fmt.Sprintf("%s gateway temporarily unavailable: %v", gateway, cause)},
		HTTPCode: http.StatusServiceUnavailable,
	}
}

func ErrGatewayProtocol(gateway, detail string) *AppError {
	return &AppError{
		Code:     "GATEWAY_PROTOCOL_ERROR",
		Messages: []string{fmt.Sprintf("%s returned an unusable response: %s", gateway, detail)},
		HTTPCode: http.StatusBadGateway,
	}
}

func ErrInvalidSignature(gateway string) *AppError {
	return &AppError{
		Code:     "INVALID_SIGNATURE",
		Messages: []string{fmt.Sprintf("webhook signature for %s failed validation", gateway)},
		HTTPCode: http.StatusBadRequest,
	}
}

func ErrProofRejected(reason string) *AppError {
	return &AppError{
		Code:     "PROOF_REJECTED",
		Messages: []string{reason},
		HTTPCode: http.StatusUnprocessableEntity,
	}
}

func ErrUnknownCurrency(code string) *AppError {
	return &AppError{
		Code:     "UNKNOWN_CURRENCY",
		Messages: []string{fmt.Sprintf("currency '%s' is unknown or inactive", code)},
		HTTPCode: http.StatusBadRequest,
	}
}

func ErrRateRefreshFailed(cause error) *AppError {
	return &AppError{
		Code:     "RATE_REFRESH_FAILED",
		Messages: []string{fmt.Sprintf("exchange rate refresh failed: %v", cause)},
		HTTPCode: http.StatusServiceUnavailable,
	}
}

func ErrReferenceExhaustion(prefix string) *AppError {
	return &AppError{
		Code:     "REFERENCE_EXHAUSTION",
		Messages: []string{fmt.Sprintf("could not mint a unique %s reference", prefix)},
		HTTPCode: http.StatusInternalServerError,
	}
}

func ErrIdempotencyKeyMissing() *AppError {
	return &AppError{
		Code:     "IDEMPOTENCY_KEY_MISSING",
		Messages: []string{"X-Idempotency-Key header is required"},
		HTTPCode: http.StatusBadRequest,
	}
}

func ErrIdempotencyKeyTooLong() *AppError {
	return &AppError{
		Code:     "IDEMPOTENCY_KEY_TOO_LONG",
		Messages: []string{"X-Idempotency-Key must be at most 64 characters"},
		HTTPCode: http.StatusBadRequest,
	}
}

func ErrIdempotencyKeyConflict(key string) *AppError {
	return &AppError{
		Code:     "IDEMPOTENCY_KEY_CONFLICT",
		Messages: []string{fmt.Sprintf("idempotency key '%s' already used with different request payload", key)},
		HTTPCode: http.StatusConflict,
	}
}

func ErrPaymentProcessing() *AppError {
	return &AppError{
		Code:     "PAYMENT_PROCESSING",
		Messages: []string{"a payment with this idempotency key is currently being processed"},
		HTTPCode: http.StatusConflict,
	}
}

func ErrInternal(msg string) *AppError {
	return &AppError{
		Code:     "INTERNAL_ERROR",
		Messages: []string{msg},
		HTTPCode: http.StatusInternalServerError,
	}
}
