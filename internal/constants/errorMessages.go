package constants

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTicketClosed        = errors.New("ticket is closed")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenUsed           = errors.New("token already used")
)

const (
	MsgUnauthorized      = "Unauthorized"
	MsgInvalidBody       = "Invalid request body"
	MsgInternal          = "Internal server error"
	MsgNotFound          = "Resource not found"
	MsgPermissionDenied  = "Permission denied"
	MsgInsufficientFunds = "Insufficient balance"
	MsgTooManyRequests   = "Too many requests"
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
