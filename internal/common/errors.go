package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
	ErrStore               = errors.New("ledger store error")
	ErrValidation          = errors.New("validation failed")
	ErrMissingColumn       = errors.New("missing required column")
	ErrExtraction          = errors.New("document extraction failed")
	ErrUnsupportedDocument = errors.New("unsupported document")
	ErrSessionNotFound     = errors.New("session not found")
)

// Error codes carried by AppError.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeStore      = "STORE_ERROR"
	CodeExtraction = "EXTRACTION_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// MissingColumnError reports a ledger header that lacks a column an operation needs.
func MissingColumnError(columns ...string) *AppError {
	return NewAppError(CodeConfig, fmt.Sprintf("ledger header is missing column(s) %q", columns), ErrMissingColumn)
}

// NotFoundError reports a missing row or session. A nil cause means ErrNotFound.
func NotFoundError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrNotFound
	}
	return NewAppError(CodeNotFound, message, cause)
}

// UserMessage returns the human-readable part of err for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps application errors onto gRPC status errors.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := UserMessage(err)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedDocument):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, ErrMissingColumn):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, ErrExtraction):
		return status.Error(codes.Aborted, msg)
	case errors.Is(err, ErrStore):
		return status.Error(codes.Unavailable, msg)
	default:
		return InternalError(msg)
	}
}
