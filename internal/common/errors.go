package common

import (
	"errors"
	"fmt"
	"strings"
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

// Failure taxonomy. Transient failures (ErrRemoteUnavailable) are retried
// with backoff; everything else is permanent for the current call.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRemoteUnavailable = errors.New("remote source unavailable")
	ErrRemoteRejected    = errors.New("remote rejected request")
	ErrNotFound          = errors.New("resource not found")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrRenderFailure     = errors.New("render failure")
	ErrPrinterFailure    = errors.New("printer failure")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// UserError is a field/message pair returned by the remote mutation
// endpoint. User errors are permanent for the order they concern and are
// surfaced to the operator, never retried.
type UserError struct {
	Field   string
	Message string
}

func (e UserError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserErrors wraps a non-empty list of remote user errors. It matches
// ErrRemoteRejected under errors.Is.
type UserErrors struct {
	Errors []UserError
}

func (e *UserErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msgs = append(msgs, ue.Error())
	}
	return "user errors: " + strings.Join(msgs, "; ")
}

func (e *UserErrors) Unwrap() error {
	return ErrRemoteRejected
}
