// Package apperr holds the error kinds surfaced by the scheduling core.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for the transport layer.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeConflict          Code = "conflict"
	CodeInvalidTransition Code = "invalid_transition"
	CodeNotFound          Code = "not_found"
	CodeUpstream          Code = "upstream"
	CodeAuth              Code = "auth"
)

// Coded is implemented by every error that knows its own kind.
type Coded interface {
	error
	ErrorCode() Code
}

// Error is the generic coded error. Message is safe to show to callers,
// Err carries the internal cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) ErrorCode() Code {
	return e.Code
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func Upstream(message string, err error) *Error {
	return &Error{Code: CodeUpstream, Message: message, Err: err}
}

func Auth(message string, err error) *Error {
	return &Error{Code: CodeAuth, Message: message, Err: err}
}

// CodeOf resolves the kind of err. Anything uncoded is an upstream failure.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeUpstream
}

// Is reports whether err resolves to code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
