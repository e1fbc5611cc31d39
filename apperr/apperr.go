package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to translate it into a
// transport-level response.
type Code int

const (
	CodeBadRequest Code = iota + 1
	CodeNotFound
	CodeConflict
	CodeInternal
)

// Error is a typed application error with a human-readable reason.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest reports invalid caller input or an operation forbidden by the
// current workflow state.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent release or track.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation (catalog code, ISRC).
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or transaction failure unrelated to caller input.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// CodeOf extracts the application error code, defaulting to CodeInternal for
// untyped errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

func IsBadRequest(err error) bool { return CodeOf(err) == CodeBadRequest }
func IsNotFound(err error) bool   { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool   { return CodeOf(err) == CodeConflict }
