package askbob

import (
	"errors"
	"fmt"
)

// Code classifies a dispatcher failure. The set is closed; callers map
// codes to user-visible behavior and decide whether to retry.
type Code string

const (
	// CodeForbidden means the task context or a loaded entity does not
	// belong to the caller's workspace. Never silently rescoped.
	CodeForbidden Code = "forbidden"
	// CodeUpstreamError means the completion service failed or timed
	// out. The dispatcher never retries internally.
	CodeUpstreamError Code = "upstream_error"
	// CodeInvalidModelOutput means the model response could not be
	// parsed into the variant's required shape. No partial results.
	CodeInvalidModelOutput Code = "invalid_model_output"
	// CodeInvalidTask means the task itself was malformed (unknown
	// variant, missing reference id).
	CodeInvalidTask Code = "invalid_task"
)

// Error is a typed dispatcher failure.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("askbob: %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("askbob: %s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func wrapError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// IsCode reports whether err is a dispatcher Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the code of a dispatcher error, or empty when err is
// not one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
