package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies catalog failures.
type Code string

const (
	CodeNetwork     Code = "network"
	CodeAuth        Code = "auth"
	CodeRateLimited Code = "rate_limited"
	CodeNotFound    Code = "not_found"
	CodeBadResponse Code = "bad_response"
	CodeTimeout     Code = "timeout"
)

// Error is returned by catalog implementations.
type Error struct {
	Source  string
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Source, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds an *Error. Deadline errors are reported as CodeTimeout
// regardless of the requested code.
func NewError(source string, code Code, message string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
	}
	return &Error{Source: source, Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or "" when err is not a catalog error.
func CodeOf(err error) Code {
	var catalogErr *Error
	if errors.As(err, &catalogErr) {
		return catalogErr.Code
	}
	return ""
}
