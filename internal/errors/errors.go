// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package errors provides the domain error taxonomy shared by the services
// and the HTTP layer.
//
// Services return typed errors:
//
//	return errors.Validation("name required", "bad slug format")
//
// Handlers map them to a status with errors.As:
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status = domainErr.HTTPStatus()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeValidation   Code = "VALIDATION"
	CodeNotFound     Code = "NOT_FOUND"
	CodeStorage      Code = "STORAGE"
	CodeUnauthorized Code = "UNAUTHORIZED"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error. Validation errors carry every accumulated
// message; storage errors carry the failed operation and target id.
type Error struct {
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Messages []string `json:"messages,omitempty"`
	Op       string   `json:"-"`
	ID       int64    `json:"-"`
	cause    error
}

// Error implements the error interface. Validation messages are joined
// with "; " so a client sees every problem at once.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Public returns the message safe to show a client. Storage details are
// never exposed.
func (e *Error) Public() string {
	switch {
	case e.Code == CodeStorage:
		return "storage failure"
	case len(e.Messages) > 0:
		return strings.Join(e.Messages, "; ")
	default:
		return e.Message
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrStorage      = &Error{Code: CodeStorage, Message: "storage failure"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
)

// Validation creates a validation error holding one or more messages.
func Validation(messages ...string) *Error {
	return &Error{Code: CodeValidation, Message: "validation error", Messages: messages}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

// Storage wraps a connectivity or query failure of the named operation.
func Storage(op string, id int64, cause error) *Error {
	return &Error{Code: CodeStorage, Message: op, Op: op, ID: id, cause: cause}
}

// Unauthorized creates an authentication failure.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeStorage for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// Problems accumulates validation messages so that every independent
// failure is reported together.
type Problems []string

// Add records a message.
func (p *Problems) Add(msg string) {
	*p = append(*p, msg)
}

// Addf records a formatted message.
func (p *Problems) Addf(format string, args ...any) {
	p.Add(fmt.Sprintf(format, args...))
}

// Err returns a validation error, or nil when nothing was recorded.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	return Validation(p...)
}
