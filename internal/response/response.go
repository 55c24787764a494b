// Package response provides the JSON envelope shared by API handlers and
// middleware, and maps domain errors to HTTP status codes.
package response

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"metapress/internal/errors"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// JSON writes data inside a success envelope when status < 400.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: status < 400, Data: data})
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Error: message})
}

// HandleError maps err to a status code. Domain errors keep their public
// message; anything else is logged and reported as a storage failure.
func HandleError(ctx context.Context, w http.ResponseWriter, err error) {
	var e *errors.Error
	if !errors.As(err, &e) {
		slog.ErrorContext(ctx, "unhandled error", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}
	write(w, e.HTTPStatus(), Envelope{Error: e.Public(), Errors: e.Messages})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
