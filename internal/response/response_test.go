package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metapress/internal/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]int{"mid": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"mid": float64(3)}, env.Data)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusTooManyRequests, "rate limit exceeded")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "rate limit exceeded", env.Error)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantList   []string
	}{
		{"validation", errors.Validation("name required", "bad slug format"), http.StatusBadRequest, "name required; bad slug format", []string{"name required", "bad slug format"}},
		{"not found", errors.NotFound("category 9 not found"), http.StatusNotFound, "category 9 not found", nil},
		{"unauthorized", errors.Unauthorized("invalid credentials"), http.StatusUnauthorized, "invalid credentials", nil},
		{"storage hides cause", errors.Storage("insert node", 4, fmt.Errorf("pq: connection reset")), http.StatusInternalServerError, "storage failure", nil},
		{"wrapped domain error", fmt.Errorf("outer: %w", errors.NotFound("tag 1 not found")), http.StatusNotFound, "tag 1 not found", nil},
		{"foreign error", fmt.Errorf("boom"), http.StatusInternalServerError, "storage failure", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(context.Background(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
			assert.Equal(t, tt.wantList, env.Errors)
		})
	}
}
