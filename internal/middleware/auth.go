// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"metapress/internal/auth"
	"metapress/internal/errors"
	"metapress/internal/response"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated API user.
	PrincipalKey contextKey = "principal"
)

// Authenticator verifies API credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, c auth.Credentials) (*auth.Principal, error)
}

// RequireAPIAuth rejects requests without valid API credentials with a
// JSON 401. On success the principal is stored in the request context and
// can be read with PrincipalFromCtx.
func RequireAPIAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := auth.FromRequest(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="metapress"`)
				response.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			p, err := a.Authenticate(r.Context(), creds)
			if err != nil {
				if errors.CodeOf(err) == errors.CodeUnauthorized {
					w.Header().Set("WWW-Authenticate", `Basic realm="metapress"`)
				}
				response.HandleError(r.Context(), w, err)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromCtx extracts the authenticated principal from the context.
// Returns nil if the request was not authenticated.
func PrincipalFromCtx(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return p
}
