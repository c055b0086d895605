package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces"
	"chatrelay/backend/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// RequireAuth parses the Bearer token on every request and resolves it to a
// user, which handlers fetch back with userFrom. Requests without a valid
// credential are rejected before reaching any handler.
func RequireAuth(authService interfaces.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondWithError(w, fmt.Errorf("%w: missing bearer token", app_errors.ErrAuth))
				return
			}
			user, err := authService.VerifyToken(r.Context(), token)
			if err != nil {
				respondWithError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the authenticated user stored by RequireAuth.
func userFrom(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey).(*model.User)
	return user
}
