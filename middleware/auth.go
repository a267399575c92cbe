package middleware

import (
	"context"
	"net/http"
	"strings"

	"mininotion/internal/auth"
	"mininotion/pkg/logger"
	"mininotion/pkg/response"
)

type contextKey string

const EmailKey contextKey = "email"

// AuthMiddleware verifies the bearer token and stores the caller's verified
// email in the request context.
func AuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Browsers cannot set headers on WebSocket requests, so the token
			// may also arrive in the query string.
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}

			if tokenString == "" {
				response.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Sugar.Debugf("Invalid token: %v", err)
				response.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext returns the verified email, or "" when the request was not
// authenticated.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}
