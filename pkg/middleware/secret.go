package middleware

import (
	"context"
	"net/http"

	"github.com/fkhayef/splitclaim/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// SecretKey is the context key for the expense secret
	SecretKey ContextKey = "expense_secret"

	// SecretHeader carries the expense password
	SecretHeader = "X-Expense-Secret"
)

// RequireSecret rejects requests without an expense secret and stores it in
// the request context. The secret is never logged.
func RequireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get(SecretHeader)
		if secret == "" {
			response.Unauthorized(w, SecretHeader+" header required")
			return
		}

		ctx := context.WithValue(r.Context(), SecretKey, secret)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSecret extracts the expense secret from the request context
func GetSecret(ctx context.Context) (string, bool) {
	secret, ok := ctx.Value(SecretKey).(string)
	return secret, ok && secret != ""
}
