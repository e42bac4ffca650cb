package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireSecret(t *testing.T) {
	var got string
	h := RequireSecret(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSecret(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SecretHeader, "hunter2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "hunter2", got)
}

func TestRequestLogger_OmitsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/e1/claims", nil)
	req.Header.Set(SecretHeader, "hunter2")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "has_secret=true")
	assert.Contains(t, out, "path=/api/v1/expenses/e1/claims")
	assert.NotContains(t, out, "hunter2")
}
