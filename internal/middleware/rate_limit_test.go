package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func ownerRequest(ownerID, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", nil)
	ctx := pkghttp.WithClientIP(req.Context(), ip)
	if ownerID != "" {
		ctx = auth.WithClaims(ctx, &models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: ownerID}})
	}
	return req.WithContext(ctx)
}

func TestRateLimitByOwner_LimitsEachOwnerSeparately(t *testing.T) {
	var logs bytes.Buffer
	audit := pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	handler := RateLimitByOwner(RateLimitConfig{RequestsPerMinute: 2}, audit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := func(ownerID string, n int) []int {
		var out []int
		for i := 0; i < n; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, ownerRequest(ownerID, "192.168.1.1"))
			out = append(out, w.Code)
		}
		return out
	}

	assert.Equal(t, []int{200, 200, 429}, codes("owner-a", 3))
	// Same address, different account
	assert.Equal(t, []int{200}, codes("owner-b", 1))

	assert.Contains(t, logs.String(), pkglogger.EventRateLimited)
	assert.Contains(t, logs.String(), "owner-a")
}

func TestRateLimitByOwner_FallsBackToClientIP(t *testing.T) {
	handler := RateLimitByOwner(RateLimitConfig{RequestsPerMinute: 1}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, ownerRequest("", "192.168.1.1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, ownerRequest("", "192.168.1.1"))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, ownerRequest("", "192.168.1.2"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestDefaultImportRateLimit(t *testing.T) {
	assert.Equal(t, 10, DefaultImportRateLimit().RequestsPerMinute)
}
