package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/roster/internal/handlers"
	"github.com/stretchr/testify/assert"
)

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"up", nil, 200, "healthy"},
		{"down", assert.AnError, 503, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.Health(stubChecker{err: tt.err})(w, httptest.NewRequest("GET", "/health", nil))

			var resp map[string]string
			handlers.AssertJSONResponse(t, w, tt.status, &resp)
			assert.Equal(t, tt.want, resp["status"])
		})
	}
}
