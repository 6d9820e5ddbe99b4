package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		store      Pinger
		cache      Pinger
		wantStatus string
		wantDB     string
		wantCache  string
	}{
		{"all healthy", up, up, statusHealthy, statusHealthy, statusHealthy},
		{"cache disabled", up, nil, statusHealthy, statusHealthy, statusDisabled},
		{"store down", down, up, statusDegraded, statusUnhealthy, statusHealthy},
		{"cache down", up, down, statusDegraded, statusHealthy, statusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.store, tt.cache).HealthCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Status   string          `json:"status"`
				Database ComponentStatus `json:"database"`
				Cache    ComponentStatus `json:"cache"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantDB, body.Database.Status)
			assert.Equal(t, tt.wantCache, body.Cache.Status)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
