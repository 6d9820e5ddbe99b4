package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cipher-canvas/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveFail(err error, fallback string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(c, err, fallback)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest, "bad input"},
		{"conflict", apperror.Conflict("User already exists", apperror.ErrDuplicate), http.StatusBadRequest, "User already exists"},
		{"authentication", apperror.Authentication("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"not found", apperror.NotFound(MessageNotFound, apperror.ErrInvalidID), http.StatusNotFound, MessageNotFound},
		{"store", apperror.Store("Failed to fetch messages", errors.New("boom")), http.StatusInternalServerError, "Failed to fetch messages"},
		{"plain error", errors.New("x"), http.StatusInternalServerError, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveFail(tt.err, "fallback")
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestFail_SanitizesStoreDetail(t *testing.T) {
	w := serveFail(apperror.Store("Failed to create message", errors.New("mongo: server selection timeout")), "")
	env := decode(t, w)
	assert.Equal(t, InternalServerError, env.Error)

	w = serveFail(apperror.Store("Failed to create message", errors.New("boom")), "")
	env = decode(t, w)
	assert.Equal(t, "boom", env.Error)
}

func TestRespondWithCount_ZeroCountIsPresent(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithCount(c, http.StatusOK, gin.H{"messages": []int{}}, 0)

	assert.JSONEq(t, `{"success":true,"count":0,"data":{"messages":[]}}`, w.Body.String())
}
