package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesOrigin(t *testing.T) {
	err := New(Database, "Failed to save vote", errors.New("connection reset"))
	assert.Equal(t, "Failed to save vote: connection reset", err.Error())
	assert.Equal(t, "Post not found", NewNotFound("Post").Error())
}

func TestIsCodeFollowsWrapping(t *testing.T) {
	inner := NewInvalidInput("content is required")
	wrapped := fmt.Errorf("create comment: %w", inner)

	assert.True(t, IsCode(wrapped, InvalidInput))
	assert.False(t, IsCode(wrapped, NotFound))
	assert.False(t, IsCode(errors.New("plain"), InvalidInput))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]int{
		NotFound:             http.StatusNotFound,
		InvalidInput:         http.StatusBadRequest,
		InconsistentLocation: http.StatusBadRequest,
		Unauthorized:         http.StatusUnauthorized,
		Forbidden:            http.StatusForbidden,
		Duplicate:            http.StatusConflict,
		OTPExpired:           http.StatusGone,
		Upstream:             http.StatusBadGateway,
		Database:             http.StatusInternalServerError,
		"SOMETHING_ELSE":     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("app error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Respond(c, NewNotFound("Comment"))

		require.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Comment not found", body["error"])
		assert.Equal(t, NotFound, body["code"])
	})

	t.Run("plain error hides detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Respond(c, errors.New("pq: password authentication failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}
