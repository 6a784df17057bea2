package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError(cause)

	assert.Equal(t, "Internal server error: db down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Post not found", NewNotFoundError("Post").Error())
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewForbiddenError("nope"))
	assert.Equal(t, CodeForbidden, ErrorCode(wrapped))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
}

func respond(t *testing.T, status int, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, status, err)
	})
	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestRespondWithError(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		status, body := respond(t, 403, NewForbiddenError("Only the creator can update this post"))
		assert.Equal(t, 403, status)
		assert.Equal(t, "Only the creator can update this post", body.Message)
		assert.Equal(t, CodeForbidden, body.Code)
	})

	t.Run("server errors hide details", func(t *testing.T) {
		status, body := respond(t, 500, NewInternalError(errors.New("pq: relation missing")))
		assert.Equal(t, 500, status)
		assert.Equal(t, InternalErrorMessage, body.Message)
	})

	t.Run("plain error", func(t *testing.T) {
		_, body := respond(t, 400, errors.New("bad input"))
		assert.Equal(t, "bad input", body.Message)
		assert.Empty(t, body.Code)
	})
}
