package gemkit

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorCategory(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorCategory
	}{
		{400, ErrorUserInput},
		{401, ErrorPermanent},
		{403, ErrorPermanent},
		{404, ErrorPermanent},
		{422, ErrorUserInput},
		{429, ErrorTransient},
		{500, ErrorTransient},
		{503, ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			err := &APIError{Code: tt.code}
			assert.Equal(t, tt.expected, err.Category())
			assert.Equal(t, tt.expected == ErrorTransient, err.Retryable())
			assert.Equal(t, tt.code, err.StatusCode())
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	t.Run("uses payload status", func(t *testing.T) {
		err := &APIError{Code: 404, Status: "NOT_FOUND", Message: "model not found"}
		assert.Equal(t, "api error 404 NOT_FOUND: model not found", err.Error())
	})

	t.Run("falls back to http status text", func(t *testing.T) {
		err := &APIError{Code: 502, Message: "upstream"}
		assert.Equal(t, "api error 502 Bad Gateway: upstream", err.Error())
	})
}

func TestCategoryHelpersSeeThroughWrapping(t *testing.T) {
	inner := &APIError{Code: 429, RetryDelay: 3 * time.Second}
	wrapped := fmt.Errorf("generate: %w", inner)

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))
	assert.False(t, IsUserInput(wrapped))
	assert.Equal(t, 429, StatusCodeOf(wrapped))
	assert.Equal(t, 3*time.Second, RetryAfterOf(wrapped))

	plain := errors.New("boom")
	assert.False(t, IsTransient(plain))
	assert.Equal(t, 0, StatusCodeOf(plain))
	assert.Equal(t, time.Duration(0), RetryAfterOf(plain))
}

func TestWrappingErrorsUnwrap(t *testing.T) {
	cause := errors.New("token endpoint unreachable")

	authErr := &AuthError{Msg: "refresh credentials", Cause: cause}
	assert.ErrorIs(t, authErr, cause)
	assert.Equal(t, "refresh credentials: token endpoint unreachable", authErr.Error())

	liveErr := &LiveError{Msg: "send", Cause: ErrConnectionClosed}
	assert.ErrorIs(t, liveErr, ErrConnectionClosed)
	assert.Equal(t, "live: send: live connection closed", liveErr.Error())
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t, "base_url: Base URL must be set.", (&ConfigError{Field: "base_url", Msg: "Base URL must be set."}).Error())
	assert.Equal(t, "no field", (&ConfigError{Msg: "no field"}).Error())
}

func TestValueErrorMessage(t *testing.T) {
	err := &ValueError{Field: "model", Value: "", Msg: "model is required"}
	assert.Equal(t, "invalid model : model is required", err.Error())

	err = &ValueError{Field: "file name", Value: "x/y", Msg: "could not extract file id"}
	assert.Equal(t, "invalid file name x/y: could not extract file id", err.Error())
}

func TestUploadAndOperationErrorMessages(t *testing.T) {
	up := &UploadError{Status: "active", Offset: 10, Size: 10, Msg: "data exhausted before finalization"}
	assert.Equal(t, `upload data exhausted before finalization (status "active", offset 10 of 10)`, up.Error())

	timeout := &OperationTimeoutError{Name: "operations/1", Elapsed: 901 * time.Second}
	assert.Equal(t, "operation operations/1 did not complete within 15m1s", timeout.Error())

	failed := &OperationFailedError{Name: "operations/1", Code: 3, Message: "bad prompt"}
	assert.Equal(t, "operation operations/1 failed with code 3: bad prompt", failed.Error())
}
