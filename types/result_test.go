package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChaining(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrSessionUnavailable, "no active page").
		WithCause(cause).
		WithHTTPStatus(503).
		WithRetryable(true)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrSessionUnavailable, GetErrorCode(err))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "SESSION_UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFailWith(t *testing.T) {
	t.Run("structured error keeps code", func(t *testing.T) {
		err := NewError(ErrElementNotFound, "element index 7 not found in current state")
		res := FailWith(err)
		require.NotNil(t, res)
		assert.False(t, res.Success)
		assert.Equal(t, string(ErrElementNotFound), res.Code)
		assert.Equal(t, "element index 7 not found in current state", res.Error)
	})

	t.Run("cause is appended", func(t *testing.T) {
		err := NewError(ErrActionFailed, "click failed").WithCause(errors.New("node detached"))
		res := FailWith(err)
		assert.Equal(t, "click failed: node detached", res.Error)
	})

	t.Run("plain error", func(t *testing.T) {
		res := FailWith(errors.New("boom"))
		assert.False(t, res.Success)
		assert.Equal(t, "boom", res.Error)
		assert.Empty(t, res.Code)
	})

	t.Run("nil error", func(t *testing.T) {
		res := FailWith(nil)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	})
}
