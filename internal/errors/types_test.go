package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := New(ErrCodeValidationFailed, "bad input")
	assert.Equal(t, "VALIDATION_FAILED: bad input", err.Error())

	wrapped := Wrap(fmt.Errorf("row missing"), ErrCodeDatabaseQuery, "lookup failed")
	assert.Equal(t, "DATABASE_QUERY: lookup failed: row missing", wrapped.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, ErrCodeChannelTransport, "delivery failed")

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "gone")))
	assert.Equal(t, ErrCodeInternalError, GetCode(fmt.Errorf("plain error")))
}

func TestGetUserMessage(t *testing.T) {
	err := New(ErrCodeAuthentication, "token mismatch").WithUserMessage("Authentication failed")
	assert.Equal(t, "Authentication failed", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(fmt.Errorf("plain")))
	assert.Equal(t, "An internal error occurred", GetUserMessage(New(ErrCodeInternalError, "no user message")))
}

func TestInspectorsSeeThroughWrapping(t *testing.T) {
	inner := NewCapacityError("9AM–10AM", 5)
	inner.Retryable = true
	wrapped := fmt.Errorf("confirm step failed: %w", inner)
	double := fmt.Errorf("turn aborted: %w", wrapped)

	assert.Equal(t, ErrCodeCapacityConflict, GetCode(wrapped))
	assert.Equal(t, ErrCodeCapacityConflict, GetCode(double))
	assert.True(t, IsCapacityConflict(wrapped))
	assert.Equal(t, 5, CapacityRemaining(wrapped))
	assert.Equal(t, "Only 5 spot(s) available for 9AM–10AM", GetUserMessage(wrapped))
	assert.True(t, IsRetryable(wrapped))
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeValidationFailed, "bad").
		WithContext("field", "date").
		WithContext("value", "yesterday")

	assert.Equal(t, "date", err.Context["field"])
	assert.Equal(t, "yesterday", err.Context["value"])
}

func TestNewCapacityError(t *testing.T) {
	err := NewCapacityError("9AM–10AM", 5)

	assert.True(t, IsCapacityConflict(err))
	assert.Equal(t, 5, CapacityRemaining(err))
	assert.Equal(t, "Only 5 spot(s) available for 9AM–10AM", GetUserMessage(err))
}

func TestCapacityRemainingNonConflict(t *testing.T) {
	assert.Equal(t, -1, CapacityRemaining(fmt.Errorf("plain")))
	assert.Equal(t, -1, CapacityRemaining(New(ErrCodeNotFound, "gone")))
	assert.False(t, IsCapacityConflict(fmt.Errorf("plain")))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("visitors", "15", "must be between 1 and 10")
	require.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.Equal(t, "visitors", err.Context["field"])
	assert.Contains(t, err.UserMessage, "Invalid visitors")
}

func TestNewTransportError(t *testing.T) {
	cause := fmt.Errorf("graph api 500")
	err := NewTransportError("instagram", cause)
	assert.Equal(t, ErrCodeChannelTransport, err.Code)
	assert.Equal(t, "instagram", err.Context["channel"])
	assert.True(t, stderrors.Is(err, cause))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("session", "abc-123")
	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, "session", err.Context["entity"])
	assert.Equal(t, "abc-123", err.Context["id"])
}
