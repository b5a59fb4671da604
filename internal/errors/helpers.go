package errors

import (
	"fmt"
)

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewCapacityError creates a capacity-conflict rejection carrying the
// remaining seat count for the slot.
func NewCapacityError(timeSlot string, remaining int) *AppError {
	return New(ErrCodeCapacityConflict, fmt.Sprintf("insufficient capacity for slot %s", timeSlot)).
		WithContext("time_slot", timeSlot).
		WithContext("remaining", remaining).
		WithUserMessage(fmt.Sprintf("Only %d spot(s) available for %s", remaining, timeSlot))
}

// NewTransportError creates an outbound delivery error for a channel
func NewTransportError(channel string, err error) *AppError {
	return Wrap(err, ErrCodeChannelTransport, fmt.Sprintf("%s delivery failed", channel)).
		WithContext("channel", channel).
		WithUserMessage("Message could not be delivered")
}

// NewAuthError creates an authentication/authorization error
func NewAuthError(reason string) *AppError {
	return New(ErrCodeAuthentication, "authentication failed").
		WithContext("reason", reason).
		WithUserMessage("Authentication failed")
}

// NewNotFoundError creates a not-found error for an entity
func NewNotFoundError(entity, id string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithContext("entity", entity).
		WithContext("id", id).
		WithUserMessage("Not found")
}

// CapacityRemaining extracts the remaining count from a capacity error,
// returning -1 when err is not a capacity conflict.
func CapacityRemaining(err error) int {
	appErr, ok := asAppError(err)
	if !ok || appErr.Code != ErrCodeCapacityConflict {
		return -1
	}
	if v, ok := appErr.Context["remaining"].(int); ok {
		return v
	}
	return -1
}

// IsCapacityConflict reports whether err is a capacity-conflict rejection.
func IsCapacityConflict(err error) bool {
	return GetCode(err) == ErrCodeCapacityConflict
}
