// Package service holds cross-cutting service infrastructure: logging field
// conventions and the scheduled maintenance runner.
package service

// Standard log field names. Use these exact names so log lines stay
// queryable across the codebase.
const (
	// Core identifiers
	LogFieldSessionID = "session_id"
	LogFieldChannel   = "channel"
	LogFieldUserID    = "user_id"
	LogFieldMessageID = "message_id"
	LogFieldBookingID = "booking_id"

	// Service and operation fields
	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	// Message and dialogue fields
	LogFieldDirection = "direction"
	LogFieldStep      = "step"
	LogFieldAction    = "action"

	// Performance
	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
	LogFieldSize     = "size_bytes"

	// Network
	LogFieldURL        = "url"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"

	// Tracing correlation
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"
)
