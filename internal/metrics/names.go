package metrics

// Conversation-flow metric names, shared between handlers and services so
// dashboards see one consistent set.
const (
	MetricMessagesReceived    = "conversation_messages_received_total"
	MetricMessagesSent        = "conversation_messages_sent_total"
	MetricSessionsCreated     = "conversation_sessions_created_total"
	MetricSessionsTransferred = "conversation_sessions_transferred_total"
	MetricDialogueSteps       = "dialogue_step_transitions_total"
	MetricBookingsCreated     = "bookings_created_total"
	MetricBookingsRejected    = "bookings_capacity_rejected_total"
	MetricSessionsCleaned     = "sessions_cleaned_total"
)
