package database

// Channel queries
const (
	insertChannelIgnoreQuery = `
		INSERT OR IGNORE INTO channels (name, type, is_active, config)
		VALUES (?, ?, TRUE, ?)
	`

	selectChannelByNameQuery = `
		SELECT id, name, type, is_active, config, created_at, updated_at
		FROM channels
		WHERE name = ?
	`
)

// Session queries
const (
	insertSessionQuery = `
		INSERT INTO conversation_sessions (
			session_id, user_id, channel_id, channel_user_id, channel_user_id_hash,
			status, context, created_at, updated_at, last_activity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	closePriorActiveSessionsQuery = `
		UPDATE conversation_sessions
		SET status = 'closed', updated_at = ?
		WHERE channel_id = ? AND channel_user_id_hash = ? AND status = 'active'
	`

	selectSessionColumns = `
		SELECT s.id, s.session_id, s.user_id, s.channel_id, c.name,
		       s.channel_user_id, s.status, s.context,
		       s.created_at, s.updated_at, s.last_activity
		FROM conversation_sessions s
		JOIN channels c ON c.id = s.channel_id
	`

	selectSessionBySessionIDQuery = selectSessionColumns + `
		WHERE s.session_id = ?
	`

	selectActiveSessionByIdentityQuery = selectSessionColumns + `
		WHERE s.channel_id = ? AND s.channel_user_id_hash = ? AND s.status = 'active'
		ORDER BY s.last_activity DESC
		LIMIT 1
	`

	updateSessionContextQuery = `
		UPDATE conversation_sessions
		SET context = ?, updated_at = ?, last_activity = ?
		WHERE id = ?
	`

	updateSessionStatusQuery = `
		UPDATE conversation_sessions
		SET status = ?, updated_at = ?
		WHERE id = ?
	`

	touchSessionActivityQuery = `
		UPDATE conversation_sessions
		SET last_activity = ?, updated_at = ?
		WHERE id = ?
	`

	deleteOldClosedSessionsQuery = `
		DELETE FROM conversation_sessions
		WHERE status = 'closed' AND updated_at < ?
	`
)

// Message queries
const (
	insertMessageQuery = `
		INSERT INTO conversation_messages (
			session_id, message_type, direction, content, content_url,
			channel_message_id, metadata, processed, intent, entities, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRecentMessagesQuery = `
		SELECT id, session_id, message_type, direction, content, content_url,
		       channel_message_id, metadata, processed, intent, entities, created_at
		FROM conversation_messages
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
)

// Token queries
const (
	insertTokenQuery = `
		INSERT INTO auth_tokens (
			token, user_id, channel_id, name, expires_at, is_active, permissions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectTokenQuery = `
		SELECT id, token, user_id, channel_id, name, expires_at, is_active,
		       last_used, permissions, created_at
		FROM auth_tokens
		WHERE token = ? AND is_active = TRUE
	`

	updateTokenLastUsedQuery = `
		UPDATE auth_tokens
		SET last_used = ?
		WHERE id = ?
	`

	revokeTokenQuery = `
		UPDATE auth_tokens
		SET is_active = FALSE
		WHERE token = ?
	`
)

// Booking queries
const (
	selectSlotOccupancyQuery = `
		SELECT COALESCE(SUM(visitors), 0)
		FROM bookings
		WHERE date = ? AND time_slot = ?
	`

	insertBookingQuery = `
		INSERT INTO bookings (
			user_id, date, time_slot, visitors, amount, currency,
			payment_status, payment_method, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
)
