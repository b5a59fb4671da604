// Package privacy masks end-user identifiers before they reach logs. Channel
// user IDs, phone numbers and tokens are PII; logs keep only enough of the
// tail to correlate.
package privacy

import "strings"

// MaskPhoneNumber keeps the last 4 digits.
// Example: "+14155550123" -> "+*******0123"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}
	return maskString(phone, 4)
}

// MaskChannelUserID masks a channel-scoped identity. Phone-shaped values get
// phone masking; prefixed identities ("user:42") keep their prefix.
func MaskChannelUserID(id string) string {
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "+") || (len(id) >= 10 && isNumeric(id)) {
		return MaskPhoneNumber(id)
	}
	if idx := strings.Index(id, ":"); idx > 0 {
		return id[:idx+1] + maskString(id[idx+1:], 3)
	}
	return maskString(id, 4)
}

// MaskToken hides everything but the last 4 characters of a bearer token.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	return maskString(token, 4)
}

// MaskSessionID keeps the tail of a session identifier for correlation.
// Example: "0f3c...-9a2b" -> "****9a2b"
func MaskSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	return maskString(sessionID, 8)
}

func maskString(s string, keepLast int) string {
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MaskSensitiveFields applies the appropriate masking to known log fields.
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			masked[k] = v
			continue
		}
		switch k {
		case "phone", "phone_number", "phoneNumber", "caller":
			masked[k] = MaskPhoneNumber(s)
		case "channel_user_id", "channelUserId", "sender":
			masked[k] = MaskChannelUserID(s)
		case "token", "auth_token", "access_token":
			masked[k] = MaskToken(s)
		case "session_id", "sessionId":
			masked[k] = MaskSessionID(s)
		default:
			masked[k] = v
		}
	}
	return masked
}
