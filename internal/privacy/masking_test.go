package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"international", "+14155550123", "+*******0123"},
		{"short with plus", "+123", "+***"},
		{"no plus", "4155550123", "******0123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPhoneNumber(tt.phone))
		})
	}
}

func TestMaskChannelUserID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"phone shaped", "+14155550123", "+*******0123"},
		{"long numeric", "17841400000001234", "*************1234"},
		{"prefixed identity", "user:42", "user:**"},
		{"anon identity keeps prefix", "anon:abcd1234", "anon:*****234"},
		{"opaque id", "somebody", "****body"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskChannelUserID(tt.id))
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "************wxyz", MaskToken("abcdefghijklwxyz"))
	assert.Equal(t, "***", MaskToken("abc"))
	assert.Equal(t, "", MaskToken(""))
}

func TestMaskSessionID(t *testing.T) {
	masked := MaskSessionID("3f2b8c1d-aaaa-bbbb-cccc-123456789abc")
	assert.Equal(t, "****************************56789abc", masked)
	assert.Equal(t, "", MaskSessionID(""))
}

func TestMaskSensitiveFields(t *testing.T) {
	fields := map[string]interface{}{
		"phoneNumber":     "+14155550123",
		"channel_user_id": "user:42",
		"token":           "secret-token-value",
		"session_id":      "3f2b8c1d-aaaa-bbbb-cccc-123456789abc",
		"message":         "hello",
		"count":           5,
	}

	masked := MaskSensitiveFields(fields)

	assert.Equal(t, "+*******0123", masked["phoneNumber"])
	assert.Equal(t, "user:**", masked["channel_user_id"])
	assert.NotEqual(t, "secret-token-value", masked["token"])
	assert.NotEqual(t, fields["session_id"], masked["session_id"])
	// Non-sensitive and non-string fields pass through untouched.
	assert.Equal(t, "hello", masked["message"])
	assert.Equal(t, 5, masked["count"])

	assert.Nil(t, MaskSensitiveFields(nil))
}
