package config

import (
	"os"
	"path/filepath"
	"testing"

	"museumhub/internal/constants"
	"museumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `{"database":{"path":"/tmp/museumhub.db"}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultServerReadTimeoutSec, cfg.Server.ReadTimeoutSec)
	assert.Equal(t, constants.DefaultInstagramBaseURL, cfg.Instagram.APIBaseURL)
	assert.Equal(t, constants.DefaultInstagramAPIVersion, cfg.Instagram.APIVersion)
	assert.Equal(t, constants.DefaultCleanupSchedule, cfg.Cleanup.Schedule)
	assert.Equal(t, constants.DefaultSessionCleanupDays, cfg.Cleanup.DaysInactive)
	assert.Equal(t, constants.DefaultTicketPrice, cfg.Booking.TicketPrice)
	assert.Equal(t, constants.DefaultCurrency, cfg.Booking.Currency)
	assert.Equal(t, "en", cfg.Speech.DefaultLanguage)
	assert.Equal(t, "museumhub", cfg.Tracing.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"server": {"port": 9000},
		"database": {"path": "/tmp/museumhub.db"},
		"booking": {"ticketPrice": 250, "currency": "EUR"},
		"cleanup": {"daysInactive": 7, "schedule": "0 4 * * *"},
		"log_level": "debug"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 250.0, cfg.Booking.TicketPrice)
	assert.Equal(t, "EUR", cfg.Booking.Currency)
	assert.Equal(t, 7, cfg.Cleanup.DaysInactive)
	assert.Equal(t, "0 4 * * *", cfg.Cleanup.Schedule)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigSecretsFromEnvironment(t *testing.T) {
	t.Setenv("INSTAGRAM_PAGE_ACCESS_TOKEN", "page-token")
	t.Setenv("INSTAGRAM_VERIFY_TOKEN", "verify-token")
	t.Setenv("INSTAGRAM_APP_SECRET", "app-secret")
	t.Setenv("SPEECH_ASR_API_KEY", "asr-key")
	t.Setenv("SPEECH_TTS_API_KEY", "tts-key")

	path := writeConfigFile(t, `{"database":{"path":"/tmp/museumhub.db"}}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "page-token", cfg.Instagram.PageAccessToken)
	assert.Equal(t, "verify-token", cfg.Instagram.VerifyToken)
	assert.Equal(t, "app-secret", cfg.Instagram.AppSecret)
	assert.Equal(t, "asr-key", cfg.Speech.ASRAPIKey)
	assert.Equal(t, "tts-key", cfg.Speech.TTSAPIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.IsType(t, models.ConfigError{}, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *models.Config {
		return &models.Config{
			Server:   models.ServerConfig{Port: 8082},
			Database: models.DatabaseConfig{Path: "/tmp/db.sqlite"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.Config)
	}{
		{"missing database path", func(c *models.Config) { c.Database.Path = "" }},
		{"port zero", func(c *models.Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *models.Config) { c.Server.Port = 70000 }},
		{"analytics without url", func(c *models.Config) { c.Analytics.Enabled = true; c.Analytics.Exchange = "events" }},
		{"analytics without exchange", func(c *models.Config) { c.Analytics.Enabled = true; c.Analytics.AMQPURL = "amqp://localhost" }},
		{"negative retention", func(c *models.Config) { c.Cleanup.DaysInactive = -1 }},
		{"negative ticket price", func(c *models.Config) { c.Booking.TicketPrice = -5 }},
		{"unknown asr provider", func(c *models.Config) { c.Speech.ASRProvider = "telepathy" }},
		{"unknown tts provider", func(c *models.Config) { c.Speech.TTSProvider = "telepathy" }},
	}

	require.NoError(t, Validate(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
