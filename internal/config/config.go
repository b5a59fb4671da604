// Package config loads and validates the application configuration: a JSON
// file for structure, environment variables for secrets.
package config

import (
	"encoding/json"
	"os"

	"museumhub/internal/constants"
	"museumhub/internal/models"
	"museumhub/pkg/speech"
)

// LoadConfig reads the configuration file, applies defaults, injects secrets
// from the environment and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.ConfigError{Message: "failed to read config file: " + err.Error()}
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, models.ConfigError{Message: "failed to parse config file: " + err.Error()}
	}

	applyDefaults(&cfg)
	applySecrets(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constants.DefaultServerPort
	}
	if cfg.Server.ReadTimeoutSec == 0 {
		cfg.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if cfg.Server.WriteTimeoutSec == 0 {
		cfg.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if cfg.Server.IdleTimeoutSec == 0 {
		cfg.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if cfg.Instagram.APIBaseURL == "" {
		cfg.Instagram.APIBaseURL = constants.DefaultInstagramBaseURL
	}
	if cfg.Instagram.APIVersion == "" {
		cfg.Instagram.APIVersion = constants.DefaultInstagramAPIVersion
	}
	if cfg.Instagram.TimeoutSec == 0 {
		cfg.Instagram.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if cfg.Speech.TimeoutSec == 0 {
		cfg.Speech.TimeoutSec = constants.DefaultSpeechTimeoutSec
	}
	if cfg.Speech.DefaultLanguage == "" {
		cfg.Speech.DefaultLanguage = "en"
	}
	if cfg.Cleanup.Schedule == "" {
		cfg.Cleanup.Schedule = constants.DefaultCleanupSchedule
	}
	if cfg.Cleanup.DaysInactive == 0 {
		cfg.Cleanup.DaysInactive = constants.DefaultSessionCleanupDays
	}
	if cfg.Booking.TicketPrice == 0 {
		cfg.Booking.TicketPrice = constants.DefaultTicketPrice
	}
	if cfg.Booking.Currency == "" {
		cfg.Booking.Currency = constants.DefaultCurrency
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "museumhub"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applySecrets pulls credentials from the environment; secrets never live in
// the config file.
func applySecrets(cfg *models.Config) {
	cfg.Instagram.PageAccessToken = os.Getenv("INSTAGRAM_PAGE_ACCESS_TOKEN")
	cfg.Instagram.VerifyToken = os.Getenv("INSTAGRAM_VERIFY_TOKEN")
	cfg.Instagram.AppSecret = os.Getenv("INSTAGRAM_APP_SECRET")
	cfg.Speech.ASRAPIKey = os.Getenv("SPEECH_ASR_API_KEY")
	cfg.Speech.TTSAPIKey = os.Getenv("SPEECH_TTS_API_KEY")
	if url := os.Getenv("ANALYTICS_AMQP_URL"); url != "" {
		cfg.Analytics.AMQPURL = url
	}
}

// Validate checks the invariants startup depends on.
func Validate(cfg *models.Config) error {
	if cfg.Database.Path == "" {
		return models.ConfigError{Message: "database path is required"}
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return models.ConfigError{Message: "server port must be in (0, 65535]"}
	}
	if cfg.Analytics.Enabled && cfg.Analytics.AMQPURL == "" {
		return models.ConfigError{Message: "analytics is enabled but no AMQP URL is configured"}
	}
	if cfg.Analytics.Enabled && cfg.Analytics.Exchange == "" {
		return models.ConfigError{Message: "analytics is enabled but no exchange is configured"}
	}
	if !speech.KnownProvider(cfg.Speech.ASRProvider) {
		return models.ConfigError{Message: "unknown ASR provider: " + cfg.Speech.ASRProvider}
	}
	if !speech.KnownProvider(cfg.Speech.TTSProvider) {
		return models.ConfigError{Message: "unknown TTS provider: " + cfg.Speech.TTSProvider}
	}
	if cfg.Cleanup.DaysInactive < 0 {
		return models.ConfigError{Message: "cleanup retention days cannot be negative"}
	}
	if cfg.Booking.TicketPrice < 0 {
		return models.ConfigError{Message: "ticket price cannot be negative"}
	}
	return nil
}
