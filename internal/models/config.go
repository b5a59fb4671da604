package models

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Instagram InstagramConfig `json:"instagram"`
	Speech    SpeechConfig    `json:"speech"`
	Analytics AnalyticsConfig `json:"analytics"`
	Cleanup   CleanupConfig   `json:"cleanup"`
	Tracing   TracingConfig   `json:"tracing"`
	Booking   BookingConfig   `json:"booking"`
	LogLevel  string          `json:"log_level"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// InstagramConfig holds Instagram Graph API related configurations
type InstagramConfig struct {
	APIBaseURL      string `json:"api_base_url"`
	APIVersion      string `json:"api_version"`
	PageAccessToken string `json:"-"` // from INSTAGRAM_PAGE_ACCESS_TOKEN
	VerifyToken     string `json:"-"` // from INSTAGRAM_VERIFY_TOKEN
	AppSecret       string `json:"-"` // from INSTAGRAM_APP_SECRET, signs webhook payloads
	TimeoutSec      int    `json:"timeoutSec"`
}

// SpeechConfig holds ASR/TTS provider related configurations
type SpeechConfig struct {
	ASRProvider     string `json:"asr_provider"`
	TTSProvider     string `json:"tts_provider"`
	ASRBaseURL      string `json:"asr_base_url"`
	TTSBaseURL      string `json:"tts_base_url"`
	ASRAPIKey       string `json:"-"` // from SPEECH_ASR_API_KEY
	TTSAPIKey       string `json:"-"` // from SPEECH_TTS_API_KEY
	DefaultLanguage string `json:"default_language"`
	DefaultVoice    string `json:"default_voice"`
	TimeoutSec      int    `json:"timeoutSec"`
}

// AnalyticsConfig holds conversation event publishing configurations
type AnalyticsConfig struct {
	Enabled  bool   `json:"enabled"`
	AMQPURL  string `json:"amqp_url"`
	Exchange string `json:"exchange"`
}

// CleanupConfig holds stale-session maintenance configurations
type CleanupConfig struct {
	Schedule     string `json:"schedule"` // cron expression
	DaysInactive int    `json:"daysInactive"`
}

// TracingConfig holds OpenTelemetry related configurations
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

// BookingConfig holds ticketing configurations
type BookingConfig struct {
	TicketPrice float64 `json:"ticketPrice"`
	Currency    string  `json:"currency"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
