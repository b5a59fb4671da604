package constants

// Default server configuration values
const (
	DefaultServerPort            = 8082
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Default session lifecycle values
const (
	DefaultSessionCleanupDays = 30
	DefaultCleanupSchedule    = "0 3 * * *" // daily, 03:00
	DefaultHistoryLimit       = 50
	MaxHistoryLimit           = 500
)

// Default external transport values
const (
	DefaultHTTPTimeoutSec      = 30
	DefaultSpeechTimeoutSec    = 20
	DefaultInstagramAPIVersion = "v18.0"
	DefaultInstagramBaseURL    = "https://graph.facebook.com"
)

// Default token values
const (
	DefaultTokenExpiryDays = 30
	TokenByteLength        = 32 // 256 bits of entropy
)

// Default booking values
const (
	DefaultTicketPrice = 100.0
	DefaultCurrency    = "USD"
	MinVisitors        = 1
	MaxVisitors        = 10
)

// Encryption salts (application-specific, combined with the operator secret)
const (
	EncryptionSalt       = "museumhub-salt-v1"
	EncryptionLookupSalt = "museumhub-lookup-v1"
)
