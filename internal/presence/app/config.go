package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port int // HTTP server port (default: 8080)

	SaltRotation     time.Duration // Optional: salt rotation interval (default: 600ms)
	SaltAcceptWindow time.Duration // Optional: how long a salt generation stays valid (default: 1s)
	CodeTolerance    time.Duration // Optional: clock skew tolerance for submitted codes (default: 1s)
	ChallengeTTL     time.Duration // Optional: displayed challenge lifetime (default: 3s)
	VerificationTTL  time.Duration // Optional: verification token lifetime (default: 30s)
	CheckinWindow    time.Duration // Optional: minimum spacing between check-ins per connection (default: 6s)
	DeviceLockTTL    time.Duration // Optional: device/identifier binding lifetime (default: 5m)
	DeviceLockPolicy string        // Optional: conflict policy, reject or warn (default: reject)

	OverrideTTL             time.Duration // Optional: how long an approved override stays redeemable (default: 30m)
	OverrideSecret          string        // Optional: plaintext teacher secret
	OverrideSecretHash      string        // Optional: argon2id PHC hash of the teacher secret (preferred)
	OverrideTOTPSecret      string        // Optional: base32 TOTP secret for rotating teacher codes
	OverridePasswordVersion string        // Optional: label recorded with audit lines (default: v1)

	RecordSink   string // Record sink driver: sqlite or csv (default: sqlite)
	DatabaseFile string // Path to SQLite database file (default: ./presence.db)
	CSVDir       string // Directory for daily CSV files when RecordSink=csv (default: ./data)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	DebugExpectedCodes  bool          // Expose the valid code set on rejection; forced off in prod
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Port: getEnvIntOrDefault("PORT", 8080),

		SaltRotation:     getEnvDurationOrDefault("SALT_ROTATION", 600*time.Millisecond),
		SaltAcceptWindow: getEnvDurationOrDefault("SALT_ACCEPT_WINDOW", 1*time.Second),
		CodeTolerance:    getEnvDurationOrDefault("CODE_TOLERANCE", 1*time.Second),
		ChallengeTTL:     getEnvDurationOrDefault("CHALLENGE_TTL", 3*time.Second),
		VerificationTTL:  getEnvDurationOrDefault("VERIFICATION_TTL", 30*time.Second),
		CheckinWindow:    getEnvDurationOrDefault("CHECKIN_WINDOW", 6*time.Second),
		DeviceLockTTL:    getEnvDurationOrDefault("DEVICE_LOCK_TTL", 5*time.Minute),
		DeviceLockPolicy: getEnvOrDefault("DEVICE_LOCK_POLICY", "reject"),

		OverrideTTL:             getEnvDurationOrDefault("OVERRIDE_TTL", 30*time.Minute),
		OverrideSecret:          os.Getenv("OVERRIDE_SECRET"),
		OverrideSecretHash:      os.Getenv("OVERRIDE_SECRET_HASH"),
		OverrideTOTPSecret:      os.Getenv("OVERRIDE_TOTP_SECRET"),
		OverridePasswordVersion: getEnvOrDefault("OVERRIDE_PASSWORD_VERSION", "v1"),

		RecordSink:   getEnvOrDefault("RECORD_SINK", "sqlite"),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "presence.db"),
		CSVDir:       getEnvOrDefault("CSV_DIR", "data"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Valid code sets are a debugging aid only; never reveal them in prod
	cfg.DebugExpectedCodes = getEnvBoolOrDefault("DEBUG_EXPECTED_CODES", false) && cfg.Env != "prod"

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "600ms", "30s", "5m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer milliseconds (matches the wire fields, which
	// are all _ms)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}
