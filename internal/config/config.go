package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment
// variables. The shared Twilio auth token doubles as the webhook
// signature secret; leaving it empty fails every webhook closed.
type Config struct {
	Port string

	// PublicBaseURL is the externally visible origin of this service
	// (scheme + host), used to rebuild the exact URL the provider
	// signed. Required for webhook verification behind proxies.
	PublicBaseURL string

	// Twilio configuration
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Completion service configuration
	CompletionBaseURL string
	CompletionAPIKey  string
	CompletionModel   string
	CompletionTimeout time.Duration

	// Auth
	JWTSecret string

	// AskBob per-workspace rate limit (requests per minute)
	AskBobRatePerMinute int

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisEnabled  bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Port:          GetEnvOrDefault("PORT", "8080"),
		PublicBaseURL: GetEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		TwilioAccountSID: GetEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  GetEnvOrDefault("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: GetEnvOrDefault("TWILIO_FROM_NUMBER", ""),

		CompletionBaseURL: GetEnvOrDefault("COMPLETION_BASE_URL", "https://api.openai.com"),
		CompletionAPIKey:  GetEnvOrDefault("COMPLETION_API_KEY", ""),
		CompletionModel:   GetEnvOrDefault("COMPLETION_MODEL", "gpt-4o-mini"),
		CompletionTimeout: time.Duration(GetEnvIntOrDefault("COMPLETION_TIMEOUT_SECONDS", 45)) * time.Second,

		JWTSecret: GetEnvOrDefault("JWT_SECRET", ""),

		AskBobRatePerMinute: GetEnvIntOrDefault("ASKBOB_RATE_PER_MINUTE", 20),

		RedisHost:     GetEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvIntOrDefault("REDIS_DB", 0),
		RedisEnabled:  GetEnvBoolOrDefault("REDIS_ENABLED", false),
	}
}

// GetEnvOrDefault gets an environment variable or returns the default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault gets an environment variable as int or returns the default.
func GetEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBoolOrDefault gets an environment variable as bool or returns the default.
func GetEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
