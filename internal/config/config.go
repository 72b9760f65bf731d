package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrMissingToken is returned when TELEGRAM_TOKEN is not set.
// The bot cannot start without it.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is not set")

// ErrInvalidAllowFrom is returned when TELEGRAM_ALLOW_FROM has entries that are not user IDs.
var ErrInvalidAllowFrom = errors.New("TELEGRAM_ALLOW_FROM must be a comma-separated list of user IDs")

// Config holds all application configuration
type Config struct {
	// Telegram transport
	TelegramToken     string
	TelegramDebug     bool
	TelegramAllowFrom []int64 // empty = everyone

	invalidAllowFrom []string

	// Outbound lookup services
	SelfIPURL     string        `validate:"required,url"`
	GeoAPIURL     string        `validate:"required,contains=%s"` // %s is replaced by the address
	LookupTimeout time.Duration `validate:"gt=0"`

	// Geolocation cache
	CacheType     string        `validate:"oneof=none redis"`
	CacheTTL      time.Duration `validate:"gt=0"`
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// Ops HTTP server (health, metrics); empty disables it
	OpsPort string `validate:"omitempty,numeric"`

	// Logging
	LogLevel  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogPretty bool
	LogFile   string
}

// Load reads configuration from environment variables
// with sensible defaults. A .env file is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	allowFrom, invalidAllowFrom := getEnvAsInt64List("TELEGRAM_ALLOW_FROM")

	return &Config{
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		TelegramDebug:     getEnvAsBool("TELEGRAM_DEBUG", false),
		TelegramAllowFrom: allowFrom,
		invalidAllowFrom:  invalidAllowFrom,

		SelfIPURL:     getEnv("SELF_IP_URL", "https://api.ipify.org?format=json"),
		GeoAPIURL:     getEnv("GEO_API_URL", "https://ipapi.co/%s/json/"),
		LookupTimeout: getEnvAsDuration("LOOKUP_TIMEOUT", 10*time.Second),

		CacheType:     strings.ToLower(getEnv("CACHE_TYPE", "none")),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		OpsPort: getEnvAllowEmpty("OPS_PORT", "9090"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Validate checks everything the bot needs, including the access token.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	if len(c.invalidAllowFrom) > 0 {
		return fmt.Errorf("%w: invalid entries %q", ErrInvalidAllowFrom, c.invalidAllowFrom)
	}
	return c.ValidateForLookup()
}

// ValidateForLookup checks the settings used by the lookup pipeline only.
// The one-shot CLI lookup runs without a Telegram token.
func (c *Config) ValidateForLookup() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAllowEmpty is like getEnv but an explicitly empty variable wins over the default
func getEnvAllowEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration accepts Go durations ("10s", "2m") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64List parses a comma-separated list of ids.
// Entries that are not ids are returned separately; empty entries are skipped.
func getEnvAsInt64List(key string) ([]int64, []string) {
	var ids []int64
	var invalid []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}
