package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// WaveConfig holds credentials and endpoints for the Wave checkout API.
type WaveConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	ErrorURL      string
	Currency      string
}

// TouchPointConfig holds credentials for the TouchPoint aggregator API.
type TouchPointConfig struct {
	BaseURL       string
	AgencyCode    string
	LoginAgent    string
	PasswordAgent string
	CallbackURL   string
}

// RetryConfig bounds the shared provider retry policy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	Env         string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	Wave        WaveConfig
	TouchPoint  TouchPointConfig
	Retry       RetryConfig
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		// clientFoundRows makes UPDATE report matched rows, so a no-change
		// guarded transition is not mistaken for a lost conflict.
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/kbine?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		Wave: WaveConfig{
			BaseURL:       getEnv("WAVE_BASE_URL", "https://api.wave.com"),
			APIKey:        os.Getenv("WAVE_API_KEY"),
			WebhookSecret: os.Getenv("WAVE_WEBHOOK_SECRET"),
			SuccessURL:    getEnv("WAVE_SUCCESS_URL", "https://kbine.app/payment/success"),
			ErrorURL:      getEnv("WAVE_ERROR_URL", "https://kbine.app/payment/error"),
			Currency:      getEnv("WAVE_CURRENCY", "XOF"),
		},
		TouchPoint: TouchPointConfig{
			BaseURL:       getEnv("TOUCHPOINT_BASE_URL", "https://apidist.gutouch.net/apidist/sec/touchpayapi"),
			AgencyCode:    os.Getenv("TOUCHPOINT_AGENCY_CODE"),
			LoginAgent:    os.Getenv("TOUCHPOINT_LOGIN_AGENT"),
			PasswordAgent: os.Getenv("TOUCHPOINT_PASSWORD_AGENT"),
			CallbackURL:   getEnv("TOUCHPOINT_CALLBACK_URL", "https://kbine.app/api/webhooks/touchpoint"),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvInt("PROVIDER_RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDuration("PROVIDER_RETRY_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:    getEnvDuration("PROVIDER_RETRY_MAX_DELAY", 8*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
