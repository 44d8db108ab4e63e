// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tafiti-service/internal/gateway"
	"tafiti-service/internal/payout"
	"tafiti-service/internal/pkg/jwt"
	"tafiti-service/internal/smsgw"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	HTTPAddr      string
	AllowedOrigin string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Gateway gateway.Config
	Payout  payout.Config
	SMS     smsgw.Config
	JWT     jwt.Config

	// SurveyBaseURL is the public link base used in SMS invitations.
	SurveyBaseURL string

	PaymentCallTimeout time.Duration
	ReconcileInterval  time.Duration
	ReconcileStuckFor  time.Duration
	EventWorkers       int

	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		Gateway: gateway.Config{
			Name:      getEnv("GATEWAY_NAME", "paystack"),
			BaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.paystack.co"),
			SecretKey: os.Getenv("GATEWAY_SECRET_KEY"),
			Timeout:   getEnvDuration("GATEWAY_TIMEOUT", 15*time.Second),
		},
		Payout: payout.Config{
			BaseURL: os.Getenv("PAYOUT_BASE_URL"),
			APIKey:  os.Getenv("PAYOUT_API_KEY"),
			Timeout: getEnvDuration("PAYOUT_TIMEOUT", 20*time.Second),
		},
		SMS: smsgw.Config{
			BaseURL:  os.Getenv("SMS_BASE_URL"),
			APIKey:   os.Getenv("SMS_API_KEY"),
			SenderID: getEnv("SMS_SENDER_ID", "TAFITI"),
			Timeout:  getEnvDuration("SMS_TIMEOUT", 10*time.Second),
		},
		JWT: jwt.Config{
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "secrets/jwt_public.pem"),
			Issuer:   getEnv("JWT_ISSUER", "tafiti-auth"),
			Audience: getEnv("JWT_AUDIENCE", "tafiti-service"),
		},

		SurveyBaseURL: getEnv("SURVEY_BASE_URL", "https://surveys.tafiti.app"),

		PaymentCallTimeout: getEnvDuration("PAYMENT_CALL_TIMEOUT", 15*time.Second),
		ReconcileInterval:  getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ReconcileStuckFor:  getEnvDuration("RECONCILE_STUCK_FOR", 15*time.Minute),
		EventWorkers:       getEnvInt("EVENT_WORKERS", 8),

		RateLimit:       getEnvInt("RATE_LIMIT", 120),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Gateway.SecretKey == "" {
		return nil, fmt.Errorf("GATEWAY_SECRET_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
