package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Payment processor
	PaymentAPIKey         string
	PaymentAPIBaseURL     string
	PaymentWebhookToken   string
	PaymentCurrency       string
	PaymentConfirmTimeout time.Duration

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Auth redirects for the owner area
	SignInURL string
	HomeURL   string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		PaymentAPIKey:         getEnv("PAYMENT_API_KEY", ""),
		PaymentAPIBaseURL:     getEnv("PAYMENT_API_BASE_URL", "https://api.stripe.com"),
		PaymentWebhookToken:   getEnv("PAYMENT_WEBHOOK_TOKEN", ""),
		PaymentCurrency:       getEnv("PAYMENT_CURRENCY", "inr"),
		PaymentConfirmTimeout: getEnvDuration("PAYMENT_CONFIRM_TIMEOUT", 15*time.Minute),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "print-files"),

		SignInURL: getEnv("SIGNIN_URL", "/api/auth/signin"),
		HomeURL:   getEnv("HOME_URL", "/"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PaymentAPIKey == "" {
		return fmt.Errorf("PAYMENT_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
