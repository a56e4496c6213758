// Package config provides configuration for the orchestrator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Upstream assistant API
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Notification collaborators
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string
	MailgunAPIKey    string
	MailgunDomain    string
	MailgunBaseURL   string
	AdminEmail       string

	// Timeouts
	RunTimeout      time.Duration
	RunPollInterval time.Duration
	StallTimeout    time.Duration
	ToolTimeout     time.Duration

	// Summarizer
	SummaryModel string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:orchestrator.db?cache=shared&mode=rwc"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		MailgunAPIKey:    getEnv("MAILGUN_API_KEY", ""),
		MailgunDomain:    getEnv("MAILGUN_DOMAIN", ""),
		MailgunBaseURL:   getEnv("MAILGUN_BASE_URL", "https://api.mailgun.net"),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@yourdomain.com"),
		RunTimeout:       time.Duration(getEnvInt("RUN_TIMEOUT_MS", 300000)) * time.Millisecond,
		RunPollInterval:  time.Duration(getEnvInt("RUN_POLL_INTERVAL_MS", 600)) * time.Millisecond,
		StallTimeout:     time.Duration(getEnvInt("STALL_TIMEOUT_MS", 8000)) * time.Millisecond,
		ToolTimeout:      time.Duration(getEnvInt("TOOL_TIMEOUT_MS", 60000)) * time.Millisecond,
		SummaryModel:     getEnv("SUMMARY_MODEL", "gpt-4o-mini"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
