// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the idempotency guard
// and the background task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// GatewayConfig provides credentials for the outbound WhatsApp/SMS gateway.
// When secret or account are empty, all outbound sends are disabled.
type GatewayConfig interface {
	GetGatewayURL() string
	GetGatewaySecret() string
	GetGatewayAccount() string
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// MarketplaceConfig provides marketplace business settings.
type MarketplaceConfig interface {
	GetWelcomeBonus() int
	GetOpportunityURL() string
	GetShopURL() string
	GetNotifyAPIKey() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WorkerConfig provides settings for the asynq background worker.
type WorkerConfig interface {
	RedisConfig
	GetQueueName() string
	GetWorkerConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RedisURL          string
	RedisTLSInsecure  bool
	QueueName         string
	WorkerConcurrency int
	CORSAllowAll      bool
	CORSOrigins       []string
	GatewayURL        string
	GatewaySecret     string
	GatewayAccount    string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	EmailFromName     string
	EmailFromAddress  string
	WelcomeBonus      int
	OpportunityURL    string
	ShopURL           string
	NotifyAPIKey      string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// GatewayConfig implementation
func (c *Config) GetGatewayURL() string     { return c.GatewayURL }
func (c *Config) GetGatewaySecret() string  { return c.GatewaySecret }
func (c *Config) GetGatewayAccount() string { return c.GatewayAccount }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string   { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool       { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// MarketplaceConfig implementation
func (c *Config) GetWelcomeBonus() int       { return c.WelcomeBonus }
func (c *Config) GetOpportunityURL() string  { return c.OpportunityURL }
func (c *Config) GetShopURL() string         { return c.ShopURL }
func (c *Config) GetNotifyAPIKey() string    { return c.NotifyAPIKey }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// WorkerConfig implementation
func (c *Config) GetQueueName() string       { return c.QueueName }
func (c *Config) GetWorkerConcurrency() int  { return c.WorkerConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", ""))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		QueueName:         getEnv("QUEUE_NAME", "notifications"),
		WorkerConcurrency: mustInt(getEnv("WORKER_CONCURRENCY", "10")),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		GatewayURL:        getEnv("GATEWAY_URL", "https://whatsapp.smsenlinea.com"),
		GatewaySecret:     getEnv("GATEWAY_API_SECRET", ""),
		GatewayAccount:    getEnv("GATEWAY_ACCOUNT_ID", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Cotizaciones"),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
		WelcomeBonus:      mustInt(getEnv("WELCOME_BONUS", "0")),
		OpportunityURL:    getEnv("OPPORTUNITY_URL", ""),
		ShopURL:           getEnv("SHOP_URL", ""),
		NotifyAPIKey:      getEnv("NOTIFY_API_KEY", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.WelcomeBonus < 0 {
		return nil, fmt.Errorf("WELCOME_BONUS cannot be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
