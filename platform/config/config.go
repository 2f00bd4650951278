// Package config reads the service configuration from the environment. Each module
// depends on a narrow interface rather than on *Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Per-module views
// =============================================================================

type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig is the secret shared by AuthRequired and the operator token issuer.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the Redis-backed task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// FollowUpConfig provides settings for follow-up scheduling.
type FollowUpConfig interface {
	GetFollowUpWindow() time.Duration
	GetScanInterval() time.Duration
	GetLocation() *time.Location
	GetEngagementRules() EngagementRules
}

// LinkConfig provides the base URLs used to compose lead links.
type LinkConfig interface {
	GetBookingBaseURL() string
	GetTrackingBaseURL() string
}

// ShortenerConfig provides settings for the link shortening service.
type ShortenerConfig interface {
	GetShortenerURL() string
	GetShortenerToken() string
	IsShortenerEnabled() bool
}

// CRMConfig provides settings for the external CRM integration.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMTokenURL() string
	GetCRMClientID() string
	GetCRMClientSecret() string
	GetCRMRefreshToken() string
	IsCRMEnabled() bool
}

// EmailConfig provides settings for follow-up email delivery.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayKey() string
	GetSMSFromNumber() string
	IsSMSEnabled() bool
}

// EventDedupConfig provides the trailing window for interaction event deduplication.
type EventDedupConfig interface {
	GetEventDedupWindow() time.Duration
}

// WebhookConfig provides the shared key for inbound ad platform lead webhooks.
type WebhookConfig interface {
	GetGoogleWebhookKey() string
}

// PhoneConfig provides phone parsing settings.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config implements every per-module interface.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	FollowUpWindow     time.Duration
	ScanInterval       time.Duration
	Location           *time.Location
	EngagementRules    EngagementRules
	BookingBaseURL     string
	TrackingBaseURL    string
	ShortenerURL       string
	ShortenerToken     string
	CRMBaseURL         string
	CRMTokenURL        string
	CRMClientID        string
	CRMClientSecret    string
	CRMRefreshToken    string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
	SMSGatewayURL      string
	SMSGatewayKey      string
	SMSFromNumber      string
	EventDedupWindow   time.Duration
	PhoneDefaultRegion string
	GoogleWebhookKey   string
}

// =============================================================================
// Getters
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetFollowUpWindow() time.Duration    { return c.FollowUpWindow }
func (c *Config) GetScanInterval() time.Duration      { return c.ScanInterval }
func (c *Config) GetLocation() *time.Location         { return c.Location }
func (c *Config) GetEngagementRules() EngagementRules { return c.EngagementRules }

func (c *Config) GetBookingBaseURL() string  { return c.BookingBaseURL }
func (c *Config) GetTrackingBaseURL() string { return c.TrackingBaseURL }

func (c *Config) GetShortenerURL() string   { return c.ShortenerURL }
func (c *Config) GetShortenerToken() string { return c.ShortenerToken }
func (c *Config) IsShortenerEnabled() bool  { return c.ShortenerURL != "" }

func (c *Config) GetCRMBaseURL() string      { return c.CRMBaseURL }
func (c *Config) GetCRMTokenURL() string     { return c.CRMTokenURL }
func (c *Config) GetCRMClientID() string     { return c.CRMClientID }
func (c *Config) GetCRMClientSecret() string { return c.CRMClientSecret }
func (c *Config) GetCRMRefreshToken() string { return c.CRMRefreshToken }
func (c *Config) IsCRMEnabled() bool {
	return c.CRMBaseURL != "" && c.CRMTokenURL != "" && c.CRMRefreshToken != ""
}

func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" && c.EmailFromAddress != "" }

func (c *Config) GetSMSGatewayURL() string { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayKey() string { return c.SMSGatewayKey }
func (c *Config) GetSMSFromNumber() string { return c.SMSFromNumber }
func (c *Config) IsSMSEnabled() bool       { return c.SMSGatewayURL != "" }

func (c *Config) GetEventDedupWindow() time.Duration { return c.EventDedupWindow }

func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

func (c *Config) GetGoogleWebhookKey() string { return c.GoogleWebhookKey }

// Load reads the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	location, err := time.LoadLocation(getEnv("FOLLOW_UP_TIMEZONE", "America/New_York"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLLOW_UP_TIMEZONE: %w", err)
	}

	rules, err := LoadEngagementRules(getEnv("ENGAGEMENT_RULES_PATH", "config/engagement.yaml"))
	if err != nil {
		return nil, err
	}

	followUpWindow := mustDuration(getEnv("FOLLOW_UP_WINDOW", "60m"))

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		FollowUpWindow:     followUpWindow,
		ScanInterval:       mustDuration(getEnv("FOLLOW_UP_SCAN_INTERVAL", followUpWindow.String())),
		Location:           location,
		EngagementRules:    rules,
		BookingBaseURL:     getEnv("BOOKING_BASE_URL", "https://book.example.com/schedule"),
		TrackingBaseURL:    getEnv("TRACKING_BASE_URL", "http://localhost:8080/api/v1/t"),
		ShortenerURL:       getEnv("SHORTENER_URL", ""),
		ShortenerToken:     getEnv("SHORTENER_TOKEN", ""),
		CRMBaseURL:         getEnv("CRM_BASE_URL", ""),
		CRMTokenURL:        getEnv("CRM_TOKEN_URL", ""),
		CRMClientID:        getEnv("CRM_CLIENT_ID", ""),
		CRMClientSecret:    getEnv("CRM_CLIENT_SECRET", ""),
		CRMRefreshToken:    getEnv("CRM_REFRESH_TOKEN", ""),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Saleset"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		SMSGatewayURL:      getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:      getEnv("SMS_GATEWAY_KEY", ""),
		SMSFromNumber:      getEnv("SMS_FROM_NUMBER", ""),
		EventDedupWindow:   mustDuration(getEnv("EVENT_DEDUP_WINDOW", "24h")),
		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "US"),
		GoogleWebhookKey:   getEnv("GOOGLE_WEBHOOK_KEY", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FollowUpWindow <= 0 {
		return nil, fmt.Errorf("FOLLOW_UP_WINDOW must be a positive duration")
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = cfg.FollowUpWindow
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
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
