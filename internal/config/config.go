// Package config centralizes runtime configuration. Defaults live here;
// environment variables override them. Gameplay constants (arena size,
// tick rate) are not configuration and live in the game package.
package config

import (
	"os"
	"strconv"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{Port: 8000}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	return cfg
}

// BotIntegrationConfig holds the messenger-bot deep-link surface. The
// bot itself runs elsewhere; the server only needs to know whether the
// integration is on and where the webapp lives.
type BotIntegrationConfig struct {
	Token     string
	WebAppURL string
}

// Enabled reports whether the chat-bot integration is configured.
func (c BotIntegrationConfig) Enabled() bool {
	return c.Token != ""
}

// BotIntegrationFromEnv reads BOT_TOKEN and WEBAPP_URL.
func BotIntegrationFromEnv() BotIntegrationConfig {
	return BotIntegrationConfig{
		Token:     os.Getenv("BOT_TOKEN"),
		WebAppURL: getEnvString("WEBAPP_URL", "https://sumo.lovza.ru"),
	}
}

// LimitsConfig controls connection-level DoS protection.
type LimitsConfig struct {
	MaxConnections      int // total concurrent WebSocket sessions
	MaxConnectionsPerIP int
}

// DefaultLimits returns the default connection limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxConnections:      500,
		MaxConnectionsPerIP: 10,
	}
}

// LimitsFromEnv returns connection limits with environment overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()
	if n := getEnvInt("MAX_CONNECTIONS", 0); n > 0 {
		cfg.MaxConnections = n
	}
	if n := getEnvInt("MAX_CONNECTIONS_PER_IP", 0); n > 0 {
		cfg.MaxConnectionsPerIP = n
	}
	return cfg
}

// RateLimitConfig configures the per-IP HTTP rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultRateLimit returns production-safe limiter defaults.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// RateLimitFromEnv returns rate limiter settings with env overrides.
func RateLimitFromEnv() RateLimitConfig {
	cfg := DefaultRateLimit()
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	return cfg
}

// AppConfig is the complete application configuration.
type AppConfig struct {
	Server       ServerConfig
	Bot          BotIntegrationConfig
	Limits       LimitsConfig
	RateLimit    RateLimitConfig
	EventLogPath string
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:       ServerFromEnv(),
		Bot:          BotIntegrationFromEnv(),
		Limits:       LimitsFromEnv(),
		RateLimit:    RateLimitFromEnv(),
		EventLogPath: getEnvString("EVENT_LOG_PATH", ""),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
