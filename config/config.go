package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RabbitMQConfig holds the RabbitMQ connection settings for publishing
// scan events.
type RabbitMQConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Exchange               string
	ScanCompletedRoutingKey string
	BillingAlertRoutingKey  string
}

// GetAMQPURL builds the AMQP connection URL
func (r *RabbitMQConfig) GetAMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

// Config holds all configuration for the visibility scan service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Anthropic configuration
	AnthropicAPIKey        string
	AnthropicModel         string
	AnthropicFallbackModel string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string

	// Perplexity configuration
	PerplexityAPIKey string
	PerplexityModel  string

	// DataForSEO configuration (google/bing SERP surfaces)
	DataForSEOLogin    string
	DataForSEOPassword string

	// Scan configuration
	ProviderTimeout time.Duration
	CreditsPerScan  int
	BulkConcurrency int

	// Competitor detection
	GenericDomains []string

	// RabbitMQ
	RabbitMQ RabbitMQConfig

	// Logging
	LogLevel string
}

// defaultGenericDomains are excluded from competitor detection: general
// purpose platforms, not market competitors.
var defaultGenericDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com",
	"linkedin.com", "youtube.com", "tiktok.com", "pinterest.com",
	"reddit.com", "wikipedia.org", "quora.com", "stackoverflow.com",
	"github.com", "medium.com", "google.com", "bing.com",
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "visibility"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Provider defaults
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-search-preview"),
		AnthropicAPIKey:        getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:         getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicFallbackModel: getEnv("ANTHROPIC_FALLBACK_MODEL", "claude-3-5-sonnet-20241022"),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		PerplexityAPIKey:       getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityModel:        getEnv("PERPLEXITY_MODEL", "sonar"),
		DataForSEOLogin:        getEnv("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword:     getEnv("DATAFORSEO_PASSWORD", ""),

		// Scan defaults
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 45*time.Second),
		CreditsPerScan:  getIntEnv("CREDITS_PER_SCAN", 1),
		BulkConcurrency: getIntEnv("BULK_CONCURRENCY", 12),

		GenericDomains: getStringSliceEnv("GENERIC_DOMAINS", strings.Join(defaultGenericDomains, ",")),

		RabbitMQ: RabbitMQConfig{
			Host:                    getEnv("RABBITMQ_HOST", "localhost"),
			Port:                    getEnv("RABBITMQ_PORT", "5672"),
			User:                    getEnv("RABBITMQ_USER", "guest"),
			Password:                getEnv("RABBITMQ_PASSWORD", "guest"),
			Exchange:                getEnv("RABBITMQ_EXCHANGE", "visibility"),
			ScanCompletedRoutingKey: getEnv("RABBITMQ_SCAN_COMPLETED_ROUTING_KEY", "scan.completed"),
			BillingAlertRoutingKey:  getEnv("RABBITMQ_BILLING_ALERT_ROUTING_KEY", "scan.billing.exhausted"),
		},

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// getStringSliceEnv gets a comma-separated string environment variable and returns it as a string slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
