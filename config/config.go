package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration (return listener + metrics)
	Port        string
	Environment string

	// Backend API configuration
	APIBaseURL     string
	RequestTimeout time.Duration

	// Redis configuration (session store)
	RedisURL      string
	RedisPassword string
	RedisDB       int
	SessionKey    string

	// PubNub configuration (chat channels)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubCipherKey    string
	PubNubUserID       string

	// Payment provider configuration
	ProviderBaseURL   string
	ProviderClientID  string
	ProviderSecretKey string
	ProviderHMACKey   string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Backend API
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8084"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "30s"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		SessionKey:    getEnv("SESSION_KEY", "trade:session"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubCipherKey:    getEnv("PUBNUB_CIPHER_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", ""),

		// Payment provider
		ProviderBaseURL:   getEnv("PROVIDER_BASE_URL", ""),
		ProviderClientID:  getEnv("PROVIDER_CLIENT_ID", ""),
		ProviderSecretKey: getEnv("PROVIDER_SECRET_KEY", ""),
		ProviderHMACKey:   getEnv("PROVIDER_HMAC_KEY", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
