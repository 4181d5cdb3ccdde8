package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Generic model providers understood by the factory.
const (
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	GinMode            string
	AllowedOrigins     []string

	// Custom (GerminationNet) model
	CustomModelEndpoint      string
	CustomModelAPIKey        string
	CustomModelTimeout       time.Duration
	CustomModelHealthTimeout time.Duration

	// Generic vision model
	GenericProvider     string
	GenericModelTimeout time.Duration
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	OpenAIMaxTokens     int
	OllamaURL           string
	OllamaModel         string
	HuggingFaceToken    string
	HuggingFaceBaseURL  string
	HuggingFaceModel    string
	ImageFetchTimeout   time.Duration

	// Persistence and photo storage
	DatabaseURL           string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// BlobStorageEnabled reports whether photo uploads go to Azure Blob Storage.
func (c *Config) BlobStorageEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		GinMode:            getEnvOrDefault("GIN_MODE", "release"),
		AllowedOrigins:     parseListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),

		CustomModelEndpoint:      strings.TrimSpace(os.Getenv("CUSTOM_MODEL_ENDPOINT")),
		CustomModelAPIKey:        os.Getenv("CUSTOM_MODEL_API_KEY"),
		CustomModelTimeout:       parseDurationOrDefault("CUSTOM_MODEL_TIMEOUT", 30*time.Second),
		CustomModelHealthTimeout: parseDurationOrDefault("CUSTOM_MODEL_HEALTH_TIMEOUT", 5*time.Second),

		GenericProvider:     strings.ToLower(getEnvOrDefault("GENERIC_MODEL_PROVIDER", ProviderOpenAI)),
		GenericModelTimeout: parseDurationOrDefault("GENERIC_MODEL_TIMEOUT", 30*time.Second),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:         getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:     int(parseIntOrDefault("OPENAI_MAX_TOKENS", 500)),
		OllamaURL:           getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:         getEnvOrDefault("OLLAMA_MODEL", "llava"),
		HuggingFaceToken:    os.Getenv("HUGGINGFACE_API_TOKEN"),
		HuggingFaceBaseURL:  os.Getenv("HUGGINGFACE_BASE_URL"),
		HuggingFaceModel:    os.Getenv("HUGGINGFACE_MODEL"),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),

		DatabaseURL:           os.Getenv("DATABASE_URL"),
		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureStorageContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "germination"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and provider names.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.CustomModelTimeout <= 0 || c.CustomModelHealthTimeout <= 0 ||
		c.GenericModelTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, custom=%s, health=%s, generic=%s, fetch=%s)",
			c.RequestTimeout, c.CustomModelTimeout, c.CustomModelHealthTimeout, c.GenericModelTimeout, c.ImageFetchTimeout)
	}
	// The request budget has to cover a custom timeout followed by the fallback.
	if c.RequestTimeout < c.CustomModelTimeout+c.GenericModelTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must cover CUSTOM_MODEL_TIMEOUT + GENERIC_MODEL_TIMEOUT (%s)",
			c.RequestTimeout, c.CustomModelTimeout+c.GenericModelTimeout)
	}
	switch c.GenericProvider {
	case ProviderOpenAI, ProviderOllama, ProviderHuggingFace:
	default:
		return fmt.Errorf("unsupported GENERIC_MODEL_PROVIDER: %q", c.GenericProvider)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE: %q", c.GinMode)
	}
	if c.OpenAIMaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be > 0 (got %d)", c.OpenAIMaxTokens)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
