package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	LogLevel    string

	// Content store
	StorageDriver     string
	LocalStorageDir   string
	StorageBucket     string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UseSSL          bool

	// LLM functions. An empty key is allowed; the functions answer
	// not_configured until one is set.
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	// Auth
	JWTSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	// OAuth state cache. Empty address keeps state in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Upload limits
	MaxFileSize int64

	CORSAllowOrigin string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "data/loanmitra.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		LocalStorageDir:    getEnv("LOCAL_STORAGE_DIR", "data/objects"),
		StorageBucket:      getEnv("STORAGE_BUCKET", "loan-documents"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3UseSSL:           getEnv("S3_USE_SSL", "false") == "true",
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CORSAllowOrigin:    getEnv("CORS_ALLOW_ORIGIN", "*"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required when ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = "dev-secret"
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.MaxFileSize, err = strconv.ParseInt(getEnv("MAX_FILE_SIZE", "10485760"), 10, 64)
	if err != nil || cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE %q", os.Getenv("MAX_FILE_SIZE"))
	}

	switch cfg.StorageDriver {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.LLMProvider {
	case "openrouter", "openai", "claude", "gemini":
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModel(cfg.LLMProvider)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "claude":
		return "claude-3-5-haiku-latest"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "openai/gpt-4o-mini"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
