package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "STORAGE_DRIVER", "LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "TOKEN_TTL", "MAX_FILE_SIZE", "REDIS_DB", "ENV"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StorageBucket != "loan-documents" {
		t.Errorf("expected bucket loan-documents, got %s", cfg.StorageBucket)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("expected 10 MiB limit, got %d", cfg.MaxFileSize)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.LLMModel != "openai/gpt-4o-mini" {
		t.Errorf("unexpected default model %s", cfg.LLMModel)
	}
	if cfg.LLMAPIKey != "" {
		t.Errorf("expected no api key by default")
	}
	if cfg.DatabaseURL != "data/loanmitra.db" {
		t.Errorf("unexpected default database %s", cfg.DatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Claude")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:5432/loanmitra?sslmode=disable")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("MAX_FILE_SIZE", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLMProvider != "claude" {
		t.Errorf("expected provider claude, got %s", cfg.LLMProvider)
	}
	if cfg.LLMModel != "claude-3-5-haiku-latest" {
		t.Errorf("unexpected claude default model %s", cfg.LLMModel)
	}
	if cfg.StorageDriver != "s3" {
		t.Errorf("expected s3 storage driver, got %s", cfg.StorageDriver)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected 2h ttl, got %s", cfg.TokenTTL)
	}
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"storage driver", "STORAGE_DRIVER", "ftp"},
		{"llm provider", "LLM_PROVIDER", "eliza"},
		{"token ttl", "TOKEN_TTL", "soon"},
		{"max file size", "MAX_FILE_SIZE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_DRIVER", "LLM_PROVIDER", "TOKEN_TTL", "MAX_FILE_SIZE", "REDIS_DB", "ENV"} {
				t.Setenv(key, "")
			}
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		want    string
		wantErr bool
	}{
		{"development falls back", "", "", "dev-secret", false},
		{"production requires secret", "production", "", "", true},
		{"prod alias requires secret", "Prod", "  ", "", true},
		{"production with secret", "production", "s3cret", "s3cret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_DRIVER", "LLM_PROVIDER", "TOKEN_TTL", "MAX_FILE_SIZE", "REDIS_DB", "ENV"} {
				t.Setenv(key, "")
			}
			t.Setenv("ENV", tt.env)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got secret %q", cfg.JWTSecret)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.JWTSecret != tt.want {
				t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, tt.want)
			}
		})
	}
}
