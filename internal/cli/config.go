package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/speech"
)

const (
	configFileName  = "config.yaml"
	sessionFileName = "session.yaml"
	defaultAPIURL   = "http://localhost:8080"
)

// Config is the per-user CLI configuration.
type Config struct {
	APIURL     string  `yaml:"api_url"`
	Language   string  `yaml:"language"`
	SpeechRate float64 `yaml:"speech_rate"`
	STTCommand string  `yaml:"stt_command,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		APIURL:     defaultAPIURL,
		Language:   string(language.Default),
		SpeechRate: speech.Rate,
	}
}

// ConfigDir is $LOANMITRA_CONFIG_DIR, or loanmitra under the user config
// directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv("LOANMITRA_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, "loanmitra"), nil
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if _, ok := language.Parse(cfg.Language); !ok {
		return cfg, fmt.Errorf("config: unknown language %q", cfg.Language)
	}
	return cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, raw, 0o600)
}

// LanguageCode returns the configured language, or the default.
func (c Config) LanguageCode() language.Code {
	if code, ok := language.Parse(c.Language); ok {
		return code
	}
	return language.Default
}
