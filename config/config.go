// Package config loads the assistant configuration from YAML, .env and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ASSISTANT_BACKEND_BASE_URL.
const EnvPrefix = "ASSISTANT"

// Config mirrors configs/config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Behavior BehaviorConfig `mapstructure:"behavior"`
	Download DownloadConfig `mapstructure:"download"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the local web front.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

// BackendConfig points at the external generation API.
type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DefaultsConfig seeds the form fields at startup.
type DefaultsConfig struct {
	Assistant   string  `mapstructure:"assistant"`
	Tone        string  `mapstructure:"tone"`
	Platform    string  `mapstructure:"platform"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// BehaviorConfig controls how overlapping and failed submissions affect the
// displayed state.
type BehaviorConfig struct {
	// DiscardStaleResponses drops responses of superseded submissions.
	DiscardStaleResponses bool `mapstructure:"discard_stale_responses"`
	// ClearOutputOnFailure blanks the output when a request fails.
	ClearOutputOnFailure bool `mapstructure:"clear_output_on_failure"`
}

type DownloadConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load reads .env (if any), then the YAML file at path (optional when it does
// not exist), then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.endpoint", "/api/generate")
	v.SetDefault("backend.timeout", "120s")

	v.SetDefault("defaults.assistant", "Zeus")
	v.SetDefault("defaults.tone", "professional")
	v.SetDefault("defaults.platform", "LinkedIn")
	v.SetDefault("defaults.model", "gemini-2.5-flash")
	v.SetDefault("defaults.temperature", 0.7)
	v.SetDefault("defaults.max_tokens", 600)

	v.SetDefault("behavior.discard_stale_responses", true)
	v.SetDefault("behavior.clear_output_on_failure", false)

	v.SetDefault("download.dir", ".")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "")
}
