package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBackendURL is used when no backend URL is configured.
const DefaultBackendURL = "http://localhost:8000"

// SyncConfig controls the sync orchestrator.
type SyncConfig struct {
	// Days is the lookback window sent with every start-sync request.
	Days int `mapstructure:"days" yaml:"days"`

	// SettleDelay is the fixed wait after the start call settles before
	// folders and emails are re-pulled.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// HTTPConfig holds gateway transport settings.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AccountsConfig holds account registration settings.
type AccountsConfig struct {
	// VerifyIMAP enables a LOGIN check against the draft's server
	// before the draft is submitted.
	VerifyIMAP bool `mapstructure:"verify_imap" yaml:"verify_imap"`
}

// JournalConfig holds activity journal settings.
type JournalConfig struct {
	// Path is the SQLite DSN; ":memory:" keeps the journal per session.
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	BackendURL string         `mapstructure:"backend_url" yaml:"backend_url"`
	WebhookURL string         `mapstructure:"webhook_url" yaml:"webhook_url"`
	Sync       SyncConfig     `mapstructure:"sync" yaml:"sync"`
	HTTP       HTTPConfig     `mapstructure:"http" yaml:"http"`
	Accounts   AccountsConfig `mapstructure:"accounts" yaml:"accounts"`
	Journal    JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Log        LogConfig      `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/onebox, or the working directory when the
// home directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "onebox")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/onebox/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns the configuration used when nothing is set.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		BackendURL: DefaultBackendURL,
		Sync: SyncConfig{
			Days:        30,
			SettleDelay: 2 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Journal: JournalConfig{
			Path: ":memory:",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(configDir(), "onebox.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// applying ONEBOX_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ONEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv applies on Unmarshal.
	v.SetDefault("backend_url", defaults.BackendURL)
	v.SetDefault("webhook_url", "")
	v.SetDefault("sync.days", defaults.Sync.Days)
	v.SetDefault("sync.settle_delay", defaults.Sync.SettleDelay)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("accounts.verify_imap", false)
	v.SetDefault("journal.path", defaults.Journal.Path)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)

	if err := v.BindEnv("backend_url", "ONEBOX_BACKEND_URL", "BACKEND_URL"); err != nil {
		return nil, fmt.Errorf("binding backend_url env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if _, ok := err.(*os.PathError); !ok && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		c.BackendURL = DefaultBackendURL
	}
	if c.Sync.Days <= 0 {
		return fmt.Errorf("sync.days must be positive, got %d", c.Sync.Days)
	}
	if c.Sync.SettleDelay < 0 {
		return fmt.Errorf("sync.settle_delay must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	return nil
}
