package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vertextoedge/diskguard/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. DISKGUARD_WATCH_DIRECTORY.
const EnvPrefix = "DISKGUARD"

// Config represents the entire application configuration
type Config struct {
	Watch     WatchConfig     `mapstructure:"watch"`
	Privilege PrivilegeConfig `mapstructure:"privilege"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// WatchConfig describes what is monitored
type WatchConfig struct {
	Directory           string `mapstructure:"directory"`
	ThresholdPercent    int    `mapstructure:"threshold_percent"`
	PollInterval        string `mapstructure:"poll_interval"`
	ExternalStorageRoot string `mapstructure:"external_storage_root"`
	Autostart           bool   `mapstructure:"autostart"`
}

// PrivilegeConfig controls the elevated command session
type PrivilegeConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Shell             string   `mapstructure:"shell"`
	CommandTimeout    string   `mapstructure:"command_timeout"`
	ProtectedPrefixes []string `mapstructure:"protected_prefixes"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	BindAddr        string `mapstructure:"bind_addr"`
	ControlUsername string `mapstructure:"control_username"`
	ControlPassword string `mapstructure:"control_password"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	IdleTimeout     string `mapstructure:"idle_timeout"`
}

// HistoryConfig contains settings of the sqlite history store
type HistoryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Path           string `mapstructure:"path"`
	SampleInterval string `mapstructure:"sample_interval"`
	Retention      string `mapstructure:"retention"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("watch.directory", "")
	v.SetDefault("watch.threshold_percent", 80)
	v.SetDefault("watch.poll_interval", "3m")
	v.SetDefault("watch.external_storage_root", "/storage/emulated/0")
	v.SetDefault("watch.autostart", true)
	v.SetDefault("privilege.enabled", true)
	v.SetDefault("privilege.shell", "su")
	v.SetDefault("privilege.command_timeout", "0s")
	v.SetDefault("privilege.protected_prefixes", []string{})
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.bind_addr", "127.0.0.1:8085")
	v.SetDefault("http.control_username", "admin")
	v.SetDefault("http.control_password", "")
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "/var/lib/diskguard/history.db")
	v.SetDefault("history.sample_interval", "1m")
	v.SetDefault("history.retention", "168h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load loads configuration from configPath. An empty path uses defaults and
// environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration. The watched directory may be empty
// when the monitor is not started automatically.
func (c *Config) Validate() error {
	if c.Watch.Directory != "" && !filepath.IsAbs(c.Watch.Directory) {
		return fmt.Errorf("%w: watch.directory must be absolute: %s", domain.ErrInvalidConfig, c.Watch.Directory)
	}
	if c.Watch.Autostart && c.Watch.Directory == "" {
		return fmt.Errorf("%w: watch.directory is required when watch.autostart is set", domain.ErrInvalidConfig)
	}
	if c.Watch.ThresholdPercent < 0 || c.Watch.ThresholdPercent > 100 {
		return fmt.Errorf("%w: watch.threshold_percent must be between 0 and 100", domain.ErrInvalidConfig)
	}

	durations := []struct {
		key      string
		value    string
		positive bool
	}{
		{"watch.poll_interval", c.Watch.PollInterval, true},
		{"privilege.command_timeout", c.Privilege.CommandTimeout, false},
		{"http.read_timeout", c.HTTP.ReadTimeout, false},
		{"http.write_timeout", c.HTTP.WriteTimeout, false},
		{"http.idle_timeout", c.HTTP.IdleTimeout, false},
		{"history.sample_interval", c.History.SampleInterval, false},
		{"history.retention", c.History.Retention, false},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%w: invalid %s: %w", domain.ErrInvalidConfig, d.key, err)
		}
		if parsed < 0 || (d.positive && parsed == 0) {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfig, d.key)
		}
	}

	if c.Privilege.Enabled && strings.TrimSpace(c.Privilege.Shell) == "" {
		return fmt.Errorf("%w: privilege.shell is required when privilege is enabled", domain.ErrInvalidConfig)
	}
	for _, p := range c.Privilege.ProtectedPrefixes {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: protected prefix must be absolute: %s", domain.ErrInvalidConfig, p)
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("%w: history.path is required when history is enabled", domain.ErrInvalidConfig)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid logging.level: %s", domain.ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: invalid logging.format: %s", domain.ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

// ReclaimConfig returns the monitor configuration for a run
func (c *Config) ReclaimConfig() domain.ReclaimConfig {
	return domain.ReclaimConfig{
		WatchedDirectory: c.Watch.Directory,
		ThresholdPercent: c.Watch.ThresholdPercent,
		PollInterval:     c.Watch.GetPollInterval(),
	}
}

// GetPollInterval returns the poll interval as time.Duration
func (c *WatchConfig) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	if d <= 0 {
		return 3 * time.Minute
	}
	return d
}

// GetCommandTimeout returns the privileged command timeout. Zero means none.
func (c *PrivilegeConfig) GetCommandTimeout() time.Duration {
	d, _ := time.ParseDuration(c.CommandTimeout)
	return d
}

// GetSampleInterval returns the spacing of persisted status samples
func (c *HistoryConfig) GetSampleInterval() time.Duration {
	d, _ := time.ParseDuration(c.SampleInterval)
	return d
}

// GetRetention returns how long history is kept. Zero keeps everything.
func (c *HistoryConfig) GetRetention() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}
