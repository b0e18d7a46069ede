// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Suite    SuiteConfig    `mapstructure:"suite" yaml:"suite"`
	Users    UsersConfig    `mapstructure:"users" yaml:"users"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driven by the suite.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	WindowWidth       int            `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int            `mapstructure:"window_height" yaml:"window_height"`
	DisableCache      bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	DefaultWait       time.Duration  `mapstructure:"default_wait" yaml:"default_wait"`
	Stealth           bool           `mapstructure:"stealth" yaml:"stealth"`
	Humanoid          HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// HumanoidConfig tunes the human-like typing simulation.
type HumanoidConfig struct {
	Enabled         bool    `mapstructure:"enabled" yaml:"enabled"`
	KeyHoldMeanMs   float64 `mapstructure:"key_hold_mean_ms" yaml:"key_hold_mean_ms"`
	KeyHoldStdDevMs float64 `mapstructure:"key_hold_stddev_ms" yaml:"key_hold_stddev_ms"`
	InterKeyMeanMs  float64 `mapstructure:"inter_key_mean_ms" yaml:"inter_key_mean_ms"`
	InterKeyMinMs   float64 `mapstructure:"inter_key_min_ms" yaml:"inter_key_min_ms"`
	TypoRate        float64 `mapstructure:"typo_rate" yaml:"typo_rate"`
	PauseMeanMs     float64 `mapstructure:"pause_mean_ms" yaml:"pause_mean_ms"`
	PauseJitterMs   float64 `mapstructure:"pause_jitter_ms" yaml:"pause_jitter_ms"`
}

// NetworkConfig tunes page stabilization behavior after navigations and clicks.
type NetworkConfig struct {
	PostLoadWait time.Duration     `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	IdleWindow   time.Duration     `mapstructure:"idle_window" yaml:"idle_window"`
	PollInterval time.Duration     `mapstructure:"poll_interval" yaml:"poll_interval"`
	Headers      map[string]string `mapstructure:"headers" yaml:"headers"`
}

// SuiteConfig describes the scenario run itself: target portal, artifact
// directories and execution policy.
type SuiteConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	OutputDir     string        `mapstructure:"output_dir" yaml:"output_dir"`
	ScreenshotDir string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	PageSourceDir string        `mapstructure:"page_source_dir" yaml:"page_source_dir"`
	StepTimeout   time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	Retries       int           `mapstructure:"retries" yaml:"retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Pacing        time.Duration `mapstructure:"pacing" yaml:"pacing"`
	StopOnFailure bool          `mapstructure:"stop_on_failure" yaml:"stop_on_failure"`
	Tags          []string      `mapstructure:"tags" yaml:"tags"`
}

// UsersConfig points at the test-user credential sources.
type UsersConfig struct {
	File    string `mapstructure:"file" yaml:"file"`
	EnvFile string `mapstructure:"env_file" yaml:"env_file"`
}

// DatabaseConfig holds the optional run-history persistence settings.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lexprobe")
	v.SetDefault("logger.log_file", "lexprobe.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.default_wait", "10s")
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.humanoid.enabled", true)
	v.SetDefault("browser.humanoid.key_hold_mean_ms", 55.0)
	v.SetDefault("browser.humanoid.key_hold_stddev_ms", 15.0)
	v.SetDefault("browser.humanoid.inter_key_mean_ms", 70.0)
	v.SetDefault("browser.humanoid.inter_key_min_ms", 35.0)
	v.SetDefault("browser.humanoid.typo_rate", 0.015)
	v.SetDefault("browser.humanoid.pause_mean_ms", 300.0)
	v.SetDefault("browser.humanoid.pause_jitter_ms", 150.0)

	// -- Network --
	v.SetDefault("network.post_load_wait", "1500ms")
	v.SetDefault("network.idle_window", "800ms")
	v.SetDefault("network.poll_interval", "100ms")

	// -- Suite --
	v.SetDefault("suite.output_dir", "reports")
	v.SetDefault("suite.screenshot_dir", "reports/screenshots")
	v.SetDefault("suite.page_source_dir", "reports/pagesource")
	v.SetDefault("suite.step_timeout", "30s")
	v.SetDefault("suite.retries", 1)
	v.SetDefault("suite.retry_delay", "2s")
	v.SetDefault("suite.pacing", "1s")
	v.SetDefault("suite.stop_on_failure", false)

	// -- Users --
	v.SetDefault("users.file", "users.yaml")
	v.SetDefault("users.env_file", "")

	// -- Database --
	v.SetDefault("database.enabled", false)
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Browser.DefaultWait <= 0 {
		return fmt.Errorf("browser.default_wait must be a positive duration")
	}
	if c.Network.PollInterval <= 0 {
		return fmt.Errorf("network.poll_interval must be a positive duration")
	}
	if c.Network.IdleWindow <= 0 {
		return fmt.Errorf("network.idle_window must be a positive duration")
	}
	if c.Suite.StepTimeout <= 0 {
		return fmt.Errorf("suite.step_timeout must be a positive duration")
	}
	if c.Suite.Retries < 0 {
		return fmt.Errorf("suite.retries must not be negative")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled is true")
	}
	return nil
}
