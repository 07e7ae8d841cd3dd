package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/webdriver-transport/pkg/httpclient"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ConnectTimeoutMs int64         `mapstructure:"connect_timeout_ms"`
	RequestTimeoutMs int64         `mapstructure:"request_timeout_ms"`
	ConnectTimeout   time.Duration `mapstructure:"-"`
	RequestTimeout   time.Duration `mapstructure:"-"`
	VerifyTLS        bool          `mapstructure:"verify_tls"`
	ProxyURL         string        `mapstructure:"proxy_url"`
	FollowRedirects  bool          `mapstructure:"follow_redirects"`
	MaxRedirects     int           `mapstructure:"max_redirects"`
	UserAgent        string        `mapstructure:"user_agent"`
	StrictMethods    bool          `mapstructure:"strict_methods"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`

	SinksFile string `mapstructure:"sinks_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "wdhttp")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("connect_timeout_ms", int64(httpclient.DefaultConnectTimeout/time.Millisecond))
	v.SetDefault("request_timeout_ms", 0)
	v.SetDefault("verify_tls", true)
	v.SetDefault("proxy_url", "")
	v.SetDefault("follow_redirects", false)
	v.SetDefault("max_redirects", httpclient.DefaultMaxRedirects)
	v.SetDefault("user_agent", "")
	v.SetDefault("strict_methods", false)
	v.SetDefault("journal_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("sinks_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates raw values and derives durations.
func (c *Config) normalize() error {
	if c.ConnectTimeoutMs <= 0 {
		return fmt.Errorf("invalid connect_timeout_ms (must be positive milliseconds)")
	}
	if c.RequestTimeoutMs < 0 {
		return fmt.Errorf("invalid request_timeout_ms (must be zero or positive milliseconds)")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid max_redirects (must not be negative)")
	}
	c.ConnectTimeout = time.Duration(c.ConnectTimeoutMs) * time.Millisecond
	c.RequestTimeout = time.Duration(c.RequestTimeoutMs) * time.Millisecond

	if c.JournalTTLSeconds <= 0 {
		return fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if c.JournalCleanupSeconds <= 0 {
		return fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	c.JournalTTL = time.Duration(c.JournalTTLSeconds) * time.Second
	c.JournalCleanupInterval = time.Duration(c.JournalCleanupSeconds) * time.Second

	c.JournalType = strings.ToLower(strings.TrimSpace(c.JournalType))
	c.ProxyURL = strings.TrimSpace(c.ProxyURL)
	c.SinksFile = strings.TrimSpace(c.SinksFile)
	return nil
}

// HTTPOptions maps the transport settings onto executor defaults.
func (c *Config) HTTPOptions() httpclient.Options {
	opts := httpclient.DefaultOptions()
	opts.ConnectTimeout = c.ConnectTimeout
	opts.Timeout = c.RequestTimeout
	opts.InsecureSkipVerify = !c.VerifyTLS
	opts.Proxy = c.ProxyURL
	opts.FollowRedirects = c.FollowRedirects
	if c.MaxRedirects > 0 {
		opts.MaxRedirects = c.MaxRedirects
	}
	opts.UserAgent = c.UserAgent
	opts.StrictMethods = c.StrictMethods
	return opts
}
