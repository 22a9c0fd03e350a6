package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	Artwork   ArtworkConfig   `mapstructure:"artwork" yaml:"artwork"`
	Ingest    IngestConfig    `mapstructure:"ingest" yaml:"ingest"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Mail      MailConfig      `mapstructure:"mail" yaml:"mail"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // "auto", "console" or "json"
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  int    `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`
}

// CatalogConfig configures the TheTVDB XML API client.
type CatalogConfig struct {
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	APIKey        string `mapstructure:"api_key" yaml:"api_key"`
	Language      string `mapstructure:"language" yaml:"language"`
	Timeout       int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	RetryAttempts int    `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	Mock          bool   `mapstructure:"mock" yaml:"mock"`
}

// ArtworkConfig configures poster downloads.
type ArtworkConfig struct {
	BannerURL string `mapstructure:"banner_url" yaml:"banner_url"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxBytes  int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	Timeout       int `mapstructure:"timeout" yaml:"timeout"`               // seconds
	PosterTimeout int `mapstructure:"poster_timeout" yaml:"poster_timeout"` // seconds
}

// SchedulerConfig configures the alert scheduler.
type SchedulerConfig struct {
	Timezone      string `mapstructure:"timezone" yaml:"timezone"`
	LeadMinutes   int    `mapstructure:"lead_minutes" yaml:"lead_minutes"`
	LockPath      string `mapstructure:"lock_path" yaml:"lock_path"`
	ReconcileCron string `mapstructure:"reconcile_cron" yaml:"reconcile_cron"`
}

// MailConfig configures outgoing alert email.
type MailConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Server     string `mapstructure:"server" yaml:"server"`
	Port       int    `mapstructure:"port" yaml:"port"`
	Encryption string `mapstructure:"encryption" yaml:"encryption"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	From       string `mapstructure:"from" yaml:"from"`
	UseHTML    bool   `mapstructure:"use_html" yaml:"use_html"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Path: "./data/tvtracker.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Auth: AuthConfig{
			JWTSecret: "", // Generated and persisted if empty
			TokenTTL:  24 * 7,
		},
		Catalog: CatalogConfig{
			BaseURL:       "http://thetvdb.com/api",
			APIKey:        EmbeddedCatalogKey,
			Language:      "en",
			Timeout:       10,
			RetryAttempts: 3,
		},
		Artwork: ArtworkConfig{
			BannerURL: "http://thetvdb.com/banners",
			Timeout:   15,
			MaxBytes:  5 << 20,
		},
		Ingest: IngestConfig{
			Timeout:       60,
			PosterTimeout: 20,
		},
		Scheduler: SchedulerConfig{
			Timezone:      "Local",
			LeadMinutes:   120,
			LockPath:      "./data/scheduler.lock",
			ReconcileCron: "0 * * * *",
		},
		Mail: MailConfig{
			Port:       587,
			Encryption: "preferred",
			From:       "TVTracker <alerts@tvtracker.local>",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tvtracker")
	}

	v.SetEnvPrefix("TVTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default() into viper so env-only keys resolve.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl_hours", d.Auth.TokenTTL)

	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.api_key", d.Catalog.APIKey)
	v.SetDefault("catalog.language", d.Catalog.Language)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.retry_attempts", d.Catalog.RetryAttempts)
	v.SetDefault("catalog.mock", d.Catalog.Mock)

	v.SetDefault("artwork.banner_url", d.Artwork.BannerURL)
	v.SetDefault("artwork.timeout", d.Artwork.Timeout)
	v.SetDefault("artwork.max_bytes", d.Artwork.MaxBytes)

	v.SetDefault("ingest.timeout", d.Ingest.Timeout)
	v.SetDefault("ingest.poster_timeout", d.Ingest.PosterTimeout)

	v.SetDefault("scheduler.timezone", d.Scheduler.Timezone)
	v.SetDefault("scheduler.lead_minutes", d.Scheduler.LeadMinutes)
	v.SetDefault("scheduler.lock_path", d.Scheduler.LockPath)
	v.SetDefault("scheduler.reconcile_cron", d.Scheduler.ReconcileCron)

	v.SetDefault("mail.enabled", d.Mail.Enabled)
	v.SetDefault("mail.server", d.Mail.Server)
	v.SetDefault("mail.port", d.Mail.Port)
	v.SetDefault("mail.encryption", d.Mail.Encryption)
	v.SetDefault("mail.username", d.Mail.Username)
	v.SetDefault("mail.password", d.Mail.Password)
	v.SetDefault("mail.from", d.Mail.From)
	v.SetDefault("mail.use_html", d.Mail.UseHTML)
}

// Validate checks values that would otherwise fail deep inside a service.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
	}
	if c.Scheduler.LeadMinutes < 0 {
		return fmt.Errorf("scheduler lead_minutes must not be negative")
	}
	if c.Mail.Enabled && c.Mail.Server == "" {
		return fmt.Errorf("mail server is required when mail is enabled")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the configured timezone. Empty and "Local" mean the host zone.
func (c *SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Lead returns how long before the broadcast an alert fires.
func (c *SchedulerConfig) Lead() time.Duration {
	return time.Duration(c.LeadMinutes) * time.Minute
}
