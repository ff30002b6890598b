package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Jobs      JobsConfig
	Vinted    VintedConfig
	Ebay      EbayConfig
	Crypto    CryptoConfig
	Storage   StorageConfig
	RabbitMQ  RabbitMQConfig
	Temporal  TemporalConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes

	// AutoMigrate applies pending migrations from MigrationsPath at server start
	AutoMigrate    bool
	MigrationsPath string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
	// PluginTokenExpiration bounds the tokens handed to the browser extension
	PluginTokenExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string

	// RateLimitPerSecond is the per-user request rate on /api/v1; 0 disables it
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// JobsConfig holds job runner and sweeper settings
type JobsConfig struct {
	Enabled            bool
	Workers            int
	PollInterval       time.Duration
	SweepInterval      time.Duration
	OrphanThreshold    time.Duration
	Retention          time.Duration
	CancelPollInterval time.Duration
	Marketplaces       []string // empty = all
}

// VintedConfig holds plugin bridge settings
type VintedConfig struct {
	CallTimeout    time.Duration
	RatePerSecond  float64
	RateBurst      int
	PingInterval   time.Duration
	MaxFrameBytes  int64
	AttributeCache time.Duration
}

// EbayConfig holds eBay API settings
type EbayConfig struct {
	APIBaseURL    string
	AuthBaseURL   string
	ClientID      string
	ClientSecret  string
	MarketplaceID string
	RatePerSecond float64
	RateBurst     int
	Timeout       time.Duration
	// Categories maps "category[:gender]" to an eBay category id
	Categories map[string]string
}

// CryptoConfig holds the key used to seal refresh tokens
type CryptoConfig struct {
	TokenKey string // 32 bytes, base64 or hex
}

// StorageConfig holds S3-compatible image storage settings
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignTTL      time.Duration
}

// RabbitMQConfig holds the lifecycle event publisher settings
type RabbitMQConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

// TemporalConfig holds workflow worker settings
type TemporalConfig struct {
	Enabled   bool
	HostPort  string
	Namespace string
	TaskQueue string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOFLOW_ prefix (e.g., STOFLOW_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MigrationsPath:  v.GetString("database.migrations_path"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			PluginTokenExpiration: v.GetDuration("jwt.plugin_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),

			RateLimitPerSecond: v.GetFloat64("http.rate_limit_per_second"),
			RateLimitBurst:     v.GetInt("http.rate_limit_burst"),
		},
		Jobs: JobsConfig{
			Enabled:            v.GetBool("jobs.enabled"),
			Workers:            v.GetInt("jobs.workers"),
			PollInterval:       v.GetDuration("jobs.poll_interval"),
			SweepInterval:      v.GetDuration("jobs.sweep_interval"),
			OrphanThreshold:    v.GetDuration("jobs.orphan_threshold"),
			Retention:          v.GetDuration("jobs.retention"),
			CancelPollInterval: v.GetDuration("jobs.cancel_poll_interval"),
			Marketplaces:       v.GetStringSlice("jobs.marketplaces"),
		},
		Vinted: VintedConfig{
			CallTimeout:    v.GetDuration("vinted.call_timeout"),
			RatePerSecond:  v.GetFloat64("vinted.rate_per_second"),
			RateBurst:      v.GetInt("vinted.rate_burst"),
			PingInterval:   v.GetDuration("vinted.ping_interval"),
			MaxFrameBytes:  v.GetInt64("vinted.max_frame_bytes"),
			AttributeCache: v.GetDuration("vinted.attribute_cache_ttl"),
		},
		Ebay: EbayConfig{
			APIBaseURL:    v.GetString("ebay.api_base_url"),
			AuthBaseURL:   v.GetString("ebay.auth_base_url"),
			ClientID:      v.GetString("ebay.client_id"),
			ClientSecret:  v.GetString("ebay.client_secret"),
			MarketplaceID: v.GetString("ebay.marketplace_id"),
			RatePerSecond: v.GetFloat64("ebay.rate_per_second"),
			RateBurst:     v.GetInt("ebay.rate_burst"),
			Timeout:       v.GetDuration("ebay.timeout"),
			Categories:    v.GetStringMapString("ebay.categories"),
		},
		Crypto: CryptoConfig{
			TokenKey: v.GetString("crypto.token_key"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignTTL:      v.GetDuration("storage.presign_ttl"),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  v.GetBool("rabbitmq.enabled"),
			URL:      v.GetString("rabbitmq.url"),
			Exchange: v.GetString("rabbitmq.exchange"),
		},
		Temporal: TemporalConfig{
			Enabled:   v.GetBool("temporal.enabled"),
			HostPort:  v.GetString("temporal.host_port"),
			Namespace: v.GetString("temporal.namespace"),
			TaskQueue: v.GetString("temporal.task_queue"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stoflow"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "stoflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "stoflow"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.PluginTokenExpiration == 0 {
		cfg.JWT.PluginTokenExpiration = 7 * 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.PollInterval == 0 {
		cfg.Jobs.PollInterval = 2 * time.Second
	}
	if cfg.Jobs.SweepInterval == 0 {
		cfg.Jobs.SweepInterval = time.Minute
	}
	if cfg.Jobs.OrphanThreshold == 0 {
		cfg.Jobs.OrphanThreshold = 15 * time.Minute
	}
	if cfg.Jobs.Retention == 0 {
		cfg.Jobs.Retention = 7 * 24 * time.Hour
	}
	if cfg.Jobs.CancelPollInterval == 0 {
		cfg.Jobs.CancelPollInterval = 2 * time.Second
	}
	if cfg.Vinted.CallTimeout == 0 {
		cfg.Vinted.CallTimeout = 60 * time.Second
	}
	if cfg.Vinted.RatePerSecond == 0 {
		cfg.Vinted.RatePerSecond = 1
	}
	if cfg.Vinted.RateBurst == 0 {
		cfg.Vinted.RateBurst = 3
	}
	if cfg.Vinted.PingInterval == 0 {
		cfg.Vinted.PingInterval = 30 * time.Second
	}
	if cfg.Vinted.MaxFrameBytes == 0 {
		cfg.Vinted.MaxFrameBytes = 8 << 20 // 8MB
	}
	if cfg.Vinted.AttributeCache == 0 {
		cfg.Vinted.AttributeCache = 10 * time.Minute
	}
	if cfg.Ebay.APIBaseURL == "" {
		cfg.Ebay.APIBaseURL = "https://api.ebay.com"
	}
	if cfg.Ebay.AuthBaseURL == "" {
		cfg.Ebay.AuthBaseURL = "https://api.ebay.com"
	}
	if cfg.Ebay.MarketplaceID == "" {
		cfg.Ebay.MarketplaceID = "EBAY_FR"
	}
	if cfg.Ebay.RatePerSecond == 0 {
		cfg.Ebay.RatePerSecond = 5
	}
	if cfg.Ebay.RateBurst == 0 {
		cfg.Ebay.RateBurst = 10
	}
	if cfg.Ebay.Timeout == 0 {
		cfg.Ebay.Timeout = 30 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-west-3"
	}
	if cfg.Storage.PresignTTL == 0 {
		cfg.Storage.PresignTTL = time.Hour
	}
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "stoflow.jobs"
	}
	if cfg.Temporal.HostPort == "" {
		cfg.Temporal.HostPort = "localhost:7233"
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = "default"
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "stoflow-marketplace-sync"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "stoflow"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Jobs.Workers < 0 {
		return fmt.Errorf("jobs.workers cannot be negative")
	}
	if c.Jobs.OrphanThreshold < c.Jobs.CancelPollInterval {
		return fmt.Errorf("jobs.orphan_threshold must be at least jobs.cancel_poll_interval")
	}
	if c.Vinted.RatePerSecond < 0 || c.Ebay.RatePerSecond < 0 {
		return fmt.Errorf("marketplace rate limits cannot be negative")
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("rabbitmq.url is required when rabbitmq.enabled is set")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.enabled is set")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Crypto.TokenKey == "" {
			return fmt.Errorf("crypto.token_key is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
