package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Katana    KatanaConfig
	Luca      LucaConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
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
}

// RedisConfig holds Redis connection settings. Redis backs the distributed
// pass locks; when Host is empty the service falls back to in-process locks.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
	AllowOrigins   []string
}

// KatanaConfig holds the Katana API client settings
type KatanaConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxResponseBytes caps how much of a vendor response is read
	MaxResponseBytes int64
}

// LucaConfig holds the Luca API client settings
type LucaConfig struct {
	BaseURL   string
	Username  string
	Password  string
	CompanyID string
	Timeout   time.Duration
	// SessionTTL bounds how long a cached login session is reused
	SessionTTL       time.Duration
	MaxResponseBytes int64
}

// SyncConfig tunes the synchronization and reconciliation engine
type SyncConfig struct {
	// Concurrency bounds the worker group within one pass
	Concurrency int
	// WatermarkLookback is subtracted from the incremental watermark to
	// absorb clock skew between Katana and this service
	WatermarkLookback time.Duration
	// MaxRetries caps automatic retry attempts per failed record
	MaxRetries int
	// RetryBaseDelay seeds the exponential backoff between retries
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the backoff
	RetryMaxDelay time.Duration
	// RetryBatchSize bounds one retry sweep
	RetryBatchSize int
	// ComparisonEpsilon is the monetary tolerance for reconciliation
	ComparisonEpsilon decimal.Decimal
	// ComparisonScale is the decimal scale used for monetary comparison
	ComparisonScale int32
	// LockTTL bounds how long a pass lock is held before it expires
	LockTTL time.Duration
}

// SchedulerConfig holds the background job settings
type SchedulerConfig struct {
	Enabled bool
	// SyncInterval is the period between automatic sync passes
	SyncInterval time.Duration
	// RetrySweepInterval is the period between retry sweeps
	RetrySweepInterval time.Duration
	// JobTimeout bounds one scheduled run
	JobTimeout time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with KL_ prefix (e.g., KL_DATABASE_PASSWORD)
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
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("KL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			AllowOrigins:   v.GetStringSlice("http.allow_origins"),
		},
		Katana: KatanaConfig{
			BaseURL:          v.GetString("katana.base_url"),
			APIKey:           v.GetString("katana.api_key"),
			Timeout:          v.GetDuration("katana.timeout"),
			MaxResponseBytes: v.GetInt64("katana.max_response_bytes"),
		},
		Luca: LucaConfig{
			BaseURL:          v.GetString("luca.base_url"),
			Username:         v.GetString("luca.username"),
			Password:         v.GetString("luca.password"),
			CompanyID:        v.GetString("luca.company_id"),
			Timeout:          v.GetDuration("luca.timeout"),
			SessionTTL:       v.GetDuration("luca.session_ttl"),
			MaxResponseBytes: v.GetInt64("luca.max_response_bytes"),
		},
		Sync: SyncConfig{
			Concurrency:       v.GetInt("sync.concurrency"),
			WatermarkLookback: v.GetDuration("sync.watermark_lookback"),
			MaxRetries:        v.GetInt("sync.max_retries"),
			RetryBaseDelay:    v.GetDuration("sync.retry_base_delay"),
			RetryMaxDelay:     v.GetDuration("sync.retry_max_delay"),
			RetryBatchSize:    v.GetInt("sync.retry_batch_size"),
			ComparisonScale:   int32(v.GetInt("sync.comparison_scale")),
			LockTTL:           v.GetDuration("sync.lock_ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			SyncInterval:       v.GetDuration("scheduler.sync_interval"),
			RetrySweepInterval: v.GetDuration("scheduler.retry_sweep_interval"),
			JobTimeout:         v.GetDuration("scheduler.job_timeout"),
		},
	}

	if epsilon := v.GetString("sync.comparison_epsilon"); epsilon != "" {
		parsed, err := decimal.NewFromString(epsilon)
		if err != nil {
			return nil, fmt.Errorf("sync.comparison_epsilon: %w", err)
		}
		cfg.Sync.ComparisonEpsilon = parsed
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
		cfg.App.Name = "katanaluca-backend"
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
		cfg.Database.DBName = "katanaluca"
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
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.Katana.Timeout == 0 {
		cfg.Katana.Timeout = 30 * time.Second
	}
	if cfg.Katana.MaxResponseBytes == 0 {
		cfg.Katana.MaxResponseBytes = 10 << 20
	}
	if cfg.Luca.Timeout == 0 {
		cfg.Luca.Timeout = 30 * time.Second
	}
	if cfg.Luca.SessionTTL == 0 {
		cfg.Luca.SessionTTL = 20 * time.Minute
	}
	if cfg.Luca.MaxResponseBytes == 0 {
		cfg.Luca.MaxResponseBytes = 10 << 20
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.Sync.WatermarkLookback == 0 {
		cfg.Sync.WatermarkLookback = 5 * time.Minute
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = 5
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 5 * time.Minute
	}
	if cfg.Sync.RetryMaxDelay == 0 {
		cfg.Sync.RetryMaxDelay = 6 * time.Hour
	}
	if cfg.Sync.RetryBatchSize == 0 {
		cfg.Sync.RetryBatchSize = 50
	}
	if cfg.Sync.ComparisonEpsilon.IsZero() {
		cfg.Sync.ComparisonEpsilon = decimal.NewFromFloat(0.01)
	}
	if cfg.Sync.ComparisonScale == 0 {
		cfg.Sync.ComparisonScale = 2
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 30 * time.Minute
	}
	if cfg.Scheduler.SyncInterval == 0 {
		cfg.Scheduler.SyncInterval = 15 * time.Minute
	}
	if cfg.Scheduler.RetrySweepInterval == 0 {
		cfg.Scheduler.RetrySweepInterval = 5 * time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
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

	if c.Sync.ComparisonEpsilon.IsNegative() {
		return fmt.Errorf("sync.comparison_epsilon cannot be negative")
	}
	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("sync.concurrency must be at least 1")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Katana.APIKey == "" {
			return fmt.Errorf("katana.api_key is required in production")
		}
		if c.Luca.Username == "" || c.Luca.Password == "" {
			return fmt.Errorf("luca credentials are required in production")
		}
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

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether Redis is configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}
