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
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Auth        AuthConfig
	Source      SourceConfig
	Registry    RegistryConfig
	Translation TranslationConfig
	Sync        SyncConfig
	Scheduler   SchedulerConfig
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

// RedisConfig holds Redis connection settings for the lookup cache.
// Enabled=false keeps the in-memory store.
type RedisConfig struct {
	Enabled  bool
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
	TrustedProxies []string
}

// AuthConfig holds the static bearer secret guarding admin endpoints.
type AuthConfig struct {
	SyncSecret string
}

// SourceConfig holds the property CRM credentials and endpoint.
type SourceConfig struct {
	BaseURL      string
	AgencyNumber int
	AgencySuffix int // multi-branch agency suffix appended to the number
	Password     string
	LanguageID   int
	Domain       string // domain authorized by the CRM
	ClientIP     string // IP authorized by the CRM
	PhotoBaseURL string
	UserAgent    string
	Timeout      time.Duration
	PageSize     int
}

// RegistryConfig holds the cadastral registry endpoints and its call
// budget. BaseURLs are tried in order when a host is unreachable.
type RegistryConfig struct {
	BaseURLs        []string
	Timeout         time.Duration
	RateLimitCalls  int
	RateLimitWindow time.Duration
	CacheTTL        time.Duration
}

// TranslationConfig holds the LLM engine settings.
type TranslationConfig struct {
	APIURL          string
	APIKey          string
	Model           string
	Temperature     float64
	PricePerKTokens string // decimal string, EUR per 1000 tokens
	MaxSourceChars  int
	Timeout         time.Duration
}

// SyncConfig bounds sync batches and paces photo-producing writes.
type SyncConfig struct {
	DefaultBatchSize int
	MaxBatchSize     int
	WriteDelay       time.Duration
}

// SchedulerConfig drives the periodic incremental sync trigger.
// JobTimeout bounds one triggered batch independently of the tick
// interval, so a slow batch is not cut off by the next tick.
type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	JobTimeout time.Duration
	BatchSize  int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with VIDA_ prefix (e.g., VIDA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("VIDA")
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
			Enabled:  v.GetBool("redis.enabled"),
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
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Auth: AuthConfig{
			SyncSecret: v.GetString("auth.sync_secret"),
		},
		Source: SourceConfig{
			BaseURL:      v.GetString("source.base_url"),
			AgencyNumber: v.GetInt("source.agency_number"),
			AgencySuffix: v.GetInt("source.agency_suffix"),
			Password:     v.GetString("source.password"),
			LanguageID:   v.GetInt("source.language_id"),
			Domain:       v.GetString("source.domain"),
			ClientIP:     v.GetString("source.client_ip"),
			PhotoBaseURL: v.GetString("source.photo_base_url"),
			UserAgent:    v.GetString("source.user_agent"),
			Timeout:      v.GetDuration("source.timeout"),
			PageSize:     v.GetInt("source.page_size"),
		},
		Registry: RegistryConfig{
			BaseURLs:        v.GetStringSlice("registry.base_urls"),
			Timeout:         v.GetDuration("registry.timeout"),
			RateLimitCalls:  v.GetInt("registry.rate_limit_calls"),
			RateLimitWindow: v.GetDuration("registry.rate_limit_window"),
			CacheTTL:        v.GetDuration("registry.cache_ttl"),
		},
		Translation: TranslationConfig{
			APIURL:          v.GetString("translation.api_url"),
			APIKey:          v.GetString("translation.api_key"),
			Model:           v.GetString("translation.model"),
			Temperature:     v.GetFloat64("translation.temperature"),
			PricePerKTokens: v.GetString("translation.price_per_k_tokens"),
			MaxSourceChars:  v.GetInt("translation.max_source_chars"),
			Timeout:         v.GetDuration("translation.timeout"),
		},
		Sync: SyncConfig{
			DefaultBatchSize: v.GetInt("sync.default_batch_size"),
			MaxBatchSize:     v.GetInt("sync.max_batch_size"),
			WriteDelay:       v.GetDuration("sync.write_delay"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			Interval:   v.GetDuration("scheduler.interval"),
			JobTimeout: v.GetDuration("scheduler.job_timeout"),
			BatchSize:  v.GetInt("scheduler.batch_size"),
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
		cfg.App.Name = "vidahome-backend"
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
		cfg.Database.DBName = "vidahome"
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
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
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
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = "https://apiweb.inmovilla.com/apiweb/apiweb.php"
	}
	if cfg.Source.LanguageID == 0 {
		cfg.Source.LanguageID = 1
	}
	if cfg.Source.PhotoBaseURL == "" {
		cfg.Source.PhotoBaseURL = "https://fotos15.inmovilla.com"
	}
	if cfg.Source.UserAgent == "" {
		// The CRM gateway rejects unknown agents.
		cfg.Source.UserAgent = "Mozilla/4.0 (compatible; MSIE 6.0; Windows NT 5.1)"
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}
	if cfg.Source.PageSize == 0 {
		cfg.Source.PageSize = 50
	}
	if len(cfg.Registry.BaseURLs) == 0 {
		cfg.Registry.BaseURLs = []string{
			"https://ovc.catastro.meh.es/OVCServWeb/OVCWcfCallejero/COVCCallejero.svc/json",
			"https://ovc.catastro.hacienda.gob.es/OVCServWeb/OVCWcfCallejero/COVCCallejero.svc/json",
		}
	}
	if cfg.Registry.Timeout == 0 {
		cfg.Registry.Timeout = 20 * time.Second
	}
	if cfg.Registry.RateLimitCalls == 0 {
		cfg.Registry.RateLimitCalls = 30
	}
	if cfg.Registry.RateLimitWindow == 0 {
		cfg.Registry.RateLimitWindow = time.Minute
	}
	if cfg.Registry.CacheTTL == 0 {
		cfg.Registry.CacheTTL = 24 * time.Hour
	}
	if cfg.Translation.APIURL == "" {
		cfg.Translation.APIURL = "https://api.perplexity.ai/chat/completions"
	}
	if cfg.Translation.Model == "" {
		cfg.Translation.Model = "sonar"
	}
	if cfg.Translation.Temperature == 0 {
		cfg.Translation.Temperature = 0.4
	}
	if cfg.Translation.PricePerKTokens == "" {
		cfg.Translation.PricePerKTokens = "0.0002"
	}
	if cfg.Translation.MaxSourceChars == 0 {
		cfg.Translation.MaxSourceChars = 500
	}
	if cfg.Translation.Timeout == 0 {
		cfg.Translation.Timeout = 60 * time.Second
	}
	if cfg.Sync.DefaultBatchSize == 0 {
		cfg.Sync.DefaultBatchSize = 10
	}
	if cfg.Sync.MaxBatchSize == 0 {
		cfg.Sync.MaxBatchSize = 30
	}
	if cfg.Sync.WriteDelay == 0 {
		cfg.Sync.WriteDelay = 200 * time.Millisecond
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 15 * time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = cfg.Sync.DefaultBatchSize
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

	if c.Sync.DefaultBatchSize <= 0 {
		return fmt.Errorf("sync.default_batch_size must be positive")
	}
	if c.Sync.MaxBatchSize < c.Sync.DefaultBatchSize {
		return fmt.Errorf("sync.max_batch_size (%d) cannot be below sync.default_batch_size (%d)",
			c.Sync.MaxBatchSize, c.Sync.DefaultBatchSize)
	}
	if c.Registry.RateLimitCalls <= 0 {
		return fmt.Errorf("registry.rate_limit_calls must be positive")
	}

	if c.App.Env == "production" {
		if c.Auth.SyncSecret == "" {
			return fmt.Errorf("auth.sync_secret is required in production")
		}
		if len(c.Auth.SyncSecret) < 32 {
			return fmt.Errorf("auth.sync_secret must be at least 32 characters in production")
		}
		if c.Source.AgencyNumber == 0 || c.Source.Password == "" {
			return fmt.Errorf("source.agency_number and source.password are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Translation.APIKey == "" {
			return fmt.Errorf("translation.api_key is required in production")
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

// Addr returns the host:port address of the Redis server.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
