package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverCSV      = "csv"
)

// Config holds all configuration for the registry
type Config struct {
	App           AppConfig
	Log           LogConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Lookup        LookupConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Policy        PolicyConfig
	ObjectStorage ObjectStorageConfig
	Metrics       MetricsConfig
	Import        ImportConfig
	Telemetry     TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string // debug, info, warn, error
	Format      string // json, console
	Output      string // stdout, stderr, or file path
	ErrorOutput string // optional second sink for error entries: stderr or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string
	Env  string
}

// StorageConfig selects where patients are kept
type StorageConfig struct {
	Driver   string // sqlite, postgres, csv
	Path     string // sqlite database file or csv file
	PageSize int    // rows fetched per query by Collection.Limit
}

// DatabaseConfig holds postgres connection configuration
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
}

// LookupConfig configures the name and surname registries
type LookupConfig struct {
	Enabled    bool
	NameURL    string
	SurnameURL string
	Timeout    time.Duration
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // lifetime of cached lookup answers
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodySize  int64
}

// PolicyConfig holds the typo guard thresholds
type PolicyConfig struct {
	NameThreshold       int
	DocumentIDThreshold int
	BirthDateThreshold  int
	GuardBirthDate      bool
}

// ObjectStorageConfig holds S3-compatible storage configuration for exports
type ObjectStorageConfig struct {
	Enabled         bool
	Endpoint        string // empty for AWS, set for MinIO/RustFS
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// MetricsConfig holds prometheus configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// TelemetryConfig holds OpenTelemetry configuration. Everything is off
// unless Enabled is set.
type TelemetryConfig struct {
	Enabled            bool
	CollectorEndpoint  string // OTLP gRPC host:port
	Insecure           bool
	SamplingRatio      float64
	DBTracing          bool          // spans for gorm queries
	SlowQueryThreshold time.Duration // queries at or above it are flagged on their span
	Logs               bool          // also export log entries to the collector
}

// ImportConfig holds CSV import configuration
type ImportConfig struct {
	FallbackCharset string // windows-1251, koi8-r, cp866; empty for UTF-8 only
}

// Load reads config.toml from the working directory and the environment
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from the given TOML file, or from config.toml
// in the usual locations when path is empty. Environment variables prefixed
// with REGISTRY_ override file values: REGISTRY_STORAGE_DRIVER=postgres.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/registry")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// zero is a meaningful threshold, so these cannot go through applyDefaults
	v.SetDefault("policy.name_threshold", 59)
	v.SetDefault("policy.document_id_threshold", 79)
	v.SetDefault("policy.birth_date_threshold", 81)
	v.SetDefault("telemetry.sampling_ratio", 1.0)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Format:      v.GetString("log.format"),
			Output:      v.GetString("log.output"),
			ErrorOutput: v.GetString("log.error_output"),
		},
		Storage: StorageConfig{
			Driver:   v.GetString("storage.driver"),
			Path:     v.GetString("storage.path"),
			PageSize: v.GetInt("storage.page_size"),
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
		},
		Lookup: LookupConfig{
			Enabled:    v.GetBool("lookup.enabled"),
			NameURL:    v.GetString("lookup.name_url"),
			SurnameURL: v.GetString("lookup.surname_url"),
			Timeout:    v.GetDuration("lookup.timeout"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		HTTP: HTTPConfig{
			Port:         v.GetString("http.port"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			MaxBodySize:  v.GetInt64("http.max_body_size"),
		},
		Policy: PolicyConfig{
			NameThreshold:       v.GetInt("policy.name_threshold"),
			DocumentIDThreshold: v.GetInt("policy.document_id_threshold"),
			BirthDateThreshold:  v.GetInt("policy.birth_date_threshold"),
			GuardBirthDate:      v.GetBool("policy.guard_birth_date"),
		},
		ObjectStorage: ObjectStorageConfig{
			Enabled:         v.GetBool("object_storage.enabled"),
			Endpoint:        v.GetString("object_storage.endpoint"),
			Region:          v.GetString("object_storage.region"),
			Bucket:          v.GetString("object_storage.bucket"),
			AccessKeyID:     v.GetString("object_storage.access_key_id"),
			SecretAccessKey: v.GetString("object_storage.secret_access_key"),
			UsePathStyle:    v.GetBool("object_storage.use_path_style"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Import: ImportConfig{
			FallbackCharset: v.GetString("import.fallback_charset"),
		},
		Telemetry: TelemetryConfig{
			Enabled:            v.GetBool("telemetry.enabled"),
			CollectorEndpoint:  v.GetString("telemetry.collector_endpoint"),
			Insecure:           v.GetBool("telemetry.insecure"),
			SamplingRatio:      v.GetFloat64("telemetry.sampling_ratio"),
			DBTracing:          v.GetBool("telemetry.db_tracing"),
			SlowQueryThreshold: v.GetDuration("telemetry.slow_query_threshold"),
			Logs:               v.GetBool("telemetry.logs"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "patient-registry"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case DriverCSV:
			cfg.Storage.Path = "patients.csv"
		default:
			cfg.Storage.Path = "registry.db"
		}
	}
	if cfg.Storage.PageSize == 0 {
		cfg.Storage.PageSize = 100
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
		cfg.Database.DBName = "covid"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Lookup.NameURL == "" {
		cfg.Lookup.NameURL = "http://imenator.ru"
	}
	if cfg.Lookup.SurnameURL == "" {
		cfg.Lookup.SurnameURL = "http://www.ufolog.ru"
	}
	if cfg.Lookup.Timeout == 0 {
		cfg.Lookup.Timeout = 5 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
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
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.ObjectStorage.Region == "" {
		cfg.ObjectStorage.Region = "us-east-1"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SlowQueryThreshold == 0 {
		cfg.Telemetry.SlowQueryThreshold = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres, DriverCSV:
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, postgres, csv, got %q", c.Storage.Driver)
	}
	if c.Storage.PageSize < 0 {
		return fmt.Errorf("storage.page_size cannot be negative")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	for name, threshold := range map[string]int{
		"policy.name_threshold":        c.Policy.NameThreshold,
		"policy.document_id_threshold": c.Policy.DocumentIDThreshold,
		"policy.birth_date_threshold":  c.Policy.BirthDateThreshold,
	} {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", name, threshold)
		}
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)
	}

	if c.ObjectStorage.Enabled && c.ObjectStorage.Bucket == "" {
		return fmt.Errorf("object_storage.bucket is required when object storage is enabled")
	}

	if c.App.Env == "production" && c.Storage.Driver == DriverPostgres {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
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
