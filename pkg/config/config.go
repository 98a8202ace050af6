package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "20060102"

// Config holds all application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	OpenFDA  OpenFDAConfig  `yaml:"openfda"`
	Sink     SinkConfig     `yaml:"sink"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	OTEL     OTELConfig     `yaml:"otel"`
}

// AppConfig holds process-level settings
type AppConfig struct {
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// PipelineConfig holds the run parameters of the ETL job
type PipelineConfig struct {
	MaxRows   int    `yaml:"max_rows"`
	Workers   int    `yaml:"workers"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// OpenFDAConfig holds openFDA API configuration
type OpenFDAConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	PageSize  int           `yaml:"page_size"`
	PageDelay time.Duration `yaml:"page_delay"`
}

// SinkConfig selects where transformed rows are written
type SinkConfig struct {
	Driver     string `yaml:"driver"`
	Table      string `yaml:"table"`
	SQLitePath string `yaml:"sqlite_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LabelTTL time.Duration `yaml:"label_ttl"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Endpoint       string `yaml:"endpoint"`
	Enabled        bool   `yaml:"enabled"`
}

// Sink drivers
const (
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
	SinkNone     = "none"
)

// Load loads configuration from environment variables. Values from the env
// file (config.env unless ETL_ENV_FILE says otherwise) are applied first and
// never override variables already set in the process environment.
func Load() (*Config, error) {
	envFile := getEnv("ETL_ENV_FILE", "config.env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:         getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			MetricsAddr: getEnv("METRICS_ADDR", ""),
		},
		Pipeline: PipelineConfig{
			MaxRows:   getEnvAsInt("MAX_ROWS", 1000),
			Workers:   getEnvAsInt("WORKERS", 5),
			StartDate: getEnv("EVENT_START_DATE", "20240901"),
			EndDate:   getEnv("EVENT_END_DATE", "20241231"),
		},
		OpenFDA: OpenFDAConfig{
			BaseURL:   getEnv("OPENFDA_BASE_URL", "https://api.fda.gov"),
			APIKey:    getEnv("OPENFDA_API_KEY", ""),
			Timeout:   getEnvAsDuration("OPENFDA_TIMEOUT", 30*time.Second),
			PageSize:  getEnvAsInt("OPENFDA_PAGE_SIZE", 100),
			PageDelay: getEnvAsDuration("OPENFDA_PAGE_DELAY", 500*time.Millisecond),
		},
		Sink: SinkConfig{
			Driver:     strings.ToLower(getEnv("SINK_DRIVER", SinkPostgres)),
			Table:      getEnv("DB_TABLE", "drug_events"),
			SQLitePath: getEnv("SQLITE_PATH", "data/drug_events.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "drug_events"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LabelTTL: getEnvAsDuration("LABEL_CACHE_TTL", 24*time.Hour),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "drugevents-etl"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the environment configuration and overlays the YAML file at
// path on top of it. Keys absent from the file keep their environment value.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Sink.Driver = strings.ToLower(cfg.Sink.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the pipeline cannot run without
func (c *Config) Validate() error {
	if c.Pipeline.MaxRows <= 0 {
		return fmt.Errorf("MAX_ROWS must be positive, got %d", c.Pipeline.MaxRows)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Pipeline.Workers)
	}
	if c.OpenFDA.PageSize < 1 || c.OpenFDA.PageSize > 1000 {
		return fmt.Errorf("OPENFDA_PAGE_SIZE must be within 1..1000, got %d", c.OpenFDA.PageSize)
	}

	start, err := time.Parse(dateLayout, c.Pipeline.StartDate)
	if err != nil {
		return fmt.Errorf("EVENT_START_DATE must be YYYYMMDD: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Pipeline.EndDate)
	if err != nil {
		return fmt.Errorf("EVENT_END_DATE must be YYYYMMDD: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("EVENT_END_DATE %s is before EVENT_START_DATE %s", c.Pipeline.EndDate, c.Pipeline.StartDate)
	}

	switch c.Sink.Driver {
	case SinkPostgres, SinkSQLite, SinkNone:
	default:
		return fmt.Errorf("unknown SINK_DRIVER %q", c.Sink.Driver)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
