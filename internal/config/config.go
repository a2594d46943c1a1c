package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type ImportOptions struct {
	BatchSize           int           `env:"BATCH_SIZE" envDefault:"100"`
	ConfidenceThreshold float64       `env:"CONFIDENCE_THRESHOLD" envDefault:"0.5"`
	FuzzyThreshold      float64       `env:"FUZZY_THRESHOLD" envDefault:"0.85"`
	MaxFileMB           int           `env:"MAX_FILE_MB" envDefault:"20"`
	QueueSize           int           `env:"QUEUE_SIZE" envDefault:"10"`
	UpdateExisting      bool          `env:"UPDATE_EXISTING" envDefault:"true"`
	CheckEmailDomains   bool          `env:"CHECK_EMAIL_DOMAINS" envDefault:"false"`
	JobTTL              time.Duration `env:"JOB_TTL" envDefault:"24h"`
	LockTTL             time.Duration `env:"LOCK_TTL" envDefault:"30m"`
}

// MaxFileBytes is the upload limit in bytes.
func (o ImportOptions) MaxFileBytes() int64 {
	return int64(o.MaxFileMB) << 20
}

type S3Options struct {
	Enabled         bool   `env:"ENABLED" envDefault:"false"`
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"eu-south-1"`
	EndpointURL     string `env:"ENDPOINT_URL"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

type Config struct {
	ServerPort     string `env:"SERVER_PORT" envDefault:"8080"`
	DBDriver       string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBUrl          string `env:"DATABASE_URL" envDefault:"gestionale.db"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
	RedisURL       string `env:"REDIS_URL"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Import ImportOptions `envPrefix:"IMPORT_"`
	S3     S3Options     `envPrefix:"S3_"`
}

// Load reads .env files when present, then the process environment.
func Load() (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}
	return parse(env.Options{})
}

func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}
	if c.DBUrl == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Import.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.Import.BatchSize))
	}
	if c.Import.ConfidenceThreshold <= 0 || c.Import.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("IMPORT_CONFIDENCE_THRESHOLD must be in (0,1], got %v", c.Import.ConfidenceThreshold))
	}
	if c.Import.FuzzyThreshold <= 0 || c.Import.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("IMPORT_FUZZY_THRESHOLD must be in (0,1], got %v", c.Import.FuzzyThreshold))
	}
	if c.Import.MaxFileMB <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_MAX_FILE_MB must be positive, got %d", c.Import.MaxFileMB))
	}
	if c.Import.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_QUEUE_SIZE must be positive, got %d", c.Import.QueueSize))
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when S3 is enabled"))
		}
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3 is enabled"))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}
