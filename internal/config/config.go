package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	// Storage roots. Empty layer dirs are derived from DataDir.
	DataDir       string `envconfig:"DATA_DIR" default:"data"`
	SourcesFile   string `envconfig:"SOURCES_FILE" default:"configs/sources.csv"`
	RawDir        string `envconfig:"RAW_DIR"`
	StructuredDir string `envconfig:"STRUCTURED_DIR"`
	CorpusDir     string `envconfig:"CORPUS_DIR"`

	// Fetching
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	HTTPMaxRetries int           `envconfig:"HTTP_MAX_RETRIES" default:"3"`
	HTTPBackoff    time.Duration `envconfig:"HTTP_BACKOFF" default:"500ms"`
	HTTPUserAgent  string        `envconfig:"HTTP_USER_AGENT" default:"regcorpus/1.0 (+batch ingestion)"`

	// Export
	SplitRatio      float64 `envconfig:"SPLIT_RATIO" default:"0.8"`
	SplitSeed       uint64  `envconfig:"SPLIT_SEED" default:"42"`
	QualityMinChars int     `envconfig:"QUALITY_MIN_CHARS" default:"10"`
	QualityMaxChars int     `envconfig:"QUALITY_MAX_CHARS" default:"4000"`
	// ExportCreatedAt pins the created_at stamp (RFC3339) for reproducible corpora.
	ExportCreatedAt string `envconfig:"EXPORT_CREATED_AT"`

	// Logging
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Run ledger
	LedgerEnabled bool   `envconfig:"LEDGER_ENABLED" default:"false"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"regcorpus"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"regcorpus"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Events. Empty disables publishing.
	NSQDHost string `envconfig:"NSQD_HOST"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"5"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDerived() {
	if c.RawDir == "" {
		c.RawDir = filepath.Join(c.DataDir, "raw")
	}
	if c.StructuredDir == "" {
		c.StructuredDir = filepath.Join(c.DataDir, "structured")
	}
	if c.CorpusDir == "" {
		c.CorpusDir = filepath.Join(c.DataDir, "corpus")
	}
}

func (c *Config) Validate() error {
	if c.SourcesFile == "" {
		return fmt.Errorf("%w: SOURCES_FILE", ErrMissingRequired)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: DATA_DIR", ErrMissingRequired)
	}
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		return fmt.Errorf("%w: SPLIT_RATIO must be in (0,1), got %v", ErrInvalidValue, c.SplitRatio)
	}
	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("%w: HTTP_MAX_RETRIES must not be negative", ErrInvalidValue)
	}
	if c.QualityMinChars < 0 || c.QualityMaxChars <= c.QualityMinChars {
		return fmt.Errorf("%w: QUALITY_MIN_CHARS/QUALITY_MAX_CHARS", ErrInvalidValue)
	}
	if c.ExportCreatedAt != "" {
		if _, err := time.Parse(time.RFC3339, c.ExportCreatedAt); err != nil {
			return fmt.Errorf("%w: EXPORT_CREATED_AT: %v", ErrInvalidValue, err)
		}
	}
	if c.LedgerEnabled {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	return nil
}

// DSN returns the lib/pq connection string for the run ledger.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

// CreatedAt returns the pinned export timestamp, or the zero time when unset.
func (c *Config) CreatedAt() time.Time {
	if c.ExportCreatedAt == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, c.ExportCreatedAt)
	return t
}
