package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"regcorpus/internal/config"
	"regcorpus/internal/events"
)

// Dependencies are the optional external services. DB is nil when the run
// ledger is disabled and Producer is nil when NSQD_HOST is unset.
type Dependencies struct {
	DB       *sql.DB
	Producer *nsq.Producer
}

// Publisher returns the NSQ producer, or a no-op publisher without one.
func (d *Dependencies) Publisher() events.Publisher {
	if d == nil || d.Producer == nil {
		return events.Noop{}
	}
	return d.Producer
}

func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Producer != nil {
		d.Producer.Stop()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn("failed to close db", "error", err)
		}
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	if cfg.LedgerEnabled {
		db, err := OpenLedger(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.DB = db
	}

	if cfg.NSQDHost != "" {
		producer, err := events.NewNSQPublisher(cfg.NSQDHost)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Producer = producer
	}

	return deps, nil
}

// OpenLedger connects to Postgres, waiting for it to come up, and applies
// pending migrations.
func OpenLedger(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	if err := PingWithRetry(ctx, db, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.InfoContext(ctx, "migrations applied")

	return db, nil
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingWithRetry pings up to attempts times, sleeping delay between tries.
func PingWithRetry(ctx context.Context, p Pinger, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.PingContext(ctx); err == nil {
			return nil
		}
		slog.WarnContext(ctx, "failed to ping db, retrying...", "attempt", i+1, "max_attempts", attempts)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
