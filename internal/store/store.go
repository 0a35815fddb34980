// Package store persists parsed county documents. Inserts are idempotent:
// a record whose natural key already exists is skipped, never updated.
package store

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/config"
	"github.com/civisort/county-ingest/internal/model"
)

// Table names.
const (
	MinutesTable = "county_board_raw"
	PermitsTable = "county_permits_raw"
)

// Store defines the persistence interface for the ingest pipelines.
type Store interface {
	// InsertMinutes writes minutes rows and returns how many were new.
	InsertMinutes(ctx context.Context, records []model.MinutesRecord) (int64, error)
	// InsertPermits writes permit rows and returns how many were new.
	InsertPermits(ctx context.Context, records []model.PermitRecord) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// PersistenceError reports a failed write to a target table. The batch
// it belongs to is rolled back.
type PersistenceError struct {
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		s, err := NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
