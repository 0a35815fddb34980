package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/db"
	"github.com/civisort/county-ingest/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
}

var (
	minutesInsert = db.InsertConfig{
		Table:        MinutesTable,
		Columns:      []string{"meeting_date", "committee", "doc_type", "url"},
		ConflictKeys: []string{"url"},
	}
	permitsInsert = db.InsertConfig{
		Table:        PermitsTable,
		Columns:      []string{"file_date", "permit_no", "address", "description", "pdf_url"},
		ConflictKeys: []string{"pdf_url"},
	}
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	if poolCfg != nil && poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS county_board_raw (
	id           BIGSERIAL PRIMARY KEY,
	meeting_date DATE NOT NULL,
	committee    TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS county_permits_raw (
	id          BIGSERIAL PRIMARY KEY,
	file_date   DATE NOT NULL,
	permit_no   TEXT,
	address     TEXT,
	description TEXT NOT NULL,
	pdf_url     TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_county_board_raw_meeting_date ON county_board_raw(meeting_date);
CREATE INDEX IF NOT EXISTS idx_county_permits_raw_file_date ON county_permits_raw(file_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertMinutes(ctx context.Context, records []model.MinutesRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.MeetingDate, r.Committee, r.DocType, r.URL}
	}
	n, err := db.BulkInsertIgnore(ctx, s.pool, minutesInsert, rows)
	if err != nil {
		return 0, &PersistenceError{Table: MinutesTable, Err: err}
	}
	return n, nil
}

func (s *PostgresStore) InsertPermits(ctx context.Context, records []model.PermitRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.FileDate, r.PermitNumber, r.Address, r.Description, r.PDFURL}
	}
	n, err := db.BulkInsertIgnore(ctx, s.pool, permitsInsert, rows)
	if err != nil {
		return 0, &PersistenceError{Table: PermitsTable, Err: err}
	}
	return n, nil
}
