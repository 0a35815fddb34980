package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civisort/county-ingest/internal/model"
)

// sqliteDateLayout is how DATE columns are stored in SQLite.
const sqliteDateLayout = "2006-01-02"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS county_board_raw (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	meeting_date TEXT NOT NULL,
	committee    TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS county_permits_raw (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file_date   TEXT NOT NULL,
	permit_no   TEXT,
	address     TEXT,
	description TEXT NOT NULL,
	pdf_url     TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_county_board_raw_meeting_date ON county_board_raw(meeting_date);
CREATE INDEX IF NOT EXISTS idx_county_permits_raw_file_date ON county_permits_raw(file_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertMinutes(ctx context.Context, records []model.MinutesRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.MeetingDate.Format(sqliteDateLayout), r.Committee, r.DocType, r.URL}
	}
	return s.insertIgnore(ctx, MinutesTable,
		`INSERT INTO county_board_raw (meeting_date, committee, doc_type, url) VALUES (?, ?, ?, ?) ON CONFLICT(url) DO NOTHING`,
		rows)
}

func (s *SQLiteStore) InsertPermits(ctx context.Context, records []model.PermitRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.FileDate.Format(sqliteDateLayout), r.PermitNumber, r.Address, r.Description, r.PDFURL}
	}
	return s.insertIgnore(ctx, PermitsTable,
		`INSERT INTO county_permits_raw (file_date, permit_no, address, description, pdf_url) VALUES (?, ?, ?, ?, ?) ON CONFLICT(pdf_url) DO NOTHING`,
		rows)
}

// insertIgnore runs one statement per row inside a single transaction and
// sums the rows that were actually written.
func (s *SQLiteStore) insertIgnore(ctx context.Context, table, query string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Table: table, Err: eris.Wrap(err, "sqlite: begin tx")}
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, &PersistenceError{Table: table, Err: eris.Wrap(err, "sqlite: prepare insert")}
	}
	defer stmt.Close() //nolint:errcheck

	var inserted int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, &PersistenceError{Table: table, Err: eris.Wrap(err, "sqlite: insert row")}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &PersistenceError{Table: table, Err: eris.Wrap(err, "sqlite: rows affected")}
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Table: table, Err: eris.Wrap(err, "sqlite: commit tx")}
	}
	return inserted, nil
}
