package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRecorder persists parse outcomes to a local SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	dbPath string
}

const outcomeSchema = `
CREATE TABLE IF NOT EXISTS parse_outcomes (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id       TEXT NOT NULL,
	processed_at     TIMESTAMP NOT NULL,
	duration_ms      INTEGER NOT NULL,
	confidence       REAL NOT NULL,
	method           TEXT NOT NULL,
	decision_state   TEXT NOT NULL,
	date_provenance  TEXT NOT NULL,
	category_count   INTEGER NOT NULL,
	type_count       INTEGER NOT NULL,
	identifier_count INTEGER NOT NULL,
	ml_skipped       BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_parse_outcomes_processed_at ON parse_outcomes(processed_at);
`

// NewSQLiteRecorder opens (or creates) the outcome database at dbPath.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("audit database path is empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	if _, err := db.Exec(outcomeSchema); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	return &SQLiteRecorder{db: db, dbPath: dbPath}, nil
}

// Record inserts one outcome row.
func (r *SQLiteRecorder) Record(ctx context.Context, o Outcome) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parse_outcomes (
			request_id, processed_at, duration_ms, confidence, method,
			decision_state, date_provenance, category_count, type_count,
			identifier_count, ml_skipped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RequestID, o.ProcessedAt, o.Duration.Milliseconds(), o.Confidence,
		string(o.Method), o.DecisionState, string(o.DateProvenance),
		o.CategoryCount, o.TypeCount, o.IdentifierCount, o.MLSkipped)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Count returns the number of recorded outcomes, for reporting and tests.
func (r *SQLiteRecorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parse_outcomes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outcomes: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
