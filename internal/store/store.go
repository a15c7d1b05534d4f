package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

type Store struct {
	db     *sql.DB
	driver Driver
}

// New opens a SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open connects to the given backend and applies the schema.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'student',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS test_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	test_type TEXT NOT NULL,
	time_taken INTEGER NOT NULL DEFAULT 0,
	total_questions INTEGER NOT NULL,
	correct INTEGER NOT NULL,
	incorrect INTEGER NOT NULL,
	unattempted INTEGER NOT NULL,
	score INTEGER NOT NULL,
	max_score INTEGER NOT NULL,
	percentage REAL NOT NULL,
	accuracy REAL NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results(user_id, created_at);

CREATE TABLE IF NOT EXISTS test_result_questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	result_id INTEGER NOT NULL REFERENCES test_results(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	subject TEXT NOT NULL,
	chapter TEXT NOT NULL,
	user_answer INTEGER,
	correct_index INTEGER NOT NULL,
	is_correct BOOLEAN NOT NULL,
	is_attempted BOOLEAN NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'student',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS test_results (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	test_type TEXT NOT NULL,
	time_taken INTEGER NOT NULL DEFAULT 0,
	total_questions INTEGER NOT NULL,
	correct INTEGER NOT NULL,
	incorrect INTEGER NOT NULL,
	unattempted INTEGER NOT NULL,
	score INTEGER NOT NULL,
	max_score INTEGER NOT NULL,
	percentage DOUBLE PRECISION NOT NULL,
	accuracy DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results(user_id, created_at);

CREATE TABLE IF NOT EXISTS test_result_questions (
	id BIGSERIAL PRIMARY KEY,
	result_id BIGINT NOT NULL REFERENCES test_results(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	subject TEXT NOT NULL,
	chapter TEXT NOT NULL,
	user_answer INTEGER,
	correct_index INTEGER NOT NULL,
	is_correct BOOLEAN NOT NULL,
	is_attempted BOOLEAN NOT NULL
);
`

// isUniqueViolation reports whether err is a unique constraint failure on
// either backend.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
