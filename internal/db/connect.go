package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB, tunes the pool for the driver and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examclock.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examclock?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	tunePool(driver, db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WithTx starts a transaction, runs fn, and commits if fn returns nil.
// If fn returns an error (or panics) the transaction is rolled back and the
// error is returned unchanged so callers can still match on it.
func WithTx(ctx context.Context, d *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) (err error) {
	tx, err := d.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}

// tunePool keeps SQLite to a single connection so it behaves as a single
// writer; every transaction on it is serialized.
func tunePool(driver Driver, db *sql.DB) {
	maxOpen := 20
	maxIdle := 10
	connLife := 45 * time.Minute
	idleLife := 15 * time.Minute

	if driver == DriverSQLite {
		maxOpen = 1
		maxIdle = 1
		connLife = 0
		idleLife = 0
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLife)
	db.SetConnMaxIdleTime(idleLife)
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS exams (
  code TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  subject_code TEXT NOT NULL DEFAULT '',
  teacher_code TEXT NOT NULL DEFAULT '',
  year_code TEXT NOT NULL DEFAULT '',
  branch_code TEXT NOT NULL DEFAULT '',
  duration_sec INTEGER,
  is_exam BOOLEAN NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  code TEXT PRIMARY KEY,
  text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS answers (
  question_code TEXT NOT NULL REFERENCES questions(code) ON DELETE CASCADE,
  code TEXT NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL DEFAULT 0,
  PRIMARY KEY (question_code, code)
);

CREATE TABLE IF NOT EXISTS exam_questions (
  exam_code TEXT NOT NULL REFERENCES exams(code) ON DELETE CASCADE,
  question_code TEXT NOT NULL REFERENCES questions(code) ON DELETE CASCADE,
  degree INTEGER NOT NULL DEFAULT 0 CHECK (degree >= 0),
  PRIMARY KEY (exam_code, question_code)
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  student_code TEXT NOT NULL,
  exam_code TEXT NOT NULL REFERENCES exams(code),
  state TEXT NOT NULL,
  outcome TEXT NOT NULL DEFAULT '',
  started_at INTEGER NOT NULL,
  closed_at INTEGER,
  total_score INTEGER,
  earned_score INTEGER,
  percentage REAL,
  UNIQUE (student_code, exam_code)
);

CREATE TABLE IF NOT EXISTS attempt_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id),
  question_code TEXT NOT NULL,
  chosen_answer_code TEXT NOT NULL DEFAULT '',
  correct_answer_code TEXT NOT NULL DEFAULT '',
  points INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (attempt_id, question_code)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  event_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS exams (
  code TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  subject_code TEXT NOT NULL DEFAULT '',
  teacher_code TEXT NOT NULL DEFAULT '',
  year_code TEXT NOT NULL DEFAULT '',
  branch_code TEXT NOT NULL DEFAULT '',
  duration_sec INTEGER,
  is_exam BOOLEAN NOT NULL DEFAULT TRUE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  code TEXT PRIMARY KEY,
  text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS answers (
  question_code TEXT NOT NULL REFERENCES questions(code) ON DELETE CASCADE,
  code TEXT NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL DEFAULT FALSE,
  PRIMARY KEY (question_code, code)
);

CREATE TABLE IF NOT EXISTS exam_questions (
  exam_code TEXT NOT NULL REFERENCES exams(code) ON DELETE CASCADE,
  question_code TEXT NOT NULL REFERENCES questions(code) ON DELETE CASCADE,
  degree INTEGER NOT NULL DEFAULT 0 CHECK (degree >= 0),
  PRIMARY KEY (exam_code, question_code)
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  student_code TEXT NOT NULL,
  exam_code TEXT NOT NULL REFERENCES exams(code),
  state TEXT NOT NULL,
  outcome TEXT NOT NULL DEFAULT '',
  started_at BIGINT NOT NULL,
  closed_at BIGINT,
  total_score INTEGER,
  earned_score INTEGER,
  percentage DOUBLE PRECISION,
  UNIQUE (student_code, exam_code)
);

CREATE TABLE IF NOT EXISTS attempt_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id),
  question_code TEXT NOT NULL,
  chosen_answer_code TEXT NOT NULL DEFAULT '',
  correct_answer_code TEXT NOT NULL DEFAULT '',
  points INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (attempt_id, question_code)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  event_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
