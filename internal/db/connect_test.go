package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d, err := Open(ctx, DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_CreatesSchema(t *testing.T) {
	d := openMem(t)
	for _, table := range []string{"exams", "questions", "answers", "exam_questions", "attempts", "attempt_answers", "event_log"} {
		var n int
		if err := d.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	d := openMem(t)
	if err := ensureSchema(context.Background(), d, DriverSQLite); err != nil {
		t.Fatalf("second ensureSchema: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("oracle"), ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	d := openMem(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, d, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO questions (code, text) VALUES ($1, $2)`, "q1", "?"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback = %d", n)
	}

	if err := WithTx(ctx, d, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO questions (code, text) VALUES ($1, $2)`, "q1", "?")
		return err
	}); err != nil {
		t.Fatalf("commit path: %v", err)
	}
	if err := d.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows after commit = %d", n)
	}
}
