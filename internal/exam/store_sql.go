package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-examclock/internal/db"
	syncx "github.com/mind-engage/mindengage-examclock/internal/sync"
)

// SQLStore implements Store over database/sql for SQLite and PostgreSQL.
// Queries use $n placeholders, which both drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	siteID string
}

func NewSQLStore(dbh *sql.DB, driver, siteID string) *SQLStore {
	return &SQLStore{db: dbh, driver: driver, siteID: siteID}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		return fn(&sqlTx{
			tx:     tx,
			driver: s.driver,
			events: syncx.NewEventRepo(tx, s.siteID),
		})
	})
}

type sqlTx struct {
	tx     *sql.Tx
	driver string
	events *syncx.EventRepo
}

func (t *sqlTx) GetExam(ctx context.Context, code string) (Exam, error) {
	var (
		e   Exam
		dur sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT code,title,subject_code,teacher_code,year_code,branch_code,duration_sec,is_exam
		   FROM exams WHERE code=$1`, code).
		Scan(&e.Code, &e.Title, &e.SubjectCode, &e.TeacherCode, &e.YearCode, &e.BranchCode, &dur, &e.IsExam)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam %q: %w", code, ErrNotFound)
		}
		return Exam{}, err
	}
	if dur.Valid {
		d := int(dur.Int64)
		e.DurationSec = &d
	}
	return e, nil
}

func (t *sqlTx) ExamQuestions(ctx context.Context, examCode string) ([]ExamQuestion, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT question_code, degree FROM exam_questions WHERE exam_code=$1 ORDER BY question_code`, examCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExamQuestion
	for rows.Next() {
		var q ExamQuestion
		if err := rows.Scan(&q.QuestionCode, &q.Degree); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (t *sqlTx) AnswerKey(ctx context.Context, examCode string) (map[string]string, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT a.question_code, a.code
		   FROM answers a
		   JOIN exam_questions eq ON eq.question_code = a.question_code
		  WHERE eq.exam_code=$1 AND a.is_correct=$2
		  ORDER BY a.question_code, a.code`, examCode, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	key := map[string]string{}
	for rows.Next() {
		var qCode, aCode string
		if err := rows.Scan(&qCode, &aCode); err != nil {
			return nil, err
		}
		if _, seen := key[qCode]; !seen {
			key[qCode] = aCode
		}
	}
	return key, rows.Err()
}

const attemptCols = `id,student_code,exam_code,state,outcome,started_at,closed_at,total_score,earned_score,percentage`

func (t *sqlTx) GetAttempt(ctx context.Context, key Key, forUpdate bool) (Attempt, error) {
	q := `SELECT ` + attemptCols + ` FROM attempts WHERE student_code=$1 AND exam_code=$2`
	if forUpdate && t.driver == string(db.DriverPostgres) {
		// SQLite has no row locks; its single connection already serializes writers.
		q += ` FOR UPDATE`
	}
	a, err := scanAttempt(t.tx.QueryRowContext(ctx, q, key.StudentCode, key.ExamCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt %s/%s: %w", key.StudentCode, key.ExamCode, ErrNotFound)
		}
		return Attempt{}, err
	}
	return a, nil
}

func (t *sqlTx) InsertAttempt(ctx context.Context, a Attempt) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO attempts (id,student_code,exam_code,state,outcome,started_at)
		 VALUES ($1,$2,$3,$4,'',$5)
		 ON CONFLICT (student_code, exam_code) DO NOTHING`,
		a.ID, a.StudentCode, a.ExamCode, string(StateInProgress), toMillis(a.StartedAt))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *sqlTx) CloseAttempt(ctx context.Context, a Attempt) error {
	var closedAt any
	if a.ClosedAt != nil {
		closedAt = toMillis(*a.ClosedAt)
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE attempts
		    SET state=$1, outcome=$2, closed_at=$3, total_score=$4, earned_score=$5, percentage=$6
		  WHERE id=$7 AND state=$8`,
		string(StateClosed), string(a.Outcome), closedAt,
		nullInt(a.TotalScore), nullInt(a.EarnedScore), nullFloat(a.Percentage),
		a.ID, string(StateInProgress))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("attempt %s: %w", a.ID, ErrAlreadyClosed)
	}
	return nil
}

func (t *sqlTx) UpsertAttemptAnswer(ctx context.Context, aa AttemptAnswer) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO attempt_answers (attempt_id,question_code,chosen_answer_code,correct_answer_code,points)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (attempt_id, question_code) DO UPDATE SET
		   chosen_answer_code=EXCLUDED.chosen_answer_code,
		   correct_answer_code=EXCLUDED.correct_answer_code,
		   points=EXCLUDED.points`,
		aa.AttemptID, aa.QuestionCode, aa.ChosenAnswerCode, aa.CorrectAnswerCode, aa.Points)
	return err
}

func (t *sqlTx) AttemptAnswers(ctx context.Context, attemptID string) ([]AttemptAnswer, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT attempt_id,question_code,chosen_answer_code,correct_answer_code,points
		   FROM attempt_answers WHERE attempt_id=$1 ORDER BY question_code`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttemptAnswer{}
	for rows.Next() {
		var aa AttemptAnswer
		if err := rows.Scan(&aa.AttemptID, &aa.QuestionCode, &aa.ChosenAnswerCode, &aa.CorrectAnswerCode, &aa.Points); err != nil {
			return nil, err
		}
		out = append(out, aa)
	}
	return out, rows.Err()
}

func (t *sqlTx) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if opts.ExamCode != "" {
		add("exam_code=$%d", opts.ExamCode)
	}
	if opts.StudentCode != "" {
		add("student_code=$%d", opts.StudentCode)
	}
	if opts.State != "" {
		add("state=$%d", string(opts.State))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY started_at DESC, id LIMIT %d OFFSET %d`, limit, offset)

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *sqlTx) AppendEvent(ctx context.Context, typ, key string, data any) error {
	return t.events.Append(ctx, typ, key, data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var (
		a              Attempt
		state, outcome string
		startedAt      int64
		closedAt       sql.NullInt64
		total, earned  sql.NullInt64
		percentage     sql.NullFloat64
	)
	if err := r.Scan(&a.ID, &a.StudentCode, &a.ExamCode, &state, &outcome, &startedAt,
		&closedAt, &total, &earned, &percentage); err != nil {
		return Attempt{}, err
	}
	a.State = AttemptState(state)
	a.Outcome = Outcome(outcome)
	a.StartedAt = fromMillis(startedAt)
	if closedAt.Valid {
		ts := fromMillis(closedAt.Int64)
		a.ClosedAt = &ts
	}
	if total.Valid {
		v := int(total.Int64)
		a.TotalScore = &v
	}
	if earned.Valid {
		v := int(earned.Int64)
		a.EarnedScore = &v
	}
	if percentage.Valid {
		v := percentage.Float64
		a.Percentage = &v
	}
	return a, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
