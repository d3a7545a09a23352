package exam

import (
	"context"
	"time"
)

// Store runs fn inside one transaction. If fn returns an error nothing it
// did is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of operations the engine needs within a transaction.
type Tx interface {
	// GetExam returns the exam metadata (without questions) or ErrNotFound.
	GetExam(ctx context.Context, code string) (Exam, error)
	// ExamQuestions lists the questions of an exam with their degrees.
	ExamQuestions(ctx context.Context, examCode string) ([]ExamQuestion, error)
	// AnswerKey maps question code to its correct answer code for every
	// question of the exam that has one. If several answers are marked
	// correct the first one found wins.
	AnswerKey(ctx context.Context, examCode string) (map[string]string, error)

	// GetAttempt returns the attempt for key or ErrNotFound. With forUpdate
	// the row stays locked until the transaction ends.
	GetAttempt(ctx context.Context, key Key, forUpdate bool) (Attempt, error)
	// InsertAttempt inserts a when no attempt exists for its key. It reports
	// false without error when another writer got there first.
	InsertAttempt(ctx context.Context, a Attempt) (bool, error)
	// CloseAttempt moves an in-progress attempt to closed, storing the
	// scores carried by a. Returns ErrAlreadyClosed if it was not open.
	CloseAttempt(ctx context.Context, a Attempt) error
	UpsertAttemptAnswer(ctx context.Context, aa AttemptAnswer) error
	AttemptAnswers(ctx context.Context, attemptID string) ([]AttemptAnswer, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	AppendEvent(ctx context.Context, typ, key string, data any) error
}

// unix millis is the stored resolution of attempt instants.
func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
