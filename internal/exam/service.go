package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examclock/internal/clock"
	"github.com/mind-engage/mindengage-examclock/internal/grading"
	syncx "github.com/mind-engage/mindengage-examclock/internal/sync"
)

// Service is the session clock and grading engine. It keeps no state of its
// own between calls; everything lives in the Store.
type Service struct {
	store  Store
	clock  clock.Clock
	grader grading.Grader
	log    *zap.Logger
	newID  func() string
}

type Option func(*Service)

func WithClock(c clock.Clock) Option     { return func(s *Service) { s.clock = c } }
func WithGrader(g grading.Grader) Option { return func(s *Service) { s.grader = g } }
func WithLogger(l *zap.Logger) Option    { return func(s *Service) { s.log = l } }
func WithIDFunc(fn func() string) Option { return func(s *Service) { s.newID = fn } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  clock.Real{},
		grader: grading.SingleChoice{},
		log:    zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// now is truncated to the stored resolution so a freshly created attempt
// reports the same start instant as every later read.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// inTx runs fn in a store transaction. Domain errors pass through as-is;
// anything else is reported as ErrTransaction.
func (s *Service) inTx(ctx context.Context, op string, fn func(Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if err == nil || isDomainErr(err) {
		return err
	}
	s.log.Error("transaction failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrTransaction, op, err)
}

func newKey(studentCode, examCode string) (Key, error) {
	k := Key{StudentCode: strings.TrimSpace(studentCode), ExamCode: strings.TrimSpace(examCode)}
	if k.StudentCode == "" {
		return Key{}, fmt.Errorf("student code required: %w", ErrNotFound)
	}
	if k.ExamCode == "" {
		return Key{}, fmt.Errorf("exam code required: %w", ErrNotFound)
	}
	return k, nil
}

type session struct {
	attempt Attempt
	limit   time.Duration
	created bool
}

// getOrCreate is the only place an attempt (and so a timer) begins. Both
// GetTimeStatus and Submit go through it.
//
// A missing row is inserted with ON CONFLICT DO NOTHING and then re-read, so
// concurrent first calls for one key all end up with the same start instant.
func (s *Service) getOrCreate(ctx context.Context, tx Tx, key Key, now time.Time, lock bool) (session, error) {
	ex, err := tx.GetExam(ctx, key.ExamCode)
	if err != nil {
		return session{}, err
	}
	a, err := tx.GetAttempt(ctx, key, lock)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return session{}, err
	}
	if found && a.Closed() {
		return session{}, fmt.Errorf("attempt %s: %w", a.ID, ErrAlreadyClosed)
	}
	limit, ok := ex.Duration()
	if !ok {
		return session{}, fmt.Errorf("exam %q: %w", ex.Code, ErrConfiguration)
	}
	if found {
		return session{attempt: a, limit: limit}, nil
	}

	inserted, err := tx.InsertAttempt(ctx, Attempt{
		ID:          s.newID(),
		StudentCode: key.StudentCode,
		ExamCode:    key.ExamCode,
		State:       StateInProgress,
		StartedAt:   now,
	})
	if err != nil {
		return session{}, err
	}
	a, err = tx.GetAttempt(ctx, key, lock)
	if err != nil {
		return session{}, err
	}
	if a.Closed() {
		return session{}, fmt.Errorf("attempt %s: %w", a.ID, ErrAlreadyClosed)
	}
	if inserted {
		if err := tx.AppendEvent(ctx, syncx.TypeAttemptStarted, a.ID, map[string]any{
			"student_code": a.StudentCode,
			"exam_code":    a.ExamCode,
			"started_at":   a.StartedAt,
		}); err != nil {
			return session{}, err
		}
	}
	return session{attempt: a, limit: limit, created: inserted}, nil
}

// Result returns an attempt and its graded answers. It never creates an attempt.
func (s *Service) Result(ctx context.Context, studentCode, examCode string) (AttemptDetail, error) {
	key, err := newKey(studentCode, examCode)
	if err != nil {
		return AttemptDetail{}, err
	}
	var out AttemptDetail
	err = s.inTx(ctx, "result", func(tx Tx) error {
		a, err := tx.GetAttempt(ctx, key, false)
		if err != nil {
			return err
		}
		answers, err := tx.AttemptAnswers(ctx, a.ID)
		if err != nil {
			return err
		}
		out = AttemptDetail{Attempt: a, Answers: answers}
		return nil
	})
	return out, err
}

func (s *Service) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var out []Attempt
	err := s.inTx(ctx, "list attempts", func(tx Tx) error {
		var err error
		out, err = tx.ListAttempts(ctx, opts)
		return err
	})
	return out, err
}

func (s *Service) logStarted(a Attempt) {
	s.log.Info("attempt started",
		zap.String("attempt_id", a.ID),
		zap.String("student_code", a.StudentCode),
		zap.String("exam_code", a.ExamCode),
		zap.Time("started_at", a.StartedAt))
}
