package exam

import (
	"context"
	"time"
)

// GetTimeStatus reports how much of the exam's time budget is left for the
// student. The first call creates the attempt and starts its timer; later
// calls only recompute from the stored start instant. An attempt whose time
// ran out is reported as expired but stays open until it is submitted.
func (s *Service) GetTimeStatus(ctx context.Context, studentCode, examCode string) (TimeStatus, error) {
	key, err := newKey(studentCode, examCode)
	if err != nil {
		return TimeStatus{}, err
	}
	var (
		sess session
		now  time.Time
	)
	err = s.inTx(ctx, "time status", func(tx Tx) error {
		var err error
		now = s.now()
		sess, err = s.getOrCreate(ctx, tx, key, now, false)
		return err
	})
	if err != nil {
		return TimeStatus{}, err
	}
	if sess.created {
		s.logStarted(sess.attempt)
	}
	return timeStatus(sess.attempt.StartedAt, sess.limit, now), nil
}

// timeStatus computes the remaining budget, clamped at zero. Remaining time
// is rounded up to whole seconds, so TimeLeftSeconds is 0 only once the
// attempt has expired.
func timeStatus(startedAt time.Time, limit time.Duration, now time.Time) TimeStatus {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	left := limit - elapsed
	expired := left <= 0
	if expired {
		left = 0
	}
	return TimeStatus{
		StartedAt:       startedAt,
		DurationSeconds: int64(limit / time.Second),
		TimeLeftSeconds: int64((left + time.Second - 1) / time.Second),
		Expired:         expired,
	}
}
