package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGetTimeStatus_ConcurrentFirstPollsShareOneAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 12
	var (
		wg     sync.WaitGroup
		starts = make([]time.Time, n)
		errs   = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := f.svc.GetTimeStatus(ctx, "s1", "math")
			starts[i], errs[i] = st.StartedAt, err
		}(i)
		if i == n/2 {
			f.clock.Advance(3 * time.Second)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if !starts[i].Equal(starts[0]) {
			t.Fatalf("poll %d saw start %v, poll 0 saw %v", i, starts[i], starts[0])
		}
	}
	if c := f.countRows(t, `SELECT COUNT(*) FROM attempts WHERE student_code=$1 AND exam_code=$2`, "s1", "math"); c != 1 {
		t.Fatalf("attempt rows = %d", c)
	}
	if c := f.countRows(t, `SELECT COUNT(*) FROM event_log WHERE typ='attempt.started'`); c != 1 {
		t.Fatalf("start events = %d", c)
	}
}

func TestSubmit_ConcurrentSubmitsGradeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		graded  int
		closed  int
		unknown []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Submit(ctx, "s1", "math", allCorrect)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && res.Accepted:
				graded++
			case errors.Is(err, ErrAlreadyClosed):
				closed++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	if len(unknown) > 0 {
		t.Fatalf("unexpected outcomes: %v", unknown)
	}
	if graded != 1 || closed != n-1 {
		t.Fatalf("graded=%d closed=%d", graded, closed)
	}
	if c := f.countRows(t, `SELECT COUNT(*) FROM event_log WHERE typ='attempt.graded'`); c != 1 {
		t.Fatalf("graded events = %d", c)
	}
	if c := f.countRows(t, `SELECT COUNT(*) FROM attempt_answers`); c != 3 {
		t.Fatalf("answer rows = %d", c)
	}
}

func TestSubmit_DifferentStudentsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(student string) {
			defer wg.Done()
			res, err := f.svc.Submit(ctx, student, "math", allCorrect)
			if err == nil && !res.Accepted {
				err = errors.New(student + ": not accepted")
			}
			errs <- err
		}(s)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if c := f.countRows(t, `SELECT COUNT(*) FROM attempts WHERE state='closed'`); c != 5 {
		t.Fatalf("closed attempts = %d", c)
	}
}
