package grading

import "strings"

// Q is a minimal view of an exam question needed for grading.
type Q struct {
	Code          string
	Degree        int
	CorrectAnswer string // "" when the question has no answer marked correct
}

// Result is the outcome of grading a single submitted answer.
type Result struct {
	Points  int
	Correct bool
}

// Grader scores one chosen answer against a question.
type Grader interface {
	Grade(q Q, chosen string) Result
}

// SingleChoice awards the full degree when the chosen answer is the
// question's correct answer and nothing otherwise.
type SingleChoice struct{}

func (SingleChoice) Grade(q Q, chosen string) Result {
	chosen = strings.TrimSpace(chosen)
	if q.CorrectAnswer == "" || chosen != q.CorrectAnswer {
		return Result{}
	}
	return Result{Points: q.Degree, Correct: true}
}

var _ Grader = SingleChoice{}

// Tally accumulates per-question results for one submission.
type Tally struct {
	Total   int // sum of degrees over every question of the exam
	Earned  int
	Correct int
}

func (t *Tally) Add(r Result) {
	t.Earned += r.Points
	if r.Correct {
		t.Correct++
	}
}

// Percentage is Earned/Total*100, or 0 when the exam carries no points.
func (t Tally) Percentage() float64 {
	return Percentage(t.Earned, t.Total)
}

func Percentage(earned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}

// TotalDegrees sums question degrees, ignoring negative values.
func TotalDegrees(qs []Q) int {
	total := 0
	for _, q := range qs {
		if q.Degree > 0 {
			total += q.Degree
		}
	}
	return total
}
