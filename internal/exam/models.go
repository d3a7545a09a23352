package exam

import "time"

// Exam is authoring metadata. DurationSec is nil when the administrator never
// configured a time limit.
type Exam struct {
	Code        string         `json:"code" yaml:"code"`
	Title       string         `json:"title" yaml:"title"`
	SubjectCode string         `json:"subject_code,omitempty" yaml:"subject_code"`
	TeacherCode string         `json:"teacher_code,omitempty" yaml:"teacher_code"`
	YearCode    string         `json:"year_code,omitempty" yaml:"year_code"`
	BranchCode  string         `json:"branch_code,omitempty" yaml:"branch_code"`
	DurationSec *int           `json:"duration_sec,omitempty" yaml:"duration_sec"`
	IsExam      bool           `json:"is_exam" yaml:"is_exam"` // graded exam vs practice
	Questions   []ExamQuestion `json:"questions,omitempty" yaml:"questions"`
}

// Duration reports the configured time limit; ok is false when unset.
func (e Exam) Duration() (time.Duration, bool) {
	if e.DurationSec == nil || *e.DurationSec <= 0 {
		return 0, false
	}
	return time.Duration(*e.DurationSec) * time.Second, true
}

// ExamQuestion is a question's membership in an exam and its point value.
type ExamQuestion struct {
	QuestionCode string `json:"question_code" yaml:"question_code"`
	Degree       int    `json:"degree" yaml:"degree"`
}

type Question struct {
	Code    string   `json:"code" yaml:"code"`
	Text    string   `json:"text,omitempty" yaml:"text"`
	Answers []Answer `json:"answers,omitempty" yaml:"answers"`
}

type Answer struct {
	Code      string `json:"code" yaml:"code"`
	Text      string `json:"text,omitempty" yaml:"text"`
	IsCorrect bool   `json:"is_correct,omitempty" yaml:"is_correct"`
}

type AttemptState string

const (
	StateNotStarted AttemptState = "not_started" // no row yet
	StateInProgress AttemptState = "in_progress"
	StateClosed     AttemptState = "closed"
)

type Outcome string

const (
	OutcomeGraded  Outcome = "graded"
	OutcomeExpired Outcome = "expired"
)

// Key identifies an attempt; there is at most one attempt per key.
type Key struct {
	StudentCode string
	ExamCode    string
}

type Attempt struct {
	ID          string       `json:"id"`
	StudentCode string       `json:"student_code"`
	ExamCode    string       `json:"exam_code"`
	State       AttemptState `json:"state"`
	Outcome     Outcome      `json:"outcome,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
	TotalScore  *int         `json:"total_score,omitempty"`
	EarnedScore *int         `json:"earned_score,omitempty"`
	Percentage  *float64     `json:"percentage,omitempty"`
}

func (a Attempt) Key() Key { return Key{StudentCode: a.StudentCode, ExamCode: a.ExamCode} }

func (a Attempt) Closed() bool { return a.State == StateClosed }

// AttemptAnswer is the graded response to one question of an attempt.
// CorrectAnswerCode snapshots the key at grading time.
type AttemptAnswer struct {
	AttemptID         string `json:"attempt_id"`
	QuestionCode      string `json:"question_code"`
	ChosenAnswerCode  string `json:"chosen_answer_code"`
	CorrectAnswerCode string `json:"correct_answer_code"`
	Points            int    `json:"points"`
}

type SubmittedAnswer struct {
	QuestionCode string `json:"question_code" validate:"required"`
	AnswerCode   string `json:"answer_code"`
}

type TimeStatus struct {
	StartedAt       time.Time `json:"start_instant"`
	DurationSeconds int64     `json:"duration_seconds"`
	TimeLeftSeconds int64     `json:"time_left_seconds"`
	Expired         bool      `json:"expired"`
}

const ReasonExpired = "expired"

type SubmitResult struct {
	Accepted     bool    `json:"accepted"`
	Reason       string  `json:"reason,omitempty"`
	EarnedScore  int     `json:"earned_score"`
	TotalScore   int     `json:"total_score"`
	Percentage   float64 `json:"percentage"`
	CorrectCount int     `json:"correct_count"`
}

// AttemptDetail is an attempt with its recorded answers.
type AttemptDetail struct {
	Attempt Attempt         `json:"attempt"`
	Answers []AttemptAnswer `json:"answers"`
}

type AttemptListOpts struct {
	ExamCode    string
	StudentCode string
	State       AttemptState
	Limit       int
	Offset      int
}
