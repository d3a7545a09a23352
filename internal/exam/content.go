package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-examclock/internal/db"
)

// Content is a batch of authored questions and exams.
type Content struct {
	Questions []Question `json:"questions" yaml:"questions"`
	Exams     []Exam     `json:"exams" yaml:"exams"`
}

// ReadContentFile parses a YAML content file.
func ReadContentFile(path string) (Content, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Content{}, err
	}
	var c Content
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return Content{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the authoring invariants the grader relies on.
func (c Content) Validate() error {
	for _, q := range c.Questions {
		if strings.TrimSpace(q.Code) == "" {
			return fmt.Errorf("%w: question without code", ErrInvalidContent)
		}
		seen := map[string]bool{}
		correct := 0
		for _, a := range q.Answers {
			if strings.TrimSpace(a.Code) == "" {
				return fmt.Errorf("%w: question %q has an answer without code", ErrInvalidContent, q.Code)
			}
			if seen[a.Code] {
				return fmt.Errorf("%w: question %q repeats answer %q", ErrInvalidContent, q.Code, a.Code)
			}
			seen[a.Code] = true
			if a.IsCorrect {
				correct++
			}
		}
		if correct > 1 {
			return fmt.Errorf("%w: question %q has %d correct answers", ErrInvalidContent, q.Code, correct)
		}
	}
	for _, e := range c.Exams {
		if strings.TrimSpace(e.Code) == "" {
			return fmt.Errorf("%w: exam without code", ErrInvalidContent)
		}
		members := map[string]bool{}
		for _, eq := range e.Questions {
			if members[eq.QuestionCode] {
				return fmt.Errorf("%w: exam %q lists question %q twice", ErrInvalidContent, e.Code, eq.QuestionCode)
			}
			members[eq.QuestionCode] = true
			if eq.Degree < 0 {
				return fmt.Errorf("%w: exam %q question %q has negative degree", ErrInvalidContent, e.Code, eq.QuestionCode)
			}
		}
	}
	return nil
}

// PutContent validates c and upserts it in one transaction. An exam's
// question list replaces its previous membership.
func (s *SQLStore) PutContent(ctx context.Context, c Content) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		for _, q := range c.Questions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (code,text) VALUES ($1,$2)
				 ON CONFLICT (code) DO UPDATE SET text=EXCLUDED.text`, q.Code, q.Text); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE question_code=$1`, q.Code); err != nil {
				return err
			}
			for _, a := range q.Answers {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO answers (question_code,code,text,is_correct) VALUES ($1,$2,$3,$4)
					 ON CONFLICT (question_code, code) DO UPDATE SET text=EXCLUDED.text, is_correct=EXCLUDED.is_correct`,
					q.Code, a.Code, a.Text, a.IsCorrect); err != nil {
					return err
				}
			}
		}
		for _, e := range c.Exams {
			var dur any
			if e.DurationSec != nil {
				dur = int64(*e.DurationSec)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exams (code,title,subject_code,teacher_code,year_code,branch_code,duration_sec,is_exam,created_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				 ON CONFLICT (code) DO UPDATE SET title=EXCLUDED.title, subject_code=EXCLUDED.subject_code,
				   teacher_code=EXCLUDED.teacher_code, year_code=EXCLUDED.year_code, branch_code=EXCLUDED.branch_code,
				   duration_sec=EXCLUDED.duration_sec, is_exam=EXCLUDED.is_exam`,
				e.Code, e.Title, e.SubjectCode, e.TeacherCode, e.YearCode, e.BranchCode, dur, e.IsExam, time.Now().Unix()); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM exam_questions WHERE exam_code=$1`, e.Code); err != nil {
				return err
			}
			for _, eq := range e.Questions {
				var one int
				err := tx.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE code=$1`, eq.QuestionCode).Scan(&one)
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: exam %q references unknown question %q", ErrInvalidContent, e.Code, eq.QuestionCode)
				}
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO exam_questions (exam_code,question_code,degree) VALUES ($1,$2,$3)`,
					e.Code, eq.QuestionCode, eq.Degree); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil && !isDomainErr(err) {
		return fmt.Errorf("%w: %v", ErrTransaction, err)
	}
	return err
}
