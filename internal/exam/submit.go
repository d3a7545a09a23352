package exam

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examclock/internal/grading"
	syncx "github.com/mind-engage/mindengage-examclock/internal/sync"
)

// Submit grades and closes the student's attempt in a single transaction.
//
// A submission that arrives after the time limit closes the attempt without
// grading and returns Accepted=false with Reason "expired". A closed attempt
// yields ErrAlreadyClosed and is not touched. Answers for questions outside
// the exam are ignored; when a question appears more than once the last
// answer wins. Lateness is judged at the time the attempt row is locked,
// not when the request arrived.
func (s *Service) Submit(ctx context.Context, studentCode, examCode string, answers []SubmittedAnswer) (SubmitResult, error) {
	key, err := newKey(studentCode, examCode)
	if err != nil {
		return SubmitResult{}, err
	}

	var (
		res    SubmitResult
		sess   session
		closed Attempt
	)
	err = s.inTx(ctx, "submit", func(tx Tx) error {
		res = SubmitResult{}
		var err error
		sess, err = s.getOrCreate(ctx, tx, key, s.now(), true)
		if err != nil {
			return err
		}
		// the row is locked now; waiting for it does not buy extra time
		now := s.now()
		members, err := tx.ExamQuestions(ctx, key.ExamCode)
		if err != nil {
			return err
		}
		degrees := make(map[string]int, len(members))
		qs := make([]grading.Q, 0, len(members))
		for _, m := range members {
			degrees[m.QuestionCode] = m.Degree
			qs = append(qs, grading.Q{Code: m.QuestionCode, Degree: m.Degree})
		}
		tally := grading.Tally{Total: grading.TotalDegrees(qs)}

		a := sess.attempt
		a.State = StateClosed
		a.ClosedAt = &now
		a.TotalScore = &tally.Total

		if timeStatus(a.StartedAt, sess.limit, now).Expired {
			a.Outcome = OutcomeExpired
			if err := tx.CloseAttempt(ctx, a); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, syncx.TypeAttemptExpired, a.ID, map[string]any{
				"total_score": tally.Total,
			}); err != nil {
				return err
			}
			closed = a
			res = SubmitResult{Accepted: false, Reason: ReasonExpired, TotalScore: tally.Total}
			return nil
		}

		answerKey, err := tx.AnswerKey(ctx, key.ExamCode)
		if err != nil {
			return err
		}
		order, chosen := collectAnswers(answers, degrees)
		for _, qCode := range order {
			q := grading.Q{Code: qCode, Degree: degrees[qCode], CorrectAnswer: answerKey[qCode]}
			r := s.grader.Grade(q, chosen[qCode])
			tally.Add(r)
			if err := tx.UpsertAttemptAnswer(ctx, AttemptAnswer{
				AttemptID:         a.ID,
				QuestionCode:      qCode,
				ChosenAnswerCode:  chosen[qCode],
				CorrectAnswerCode: answerKey[qCode],
				Points:            r.Points,
			}); err != nil {
				return err
			}
		}

		pct := tally.Percentage()
		a.Outcome = OutcomeGraded
		a.EarnedScore = &tally.Earned
		a.Percentage = &pct
		if err := tx.CloseAttempt(ctx, a); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, syncx.TypeAttemptGraded, a.ID, map[string]any{
			"earned_score":  tally.Earned,
			"total_score":   tally.Total,
			"percentage":    pct,
			"correct_count": tally.Correct,
		}); err != nil {
			return err
		}
		closed = a
		res = SubmitResult{
			Accepted:     true,
			EarnedScore:  tally.Earned,
			TotalScore:   tally.Total,
			Percentage:   pct,
			CorrectCount: tally.Correct,
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if sess.created {
		s.logStarted(sess.attempt)
	}
	s.log.Info("attempt closed",
		zap.String("attempt_id", closed.ID),
		zap.String("student_code", closed.StudentCode),
		zap.String("exam_code", closed.ExamCode),
		zap.String("outcome", string(closed.Outcome)),
		zap.Int("earned_score", res.EarnedScore),
		zap.Int("total_score", res.TotalScore))
	return res, nil
}

// collectAnswers keeps answers for questions of the exam, one per question
// in order of first appearance, with later answers overriding earlier ones.
func collectAnswers(answers []SubmittedAnswer, degrees map[string]int) ([]string, map[string]string) {
	order := make([]string, 0, len(answers))
	chosen := make(map[string]string, len(answers))
	for _, ans := range answers {
		q := strings.TrimSpace(ans.QuestionCode)
		if _, ok := degrees[q]; !ok {
			continue
		}
		if _, dup := chosen[q]; !dup {
			order = append(order, q)
		}
		chosen[q] = strings.TrimSpace(ans.AnswerCode)
	}
	return order, chosen
}
