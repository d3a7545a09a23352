package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	authmw "github.com/mind-engage/mindengage-examclock/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examclock/internal/exam"
	"github.com/mind-engage/mindengage-examclock/internal/rbac"
)

// Engine is the part of exam.Service the handlers need.
type Engine interface {
	GetTimeStatus(ctx context.Context, studentCode, examCode string) (exam.TimeStatus, error)
	Submit(ctx context.Context, studentCode, examCode string, answers []exam.SubmittedAnswer) (exam.SubmitResult, error)
	Result(ctx context.Context, studentCode, examCode string) (exam.AttemptDetail, error)
	ListAttempts(ctx context.Context, opts exam.AttemptListOpts) ([]exam.Attempt, error)
}

// Eligibility decides whether a student may open an exam's clock.
// Enrollment lives outside this service; AllowAll is the default.
type Eligibility interface {
	CanTake(ctx context.Context, studentCode, examCode string) (bool, error)
}

type AllowAll struct{}

func (AllowAll) CanTake(context.Context, string, string) (bool, error) { return true, nil }

var validate = validator.New(validator.WithRequiredStructEnabled())

// GET /exams/{examCode}/clock
//
// The first call starts the student's attempt; later calls only read it.
func GetTimeStatusHandler(eng Engine, elig Eligibility) http.HandlerFunc {
	if elig == nil {
		elig = AllowAll{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		student := authmw.SubjectFromContext(r.Context())
		examCode := chi.URLParam(r, "examCode")

		ok, err := elig.CanTake(r.Context(), student, examCode)
		if err != nil {
			http.Error(w, "eligibility check failed", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.Error(w, "not enrolled", http.StatusForbidden)
			return
		}

		st, err := eng.GetTimeStatus(r.Context(), student, examCode)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type submitReq struct {
	Answers []exam.SubmittedAnswer `json:"answers" validate:"max=1000,dive"`
}

// POST /exams/{examCode}/submit  { "answers": [ { "question_code": "...", "answer_code": "..." } ] }
func SubmitHandler(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid answers: "+err.Error(), http.StatusBadRequest)
			return
		}
		student := authmw.SubjectFromContext(r.Context())
		res, err := eng.Submit(r.Context(), student, chi.URLParam(r, "examCode"), req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /exams/{examCode}/attempt[?student=...]
//
// Students see their own attempt. Roles with attempt:view-all may name
// another student.
func GetAttemptHandler(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student := authmw.SubjectFromContext(r.Context())
		if other := strings.TrimSpace(r.URL.Query().Get("student")); other != "" && other != student {
			if !rbac.Can(rbac.RoleFromContext(r.Context()), "attempt:view-all") {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			student = other
		}
		d, err := eng.Result(r.Context(), student, chi.URLParam(r, "examCode"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
