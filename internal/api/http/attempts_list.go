package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-examclock/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examclock/internal/exam"
	"github.com/mind-engage/mindengage-examclock/internal/rbac"
)

// GET /exams/{examCode}/attempts?student=...&state=...&limit=50&offset=0
// RBAC:
// - role with attempt:view-all can filter on any student
// - anyone else only sees their own attempt (student is forced to subject)
func ListAttemptsHandler(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := authmw.SubjectFromContext(r.Context())
		if role == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		q := r.URL.Query()
		student := strings.TrimSpace(q.Get("student"))
		state := exam.AttemptState(strings.TrimSpace(q.Get("state")))
		switch state {
		case "", exam.StateInProgress, exam.StateClosed:
		default:
			http.Error(w, "state must be in_progress or closed", http.StatusBadRequest)
			return
		}
		if !rbac.Can(role, "attempt:view-all") {
			student = sub
		}

		list, err := eng.ListAttempts(r.Context(), exam.AttemptListOpts{
			ExamCode:    chi.URLParam(r, "examCode"),
			StudentCode: student,
			State:       state,
			Limit:       parseIntDefault(q.Get("limit"), 50),
			Offset:      parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		if list == nil {
			list = []exam.Attempt{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
