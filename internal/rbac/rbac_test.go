package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_DefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "attempt:clock", true},
		{"student", "attempt:submit", true},
		{"student", "attempt:view-all", false},
		{"student", "content:load", false},
		{"teacher", "attempt:view-all", true},
		{"teacher", "attempt:submit", false},
		{"admin", "anything:at-all", true},
		{"", "attempt:clock", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_WildcardSuffix(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"attempt:*"}})
	if !c.Has("grader", "attempt:submit") || !c.Has("grader", "attempt:view-all") {
		t.Fatal("attempt:* should cover attempt permissions")
	}
	if c.Any("grader", "content:load") {
		t.Fatal("attempt:* must not cover content:load")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("attempt:submit")(ok)
	view := RequireAny("attempt:view-own", "attempt:view-all")(ok)

	run := func(h http.Handler, role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if role != "" {
			req = req.WithContext(WithRole(req.Context(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := run(h, "student"); got != http.StatusNoContent {
		t.Fatalf("student submit: %d", got)
	}
	if got := run(h, "teacher"); got != http.StatusForbidden {
		t.Fatalf("teacher submit: %d", got)
	}
	if got := run(h, ""); got != http.StatusForbidden {
		t.Fatalf("anonymous submit: %d", got)
	}
	if got := run(view, "teacher"); got != http.StatusNoContent {
		t.Fatalf("teacher view: %d", got)
	}
}
