package grading

import "testing"

func TestSingleChoice_Grade(t *testing.T) {
	g := SingleChoice{}
	q := Q{Code: "q1", Degree: 10, CorrectAnswer: "a2"}

	cases := []struct {
		name    string
		q       Q
		chosen  string
		points  int
		correct bool
	}{
		{"correct", q, "a2", 10, true},
		{"correct with spaces", q, " a2 ", 10, true},
		{"wrong", q, "a1", 0, false},
		{"blank", q, "", 0, false},
		{"no key", Q{Code: "q2", Degree: 5}, "", 0, false},
		{"zero degree", Q{Code: "q3", Degree: 0, CorrectAnswer: "x"}, "x", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := g.Grade(tc.q, tc.chosen)
			if r.Points != tc.points || r.Correct != tc.correct {
				t.Fatalf("got %+v, want points=%d correct=%v", r, tc.points, tc.correct)
			}
		})
	}
}

func TestTally(t *testing.T) {
	tl := Tally{Total: 30}
	tl.Add(Result{Points: 10, Correct: true})
	tl.Add(Result{})
	tl.Add(Result{Points: 10, Correct: true})
	if tl.Earned != 20 || tl.Correct != 2 {
		t.Fatalf("tally = %+v", tl)
	}
	if p := tl.Percentage(); p < 66.66 || p > 66.67 {
		t.Fatalf("percentage = %v", p)
	}
}

func TestPercentage_ZeroTotal(t *testing.T) {
	if p := Percentage(0, 0); p != 0 {
		t.Fatalf("percentage = %v", p)
	}
	if p := Percentage(30, 30); p != 100 {
		t.Fatalf("percentage = %v", p)
	}
}

func TestTotalDegrees(t *testing.T) {
	if got := TotalDegrees(nil); got != 0 {
		t.Fatalf("empty total = %d", got)
	}
	got := TotalDegrees([]Q{{Degree: 10}, {Degree: 5}, {Degree: -3}})
	if got != 15 {
		t.Fatalf("total = %d", got)
	}
}
