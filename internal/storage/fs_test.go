package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStore_PutGet(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("/content/2026/a.yaml", strings.NewReader("exams: []"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "content/2026/a.yaml" {
		t.Fatalf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "exams: []" {
		t.Fatalf("body = %q", b)
	}
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"", " ", "/", "."} {
		if _, err := s.Put(k, strings.NewReader("x")); !errors.Is(err, ErrBadKey) {
			t.Errorf("Put(%q) err = %v", k, err)
		}
	}
	// ".." segments are resolved against the root and cannot climb out
	key, err := s.Put("../../etc/x", strings.NewReader("x"))
	if err != nil || key != "etc/x" {
		t.Fatalf("key = %q err = %v", key, err)
	}
}
