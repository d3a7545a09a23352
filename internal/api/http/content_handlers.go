package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-examclock/internal/exam"
	"github.com/mind-engage/mindengage-examclock/internal/storage"
)

type ContentLoader interface {
	PutContent(ctx context.Context, c exam.Content) error
}

const maxContentBytes = 8 << 20

// POST /content
//
// Body is a content document (YAML, or JSON since JSON is valid YAML).
// Accepted documents are copied to archive when it is non-nil.
func LoadContentHandler(loader ContentLoader, archive storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxContentBytes+1))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		if len(raw) > maxContentBytes {
			http.Error(w, "content too large", http.StatusRequestEntityTooLarge)
			return
		}
		var c exam.Content
		if err := yaml.Unmarshal(raw, &c); err != nil {
			http.Error(w, "bad content document", http.StatusBadRequest)
			return
		}
		if err := loader.PutContent(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		out := map[string]any{
			"questions": len(c.Questions),
			"exams":     len(c.Exams),
		}
		if archive != nil {
			key := "content/" + time.Now().UTC().Format("20060102T150405.000000000Z") + ".yaml"
			if k, err := archive.Put(key, bytes.NewReader(raw)); err != nil {
				out["archive_error"] = "archive failed"
			} else {
				out["archive_key"] = k
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
