package core

import (
	"context"
	"net/http"
	"time"

	"github.com/joeydtaylor/contentops/pkg/manifest"
)

const defaultMaxBodyKB = 1024

func writeJSON(w http.ResponseWriter, payload []byte, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func statusIf(s, def int) int {
	if s > 0 {
		return s
	}
	return def
}

func withTimeout(next http.HandlerFunc, d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// withBodyLimit caps the request body at the policy's max_body_kb.
func withBodyLimit(next http.HandlerFunc, p manifest.Policy) http.HandlerFunc {
	limit := int64(statusIf(p.MaxBodyKB, defaultMaxBodyKB)) << 10
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next(w, r)
	}
}
