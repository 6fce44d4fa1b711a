package core

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/joeydtaylor/contentops/pkg/blob"
	httpx "github.com/joeydtaylor/contentops/pkg/transport/httpx"
)

// serveBlob streams stored uploads. Keys are random, so responses cache
// forever.
func serveBlob(b blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := httpx.URLParam(r, "*")
		rc, obj, err := b.Get(r.Context(), key)
		if errors.Is(err, blob.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, "blob unavailable", http.StatusBadGateway)
			return
		}
		defer rc.Close()

		h := w.Header()
		if obj.ContentType != "" {
			h.Set("Content-Type", obj.ContentType)
		}
		if obj.Size > 0 {
			h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		h.Set("Cache-Control", "public, max-age=31536000, immutable")
		h.Set("X-Content-Type-Options", "nosniff")
		_, _ = io.Copy(w, rc)
	}
}
