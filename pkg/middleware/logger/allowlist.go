package logger

import (
	"net/http"
	"strings"
	"sync"
)

var (
	bodyLogMu     sync.RWMutex
	bodyLogPaths  = map[string]struct{}{"/api/a2ui/render": {}}
	bodyLogPrefix []string
)

// AddBodyLogPaths extends the request-body allowlist. An entry ending in
// "/*" admits every path under it.
func AddBodyLogPaths(paths ...string) {
	bodyLogMu.Lock()
	defer bodyLogMu.Unlock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case strings.HasSuffix(p, "/*"):
			bodyLogPrefix = append(bodyLogPrefix, strings.TrimSuffix(p, "*"))
		default:
			bodyLogPaths[p] = struct{}{}
		}
	}
}

// shouldLogBody admits small JSON or form bodies on allowlisted paths only.
// Multipart uploads are never logged.
func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 {
		return false
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		return false
	}
	bodyLogMu.RLock()
	defer bodyLogMu.RUnlock()
	if _, ok := bodyLogPaths[r.URL.Path]; ok {
		return true
	}
	for _, p := range bodyLogPrefix {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}
