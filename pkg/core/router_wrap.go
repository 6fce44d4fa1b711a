package core

import (
	"errors"
	"io"
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	httpx "github.com/joeydtaylor/contentops/pkg/transport/httpx"
	"go.uber.org/zap"
)

func wrapRoute(rt manifest.Route, d BuildDeps) http.HandlerFunc {
	switch rt.Handler.Type {
	case manifest.HandlerInproc:
		h, ok := d.Handlers.Lookup(rt.Handler.Name)
		if !ok {
			d.Log.Warn("inproc handler not registered", zap.String("handler", rt.Handler.Name), zap.String("path", rt.Path))
			return func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "handler not found", http.StatusInternalServerError)
			}
		}
		return func(w http.ResponseWriter, r *http.Request) {
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			out, status, err := h(r.Context(), Input{
				Body:   body,
				Header: r.Header,
				Query:  r.URL.Query(),
				Params: httpx.URLParams(r),
			})
			if err != nil {
				http.Error(w, err.Error(), statusIf(status, http.StatusInternalServerError))
				return
			}
			if status >= 300 && status < 400 {
				http.Redirect(w, r, string(out), status)
				return
			}
			writeJSON(w, out, statusIf(status, http.StatusOK))
		}

	case manifest.HandlerRelayPublish:
		return func(w http.ResponseWriter, r *http.Request) {
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			var data map[string]any
			if err := codec.JSONStrict.Unmarshal(body, &data); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			subject, _ := data["id"].(string)
			e := events.New(rt.Handler.Relay.Topic, subject, auth.UserFrom(r.Context()).Username, data)
			if err := d.Events.Publish(r.Context(), e); err != nil {
				d.Log.Warn("relay publish failed",
					zap.String("type", e.Type),
					zap.String("request_id", chimd.GetReqID(r.Context())),
					zap.Error(err),
				)
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			b, _ := codec.JSONStrict.Marshal(map[string]string{"id": e.ID})
			writeJSON(w, b, http.StatusAccepted)
		}

	default:
		return func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unknown handler type", http.StatusInternalServerError)
		}
	}
}

// readBody reads the limited body, answering 413 or 400 itself on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, true
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}
