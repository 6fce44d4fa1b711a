package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/joeydtaylor/contentops/pkg/pages"
	httpx "github.com/joeydtaylor/contentops/pkg/transport/httpx"
	"go.uber.org/zap"
)

// XHRHeader marks action posts sent by the page shim; they get JSON back
// instead of a 303.
const XHRHeader = "X-Requested-With"

type pageHandler struct {
	cfg          manifest.Page
	page         pages.Page
	d            BuildDeps
	traceActions bool
}

func (h *pageHandler) request(r *http.Request) pages.Request {
	return pages.Request{User: auth.UserFrom(r.Context()), Query: r.URL.Query(), Path: h.cfg.Path}
}

// tree builds the full page. GET and action POSTs with the same query build
// the same tree, so binding ids line up.
func (h *pageHandler) tree(ctx context.Context, req pages.Request) (a2ui.Node, error) {
	body, err := h.page.Build(ctx, req)
	if err != nil {
		return a2ui.Node{}, err
	}
	return h.d.Site.Shell(h.cfg.Path, req, body), nil
}

func (h *pageHandler) title() string {
	if h.cfg.Title != "" {
		return h.cfg.Title
	}
	return h.page.Title()
}

func (h *pageHandler) view(w http.ResponseWriter, r *http.Request) {
	root, err := h.tree(r.Context(), h.request(r))
	if err != nil {
		h.d.Log.Error("page build failed",
			zap.String("page", h.cfg.Name),
			zap.String("request_id", chimd.GetReqID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	v := h.d.Renderer.Render(root, nil)

	var buf bytes.Buffer
	if err := h.d.Site.Document(&buf, h.title(), v, actionsPath(h.cfg.Path)); err != nil {
		h.d.Log.Error("page document failed", zap.String("page", h.cfg.Name), zap.Error(err))
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

type dispatched struct {
	name string
	args []any
}

func (h *pageHandler) action(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := httpx.URLParam(r, "binding")
	if uid, err := url.PathUnescape(id); err == nil {
		id = uid
	}
	value, err := decodeValue(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := h.request(r)
	root, err := h.tree(ctx, req)
	if err != nil {
		h.d.Log.Error("page build failed", zap.String("page", h.cfg.Name), zap.Error(err))
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	var calls []dispatched
	v := h.d.Renderer.Render(root, func(name string, args []any) {
		calls = append(calls, dispatched{name, args})
	})
	if err := v.Activate(id, value...); err != nil {
		if errors.Is(err, a2ui.ErrUnknownBinding) {
			http.Error(w, "unknown binding", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out pages.Outcome
	for _, c := range calls {
		res, err := pages.Dispatch(ctx, h.page, req, c.name, c.args)
		if h.traceActions {
			h.publish(ctx, req, id, c)
		}
		if err != nil {
			h.d.Log.Warn("page action failed",
				zap.String("page", h.cfg.Name),
				zap.String("action", c.name),
				zap.String("binding", id),
				zap.Error(err),
			)
			out.Error = err.Error()
			break
		}
		out = out.Merge(res)
	}
	out.Redirect = h.target(out, r)

	if r.Header.Get(XHRHeader) != "" {
		b, err := codec.JSONStrict.Marshal(out)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, b, http.StatusOK)
		return
	}
	http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
}

func (h *pageHandler) publish(ctx context.Context, req pages.Request, id string, c dispatched) {
	e := events.New(events.ActionDispatch, h.cfg.Name, req.User.Username, map[string]any{
		"binding": id,
		"action":  c.name,
		"args":    len(c.args),
	})
	if err := h.d.Events.Publish(ctx, e); err != nil {
		h.d.Log.Warn("action event publish failed", zap.Error(err))
	}
}

// target is where the client goes next: the outcome's local redirect or the
// current page, with the notice and error carried in the query.
func (h *pageHandler) target(out pages.Outcome, r *http.Request) string {
	dest := out.Redirect
	if dest == "" || !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
		dest = h.cfg.Path
		if q := r.URL.RawQuery; q != "" && out.Redirect == "" {
			dest += "?" + q
		}
	}
	u, err := url.Parse(dest)
	if err != nil {
		u = &url.URL{Path: h.cfg.Path}
	}
	q := u.Query()
	q.Del("notice")
	q.Del("error")
	if out.Notice != "" {
		q.Set("notice", out.Notice)
	}
	if out.Error != "" {
		q.Set("error", out.Error)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type actionBody struct {
	Value any `json:"value"`
}

// decodeValue reads the activation value: {"value": ...} from the shim, or
// the posted form fields as a map.
func decodeValue(r *http.Request) ([]any, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		if len(r.PostForm) == 0 {
			return nil, nil
		}
		m := make(map[string]any, len(r.PostForm))
		for k := range r.PostForm {
			m[k] = r.PostForm.Get(k)
		}
		return []any{m}, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body actionBody
	if err := codec.JSONStrict.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body.Value == nil {
		return nil, nil
	}
	return []any{body.Value}, nil
}
