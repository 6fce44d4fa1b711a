package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/joeydtaylor/contentops/pkg/workflow"
	"go.uber.org/zap"
)

// Built-in handler names referenced from manifest.toml.
const (
	HandlerWorkflowCallback = "workflow.callback"
	HandlerTasksList        = "tasks.list"
	HandlerTasksGet         = "tasks.get"
	HandlerImagesUpload     = "images.upload"
	HandlerRender           = "a2ui.render"
)

// APIDeps are the collaborators of the built-in API handlers.
type APIDeps struct {
	Store    *store.Store
	Workflow *workflow.Service
	Blob     blob.Store
	Events   events.Publisher
	Renderer *a2ui.Renderer
	Upload   manifest.Blob
	Log      *zap.Logger
}

// RegisterBuiltins adds the built-in API handlers to h.
func RegisterBuiltins(h *Handlers, d APIDeps) error {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Renderer == nil {
		d.Renderer = a2ui.NewRenderer(nil)
	}
	api := &api{d: d}
	for name, fn := range map[string]InprocHandler{
		HandlerWorkflowCallback: api.callback,
		HandlerTasksList:        api.listTasks,
		HandlerTasksGet:         api.getTask,
		HandlerImagesUpload:     api.upload,
		HandlerRender:           api.render,
	} {
		if err := h.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

type api struct{ d APIDeps }

func jsonOut(v any, status int) ([]byte, int, error) {
	b, err := codec.JSONStrict.Marshal(v)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return b, status, nil
}

func (a *api) callback(ctx context.Context, in Input) ([]byte, int, error) {
	if err := a.d.Workflow.Client().CheckSecret(in.Header.Get(workflow.SecretHeader)); err != nil {
		return nil, http.StatusUnauthorized, err
	}
	res, err := workflow.DecodeCallback(in.Body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	t, err := a.d.Workflow.HandleCallback(ctx, res)
	if errors.Is(err, store.ErrNotFound) {
		return nil, http.StatusNotFound, err
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return jsonOut(map[string]string{"id": t.ID, "status": string(t.Status)}, http.StatusOK)
}

func (a *api) listTasks(ctx context.Context, in Input) ([]byte, int, error) {
	limit := 50
	if s := in.Query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			return nil, http.StatusBadRequest, fmt.Errorf("limit must be 1..500")
		}
		limit = n
	}
	tasks, err := a.d.Store.ListTasks(ctx, limit)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	return jsonOut(tasks, http.StatusOK)
}

func (a *api) getTask(ctx context.Context, in Input) ([]byte, int, error) {
	t, err := a.d.Store.GetTask(ctx, in.Params["id"])
	if errors.Is(err, store.ErrNotFound) {
		return nil, http.StatusNotFound, err
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return jsonOut(t, http.StatusOK)
}

type renderReply struct {
	HTML        string       `json:"html"`
	Bindings    []renderBind `json:"bindings"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
}

type renderBind struct {
	ID     string      `json:"id"`
	Event  a2ui.Event  `json:"event"`
	Action a2ui.Action `json:"action"`
}

// render turns an arbitrary posted tree into markup. Malformed props are
// normalized and reported; unknown kinds render as placeholders.
func (a *api) render(_ context.Context, in Input) ([]byte, int, error) {
	root, err := a2ui.Parse(in.Body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	root, diags := a2ui.Normalize(root)
	diags = append(diags, a2ui.Validate(root)...)
	v := a.d.Renderer.Render(root, nil)

	out := renderReply{HTML: string(v.HTML), Bindings: []renderBind{}}
	for _, b := range v.Bindings() {
		out.Bindings = append(out.Bindings, renderBind{ID: b.ID, Event: b.Event, Action: b.Action})
	}
	for _, d := range diags {
		out.Diagnostics = append(out.Diagnostics, d.String())
	}
	return jsonOut(out, http.StatusOK)
}

// upload stores the multipart "file" field. Browser posts carrying a local
// ?redirect= get a 303 back to that page with a notice or error.
func (a *api) upload(ctx context.Context, in Input) ([]byte, int, error) {
	back := in.Query.Get("redirect")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = ""
	}
	fail := func(status int, err error) ([]byte, int, error) {
		if back != "" {
			return []byte(withMessage(back, "error", err.Error())), http.StatusSeeOther, nil
		}
		return nil, status, err
	}

	name, data, err := fileField(in, "file", a.maxBytes())
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return fail(http.StatusRequestEntityTooLarge, err)
		}
		return fail(http.StatusBadRequest, err)
	}
	ct := http.DetectContentType(data)
	if !slices.Contains(a.d.Upload.AllowTypes, ct) {
		return fail(http.StatusUnsupportedMediaType, fmt.Errorf("file type %s is not allowed", ct))
	}

	key := blob.NewKey("images", name)
	obj, err := a.d.Blob.Put(ctx, key, ct, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		a.d.Log.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return fail(http.StatusBadGateway, errors.New("storage unavailable"))
	}
	user := auth.UserFrom(ctx).Username
	im := &store.Image{Key: obj.Key, URL: obj.URL, Name: name, ContentType: ct, Size: obj.Size, CreatedBy: user}
	if err := a.d.Store.CreateImage(ctx, im); err != nil {
		_ = a.d.Blob.Delete(ctx, key)
		return fail(http.StatusInternalServerError, err)
	}
	if err := a.d.Events.Publish(ctx, events.New(events.ImageUploaded, im.ID, user, map[string]any{
		"key":  im.Key,
		"size": im.Size,
	})); err != nil {
		a.d.Log.Warn("event publish failed", zap.String("type", events.ImageUploaded), zap.Error(err))
	}

	if back != "" {
		return []byte(withMessage(back, "notice", "Image uploaded")), http.StatusSeeOther, nil
	}
	return jsonOut(im, http.StatusCreated)
}

func (a *api) maxBytes() int64 {
	mb := a.d.Upload.MaxUploadMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) << 20
}

var errTooLarge = errors.New("file too large")

// fileField returns the first part named field of a multipart body.
func fileField(in Input, field string, max int64) (string, []byte, error) {
	mt, params, err := mime.ParseMediaType(in.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/form-data" || params["boundary"] == "" {
		return "", nil, errors.New("expected multipart/form-data")
	}
	mr := multipart.NewReader(bytes.NewReader(in.Body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return "", nil, fmt.Errorf("missing %q file", field)
		}
		if err != nil {
			return "", nil, err
		}
		if p.FormName() != field || p.FileName() == "" {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(p, max+1))
		if err != nil {
			return "", nil, err
		}
		if int64(len(data)) > max {
			return "", nil, errTooLarge
		}
		if len(data) == 0 {
			return "", nil, errors.New("empty file")
		}
		return path.Base(strings.ReplaceAll(p.FileName(), `\`, "/")), data, nil
	}
}

// withMessage adds key=msg to a local url.
func withMessage(dest, key, msg string) string {
	u, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	q := u.Query()
	q.Set(key, msg)
	u.RawQuery = q.Encode()
	return u.String()
}

// UploadPath is the path of the first route served by the upload handler,
// or "" when the manifest mounts none.
func UploadPath(cfg manifest.Config) string {
	for _, rt := range cfg.Routes {
		if rt.Handler.Type == manifest.HandlerInproc && rt.Handler.Name == HandlerImagesUpload {
			return rt.Path
		}
	}
	return ""
}
