// Package workflow talks to the n8n webhooks that generate and
// reverse-engineer articles, and folds their results back into the store.
package workflow

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/joeydtaylor/contentops/pkg/store"
)

// SecretHeader carries the shared webhook secret both ways.
const SecretHeader = "X-Webhook-Secret"

var (
	ErrNoWebhook = errors.New("workflow: no webhook configured")
	ErrBadSecret = errors.New("workflow: bad webhook secret")
)

// Config points the client at the n8n webhooks. StatusURL may contain
// "{id}"; otherwise the execution id is sent as ?executionId=.
type Config struct {
	GenerateURL  string
	ReverseURL   string
	StatusURL    string
	CallbackURL  string
	Secret       string
	Timeout      time.Duration
	PollInterval time.Duration
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// State is a normalized execution state.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Submission is the webhook payload.
type Submission struct {
	TaskID      string     `json:"taskId"`
	Mode        store.Mode `json:"mode"`
	Topic       string     `json:"topic,omitempty"`
	Prompt      string     `json:"prompt,omitempty"`
	Style       string     `json:"style,omitempty"`
	SourceURL   string     `json:"sourceUrl,omitempty"`
	CallbackURL string     `json:"callbackUrl,omitempty"`
}

// Result is an execution outcome, either polled or pushed by callback.
type Result struct {
	TaskID      string
	ExecutionID string
	Status      State
	Content     string
	Error       string
}

// Execution is what a webhook answered. Result is set when the webhook
// ran synchronously and already finished.
type Execution struct {
	ID     string
	Result *Result
}

// wireResult accepts the field spellings n8n workflows commonly reply with.
type wireResult struct {
	TaskID      string `json:"taskId"`
	ExecutionID string `json:"executionId"`
	ID          string `json:"id"`
	Status      string `json:"status"`
	Finished    *bool  `json:"finished"`
	Content     string `json:"content"`
	Output      string `json:"output"`
	Article     string `json:"article"`
	Analysis    string `json:"analysis"`
	Error       string `json:"error"`
}

func (w wireResult) result() Result {
	r := Result{
		TaskID:      w.TaskID,
		ExecutionID: firstNonEmpty(w.ExecutionID, w.ID),
		Content:     firstNonEmpty(w.Content, w.Output, w.Article, w.Analysis),
		Error:       w.Error,
	}
	switch strings.ToLower(strings.TrimSpace(w.Status)) {
	case "success", "succeeded", "completed", "done":
		r.Status = StateCompleted
	case "error", "failed", "crashed", "canceled", "cancelled":
		r.Status = StateFailed
	case "":
		switch {
		case r.Error != "":
			r.Status = StateFailed
		case w.Finished != nil && *w.Finished, w.Finished == nil && r.Content != "":
			r.Status = StateCompleted
		default:
			r.Status = StateRunning
		}
	default:
		r.Status = StateRunning
	}
	if r.Status == StateFailed && r.Error == "" {
		r.Error = "workflow failed"
	}
	return r
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Client calls the webhooks.
type Client struct {
	cfg  Config
	http HTTPDoer
}

// NewClient uses doer when non-nil, otherwise an http.Client with cfg.Timeout.
func NewClient(cfg Config, doer HTTPDoer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: doer}
}

// Config returns the client's configuration.
func (c *Client) Config() Config { return c.cfg }

func (c *Client) webhook(m store.Mode) string {
	switch m {
	case store.ModeGenerate:
		return c.cfg.GenerateURL
	case store.ModeReverse:
		return c.cfg.ReverseURL
	}
	return ""
}

// Submit starts the workflow for s.Mode.
func (c *Client) Submit(ctx context.Context, s Submission) (Execution, error) {
	target := c.webhook(s.Mode)
	if target == "" {
		return Execution{}, fmt.Errorf("%w for mode %q", ErrNoWebhook, s.Mode)
	}
	if s.CallbackURL == "" {
		s.CallbackURL = c.cfg.CallbackURL
	}
	body, err := codec.JSONStrict.Marshal(s)
	if err != nil {
		return Execution{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Execution{}, err
	}
	req.Header.Set("Content-Type", codec.JSONStrict.ContentType())
	w, err := c.do(req)
	if err != nil {
		return Execution{}, fmt.Errorf("workflow: submit %s: %w", s.Mode, err)
	}
	res := w.result()
	exec := Execution{ID: res.ExecutionID}
	if res.Status != StateRunning {
		exec.Result = &res
	}
	if exec.ID == "" && exec.Result == nil {
		return Execution{}, fmt.Errorf("workflow: submit %s: no execution id in response", s.Mode)
	}
	return exec, nil
}

// Status fetches the current state of an execution.
func (c *Client) Status(ctx context.Context, executionID string) (Result, error) {
	if c.cfg.StatusURL == "" {
		return Result{}, ErrNoWebhook
	}
	target := c.cfg.StatusURL
	if strings.Contains(target, "{id}") {
		target = strings.ReplaceAll(target, "{id}", url.PathEscape(executionID))
	} else {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "executionId=" + url.QueryEscape(executionID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, err
	}
	w, err := c.do(req)
	if err != nil {
		return Result{}, fmt.Errorf("workflow: status %s: %w", executionID, err)
	}
	res := w.result()
	if res.ExecutionID == "" {
		res.ExecutionID = executionID
	}
	return res, nil
}

func (c *Client) do(req *http.Request) (wireResult, error) {
	req.Header.Set("Accept", "application/json")
	if c.cfg.Secret != "" {
		req.Header.Set(SecretHeader, c.cfg.Secret)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return wireResult{}, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return wireResult{}, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return wireResult{}, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(raw[:min(len(raw), 200)])))
	}
	return decodeWire(raw)
}

// decodeWire is lenient: workflows add fields freely and some reply with a
// one-element array.
func decodeWire(raw []byte) (wireResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return wireResult{}, nil
	}
	if raw[0] == '[' {
		var list []wireResult
		if err := codec.JSONLenient.Unmarshal(raw, &list); err != nil {
			return wireResult{}, fmt.Errorf("decode response: %w", err)
		}
		if len(list) == 0 {
			return wireResult{}, nil
		}
		return list[0], nil
	}
	var w wireResult
	if err := codec.JSONLenient.Unmarshal(raw, &w); err != nil {
		return wireResult{}, fmt.Errorf("decode response: %w", err)
	}
	return w, nil
}

// CheckSecret compares a presented secret with the configured one. Without
// a configured secret every callback is refused.
func (c *Client) CheckSecret(presented string) error {
	if c.cfg.Secret == "" {
		return ErrBadSecret
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(c.cfg.Secret)) != 1 {
		return ErrBadSecret
	}
	return nil
}

// DecodeCallback parses a result pushed by a workflow.
func DecodeCallback(raw []byte) (Result, error) {
	w, err := decodeWire(raw)
	if err != nil {
		return Result{}, err
	}
	res := w.result()
	if res.TaskID == "" && res.ExecutionID == "" {
		return Result{}, fmt.Errorf("workflow: callback names neither taskId nor executionId")
	}
	return res, nil
}
