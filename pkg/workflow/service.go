package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeydtaylor/contentops/pkg/content"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/store"
	"go.uber.org/zap"
)

// Service submits tasks and applies workflow results to the store.
type Service struct {
	client *Client
	store  *store.Store
	pub    events.Publisher
	log    *zap.Logger
}

func NewService(c *Client, s *store.Store, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: c, store: s, pub: pub, log: log}
}

// Client returns the underlying webhook client.
func (s *Service) Client() *Client { return s.client }

// Start creates t, submits it, and records the execution. A submission
// failure leaves the task failed and is returned.
func (s *Service) Start(ctx context.Context, t *store.Task) error {
	if err := s.store.CreateTask(ctx, t); err != nil {
		return err
	}
	sub, err := s.submission(ctx, *t)
	if err != nil {
		return s.fail(ctx, t, err)
	}
	exec, err := s.client.Submit(ctx, sub)
	if err != nil {
		return s.fail(ctx, t, err)
	}
	if exec.ID != "" {
		if err := s.store.MarkSubmitted(ctx, t.ID, exec.ID); err != nil {
			return err
		}
		t.Status, t.ExecutionID = store.StatusRunning, exec.ID
	}
	s.publish(ctx, events.New(events.TaskSubmitted, t.ID, t.CreatedBy, map[string]any{
		"mode":        string(t.Mode),
		"executionId": exec.ID,
	}))
	if exec.Result != nil {
		done, err := s.Apply(ctx, *t, *exec.Result)
		if err != nil {
			return err
		}
		*t = done
	}
	return nil
}

func (s *Service) submission(ctx context.Context, t store.Task) (Submission, error) {
	sub := Submission{TaskID: t.ID, Mode: t.Mode, Topic: t.Topic, SourceURL: t.SourceURL}
	if t.PromptID != "" {
		p, err := s.store.GetPrompt(ctx, t.PromptID)
		if err != nil {
			return Submission{}, fmt.Errorf("workflow: prompt %s: %w", t.PromptID, err)
		}
		sub.Prompt = p.Body
	}
	// reverse tasks carry the style they are analyzing, not one to apply
	if t.StyleID != "" && t.Mode == store.ModeGenerate {
		st, err := s.store.GetStyle(ctx, t.StyleID)
		if err != nil {
			return Submission{}, fmt.Errorf("workflow: style %s: %w", t.StyleID, err)
		}
		sub.Style = st.Analysis
	}
	return sub, nil
}

func (s *Service) fail(ctx context.Context, t *store.Task, cause error) error {
	if _, err := s.Apply(ctx, *t, Result{TaskID: t.ID, Status: StateFailed, Error: cause.Error()}); err != nil {
		return errors.Join(cause, err)
	}
	t.Status, t.Error = store.StatusFailed, cause.Error()
	return cause
}

// Apply folds a finished result into t. Results for tasks that are already
// done, and running results, leave the task unchanged.
func (s *Service) Apply(ctx context.Context, t store.Task, res Result) (store.Task, error) {
	if t.Status.Done() || res.Status == StateRunning {
		return t, nil
	}
	switch res.Status {
	case StateCompleted:
		wechat, err := content.WeChat(res.Content)
		if err != nil {
			s.log.Warn("workflow: wechat conversion failed", zap.String("task", t.ID), zap.Error(err))
		}
		words := content.WordCount(res.Content)
		if err := s.store.CompleteTask(ctx, t.ID, res.Content, wechat, words); err != nil {
			return s.settled(ctx, t, err)
		}
		if t.Mode == store.ModeReverse && t.StyleID != "" {
			s.finishStyle(ctx, t.StyleID, res.Content, store.StyleReady)
		}
		s.publish(ctx, events.New(events.TaskCompleted, t.ID, t.CreatedBy, map[string]any{"words": words}))
	case StateFailed:
		if err := s.store.FailTask(ctx, t.ID, res.Error); err != nil {
			return s.settled(ctx, t, err)
		}
		if t.Mode == store.ModeReverse && t.StyleID != "" {
			s.finishStyle(ctx, t.StyleID, res.Error, store.StyleFailed)
		}
		s.publish(ctx, events.New(events.TaskFailed, t.ID, t.CreatedBy, map[string]any{"error": res.Error}))
	default:
		return t, fmt.Errorf("workflow: unknown state %q", res.Status)
	}
	s.log.Info("workflow: task finished", zap.String("task", t.ID), zap.String("status", string(res.Status)))
	return s.store.GetTask(ctx, t.ID)
}

// settled handles a finish that lost to another one: the stored task is
// returned as is and nothing is published.
func (s *Service) settled(ctx context.Context, t store.Task, err error) (store.Task, error) {
	if !errors.Is(err, store.ErrAlreadyDone) {
		return t, err
	}
	s.log.Debug("workflow: task already finished", zap.String("task", t.ID))
	return s.store.GetTask(ctx, t.ID)
}

func (s *Service) finishStyle(ctx context.Context, id, analysis string, status store.StyleStatus) {
	if err := s.store.FinishStyle(ctx, id, analysis, status); err != nil {
		s.log.Warn("workflow: finish style", zap.String("style", id), zap.Error(err))
		return
	}
	s.publish(ctx, events.New(events.StyleAnalyzed, id, "", map[string]any{"status": string(status)}))
}

// Refresh polls one task now.
func (s *Service) Refresh(ctx context.Context, id string) (store.Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return store.Task{}, err
	}
	if t.Status.Done() || t.ExecutionID == "" {
		return t, nil
	}
	res, err := s.client.Status(ctx, t.ExecutionID)
	if err != nil {
		return t, err
	}
	return s.Apply(ctx, t, res)
}

// HandleCallback applies a pushed result to the task it names.
func (s *Service) HandleCallback(ctx context.Context, res Result) (store.Task, error) {
	var (
		t   store.Task
		err error
	)
	if res.TaskID != "" {
		t, err = s.store.GetTask(ctx, res.TaskID)
	} else {
		t, err = s.store.TaskByExecution(ctx, res.ExecutionID)
	}
	if err != nil {
		return store.Task{}, err
	}
	return s.Apply(ctx, t, res)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.Warn("workflow: publish event", zap.String("type", e.Type), zap.Error(err))
	}
}
