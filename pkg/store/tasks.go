package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects which workflow a task runs.
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeReverse  Mode = "reverse"
)

// ParseMode validates a mode from user input.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGenerate, ModeReverse:
		return m, nil
	}
	return "", fmt.Errorf("store: unknown mode %q", s)
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Done reports whether the task reached a final state.
func (s TaskStatus) Done() bool { return s == StatusCompleted || s == StatusFailed }

// Task is one article generation or reverse-engineering request.
type Task struct {
	ID          string     `json:"id"`
	Mode        Mode       `json:"mode"`
	Topic       string     `json:"topic"`
	PromptID    string     `json:"promptId,omitempty"`
	StyleID     string     `json:"styleId,omitempty"`
	SourceURL   string     `json:"sourceUrl,omitempty"`
	Status      TaskStatus `json:"status"`
	ExecutionID string     `json:"executionId,omitempty"`
	Content     string     `json:"content,omitempty"`
	WeChatHTML  string     `json:"wechatHtml,omitempty"`
	Words       int        `json:"words"`
	Error       string     `json:"error,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

const taskColumns = `id, mode, topic, prompt_id, style_id, source_url, status, execution_id,
	content, wechat_html, words, error, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var created, updated, mode, status string
	err := row.Scan(&t.ID, &mode, &t.Topic, &t.PromptID, &t.StyleID, &t.SourceURL, &status,
		&t.ExecutionID, &t.Content, &t.WeChatHTML, &t.Words, &t.Error, &t.CreatedBy, &created, &updated)
	if err != nil {
		return Task{}, err
	}
	t.Mode, t.Status = Mode(mode), TaskStatus(status)
	t.CreatedAt, t.UpdatedAt = parseTime(created), parseTime(updated)
	return t, nil
}

// CreateTask inserts t as pending and fills in its id and timestamps.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	if strings.TrimSpace(t.Topic) == "" && t.SourceURL == "" {
		return fmt.Errorf("store: task needs a topic or source url")
	}
	if _, err := ParseMode(string(t.Mode)); err != nil {
		return err
	}
	now := s.now()
	t.ID = newID()
	t.Status = StatusPending
	t.CreatedAt, t.UpdatedAt = now.UTC(), now.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Mode), t.Topic, t.PromptID, t.StyleID, t.SourceURL, string(t.Status), t.ExecutionID,
		t.Content, t.WeChatHTML, t.Words, t.Error, t.CreatedBy, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("store: create task: %w", err)
	}
	return nil
}

// GetTask returns the task with id.
func (s *Store) GetTask(ctx context.Context, id string) (Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}

// ListTasks returns the newest tasks first. limit <= 0 means 100.
func (s *Store) ListTasks(ctx context.Context, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC LIMIT ?`, limit)
}

// PendingTasks returns tasks submitted to the workflow engine that have not
// finished, oldest first.
func (s *Store) PendingTasks(ctx context.Context) ([]Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE status IN (?, ?) AND execution_id <> '' ORDER BY created_at ASC`,
		string(StatusPending), string(StatusRunning))
}

func (s *Store) queryTasks(ctx context.Context, q string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query tasks: %w", err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkSubmitted records the workflow execution that runs the task.
func (s *Store) MarkSubmitted(ctx context.Context, id, executionID string) error {
	return s.updateTask(ctx, id, `status = ?, execution_id = ?`, string(StatusRunning), executionID)
}

// CompleteTask stores the generated article. Only one finish per task
// succeeds; later ones return ErrAlreadyDone.
func (s *Store) CompleteTask(ctx context.Context, id, content, wechatHTML string, words int) error {
	return s.finishTask(ctx, id, `status = ?, content = ?, wechat_html = ?, words = ?, error = ''`,
		string(StatusCompleted), content, wechatHTML, words)
}

// FailTask marks the task failed with msg, under the same rule as
// CompleteTask.
func (s *Store) FailTask(ctx context.Context, id, msg string) error {
	return s.finishTask(ctx, id, `status = ?, error = ?`, string(StatusFailed), msg)
}

// finishTask moves a task to a terminal status. The status guard sits in the
// UPDATE itself so concurrent finishers cannot both win.
func (s *Store) finishTask(ctx context.Context, id, set string, args ...any) error {
	args = append(args, s.stamp(), id, string(StatusCompleted), string(StatusFailed))
	err := affected(s.db.ExecContext(ctx,
		`UPDATE tasks SET `+set+`, updated_at = ? WHERE id = ? AND status NOT IN (?, ?)`, args...))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		if _, gerr := s.GetTask(ctx, id); gerr == nil {
			return ErrAlreadyDone
		}
		return err
	default:
		return fmt.Errorf("store: finish task %s: %w", id, err)
	}
}

func (s *Store) updateTask(ctx context.Context, id, set string, args ...any) error {
	args = append(args, s.stamp(), id)
	err := affected(s.db.ExecContext(ctx, `UPDATE tasks SET `+set+`, updated_at = ? WHERE id = ?`, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("store: update task %s: %w", id, err)
	}
	return err
}

// DeleteTask removes the task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id))
}

// TaskByExecution finds the task a workflow execution belongs to.
func (s *Store) TaskByExecution(ctx context.Context, executionID string) (Task, error) {
	if executionID == "" {
		return Task{}, ErrNotFound
	}
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE execution_id = ?`, executionID))
	if err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}
