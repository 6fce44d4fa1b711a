package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Prompt is a reusable generation prompt.
type Prompt struct {
	ID        string    `json:"id" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category,omitempty" yaml:"category"`
	Body      string    `json:"body" yaml:"body"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

func (p Prompt) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("store: prompt name required")
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("store: prompt body required")
	}
	return nil
}

const promptColumns = `id, name, category, body, created_at, updated_at`

func scanPrompt(row interface{ Scan(...any) error }) (Prompt, error) {
	var p Prompt
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Body, &created, &updated); err != nil {
		return Prompt{}, err
	}
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

// CreatePrompt inserts p and fills in its id and timestamps.
func (s *Store) CreatePrompt(ctx context.Context, p *Prompt) error {
	if err := p.validate(); err != nil {
		return err
	}
	now := s.now()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now.UTC(), now.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO prompts (`+promptColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Body, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("store: create prompt %q: %w", p.Name, err)
	}
	return nil
}

// UpdatePrompt rewrites name, category and body of an existing prompt.
func (s *Store) UpdatePrompt(ctx context.Context, p Prompt) error {
	if err := p.validate(); err != nil {
		return err
	}
	return affected(s.db.ExecContext(ctx,
		`UPDATE prompts SET name = ?, category = ?, body = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Category, p.Body, s.stamp(), p.ID))
}

// UpsertPrompt creates the prompt or, when one with the same name exists,
// replaces its category and body. It reports whether a row was created.
func (s *Store) UpsertPrompt(ctx context.Context, p Prompt) (bool, error) {
	if err := p.validate(); err != nil {
		return false, err
	}
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM prompts WHERE name = ?`, p.Name).Scan(&id)
	switch err = notFound(err); err {
	case nil:
		p.ID = id
		return false, s.UpdatePrompt(ctx, p)
	case ErrNotFound:
		return true, s.CreatePrompt(ctx, &p)
	default:
		return false, err
	}
}

// GetPrompt returns the prompt with id.
func (s *Store) GetPrompt(ctx context.Context, id string) (Prompt, error) {
	p, err := scanPrompt(s.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id))
	if err != nil {
		return Prompt{}, notFound(err)
	}
	return p, nil
}

// ListPrompts returns prompts ordered by category then name.
func (s *Store) ListPrompts(ctx context.Context) ([]Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promptColumns+` FROM prompts ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list prompts: %w", err)
	}
	defer rows.Close()
	var out []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePrompt removes the prompt.
func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id))
}

// ---------- styles ----------

type StyleStatus string

const (
	StyleAnalyzing StyleStatus = "analyzing"
	StyleReady     StyleStatus = "ready"
	StyleFailed    StyleStatus = "failed"
)

// Style is a writing-style analysis extracted from a reference article.
type Style struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	SourceURL string      `json:"sourceUrl"`
	Analysis  string      `json:"analysis,omitempty"`
	Status    StyleStatus `json:"status"`
	TaskID    string      `json:"taskId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

const styleColumns = `id, name, source_url, analysis, status, task_id, created_at, updated_at`

func scanStyle(row interface{ Scan(...any) error }) (Style, error) {
	var st Style
	var status, created, updated string
	if err := row.Scan(&st.ID, &st.Name, &st.SourceURL, &st.Analysis, &status, &st.TaskID, &created, &updated); err != nil {
		return Style{}, err
	}
	st.Status = StyleStatus(status)
	st.CreatedAt, st.UpdatedAt = parseTime(created), parseTime(updated)
	return st, nil
}

// CreateStyle inserts st in the analyzing state.
func (s *Store) CreateStyle(ctx context.Context, st *Style) error {
	if strings.TrimSpace(st.Name) == "" {
		return fmt.Errorf("store: style name required")
	}
	now := s.now()
	st.ID = newID()
	st.Status = StyleAnalyzing
	st.CreatedAt, st.UpdatedAt = now.UTC(), now.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO styles (`+styleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.SourceURL, st.Analysis, string(st.Status), st.TaskID, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("store: create style %q: %w", st.Name, err)
	}
	return nil
}

// LinkStyleTask records the task analyzing the style.
func (s *Store) LinkStyleTask(ctx context.Context, id, taskID string) error {
	return affected(s.db.ExecContext(ctx, `UPDATE styles SET task_id = ?, updated_at = ? WHERE id = ?`,
		taskID, s.stamp(), id))
}

// FinishStyle stores the analysis result (or failure) of a style.
func (s *Store) FinishStyle(ctx context.Context, id, analysis string, status StyleStatus) error {
	return affected(s.db.ExecContext(ctx, `UPDATE styles SET analysis = ?, status = ?, updated_at = ? WHERE id = ?`,
		analysis, string(status), s.stamp(), id))
}

// GetStyle returns the style with id.
func (s *Store) GetStyle(ctx context.Context, id string) (Style, error) {
	st, err := scanStyle(s.db.QueryRowContext(ctx, `SELECT `+styleColumns+` FROM styles WHERE id = ?`, id))
	if err != nil {
		return Style{}, notFound(err)
	}
	return st, nil
}

// ListStyles returns styles, newest first.
func (s *Store) ListStyles(ctx context.Context) ([]Style, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+styleColumns+` FROM styles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list styles: %w", err)
	}
	defer rows.Close()
	var out []Style
	for rows.Next() {
		st, err := scanStyle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteStyle removes the style.
func (s *Store) DeleteStyle(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id))
}
