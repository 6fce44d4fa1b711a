package store

import (
	"context"
	"fmt"
	"time"
)

// Totals summarizes every task ever submitted.
type Totals struct {
	Tasks     int `json:"tasks"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Words     int `json:"words"`
}

// Totals counts tasks by status and sums generated words.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(words), 0)
		FROM tasks`,
		string(StatusCompleted), string(StatusFailed), string(StatusPending), string(StatusRunning),
	).Scan(&t.Tasks, &t.Completed, &t.Failed, &t.Pending, &t.Words)
	if err != nil {
		return Totals{}, fmt.Errorf("store: totals: %w", err)
	}
	return t, nil
}

// DayVolume is the output of one calendar day (UTC).
type DayVolume struct {
	Day   string `json:"day"`
	Tasks int    `json:"tasks"`
	Words int    `json:"words"`
}

// DailyVolume returns per-day task counts and words for the last days days,
// oldest first. Days without tasks are omitted.
func (s *Store) DailyVolume(ctx context.Context, days int) ([]DayVolume, error) {
	if days <= 0 {
		days = 14
	}
	since := s.now().UTC().AddDate(0, 0, -(days - 1)).Format(time.DateOnly)
	rows, err := s.db.QueryContext(ctx, `SELECT substr(created_at, 1, 10) AS day, COUNT(*), COALESCE(SUM(words), 0)
		FROM tasks WHERE substr(created_at, 1, 10) >= ?
		GROUP BY day ORDER BY day ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("store: daily volume: %w", err)
	}
	defer rows.Close()
	var out []DayVolume
	for rows.Next() {
		var d DayVolume
		if err := rows.Scan(&d.Day, &d.Tasks, &d.Words); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// StyleUsage is how often a style was used for generation.
type StyleUsage struct {
	StyleID string `json:"styleId"`
	Name    string `json:"name"`
	Tasks   int    `json:"tasks"`
	Words   int    `json:"words"`
}

// StyleUsage ranks styles by the number of generate tasks that used them.
func (s *Store) StyleUsage(ctx context.Context) ([]StyleUsage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.style_id, COALESCE(st.name, ''), COUNT(*), COALESCE(SUM(t.words), 0)
		FROM tasks t LEFT JOIN styles st ON st.id = t.style_id
		WHERE t.style_id <> '' AND t.mode = ?
		GROUP BY t.style_id ORDER BY COUNT(*) DESC, t.style_id ASC`, string(ModeGenerate))
	if err != nil {
		return nil, fmt.Errorf("store: style usage: %w", err)
	}
	defer rows.Close()
	var out []StyleUsage
	for rows.Next() {
		var u StyleUsage
		if err := rows.Scan(&u.StyleID, &u.Name, &u.Tasks, &u.Words); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
