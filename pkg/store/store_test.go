package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "contentops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// clock returns a controllable now func starting at start.
func clock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestOpenMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	var v int
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v))
	assert.Equal(t, len(migrations), v)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Ping(ctx))
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	task := &Task{Mode: ModeGenerate, Topic: "Go generics", CreatedBy: "ana"}
	require.NoError(t, s.CreateTask(ctx, task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, StatusPending, task.Status)

	// not submitted yet, so nothing to poll
	pending, err := s.PendingTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.MarkSubmitted(ctx, task.ID, "exec-1"))
	pending, err = s.PendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, StatusRunning, pending[0].Status)

	byExec, err := s.TaskByExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, task.ID, byExec.ID)

	require.NoError(t, s.CompleteTask(ctx, task.ID, "# Done", "<section>", 2))
	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "# Done", got.Content)
	assert.Equal(t, 2, got.Words)
	assert.True(t, got.Status.Done())

	// a second finish changes nothing
	assert.True(t, errors.Is(s.FailTask(ctx, task.ID, "late"), ErrAlreadyDone))
	assert.True(t, errors.Is(s.CompleteTask(ctx, task.ID, "# Again", "", 9), ErrAlreadyDone))
	got, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "# Done", got.Content)
	assert.Empty(t, got.Error)

	pending, err = s.PendingTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	_, err = s.GetTask(ctx, task.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.FailTask(ctx, task.ID, "x"), ErrNotFound))
	assert.True(t, errors.Is(s.DeleteTask(ctx, task.ID), ErrNotFound))
}

func TestCreateTaskValidates(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	assert.Error(t, s.CreateTask(ctx, &Task{Mode: ModeGenerate}))
	assert.Error(t, s.CreateTask(ctx, &Task{Mode: "poem", Topic: "x"}))
	assert.NoError(t, s.CreateTask(ctx, &Task{Mode: ModeReverse, SourceURL: "https://example.com/a"}))

	m, err := ParseMode(" Reverse ")
	require.NoError(t, err)
	assert.Equal(t, ModeReverse, m)
}

func TestListTasksNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	var advance func(time.Duration)
	s.now, advance = clock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	for _, topic := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateTask(ctx, &Task{Mode: ModeGenerate, Topic: topic}))
		advance(time.Minute)
	}
	tasks, err := s.ListTasks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "third", tasks[0].Topic)
	assert.Equal(t, "second", tasks[1].Topic)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 2, 0, 0, time.UTC), tasks[0].CreatedAt)
}

func TestListTasksOrdersSubSecondTimes(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	var advance func(time.Duration)
	s.now, advance = clock(time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC))

	require.NoError(t, s.CreateTask(ctx, &Task{Mode: ModeGenerate, Topic: "whole second"}))
	advance(500 * time.Millisecond)
	require.NoError(t, s.CreateTask(ctx, &Task{Mode: ModeGenerate, Topic: "half past"}))

	tasks, err := s.ListTasks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "half past", tasks[0].Topic)
	assert.Equal(t, "whole second", tasks[1].Topic)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 5, 500_000_000, time.UTC), tasks[0].CreatedAt)

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT created_at FROM tasks WHERE id = ?`, tasks[1].ID).Scan(&raw))
	assert.Equal(t, "2024-05-01T12:00:05.000000000Z", raw)
}

func TestPrompts(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	p := &Prompt{Name: "listicle", Category: "growth", Body: "Write 10 tips about {{topic}}"}
	require.NoError(t, s.CreatePrompt(ctx, p))
	assert.Error(t, s.CreatePrompt(ctx, &Prompt{Name: "listicle", Body: "dup"}))
	assert.Error(t, s.CreatePrompt(ctx, &Prompt{Name: "empty"}))

	created, err := s.UpsertPrompt(ctx, Prompt{Name: "listicle", Category: "growth", Body: "v2"})
	require.NoError(t, err)
	assert.False(t, created)
	created, err = s.UpsertPrompt(ctx, Prompt{Name: "essay", Body: "Write an essay"})
	require.NoError(t, err)
	assert.True(t, created)

	got, err := s.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Body)

	all, err := s.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "essay", all[0].Name)

	require.NoError(t, s.DeletePrompt(ctx, p.ID))
	assert.True(t, errors.Is(s.UpdatePrompt(ctx, *p), ErrNotFound))
}

func TestStyles(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	st := &Style{Name: "Calm explainer", SourceURL: "https://example.com/post"}
	require.NoError(t, s.CreateStyle(ctx, st))
	assert.Equal(t, StyleAnalyzing, st.Status)

	require.NoError(t, s.LinkStyleTask(ctx, st.ID, "task-1"))
	require.NoError(t, s.FinishStyle(ctx, st.ID, "short sentences", StyleReady))

	got, err := s.GetStyle(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.TaskID)
	assert.Equal(t, StyleReady, got.Status)
	assert.Equal(t, "short sentences", got.Analysis)

	list, err := s.ListStyles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteStyle(ctx, st.ID))
	_, err = s.GetStyle(ctx, st.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestImages(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	im := &Image{Key: "images/a.png", URL: "/blob/images/a.png", Name: "a.png", ContentType: "image/png", Size: 42}
	require.NoError(t, s.CreateImage(ctx, im))
	assert.Error(t, s.CreateImage(ctx, &Image{Key: "images/a.png", URL: "/x"}))

	got, err := s.GetImage(ctx, im.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Size)

	list, err := s.ListImages(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteImage(ctx, im.ID))
	assert.True(t, errors.Is(s.DeleteImage(ctx, im.ID), ErrNotFound))
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	var advance func(time.Duration)
	s.now, advance = clock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	style := &Style{Name: "Punchy"}
	require.NoError(t, s.CreateStyle(ctx, style))

	mk := func(mode Mode, styleID string) string {
		task := &Task{Mode: mode, Topic: "t", StyleID: styleID}
		require.NoError(t, s.CreateTask(ctx, task))
		return task.ID
	}

	a := mk(ModeGenerate, style.ID)
	require.NoError(t, s.CompleteTask(ctx, a, "x", "", 100))
	advance(24 * time.Hour)
	b := mk(ModeGenerate, style.ID)
	require.NoError(t, s.CompleteTask(ctx, b, "y", "", 50))
	c := mk(ModeReverse, style.ID)
	require.NoError(t, s.FailTask(ctx, c, "boom"))
	mk(ModeGenerate, "")

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Tasks: 4, Completed: 2, Failed: 1, Pending: 1, Words: 150}, totals)

	days, err := s.DailyVolume(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []DayVolume{
		{Day: "2024-05-01", Tasks: 1, Words: 100},
		{Day: "2024-05-02", Tasks: 3, Words: 50},
	}, days)

	days, err = s.DailyVolume(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, days, 1)

	usage, err := s.StyleUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StyleUsage{{StyleID: style.ID, Name: "Punchy", Tasks: 2, Words: 150}}, usage)
}
