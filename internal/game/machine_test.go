package game

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nonodojo/internal/catalog"
	"nonodojo/internal/nonogram"
	"nonodojo/internal/selection"
	"nonodojo/internal/session"
	"nonodojo/internal/telemetry"
)

func fixedClock(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

var day1 = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) session.Store {
	t.Helper()
	store, err := session.NewSQLite(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func newTestMachine(t *testing.T, store session.Store, now func() time.Time) *Machine {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	log, err := telemetry.New("")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return NewMachine(Params{
		Store:     store,
		Catalog:   cat,
		Engine:    selection.NewEngine(cat),
		Rotation:  selection.NewRotation(cat, store),
		Log:       log,
		SessionID: "test-session",
		Now:       now,
	}, catalog.Easy)
}

// solve fills the grid to match the current puzzle's solution.
func solve(ctx context.Context, m *Machine) {
	sol := m.Puzzle().Solution
	for r := range sol {
		for c := range sol[r] {
			if sol[r][c] {
				m.SetCell(ctx, r, c, nonogram.CellFilled)
			}
		}
	}
}

func TestLoadStartsFeaturedPuzzle(t *testing.T) {
	m := newTestMachine(t, newTestStore(t), fixedClock(day1))
	ctx := context.Background()

	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.Loaded() {
		t.Fatalf("expected loaded machine")
	}
	if m.Puzzle().ID == "" {
		t.Fatalf("expected a featured puzzle")
	}
	if m.Status() != session.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", m.Status())
	}
	if m.NotificationVisible() {
		t.Fatalf("fresh load must not show a notification")
	}
}

func TestEditsIgnoredBeforeLoad(t *testing.T) {
	m := newTestMachine(t, newTestStore(t), fixedClock(day1))
	// Must be a no-op, not a panic, when nothing is loaded yet.
	m.SetCell(context.Background(), 0, 0, nonogram.CellFilled)
	if m.Loaded() {
		t.Fatalf("machine claims loaded before Load")
	}
}

func TestExactlyOnceNotification(t *testing.T) {
	store := newTestStore(t)
	m := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	raised := 0
	sol := m.Puzzle().Solution
	for r := range sol {
		for c := range sol[r] {
			if !sol[r][c] {
				continue
			}
			m.SetCell(ctx, r, c, nonogram.CellFilled)
			if m.NotificationVisible() {
				raised++
				m.DismissNotification()
			}
		}
	}
	if raised != 1 {
		t.Fatalf("expected exactly one notification, got %d", raised)
	}
	if m.Status() != session.StatusSolved {
		t.Fatalf("expected solved, got %s", m.Status())
	}

	// Post-solve edits are dropped and never re-raise.
	m.SetCell(ctx, 0, 0, nonogram.CellEmpty)
	if m.NotificationVisible() {
		t.Fatalf("post-solve edit re-raised the notification")
	}
	n, err := store.SolvedCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one counted solve, got %d", n)
	}
}

func TestLoadingSolvedRecordNeverNotifies(t *testing.T) {
	store := newTestStore(t)
	first := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := first.Load(ctx); err != nil {
		t.Fatal(err)
	}
	solve(ctx, first)
	if first.Status() != session.StatusSolved {
		t.Fatalf("setup: expected solved")
	}

	// Repeated reloads of the solved record, as on refresh.
	second := newTestMachine(t, store, fixedClock(day1))
	for i := 0; i < 3; i++ {
		if err := second.Load(ctx); err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}
		if second.NotificationVisible() {
			t.Fatalf("reload %d raised a notification from a stored solve", i)
		}
		if second.Status() != session.StatusSolved {
			t.Fatalf("reload %d lost solved status", i)
		}
		if !second.Locked() {
			t.Fatalf("reload %d: solved grid must be locked", i)
		}
	}
}

func TestRestartReArmsNotification(t *testing.T) {
	store := newTestStore(t)
	m := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	solve(ctx, m)
	if !m.NotificationVisible() {
		t.Fatalf("first solve did not notify")
	}
	m.DismissNotification()

	m.Restart(ctx)
	if m.Status() != session.StatusInProgress || m.NotificationVisible() {
		t.Fatalf("restart did not reset state")
	}

	solve(ctx, m)
	if !m.NotificationVisible() {
		t.Fatalf("re-solve after restart did not notify")
	}

	// The stats marker stays exactly-once per puzzle id.
	n, err := store.SolvedCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one counted solve across restarts, got %d", n)
	}
}

func TestNextPuzzleLeavesPriorRecordUntouched(t *testing.T) {
	store := newTestStore(t)
	m := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	solve(ctx, m)
	solvedID := m.Puzzle().ID
	m.DismissNotification()

	if err := m.NextPuzzle(ctx); err != nil {
		t.Fatalf("next puzzle: %v", err)
	}
	if m.Status() != session.StatusInProgress {
		t.Fatalf("new attempt should start in_progress")
	}
	if m.NotificationVisible() {
		t.Fatalf("puzzle switch leaked the notification")
	}

	all, err := store.ListAttempts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	foundSolved := false
	for _, rec := range all {
		if rec.PuzzleID == solvedID && rec.Status == session.StatusSolved {
			foundSolved = true
		}
	}
	if !foundSolved {
		t.Fatalf("prior solved record was disturbed: %+v", all)
	}
}

func TestSetDifficultyReloads(t *testing.T) {
	store := newTestStore(t)
	m := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	m.SetCell(ctx, 0, 0, nonogram.CellFilled)

	if err := m.SetDifficulty(ctx, catalog.Hard); err != nil {
		t.Fatalf("set difficulty: %v", err)
	}
	if m.Difficulty() != catalog.Hard {
		t.Fatalf("expected hard, got %s", m.Difficulty())
	}
	if m.Status() != session.StatusInProgress || m.NotificationVisible() {
		t.Fatalf("difficulty switch did not reset session state")
	}
	v, err := store.LoadSetting(ctx, "last_difficulty")
	if err != nil {
		t.Fatal(err)
	}
	if v != "hard" {
		t.Fatalf("expected remembered difficulty, got %q", v)
	}
}

func TestDayRolloverStartsFresh(t *testing.T) {
	store := newTestStore(t)
	clock := day1
	m := newTestMachine(t, store, func() time.Time { return clock })
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	solve(ctx, m)
	m.DismissNotification()

	// Same day: nothing changes.
	if err := m.RolloverCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Status() != session.StatusSolved {
		t.Fatalf("same-day rollover check disturbed the attempt")
	}

	clock = day1.AddDate(0, 0, 1)
	if err := m.RolloverCheck(ctx); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if m.Day() != "2026-08-24" {
		t.Fatalf("expected new day, got %s", m.Day())
	}
	if m.Status() != session.StatusInProgress {
		t.Fatalf("yesterday's solved record leaked into the new day")
	}
	if m.NotificationVisible() {
		t.Fatalf("rollover raised a notification")
	}
}

func TestTimerGatedByFirstMove(t *testing.T) {
	m := newTestMachine(t, newTestStore(t), fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	m.TickSecond(ctx)
	if m.Elapsed() != 0 {
		t.Fatalf("timer ran before the first move")
	}
	m.SetCell(ctx, 0, 0, nonogram.CellMarked)
	m.TickSecond(ctx)
	m.TickSecond(ctx)
	if m.Elapsed() != 2 {
		t.Fatalf("expected 2 elapsed seconds, got %d", m.Elapsed())
	}

	solve(ctx, m)
	was := m.Elapsed()
	m.TickSecond(ctx)
	if m.Elapsed() != was {
		t.Fatalf("timer kept running after solve")
	}
}

func TestUndoRedo(t *testing.T) {
	m := newTestMachine(t, newTestStore(t), fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	m.SetCell(ctx, 0, 0, nonogram.CellFilled)
	m.SetCell(ctx, 1, 1, nonogram.CellMarked)
	if !m.CanUndo() {
		t.Fatalf("expected undo available")
	}

	m.Undo(ctx)
	g := m.Grid()
	if g[1][1] != nonogram.CellEmpty {
		t.Fatalf("undo did not revert the last edit")
	}
	if !m.CanRedo() {
		t.Fatalf("expected redo available")
	}
	m.Redo(ctx)
	g = m.Grid()
	if g[1][1] != nonogram.CellMarked {
		t.Fatalf("redo did not reapply the edit")
	}

	// A new edit clears the redo branch.
	m.Undo(ctx)
	m.SetCell(ctx, 2, 2, nonogram.CellFilled)
	if m.CanRedo() {
		t.Fatalf("redo stack survived a new edit")
	}
}

func TestMemoryOnlyDegradationWhenStoreFails(t *testing.T) {
	m := newTestMachine(t, brokenStore{}, fixedClock(day1))
	ctx := context.Background()

	if err := m.Load(ctx); err != nil {
		t.Fatalf("load with broken store: %v", err)
	}
	solve(ctx, m)
	if m.Status() != session.StatusSolved {
		t.Fatalf("in-memory play broke when persistence failed")
	}
	if !m.NotificationVisible() {
		t.Fatalf("solve with broken store did not notify")
	}
}

func TestLoadReconcilesStatusWithGrid(t *testing.T) {
	store := newTestStore(t)
	m := newTestMachine(t, store, fixedClock(day1))
	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	pz := m.Puzzle()

	// A record claiming solved over an empty grid gets corrected.
	if err := store.SaveAttempt(ctx, session.AttemptRecord{
		Difficulty: string(catalog.Easy),
		Day:        "2026-08-23",
		PuzzleID:   pz.ID,
		Grid:       nonogram.NewGrid(pz.Size),
		Status:     session.StatusSolved,
		SessionID:  "other-session",
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Status() != session.StatusInProgress {
		t.Fatalf("status not reconciled with unsolved grid: %s", m.Status())
	}
}

// brokenStore fails every call, modeling disabled storage.
type brokenStore struct{}

var errBroken = errors.New("storage disabled")

func (brokenStore) EnsureSchema(context.Context) error { return errBroken }
func (brokenStore) LoadAttempt(context.Context, string, string) (*session.AttemptRecord, error) {
	return nil, errBroken
}
func (brokenStore) SaveAttempt(context.Context, session.AttemptRecord) error { return errBroken }
func (brokenStore) ListAttempts(context.Context) ([]session.AttemptRecord, error) {
	return nil, errBroken
}
func (brokenStore) Cleanup(context.Context, int, string) (int, error) { return 0, errBroken }
func (brokenStore) LoadRotation(context.Context, string) (session.RotationRecord, error) {
	return session.RotationRecord{}, errBroken
}
func (brokenStore) SaveRotation(context.Context, string, session.RotationRecord) error {
	return errBroken
}
func (brokenStore) MarkSolved(context.Context, string) (bool, error) { return false, errBroken }
func (brokenStore) SolvedCount(context.Context) (int, error)         { return 0, errBroken }
func (brokenStore) GetSummary(context.Context) (session.Summary, error) {
	return session.Summary{}, errBroken
}
func (brokenStore) SaveSetting(context.Context, string, string) error { return errBroken }
func (brokenStore) LoadSetting(context.Context, string) (string, error) {
	return "", errBroken
}
func (brokenStore) Close() error { return nil }
