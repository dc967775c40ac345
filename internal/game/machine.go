// Package game runs the attempt lifecycle: load a saved attempt or a
// fresh featured puzzle, apply edits, detect the solve, and raise the
// victory notification exactly once per loaded session.
package game

import (
	"context"
	"time"

	"nonodojo/internal/catalog"
	"nonodojo/internal/nonogram"
	"nonodojo/internal/selection"
	"nonodojo/internal/session"
	"nonodojo/internal/telemetry"
)

const dayLayout = "2006-01-02"

// sessionFlags live for one loaded session and are reset wholesale on
// every load or puzzle switch. They are never persisted.
type sessionFlags struct {
	hasLoaded         bool
	notificationShown bool
	hasMoved          bool
}

type Params struct {
	Store     session.Store
	Catalog   *catalog.Catalog
	Engine    *selection.Engine
	Rotation  *selection.Rotation
	Log       *telemetry.Logger
	SessionID string

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Machine is the single-owner state for one player's current attempt.
// All methods run on one goroutine; the TUI event loop is the only
// caller.
type Machine struct {
	store     session.Store
	catalog   *catalog.Catalog
	engine    *selection.Engine
	rotation  *selection.Rotation
	log       *telemetry.Logger
	sessionID string
	now       func() time.Time

	difficulty catalog.Difficulty
	day        string
	puzzle     catalog.Puzzle
	grid       nonogram.Grid
	undo       []nonogram.Grid
	redo       []nonogram.Grid
	elapsed    int
	status     session.Status

	flags               sessionFlags
	notificationVisible bool
}

func NewMachine(p Params, difficulty catalog.Difficulty) *Machine {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Machine{
		store:      p.Store,
		catalog:    p.Catalog,
		engine:     p.Engine,
		rotation:   p.Rotation,
		log:        p.Log,
		sessionID:  p.SessionID,
		now:        now,
		difficulty: difficulty,
	}
}

// Load restores today's attempt for the current difficulty, or starts
// the featured puzzle when none exists. The notification flags are
// reset before anything else happens: a restored grid that is already
// complete must never look like a fresh solve, so the reset cannot
// depend on what the evaluator says afterwards.
func (m *Machine) Load(ctx context.Context) error {
	m.flags = sessionFlags{}
	m.notificationVisible = false
	m.day = m.now().Format(dayLayout)

	if _, err := m.catalog.Pool(m.difficulty); err != nil {
		fallback, fbErr := m.catalog.FallbackDifficulty()
		if fbErr != nil {
			return fbErr
		}
		m.log.Info("empty pool, falling back", "from", m.difficulty, "to", fallback)
		m.difficulty = fallback
	}

	rec, err := m.store.LoadAttempt(ctx, string(m.difficulty), m.day)
	if err != nil {
		// Corrupt or unreadable records mean a fresh start, never a
		// user-visible error.
		m.log.Error("load attempt failed", "difficulty", m.difficulty, "day", m.day, "err", err)
		rec = nil
	}
	if rec != nil {
		if pz, ok := m.catalog.Find(m.difficulty, rec.PuzzleID); ok && len(rec.Grid) == pz.Size {
			m.restore(pz, rec)
			m.flags.hasLoaded = true
			return nil
		}
		m.log.Info("saved puzzle no longer in catalog", "puzzle", rec.PuzzleID)
	}

	pz, err := m.engine.Featured(m.difficulty, m.day)
	if err != nil {
		return err
	}
	m.startFresh(pz)
	m.flags.hasLoaded = true
	m.log.Info("loaded featured puzzle", "puzzle", pz.ID, "difficulty", m.difficulty, "day", m.day)
	return nil
}

func (m *Machine) restore(pz catalog.Puzzle, rec *session.AttemptRecord) {
	m.puzzle = pz
	m.grid = rec.Grid.Clone()
	m.undo = cloneStack(rec.UndoStack)
	m.redo = cloneStack(rec.RedoStack)
	m.elapsed = rec.Elapsed
	m.status = rec.Status

	// The grid is data, so the evaluator necessarily re-runs here, but
	// it only reconciles status. Notifications are raised by edits.
	if nonogram.Solved(m.grid, m.puzzle.Solution) {
		m.status = session.StatusSolved
	} else if m.status == session.StatusSolved {
		m.status = session.StatusInProgress
	}
}

func (m *Machine) startFresh(pz catalog.Puzzle) {
	m.puzzle = pz
	m.grid = nonogram.NewGrid(pz.Size)
	m.undo = nil
	m.redo = nil
	m.elapsed = 0
	m.status = session.StatusInProgress
}

// SetCell applies one player edit. Edits before the load completes or
// after the puzzle is solved are dropped.
func (m *Machine) SetCell(ctx context.Context, row, col int, c nonogram.Cell) {
	if !m.flags.hasLoaded || m.status == session.StatusSolved {
		return
	}
	if row < 0 || row >= len(m.grid) || col < 0 || col >= len(m.grid) {
		return
	}
	if m.grid[row][col] == c {
		return
	}
	prev := m.grid.Clone()
	if err := m.grid.Set(row, col, c); err != nil {
		return
	}
	m.undo = append(m.undo, prev)
	m.redo = nil
	m.flags.hasMoved = true
	m.evaluate(ctx)
	m.persist(ctx)
}

// evaluate reconciles status with the grid and raises the one-time
// notification on a genuine solve. Safe to call repeatedly.
func (m *Machine) evaluate(ctx context.Context) {
	if !nonogram.Solved(m.grid, m.puzzle.Solution) {
		m.status = session.StatusInProgress
		return
	}
	m.status = session.StatusSolved
	if m.flags.notificationShown {
		return
	}
	m.flags.notificationShown = true
	m.notificationVisible = true

	// The stats marker is keyed by puzzle id and idempotent in the
	// store, so re-solving after a restart cannot double-count.
	first, err := m.store.MarkSolved(ctx, m.puzzle.ID)
	if err != nil {
		m.log.Error("mark solved failed", "puzzle", m.puzzle.ID, "err", err)
		return
	}
	m.log.Info("puzzle solved", "puzzle", m.puzzle.ID, "first", first, "elapsed", m.elapsed)
}

func (m *Machine) Undo(ctx context.Context) {
	if !m.flags.hasLoaded || m.status == session.StatusSolved || len(m.undo) == 0 {
		return
	}
	m.redo = append(m.redo, m.grid)
	m.grid = m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.evaluate(ctx)
	m.persist(ctx)
}

func (m *Machine) Redo(ctx context.Context) {
	if !m.flags.hasLoaded || m.status == session.StatusSolved || len(m.redo) == 0 {
		return
	}
	m.undo = append(m.undo, m.grid)
	m.grid = m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.evaluate(ctx)
	m.persist(ctx)
}

// DismissNotification hides the victory overlay. The persistent solved
// badge takes over as the visible indicator.
func (m *Machine) DismissNotification() {
	m.notificationVisible = false
}

// Restart clears the grid and re-arms the notification, so re-solving
// the same puzzle in the same session celebrates again.
func (m *Machine) Restart(ctx context.Context) {
	if !m.flags.hasLoaded {
		return
	}
	m.startFresh(m.puzzle)
	m.notificationVisible = false
	m.flags.notificationShown = false
	m.flags.hasMoved = false
	m.persist(ctx)
	m.log.Info("attempt restarted", "puzzle", m.puzzle.ID)
}

// NextPuzzle advances the rotation. The prior puzzle's persisted
// record is left untouched; the new attempt gets its own row.
func (m *Machine) NextPuzzle(ctx context.Context) error {
	if !m.flags.hasLoaded {
		return nil
	}
	pz, err := m.rotation.Pick(ctx, m.difficulty)
	if err != nil {
		return err
	}
	// The featured puzzle is not part of the rotation record, so the
	// first pick can land on the board the player is looking at.
	if pz.ID == m.puzzle.ID {
		if pz, err = m.rotation.Pick(ctx, m.difficulty); err != nil {
			return err
		}
	}
	m.flags = sessionFlags{hasLoaded: true}
	m.notificationVisible = false
	m.startFresh(pz)
	m.persist(ctx)
	m.log.Info("rotation pick", "puzzle", pz.ID, "difficulty", m.difficulty)
	return nil
}

// SetDifficulty switches tiers and reloads. The last choice is
// remembered across sessions.
func (m *Machine) SetDifficulty(ctx context.Context, d catalog.Difficulty) error {
	if d == m.difficulty {
		return nil
	}
	m.difficulty = d
	if err := m.store.SaveSetting(ctx, "last_difficulty", string(d)); err != nil {
		m.log.Error("save difficulty setting failed", "err", err)
	}
	return m.Load(ctx)
}

// TickSecond advances the play clock. The timer only runs once the
// player has made a move and stops on solve.
func (m *Machine) TickSecond(ctx context.Context) {
	if !m.flags.hasLoaded || !m.flags.hasMoved || m.status != session.StatusInProgress {
		return
	}
	m.elapsed++
	m.persist(ctx)
}

// RolloverCheck reloads when the calendar day has changed while the
// program stayed open. Called from a coarse wall-clock poll.
func (m *Machine) RolloverCheck(ctx context.Context) error {
	if m.now().Format(dayLayout) == m.day {
		return nil
	}
	m.log.Info("day rollover", "from", m.day)
	return m.Load(ctx)
}

// persist writes the current attempt. Failures degrade to memory-only
// play for this session.
func (m *Machine) persist(ctx context.Context) {
	rec := session.AttemptRecord{
		Difficulty: string(m.difficulty),
		Day:        m.day,
		PuzzleID:   m.puzzle.ID,
		Grid:       m.grid.Clone(),
		UndoStack:  cloneStack(m.undo),
		RedoStack:  cloneStack(m.redo),
		Elapsed:    m.elapsed,
		Status:     m.status,
		SessionID:  m.sessionID,
	}
	if err := m.store.SaveAttempt(ctx, rec); err != nil {
		m.log.Error("save attempt failed", "puzzle", m.puzzle.ID, "err", err)
	}
}

func (m *Machine) Loaded() bool              { return m.flags.hasLoaded }
func (m *Machine) Status() session.Status    { return m.status }
func (m *Machine) NotificationVisible() bool { return m.notificationVisible }
func (m *Machine) Locked() bool              { return m.status == session.StatusSolved }
func (m *Machine) Elapsed() int              { return m.elapsed }
func (m *Machine) Puzzle() catalog.Puzzle    { return m.puzzle }
func (m *Machine) Clues() nonogram.Clues     { return m.puzzle.Clues }
func (m *Machine) Day() string               { return m.day }

func (m *Machine) Difficulty() catalog.Difficulty { return m.difficulty }

// Grid returns a copy; callers render it but never mutate machine
// state directly.
func (m *Machine) Grid() nonogram.Grid { return m.grid.Clone() }

func (m *Machine) CanUndo() bool { return len(m.undo) > 0 && m.status != session.StatusSolved }
func (m *Machine) CanRedo() bool { return len(m.redo) > 0 && m.status != session.StatusSolved }

// Remaining reports how many puzzles the rotation has not yet served
// for the current difficulty.
func (m *Machine) Remaining(ctx context.Context) (int, error) {
	return m.rotation.Remaining(ctx, m.difficulty)
}

func cloneStack(in []nonogram.Grid) []nonogram.Grid {
	if len(in) == 0 {
		return nil
	}
	out := make([]nonogram.Grid, len(in))
	for i, g := range in {
		out[i] = g.Clone()
	}
	return out
}
