// Package session persists attempt and rotation records. Readers
// apply staleness-by-date: a record saved on another calendar day is
// reported as absent even though the row is retained for history.
package session

import (
	"context"
	"errors"

	"nonodojo/internal/nonogram"
)

// Status is the persisted completion state of an attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSolved     Status = "solved"
)

// ErrCorruptRecord marks a persisted record that failed parsing or
// shape validation. Callers treat it as absent and start fresh; it is
// never surfaced to the player.
var ErrCorruptRecord = errors.New("corrupt persisted record")

// AttemptRecord is one player's effort on one puzzle, scoped to a
// calendar day.
type AttemptRecord struct {
	Difficulty string
	Day        string // "YYYY-MM-DD" the attempt belongs to
	PuzzleID   string
	Grid       nonogram.Grid
	UndoStack  []nonogram.Grid
	RedoStack  []nonogram.Grid
	Elapsed    int // seconds of active play
	Status     Status
	SavedDay   string // calendar day of the last write
	SessionID  string
}

// RotationRecord tracks which puzzle ids a difficulty's rotation has
// already handed out. Ids of puzzles since removed from the pool may
// linger; readers filter against the live pool.
type RotationRecord struct {
	UsedIDs []string
	LastID  string
}

// Summary aggregates stored history for the stats command.
type Summary struct {
	Attempts      int
	SolvedDays    int
	PuzzlesSolved int
}

type Store interface {
	EnsureSchema(ctx context.Context) error

	// LoadAttempt returns the most recent attempt for the pair, or
	// (nil, nil) when none exists or the stored record is stale for
	// the requested day. A damaged record yields ErrCorruptRecord.
	LoadAttempt(ctx context.Context, difficulty, day string) (*AttemptRecord, error)
	SaveAttempt(ctx context.Context, rec AttemptRecord) error
	ListAttempts(ctx context.Context) ([]AttemptRecord, error)
	Cleanup(ctx context.Context, maxAgeDays int, today string) (int, error)

	LoadRotation(ctx context.Context, difficulty string) (RotationRecord, error)
	SaveRotation(ctx context.Context, difficulty string, rec RotationRecord) error

	// MarkSolved records that a puzzle has been solved at least once.
	// It reports true only on the first call for that puzzle id, which
	// is what keeps solve statistics exactly-once across restarts.
	MarkSolved(ctx context.Context, puzzleID string) (bool, error)
	SolvedCount(ctx context.Context) (int, error)

	GetSummary(ctx context.Context) (Summary, error)
	SaveSetting(ctx context.Context, key, value string) error
	LoadSetting(ctx context.Context, key string) (string, error)

	Close() error
}
