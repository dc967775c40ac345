package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nonodojo/internal/nonogram"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			difficulty TEXT NOT NULL,
			day TEXT NOT NULL,
			puzzle_id TEXT NOT NULL,
			grid_json TEXT NOT NULL,
			undo_json TEXT NOT NULL DEFAULT '[]',
			redo_json TEXT NOT NULL DEFAULT '[]',
			elapsed_seconds INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'in_progress',
			saved_day TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			updated_ts TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (difficulty, day, puzzle_id)
		);`,
		`CREATE TABLE IF NOT EXISTS rotation (
			difficulty TEXT PRIMARY KEY,
			used_json TEXT NOT NULL DEFAULT '[]',
			last_id TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS solved_marks (
			puzzle_id TEXT PRIMARY KEY,
			solved_ts TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadAttempt(ctx context.Context, difficulty, day string) (*AttemptRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT difficulty, day, puzzle_id, grid_json, undo_json, redo_json,
		       elapsed_seconds, status, saved_day, session_id
		FROM attempts
		WHERE difficulty = ? AND day = ? AND saved_day = ?
		ORDER BY updated_ts DESC
		LIMIT 1
	`, difficulty, day, day)
	rec, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*AttemptRecord, error) {
	var (
		rec      AttemptRecord
		gridRaw  string
		undoRaw  string
		redoRaw  string
		statsRaw string
	)
	if err := row.Scan(
		&rec.Difficulty, &rec.Day, &rec.PuzzleID,
		&gridRaw, &undoRaw, &redoRaw,
		&rec.Elapsed, &statsRaw, &rec.SavedDay, &rec.SessionID,
	); err != nil {
		return nil, err
	}

	switch Status(statsRaw) {
	case StatusInProgress, StatusSolved:
		rec.Status = Status(statsRaw)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrCorruptRecord, statsRaw)
	}

	if err := json.Unmarshal([]byte(gridRaw), &rec.Grid); err != nil {
		return nil, fmt.Errorf("%w: grid: %v", ErrCorruptRecord, err)
	}
	if err := rec.Grid.Validate(rec.Grid.Size()); err != nil {
		return nil, fmt.Errorf("%w: grid: %v", ErrCorruptRecord, err)
	}
	if err := json.Unmarshal([]byte(undoRaw), &rec.UndoStack); err != nil {
		return nil, fmt.Errorf("%w: undo stack: %v", ErrCorruptRecord, err)
	}
	if err := json.Unmarshal([]byte(redoRaw), &rec.RedoStack); err != nil {
		return nil, fmt.Errorf("%w: redo stack: %v", ErrCorruptRecord, err)
	}
	for _, snap := range append(append([]nonogram.Grid{}, rec.UndoStack...), rec.RedoStack...) {
		if err := snap.Validate(rec.Grid.Size()); err != nil {
			return nil, fmt.Errorf("%w: history snapshot: %v", ErrCorruptRecord, err)
		}
	}
	if rec.Elapsed < 0 {
		return nil, fmt.Errorf("%w: negative elapsed %d", ErrCorruptRecord, rec.Elapsed)
	}
	return &rec, nil
}

func (s *SQLiteStore) SaveAttempt(ctx context.Context, rec AttemptRecord) error {
	if strings.TrimSpace(rec.Difficulty) == "" || strings.TrimSpace(rec.Day) == "" || strings.TrimSpace(rec.PuzzleID) == "" {
		return fmt.Errorf("save attempt: difficulty, day, and puzzle id are required")
	}
	gridJSON, err := json.Marshal(rec.Grid)
	if err != nil {
		return err
	}
	undoJSON, err := json.Marshal(emptyIfNil(rec.UndoStack))
	if err != nil {
		return err
	}
	redoJSON, err := json.Marshal(emptyIfNil(rec.RedoStack))
	if err != nil {
		return err
	}
	// The save stamps the day it happens on; staleness checks at
	// read time compare this against the querying day.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts(difficulty, day, puzzle_id, grid_json, undo_json, redo_json,
		                     elapsed_seconds, status, saved_day, session_id, updated_ts)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(difficulty, day, puzzle_id) DO UPDATE SET
			grid_json = excluded.grid_json,
			undo_json = excluded.undo_json,
			redo_json = excluded.redo_json,
			elapsed_seconds = excluded.elapsed_seconds,
			status = excluded.status,
			saved_day = excluded.saved_day,
			session_id = excluded.session_id,
			updated_ts = excluded.updated_ts
	`,
		rec.Difficulty, rec.Day, rec.PuzzleID,
		string(gridJSON), string(undoJSON), string(redoJSON),
		rec.Elapsed, string(rec.Status), rec.Day, rec.SessionID,
		time.Now().UTC().Format(timeLayout),
	)
	return err
}

func emptyIfNil(stacks []nonogram.Grid) []nonogram.Grid {
	if stacks == nil {
		return []nonogram.Grid{}
	}
	return stacks
}

// ListAttempts returns every stored attempt regardless of staleness,
// for history and statistics. Individual malformed rows are skipped.
func (s *SQLiteStore) ListAttempts(ctx context.Context) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT difficulty, day, puzzle_id, grid_json, undo_json, redo_json,
		       elapsed_seconds, status, saved_day, session_id
		FROM attempts
		ORDER BY day, difficulty
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttemptRecord{}
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Cleanup removes attempts older than maxAgeDays. Today's rows are
// never removed, whatever the threshold. Rows whose day fails to
// parse are left alone.
func (s *SQLiteStore) Cleanup(ctx context.Context, maxAgeDays int, today string) (int, error) {
	if maxAgeDays < 0 {
		return 0, fmt.Errorf("cleanup: maxAgeDays must be >= 0")
	}
	todayTS, err := time.Parse(dayLayout, today)
	if err != nil {
		return 0, fmt.Errorf("cleanup: parse today %q: %w", today, err)
	}
	cutoff := todayTS.AddDate(0, 0, -maxAgeDays)

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT day FROM attempts`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	stale := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return 0, err
		}
		if day == today {
			continue
		}
		ts, err := time.Parse(dayLayout, day)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			stale = append(stale, day)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, day := range stale {
		res, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE day = ?`, day)
		if err != nil {
			return removed, err
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}
	return removed, nil
}

func (s *SQLiteStore) LoadRotation(ctx context.Context, difficulty string) (RotationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT used_json, last_id FROM rotation WHERE difficulty = ?`, difficulty)
	var (
		usedRaw string
		rec     RotationRecord
	)
	if err := row.Scan(&usedRaw, &rec.LastID); err != nil {
		if err == sql.ErrNoRows {
			return RotationRecord{}, nil
		}
		return RotationRecord{}, err
	}
	if err := json.Unmarshal([]byte(usedRaw), &rec.UsedIDs); err != nil {
		// A damaged rotation record just restarts the cycle.
		return RotationRecord{}, fmt.Errorf("%w: rotation used ids: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

func (s *SQLiteStore) SaveRotation(ctx context.Context, difficulty string, rec RotationRecord) error {
	used := rec.UsedIDs
	if used == nil {
		used = []string{}
	}
	usedJSON, err := json.Marshal(used)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rotation(difficulty, used_json, last_id) VALUES(?, ?, ?)
		ON CONFLICT(difficulty) DO UPDATE SET
			used_json = excluded.used_json,
			last_id = excluded.last_id
	`, difficulty, string(usedJSON), rec.LastID)
	return err
}

func (s *SQLiteStore) MarkSolved(ctx context.Context, puzzleID string) (bool, error) {
	if strings.TrimSpace(puzzleID) == "" {
		return false, fmt.Errorf("mark solved: puzzle id is required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO solved_marks(puzzle_id, solved_ts) VALUES(?, ?)`,
		puzzleID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) SolvedCount(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM solved_marks`)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as attempts,
			COALESCE(SUM(CASE WHEN status = 'solved' THEN 1 ELSE 0 END), 0) as solved_days
		FROM attempts
	`)
	if err := row.Scan(&out.Attempts, &out.SolvedDays); err != nil {
		return Summary{}, err
	}
	solved, err := s.SolvedCount(ctx)
	if err != nil {
		return Summary{}, err
	}
	out.PuzzlesSolved = solved
	return out, nil
}

func (s *SQLiteStore) SaveSetting(ctx context.Context, key, value string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, k, value)
	return err
}

func (s *SQLiteStore) LoadSetting(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const (
	timeLayout = "2006-01-02T15:04:05Z07:00"
	dayLayout  = "2006-01-02"
)
