// Package app wires configuration, storage, the puzzle catalog, and
// the game machine together for the CLI and the TUI.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nonodojo/internal/catalog"
	"nonodojo/internal/game"
	"nonodojo/internal/selection"
	"nonodojo/internal/session"
	"nonodojo/internal/telemetry"
)

const dayLayout = "2006-01-02"

type App struct {
	cfg Config

	log      *telemetry.Logger
	store    *session.SQLiteStore
	catalog  *catalog.Catalog
	engine   *selection.Engine
	rotation *selection.Rotation
	machine  *game.Machine

	sessionID string
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log, err := telemetry.New(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := session.NewSQLite(filepath.Join(cfg.DataDir, "progress.db"))
	if err != nil {
		return nil, fmt.Errorf("open progress store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// Once per process start, never on a timer.
	today := time.Now().Format(dayLayout)
	if removed, err := store.Cleanup(ctx, cfg.RetentionDays, today); err != nil {
		log.Error("cleanup failed", "err", err)
	} else if removed > 0 {
		log.Info("cleaned up old attempts", "removed", removed)
	}

	cat, err := catalog.Load(cfg.PacksDir)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sessionID := uuid.NewString()
	engine := selection.NewEngine(cat)
	rotation := selection.NewRotation(cat, store)

	a := &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		catalog:   cat,
		engine:    engine,
		rotation:  rotation,
		sessionID: sessionID,
	}
	a.machine = game.NewMachine(game.Params{
		Store:     store,
		Catalog:   cat,
		Engine:    engine,
		Rotation:  rotation,
		Log:       log,
		SessionID: sessionID,
	}, a.startDifficulty(ctx))

	log.Info("app started", "session", sessionID, "data_dir", cfg.DataDir)
	return a, nil
}

// startDifficulty prefers the explicit config, then the last choice
// persisted by a previous session, then easy.
func (a *App) startDifficulty(ctx context.Context) catalog.Difficulty {
	if a.cfg.Difficulty != "" {
		if d, err := catalog.ParseDifficulty(a.cfg.Difficulty); err == nil {
			return d
		}
	}
	if v, err := a.store.LoadSetting(ctx, "last_difficulty"); err == nil && v != "" {
		if d, err := catalog.ParseDifficulty(v); err == nil {
			return d
		}
	}
	return catalog.Easy
}

func (a *App) Machine() *game.Machine        { return a.machine }
func (a *App) Store() *session.SQLiteStore   { return a.store }
func (a *App) Catalog() *catalog.Catalog     { return a.catalog }
func (a *App) Engine() *selection.Engine     { return a.engine }
func (a *App) Rotation() *selection.Rotation { return a.rotation }
func (a *App) Log() *telemetry.Logger        { return a.log }
func (a *App) ASCIIOnly() bool               { return a.cfg.ASCIIOnly }

func (a *App) Close() error {
	var first error
	if err := a.store.Close(); err != nil {
		first = err
	}
	if err := a.log.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
