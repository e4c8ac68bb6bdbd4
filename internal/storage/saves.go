package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
	_ "modernc.org/sqlite"
)

const savesSchema = `CREATE TABLE IF NOT EXISTS save_slots (
	slot           TEXT PRIMARY KEY,
	game_id        TEXT NOT NULL,
	character_name TEXT NOT NULL,
	theme          TEXT NOT NULL,
	messages       INTEGER NOT NULL,
	document       BLOB NOT NULL,
	saved_at       INTEGER NOT NULL
)`

// SaveStore keeps named save slots in a SQLite database.
type SaveStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSaveStore opens (creating if needed) the save database at path.
func OpenSaveStore(path string, logger *slog.Logger) (*SaveStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create save directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One writer at a time keeps SQLite out of lock contention
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec(savesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create save schema: %w", err)
	}

	logger.Info("Save store opened", "path", cleanPath)
	return &SaveStore{db: db, logger: logger, now: time.Now}, nil
}

// Ping checks the database connection.
func (s *SaveStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying SQLite connection.
func (s *SaveStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns every slot, most recently saved first.
func (s *SaveStore) List(ctx context.Context) ([]storage.SaveSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, game_id, character_name, theme, messages, saved_at
		 FROM save_slots
		 ORDER BY saved_at DESC, slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	summaries := make([]storage.SaveSummary, 0)
	for rows.Next() {
		var (
			sum     storage.SaveSummary
			gameID  string
			savedAt int64
		)
		if err := rows.Scan(&sum.Slot, &gameID, &sum.CharacterName, &sum.Theme, &sum.Messages, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		id, err := uuid.Parse(gameID)
		if err != nil {
			s.logger.Warn("Save slot has invalid game id", "slot", sum.Slot, "error", err)
		}
		sum.GameID = id
		sum.SavedAt = time.UnixMilli(savedAt).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return summaries, nil
}

// Write upserts the slot with the current document of gs.
func (s *SaveStore) Write(ctx context.Context, slot string, gs *state.GameState) (*storage.SaveSummary, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, fmt.Errorf("slot name is required")
	}
	if gs == nil {
		return nil, errors.New("gamestate cannot be nil")
	}

	doc, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	sum := storage.Summarize(slot, gs, s.now().UTC().Truncate(time.Millisecond))
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO save_slots (slot, game_id, character_name, theme, messages, document, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		    game_id = excluded.game_id,
		    character_name = excluded.character_name,
		    theme = excluded.theme,
		    messages = excluded.messages,
		    document = excluded.document,
		    saved_at = excluded.saved_at`,
		sum.Slot, sum.GameID.String(), sum.CharacterName, sum.Theme, sum.Messages, doc, sum.SavedAt.UnixMilli(),
	)
	if err != nil {
		s.logger.Error("Failed to write save", "slot", slot, "error", err)
		return nil, fmt.Errorf("failed to write save: %w", err)
	}
	return &sum, nil
}

// Read loads and repairs the document in slot.
func (s *SaveStore) Read(ctx context.Context, slot string) (*state.GameState, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM save_slots WHERE slot = ?`, slot).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", storage.ErrSaveNotFound, slot)
		}
		return nil, fmt.Errorf("failed to read save: %w", err)
	}
	return state.LoadGameState(doc)
}

// Delete removes slot.
func (s *SaveStore) Delete(ctx context.Context, slot string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrSaveNotFound, slot)
	}
	return nil
}

// Save slot operations (SQLite-backed)

var errNoSaveStore = errors.New("save store is not configured")

func (r *RedisStorage) ListSaves(ctx context.Context) ([]storage.SaveSummary, error) {
	if r.saves == nil {
		return nil, errNoSaveStore
	}
	return r.saves.List(ctx)
}

func (r *RedisStorage) WriteSave(ctx context.Context, slot string, gs *state.GameState) (*storage.SaveSummary, error) {
	if r.saves == nil {
		return nil, errNoSaveStore
	}
	return r.saves.Write(ctx, slot, gs)
}

func (r *RedisStorage) ReadSave(ctx context.Context, slot string) (*state.GameState, error) {
	if r.saves == nil {
		return nil, errNoSaveStore
	}
	return r.saves.Read(ctx, slot)
}

func (r *RedisStorage) DeleteSave(ctx context.Context, slot string) error {
	if r.saves == nil {
		return errNoSaveStore
	}
	return r.saves.Delete(ctx, slot)
}
