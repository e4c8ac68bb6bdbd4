package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

var (
	ErrSaveNotFound  = errors.New("save slot not found")
	ErrSetupNotFound = errors.New("story setup not found")
)

// SaveSummary describes a save slot without its document.
type SaveSummary struct {
	Slot          string    `json:"slot"`
	GameID        uuid.UUID `json:"game_id"`
	CharacterName string    `json:"character_name"`
	Theme         string    `json:"theme"`
	Messages      int       `json:"messages"`
	SavedAt       time.Time `json:"saved_at"`
}

// Summarize builds the slot listing entry for gs.
func Summarize(slot string, gs *state.GameState, at time.Time) SaveSummary {
	sum := SaveSummary{
		Slot:          slot,
		GameID:        gs.ID,
		CharacterName: gs.CharacterName(),
		Messages:      len(gs.StoryLog),
		SavedAt:       at,
	}
	if gs.Setup != nil {
		sum.Theme = gs.Setup.World.Theme
	}
	return sum
}

// Storage defines a unified interface for all storage operations.
// Live sessions are kept in Redis, save slots in SQLite and story presets
// on the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). LoadGameState returns nil, nil
	// when the session does not exist.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Save slot operations (SQLite-backed)
	ListSaves(ctx context.Context) ([]SaveSummary, error)
	WriteSave(ctx context.Context, slot string, gs *state.GameState) (*SaveSummary, error)
	ReadSave(ctx context.Context, slot string) (*state.GameState, error)
	DeleteSave(ctx context.Context, slot string) error

	// Setup operations (filesystem-backed)
	ListSetups(ctx context.Context) (map[string]string, error)
	GetSetup(ctx context.Context, id string) (*state.StorySetup, error)
}
