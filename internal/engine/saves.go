package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

// Export returns the game as a single JSON save document.
func (e *Engine) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	gs, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	return data, nil
}

// Import validates and repairs a save document and makes it a live session
// under the document's id.
func (e *Engine) Import(ctx context.Context, data []byte) (*state.GameState, error) {
	gs, err := state.LoadGameState(data)
	if err != nil {
		return nil, err
	}
	e.settleDeath(ctx, gs)
	gs.UpdatedAt = e.now()
	if err := e.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	e.log(ctx).Info("Game imported", "game_state_id", gs.ID, "messages", len(gs.StoryLog))
	return gs, nil
}

func (e *Engine) ListSaves(ctx context.Context) ([]storage.SaveSummary, error) {
	return e.storage.ListSaves(ctx)
}

// WriteSave copies a live game into a save slot, replacing the slot's contents.
func (e *Engine) WriteSave(ctx context.Context, slot string, id uuid.UUID) (*storage.SaveSummary, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, fmt.Errorf("%w: slot is required", ErrInvalidRequest)
	}
	gs, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.storage.WriteSave(ctx, slot, gs)
}

func (e *Engine) ReadSave(ctx context.Context, slot string) (*state.GameState, error) {
	return e.storage.ReadSave(ctx, slot)
}

// LoadSave restores a save slot as the live session for its game.
func (e *Engine) LoadSave(ctx context.Context, slot string) (*state.GameState, error) {
	gs, err := e.storage.ReadSave(ctx, slot)
	if err != nil {
		return nil, err
	}
	release, err := e.locker.TryLock(ctx, gs.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	e.settleDeath(ctx, gs)
	gs.UpdatedAt = e.now()
	if err := e.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	e.log(ctx).Info("Save loaded", "slot", slot, "game_state_id", gs.ID)
	return gs, nil
}

func (e *Engine) DeleteSave(ctx context.Context, slot string) error {
	return e.storage.DeleteSave(ctx, slot)
}

func (e *Engine) ListSetups(ctx context.Context) (map[string]string, error) {
	return e.storage.ListSetups(ctx)
}

func (e *Engine) GetSetup(ctx context.Context, id string) (*state.StorySetup, error) {
	return e.storage.GetSetup(ctx, id)
}
