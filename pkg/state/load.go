package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidSave is returned for documents that lack the setup or story log.
var ErrInvalidSave = errors.New("invalid save: setup and story_log are required")

// LoadGameState decodes a persisted game state and repairs missing optional
// fields so older documents load with the same defaults as a new adventure.
func LoadGameState(data []byte) (*GameState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	for _, key := range []string{"setup", "story_log"} {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidSave, key)
		}
	}

	var gs GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	if gs.Setup == nil {
		return nil, fmt.Errorf("%w: missing setup", ErrInvalidSave)
	}
	_, hasFlag := raw["is_initial_story_generated"]
	gs.Repair(!hasFlag)
	return &gs, nil
}

// Repair fills defaults for missing optional fields. inferStarted derives
// IsInitialStoryGenerated from the story log, for documents that predate it.
// It returns a description of each change made.
func (gs *GameState) Repair(inferStarted bool) []string {
	var fixed []string
	note := func(s string) { fixed = append(fixed, s) }

	if gs.ID == uuid.Nil {
		gs.ID = uuid.New()
		note("assigned id")
	}
	if gs.NSFW == nil {
		nsfw := DefaultNSFW()
		gs.NSFW = &nsfw
		note("nsfw preferences defaulted")
	}
	if gs.StoryLog == nil {
		gs.StoryLog = make([]StoryMessage, 0)
	}
	if gs.CurrentChoices == nil {
		gs.CurrentChoices = make([]PlayerChoice, 0)
	}
	if gs.History == nil {
		gs.History = make([]Snapshot, 0)
	}
	if gs.Encyclopedia == nil {
		gs.Encyclopedia = make([]Entity, 0)
		note("encyclopedia defaulted")
	}

	before := len(gs.CharacterStats)
	gs.CharacterStats = FillDefaultStats(gs.CharacterStats)
	if n := len(gs.CharacterStats) - before; n > 0 {
		note(fmt.Sprintf("filled %d default stats", n))
	}

	if gs.Inventory == nil {
		gs.Inventory = make([]InventoryItem, 0)
		note("inventory defaulted")
	}
	if gs.EquippedItems == nil {
		gs.EquippedItems = make(EquippedItems)
		note("equipped items defaulted")
	}
	if gs.UnlockedAchievements == nil {
		gs.UnlockedAchievements = make([]Achievement, 0)
		note("achievements defaulted")
	}
	if gs.CharacterSkills == nil {
		gs.CharacterSkills = make([]Skill, 0)
		note("skills defaulted")
	}
	if gs.NPCRelationships == nil {
		gs.NPCRelationships = make(Relationships)
		note("relationships defaulted")
	}
	if gs.Objectives == nil {
		gs.Objectives = make([]Objective, 0)
		note("objectives defaulted")
	}

	switch gs.ActiveSidebarTab {
	case "":
		gs.ActiveSidebarTab = TabStats
	case tabActions:
		gs.ActiveSidebarTab = TabStats
		note("retired sidebar tab replaced")
	}

	if inferStarted {
		gs.IsInitialStoryGenerated = len(gs.StoryLog) > 0
	}
	return fixed
}
