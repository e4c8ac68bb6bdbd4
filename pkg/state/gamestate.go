package state

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Sidebar tabs a client may show.
const (
	TabStats         = "stats"
	TabInventory     = "inventory"
	TabEquipment     = "equipment"
	TabCultivation   = "cultivation"
	TabSkills        = "skills"
	TabAchievements  = "achievements"
	TabRelationships = "relationships"

	// tabActions is retired; loaders rewrite it to TabStats.
	tabActions = "actions"
)

// GameState is the aggregate root of one adventure. Everything except Setup,
// ID and the timestamps is captured by history snapshots.
type GameState struct {
	ID        uuid.UUID        `json:"id"`
	Setup     *StorySetup      `json:"setup"`
	NSFW      *NSFWPreferences `json:"nsfw,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	StoryLog          []StoryMessage `json:"story_log"`
	CurrentChoices    []PlayerChoice `json:"current_choices"`
	CurrentSummary    string         `json:"current_summary"`
	CurrentWorldEvent *WorldEvent    `json:"current_world_event"`
	History           []Snapshot     `json:"history"`

	Encyclopedia         []Entity        `json:"encyclopedia"`
	CharacterStats       CharacterStats  `json:"character_stats"`
	Inventory            []InventoryItem `json:"inventory"`
	EquippedItems        EquippedItems   `json:"equipped_items"`
	UnlockedAchievements []Achievement   `json:"unlocked_achievements"`
	CharacterSkills      []Skill         `json:"character_skills"`
	NPCRelationships     Relationships   `json:"npc_relationships"`
	Objectives           []Objective     `json:"objectives"`

	IsInitialStoryGenerated bool   `json:"is_initial_story_generated"`
	IsRoleplayModeActive    bool   `json:"is_roleplay_mode_active"`
	ActiveSidebarTab        string `json:"active_sidebar_tab,omitempty"`
}

// NewGameState seeds an adventure from setup. Stats fall back to the default
// block, setup items are auto-equipped and the encyclopedia starts with the
// setup entities. The opening story is not generated here.
func NewGameState(setup *StorySetup, nsfw NSFWPreferences) *GameState {
	stats := setup.InitialCharacterStats.Clone()
	if len(stats) == 0 {
		stats = DefaultStats()
	}
	stats = FillDefaultStats(stats)

	inv := cloneItems(setup.InitialInventory)
	if inv == nil {
		inv = make([]InventoryItem, 0)
	}

	now := time.Now()
	return &GameState{
		ID:                   uuid.New(),
		Setup:                setup,
		NSFW:                 &nsfw,
		CreatedAt:            now,
		UpdatedAt:            now,
		StoryLog:             make([]StoryMessage, 0),
		CurrentChoices:       make([]PlayerChoice, 0),
		History:              make([]Snapshot, 0),
		Encyclopedia:         append(make([]Entity, 0, len(setup.Entities)), setup.Entities...),
		CharacterStats:       stats,
		Inventory:            inv,
		EquippedItems:        AutoEquip(inv),
		UnlockedAchievements: make([]Achievement, 0),
		CharacterSkills:      append(make([]Skill, 0), cloneSkills(setup.StartingSkills())...),
		NPCRelationships:     make(Relationships),
		Objectives:           make([]Objective, 0),
		ActiveSidebarTab:     TabStats,
	}
}

// CharacterName returns the protagonist's name.
func (gs *GameState) CharacterName() string {
	if gs.Setup == nil || gs.Setup.Character.Name == "" {
		return "Nhân vật"
	}
	return gs.Setup.Character.Name
}

// Preferences returns the NSFW settings, or the disabled defaults.
func (gs *GameState) Preferences() NSFWPreferences {
	if gs.NSFW == nil {
		return DefaultNSFW()
	}
	return *gs.NSFW
}

// AppendMessage pushes a message onto the story log.
func (gs *GameState) AppendMessage(t MessageType, content string, at time.Time) StoryMessage {
	msg := StoryMessage{
		ID:        uuid.NewString(),
		Type:      t,
		Content:   content,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	gs.StoryLog = append(gs.StoryLog, msg)
	return msg
}

// DeepCopy creates an independent copy of the game state.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	var cp GameState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &cp, nil
}

func cloneEntities(in []Entity) []Entity {
	return slices.Clone(in)
}

func cloneItems(in []InventoryItem) []InventoryItem {
	out := slices.Clone(in)
	for i := range out {
		out[i].Effects = slices.Clone(out[i].Effects)
		out[i].StatBonuses = slices.Clone(out[i].StatBonuses)
	}
	return out
}

func cloneSkills(in []Skill) []Skill {
	out := slices.Clone(in)
	for i := range out {
		out[i].Effects = slices.Clone(out[i].Effects)
	}
	return out
}

func cloneObjectives(in []Objective) []Objective {
	out := slices.Clone(in)
	for i := range out {
		out[i].SubObjectives = slices.Clone(out[i].SubObjectives)
	}
	return out
}

func cloneWorldEvent(in *WorldEvent) *WorldEvent {
	if in == nil {
		return nil
	}
	ev := *in
	ev.KeyElements = slices.Clone(in.KeyElements)
	return &ev
}
