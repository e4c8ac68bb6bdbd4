package state

import (
	"errors"
	"slices"
)

// MaxHistory is the undo depth.
const MaxHistory = 10

// ErrNothingToUndo is returned by Undo when the history stack is empty.
var ErrNothingToUndo = errors.New("Không có hành động nào để hoàn tác.")

// Snapshot holds every mutable field of a GameState except History itself.
type Snapshot struct {
	StoryLog                []StoryMessage  `json:"story_log"`
	CurrentChoices          []PlayerChoice  `json:"current_choices"`
	CurrentSummary          string          `json:"current_summary"`
	CurrentWorldEvent       *WorldEvent     `json:"current_world_event"`
	Encyclopedia            []Entity        `json:"encyclopedia"`
	CharacterStats          CharacterStats  `json:"character_stats"`
	Inventory               []InventoryItem `json:"inventory"`
	EquippedItems           EquippedItems   `json:"equipped_items"`
	UnlockedAchievements    []Achievement   `json:"unlocked_achievements"`
	CharacterSkills         []Skill         `json:"character_skills"`
	NPCRelationships        Relationships   `json:"npc_relationships"`
	Objectives              []Objective     `json:"objectives"`
	IsInitialStoryGenerated bool            `json:"is_initial_story_generated"`
	IsRoleplayModeActive    bool            `json:"is_roleplay_mode_active"`
	ActiveSidebarTab        string          `json:"active_sidebar_tab,omitempty"`
}

// Snapshot captures the current mutable state. The result shares no
// memory with gs.
func (gs *GameState) Snapshot() Snapshot {
	return Snapshot{
		StoryLog:                slices.Clone(gs.StoryLog),
		CurrentChoices:          slices.Clone(gs.CurrentChoices),
		CurrentSummary:          gs.CurrentSummary,
		CurrentWorldEvent:       cloneWorldEvent(gs.CurrentWorldEvent),
		Encyclopedia:            cloneEntities(gs.Encyclopedia),
		CharacterStats:          gs.CharacterStats.Clone(),
		Inventory:               cloneItems(gs.Inventory),
		EquippedItems:           gs.EquippedItems.Clone(),
		UnlockedAchievements:    slices.Clone(gs.UnlockedAchievements),
		CharacterSkills:         cloneSkills(gs.CharacterSkills),
		NPCRelationships:        gs.NPCRelationships.Clone(),
		Objectives:              cloneObjectives(gs.Objectives),
		IsInitialStoryGenerated: gs.IsInitialStoryGenerated,
		IsRoleplayModeActive:    gs.IsRoleplayModeActive,
		ActiveSidebarTab:        gs.ActiveSidebarTab,
	}
}

// PushSnapshot records the current state, evicting the oldest entry once
// MaxHistory snapshots are held.
func (gs *GameState) PushSnapshot() {
	gs.History = append(gs.History, gs.Snapshot())
	if over := len(gs.History) - MaxHistory; over > 0 {
		gs.History = slices.Delete(gs.History, 0, over)
	}
}

// Undo restores the most recent snapshot and pops it.
func (gs *GameState) Undo() error {
	if len(gs.History) == 0 {
		return ErrNothingToUndo
	}
	last := gs.History[len(gs.History)-1]
	gs.History = gs.History[:len(gs.History)-1]
	gs.restore(last)
	return nil
}

func (gs *GameState) restore(s Snapshot) {
	gs.StoryLog = s.StoryLog
	gs.CurrentChoices = s.CurrentChoices
	gs.CurrentSummary = s.CurrentSummary
	gs.CurrentWorldEvent = s.CurrentWorldEvent
	gs.Encyclopedia = s.Encyclopedia
	gs.CharacterStats = s.CharacterStats
	gs.Inventory = s.Inventory
	gs.EquippedItems = s.EquippedItems
	gs.UnlockedAchievements = s.UnlockedAchievements
	gs.CharacterSkills = s.CharacterSkills
	gs.NPCRelationships = s.NPCRelationships
	gs.Objectives = s.Objectives
	gs.IsInitialStoryGenerated = s.IsInitialStoryGenerated
	gs.IsRoleplayModeActive = s.IsRoleplayModeActive
	gs.ActiveSidebarTab = s.ActiveSidebarTab
}
