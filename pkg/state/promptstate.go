package state

// PromptState is the reduced game state serialized into the system prompt.
// History, ids and timestamps are excluded; stats are effective stats.
type PromptState struct {
	CharacterStats    CharacterStats    `json:"character_stats"`
	Equipped          map[string]string `json:"equipped_items,omitempty"`
	Inventory         []InventoryItem   `json:"inventory"`
	Skills            []Skill           `json:"character_skills"`
	Achievements      []string          `json:"unlocked_achievements,omitempty"`
	Encyclopedia      []Entity          `json:"encyclopedia,omitempty"`
	Relationships     []NPCProfile      `json:"npc_relationships,omitempty"`
	Objectives        []Objective       `json:"active_objectives,omitempty"`
	CurrentWorldEvent *WorldEvent       `json:"current_world_event,omitempty"`
	Summary           string            `json:"current_summary,omitempty"`
}

// ToPromptState builds the prompt view of gs. Equipped items are keyed by
// slot and name the item, unknown references are dropped.
func ToPromptState(gs *GameState) *PromptState {
	ps := &PromptState{
		CharacterStats:    gs.EffectiveStats(),
		Inventory:         gs.Inventory,
		Skills:            gs.CharacterSkills,
		Encyclopedia:      gs.Encyclopedia,
		CurrentWorldEvent: gs.CurrentWorldEvent,
		Summary:           gs.CurrentSummary,
	}

	for _, slot := range EquipmentSlots {
		id, ok := gs.EquippedItems[slot]
		if !ok {
			continue
		}
		if idx := findItem(gs.Inventory, id); idx >= 0 {
			if ps.Equipped == nil {
				ps.Equipped = make(map[string]string)
			}
			ps.Equipped[string(slot)] = gs.Inventory[idx].Name
		}
	}

	for _, a := range gs.UnlockedAchievements {
		ps.Achievements = append(ps.Achievements, a.Name)
	}
	for _, p := range gs.NPCRelationships {
		if p.Known {
			ps.Relationships = append(ps.Relationships, p)
		}
	}
	sortProfiles(ps.Relationships)
	for _, obj := range gs.Objectives {
		if obj.Status == ObjectiveActive {
			ps.Objectives = append(ps.Objectives, obj)
		}
	}
	return ps
}
