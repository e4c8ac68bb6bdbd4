package state

// StatChange is a parsed stat delta. NewValue wins over ChangeValue.
type StatChange struct {
	AttributeID string          `json:"attribute_id"`
	ChangeValue *float64        `json:"change_value,omitempty"`
	NewValue    *AttributeValue `json:"new_value,omitempty"`
	NewMaxValue *float64        `json:"new_max_value,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// LostItem removes Quantity units of an item matched by id, then by name.
type LostItem struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// Segment is one sanitized oracle response advancing the story.
type Segment struct {
	Story   string         `json:"story"`
	Choices []PlayerChoice `json:"choices"`

	NewEntries          []Entity             `json:"new_encyclopedia_entries,omitempty"`
	StatChanges         []StatChange         `json:"stat_changes,omitempty"`
	Gained              []InventoryItem      `json:"gained,omitempty"`
	Lost                []LostItem           `json:"lost,omitempty"`
	SkillChanges        []SkillChange        `json:"skill_changes,omitempty"`
	NewSkills           []Skill              `json:"new_skills_unlocked,omitempty"`
	Achievements        []Achievement        `json:"newly_unlocked_achievements,omitempty"`
	RelationshipChanges []RelationshipChange `json:"relationship_changes,omitempty"`
	NewObjectives       []Objective          `json:"new_objectives_suggested,omitempty"`
	ObjectiveUpdates    []ObjectiveUpdate    `json:"objective_updates,omitempty"`
	SummaryUpdate       *string              `json:"summary_update,omitempty"`

	// Fallback is set when the response could not be decoded and Story was
	// recovered or substituted.
	Fallback bool `json:"-"`
}

// InitialStory is the sanitized opening response. Empty collections mean
// the oracle supplied nothing and the setup (or defaults) should be kept.
type InitialStory struct {
	Story         string          `json:"story"`
	Choices       []PlayerChoice  `json:"choices"`
	Entries       []Entity        `json:"new_encyclopedia_entries,omitempty"`
	Stats         CharacterStats  `json:"initial_stats,omitempty"`
	Inventory     []InventoryItem `json:"initial_inventory,omitempty"`
	Skills        []Skill         `json:"initial_skills,omitempty"`
	Relationships []NPCProfile    `json:"initial_relationships,omitempty"`
	Objectives    []Objective     `json:"initial_objectives,omitempty"`
	Achievements  []Achievement   `json:"newly_unlocked_achievements,omitempty"`

	Fallback bool `json:"-"`
}
