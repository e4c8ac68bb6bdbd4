package state

import "fmt"

// ContentLevel grades how explicit a content category may be.
type ContentLevel string

const (
	LevelNone    ContentLevel = "none"
	LevelMedium  ContentLevel = "medium"
	LevelHigh    ContentLevel = "high"
	LevelExtreme ContentLevel = "extreme"
)

// NSFWPreferences controls mature content in prompts.
type NSFWPreferences struct {
	Enabled          bool         `json:"enabled"`
	EroticaLevel     ContentLevel `json:"erotica_level"`
	ViolenceLevel    ContentLevel `json:"violence_level"`
	DarkContentLevel ContentLevel `json:"dark_content_level"`
	CustomPrompt     string       `json:"custom_prompt,omitempty"`
}

// DefaultNSFW returns disabled preferences.
func DefaultNSFW() NSFWPreferences {
	return NSFWPreferences{
		EroticaLevel:     LevelNone,
		ViolenceLevel:    LevelMedium,
		DarkContentLevel: LevelMedium,
	}
}

type WorldSetup struct {
	Theme          string `json:"theme"`
	Context        string `json:"context"`
	Tone           string `json:"tone"`
	AdvancedPrompt string `json:"advanced_prompt,omitempty"`
}

type CharacterTrait struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CharacterSetup struct {
	Name          string           `json:"name"`
	Gender        string           `json:"gender"`
	Summary       string           `json:"summary"`
	Traits        []CharacterTrait `json:"traits"`
	Goal          string           `json:"goal"`
	InitialSkills []Skill          `json:"initial_skills,omitempty"`
}

// StorySetup is the immutable seed of an adventure.
type StorySetup struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name,omitempty"`
	World                 WorldSetup      `json:"world"`
	Character             CharacterSetup  `json:"character"`
	Entities              []Entity        `json:"entities"`
	CreatedAt             string          `json:"created_at"`
	InitialCharacterStats CharacterStats  `json:"initial_character_stats,omitempty"`
	InitialInventory      []InventoryItem `json:"initial_inventory,omitempty"`
	InitialSkills         []Skill         `json:"initial_skills,omitempty"`
}

// Validate checks the fields an adventure cannot start without.
func (s *StorySetup) Validate() error {
	if s.World.Theme == "" {
		return fmt.Errorf("world theme is required")
	}
	if s.Character.Name == "" {
		return fmt.Errorf("character name is required")
	}
	return nil
}

// StartingSkills returns the setup-level skills, falling back to the character's.
func (s *StorySetup) StartingSkills() []Skill {
	if len(s.InitialSkills) > 0 {
		return s.InitialSkills
	}
	return s.Character.InitialSkills
}
