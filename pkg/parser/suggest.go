package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

func decodeAny(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(StripFence(raw)), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return v, nil
}

// ParseSuggestions reads a JSON array of strings, or a single string.
func ParseSuggestions(raw string) ([]string, error) {
	v, err := decodeAny(raw)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok && s != "" {
		return []string{s}, nil
	}
	list := stringList(v)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: expected a list of strings", ErrMalformedResponse)
	}
	return list, nil
}

// ParseCharacterSummary reads {"summary": "..."}.
func ParseCharacterSummary(raw string) (string, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return "", err
	}
	s, ok := str(m, "summary")
	if !ok || s == "" {
		return "", fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	return s, nil
}

// ParseTraitSuggestions reads an array of {name, description}. A single
// object is accepted as a one-element list.
func ParseTraitSuggestions(raw string) ([]state.CharacterTrait, error) {
	v, err := decodeAny(raw)
	if err != nil {
		return nil, err
	}
	items := asSlice(v)
	if m, ok := asMap(v); ok {
		items = []any{m}
	}
	var out []state.CharacterTrait
	for _, el := range items {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, _ := str(m, "name")
		desc, _ := str(m, "description")
		if name == "" || desc == "" {
			continue
		}
		out = append(out, state.CharacterTrait{
			ID:          state.StableID(name, "trait"),
			Name:        name,
			Description: desc,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: expected trait objects", ErrMalformedResponse)
	}
	return out, nil
}

// ParseEntitySuggestion reads a single {name, description} entity of type t.
func ParseEntitySuggestion(raw string, t state.EntityType) (*state.Entity, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	name, _ := str(m, "name")
	if name == "" {
		return nil, fmt.Errorf("%w: entity needs a name", ErrMalformedResponse)
	}
	if !t.Valid() {
		t = state.EntityOther
	}
	return &state.Entity{
		Type:        t,
		Name:        name,
		Description: strOr(m, DefaultDescription, "description"),
	}, nil
}

// ParseSkillSuggestion reads one starting skill. A missing id becomes the
// slug of the name.
func ParseSkillSuggestion(raw string) (*state.Skill, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	skills := ParseSkills([]any{m})
	if len(skills) == 0 {
		return nil, fmt.Errorf("%w: skill needs a name", ErrMalformedResponse)
	}
	sk := skills[0]
	if sk.ID == "" {
		sk.ID = state.Slug(sk.Name)
	}
	return &sk, nil
}

// ParseExtractedEntities reads entities pulled out of free text. Unlike
// ParseEncyclopediaEntries this is strict: name, description and a known
// type are all required. An undecodable response yields no entities.
func ParseExtractedEntities(raw string) []state.Entity {
	v, err := decodeAny(raw)
	if err != nil {
		return []state.Entity{}
	}
	out := []state.Entity{}
	for _, el := range asSlice(v) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, _ := str(m, "name")
		desc, _ := str(m, "description")
		t := state.EntityType(strOr(m, "", "type"))
		if name == "" || desc == "" || !t.Valid() {
			continue
		}
		out = append(out, state.Entity{Type: t, Name: name, Description: desc})
	}
	return out
}

// ParseSummary extracts a plot summary. Providers that always answer in JSON
// return a quoted string or {"summary": "..."}; anything else is taken as
// plain text.
func ParseSummary(raw string) string {
	text := strings.TrimSpace(StripFence(raw))
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s, ok := str(t, "summary", "text", "story"); ok && s != "" {
			return strings.TrimSpace(s)
		}
	}
	return text
}
