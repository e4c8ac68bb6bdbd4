package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// Story texts substituted when a response cannot be used.
const (
	NextSegmentFallback  = "AI không thể tiếp tục câu chuyện. Vui lòng thử lại."
	InitialStoryFallback = "AI không thể tạo câu chuyện ban đầu. Vui lòng thử lại."
	NextSegmentMissing   = "Lỗi: AI không trả về nội dung truyện tiếp theo."
	InitialStoryMissing  = "Lỗi: AI không trả về nội dung truyện."
	invalidChoiceText    = "Lựa chọn không hợp lệ"
)

// ErrMalformedResponse is returned by the envelopes that cannot degrade to
// a fallback story.
var ErrMalformedResponse = errors.New("malformed oracle response")

var (
	fenceRe      = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")
	storyFieldRe = regexp.MustCompile(`(?s)"story"\s*:\s*"(.*?)"`)
)

// StripFence trims raw and unwraps a single fenced code block, with or
// without a language tag.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return s
}

// decodeObject unwraps and decodes a JSON object.
func decodeObject(raw string) (map[string]any, error) {
	v, err := decodeAny(raw)
	if err != nil {
		return nil, err
	}
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	return m, nil
}

// recoverStory pulls the story field out of text that is not valid JSON.
func recoverStory(raw string) (string, bool) {
	m := storyFieldRe.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return "", false
	}
	s := strings.ReplaceAll(m[1], `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s, true
}

func storyOr(m map[string]any, missing string) string {
	if s, ok := m["story"].(string); ok && s != "" {
		return s
	}
	return missing
}

// ParseChoices accepts strings and {text, tooltip} objects. Anything else
// is dropped.
func ParseChoices(raw any) []state.PlayerChoice {
	out := []state.PlayerChoice{}
	for _, el := range asSlice(raw) {
		switch c := el.(type) {
		case string:
			if t := strings.TrimSpace(c); t != "" && t != invalidChoiceText {
				out = append(out, state.PlayerChoice{Text: t})
			}
		case map[string]any:
			text, ok := str(c, "text")
			if !ok || text == "" || text == invalidChoiceText {
				continue
			}
			out = append(out, state.PlayerChoice{Text: text, Tooltip: strOr(c, "", "tooltip")})
		}
	}
	return out
}

// ParseNextSegment sanitizes a next-segment response. It never fails: an
// undecodable response yields a fallback segment carrying only a story.
func ParseNextSegment(raw string) *state.Segment {
	m, err := decodeObject(raw)
	if err != nil {
		story, ok := recoverStory(raw)
		if !ok {
			story = NextSegmentFallback
		}
		return &state.Segment{Story: story, Choices: []state.PlayerChoice{}, Fallback: true}
	}

	seg := &state.Segment{
		Story:               storyOr(m, NextSegmentMissing),
		Choices:             ParseChoices(m["choices"]),
		NewEntries:          ParseEncyclopediaEntries(m["new_encyclopedia_entries"]),
		StatChanges:         ParseStatChanges(m["stat_changes"]),
		SkillChanges:        ParseSkillChanges(m["skill_changes"]),
		NewSkills:           ParseSkills(m["new_skills_unlocked"]),
		Achievements:        ParseAchievements(m["newly_unlocked_achievements"]),
		RelationshipChanges: ParseRelationshipChanges(m["relationship_changes"]),
		NewObjectives:       ParseObjectives(m["new_objectives_suggested"], "", false),
		ObjectiveUpdates:    ParseObjectiveUpdates(m["objective_updates"]),
	}
	if ic, ok := asMap(m["item_changes"]); ok {
		seg.Gained = ParseInventoryItems(ic["gained"])
		seg.Lost = ParseLostItems(ic["lost"])
	}
	if s, ok := m["summary_update"].(string); ok && strings.TrimSpace(s) != "" {
		seg.SummaryUpdate = &s
	}
	return seg
}

// ParseInitialStory sanitizes an opening response. playerGoal feeds the
// player-goal heuristic for objectives; seeds are the setup entities used
// to resolve relationship ids.
func ParseInitialStory(raw, playerGoal string, seeds []state.Entity) *state.InitialStory {
	m, err := decodeObject(raw)
	if err != nil {
		story, ok := recoverStory(raw)
		if !ok {
			story = InitialStoryFallback
		}
		return &state.InitialStory{Story: story, Choices: []state.PlayerChoice{}, Fallback: true}
	}

	return &state.InitialStory{
		Story:         storyOr(m, InitialStoryMissing),
		Choices:       ParseChoices(m["choices"]),
		Entries:       ParseEncyclopediaEntries(m["new_encyclopedia_entries"]),
		Stats:         ParseStats(m["initial_stats"]),
		Inventory:     ParseInventoryItems(m["initial_inventory"]),
		Skills:        ParseSkills(m["initial_skills"]),
		Relationships: ParseInitialRelationships(m["initial_relationships"], seeds),
		Objectives:    ParseObjectives(m["initial_objectives"], playerGoal, true),
		Achievements:  ParseAchievements(m["newly_unlocked_achievements"]),
	}
}

// WorldEventDraft is the oracle's rendition of a requested world event.
type WorldEventDraft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	KeyElements []string `json:"key_elements,omitempty"`
}

// ParseWorldEvent decodes a generated world event. Name and description are
// required.
func ParseWorldEvent(raw string) (*WorldEventDraft, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	name, _ := str(m, "name")
	desc, _ := str(m, "description")
	if name == "" || desc == "" {
		return nil, fmt.Errorf("%w: world event needs name and description", ErrMalformedResponse)
	}
	keys, _ := field(m, "key_elements", "keyElements")
	return &WorldEventDraft{
		Name:        name,
		Description: desc,
		KeyElements: stringList(keys),
	}, nil
}
