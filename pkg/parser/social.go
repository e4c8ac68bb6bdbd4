package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// UnnamedEntity marks an encyclopedia entry the oracle sent without a name.
// Such entries are discarded.
const UnnamedEntity = "Không tên"

// ParseEncyclopediaEntries reads new encyclopedia entries. Unnamed entries
// are dropped and an unknown type becomes Other.
func ParseEncyclopediaEntries(raw any) []state.Entity {
	var out []state.Entity
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name := strOr(m, UnnamedEntity, "name")
		if name == UnnamedEntity {
			continue
		}
		t := state.EntityType(strOr(m, "", "type"))
		if !t.Valid() {
			t = state.EntityOther
		}
		out = append(out, state.Entity{
			ID:          strOr(m, "", "id"),
			Type:        t,
			Name:        name,
			Description: strOr(m, DefaultDescription, "description"),
		})
	}
	return out
}

// ParseAchievements reads unlocked achievements. Name and description are
// required.
func ParseAchievements(raw any) []state.Achievement {
	var out []state.Achievement
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, ok := str(m, "name")
		if !ok || name == "" {
			continue
		}
		desc, ok := str(m, "description")
		if !ok {
			continue
		}
		out = append(out, state.Achievement{
			Name:        name,
			Description: desc,
			Icon:        strOr(m, "", "icon"),
			IsSecret:    truthy(m, "is_secret", "isSecret"),
		})
	}
	return out
}

// ParseRelationshipChanges reads relationship deltas keyed by NPC name.
func ParseRelationshipChanges(raw any) []state.RelationshipChange {
	var out []state.RelationshipChange
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, ok := str(m, "npc_name", "npcName")
		if !ok || name == "" {
			continue
		}
		rc := state.RelationshipChange{NPCName: name, Reason: strOr(m, "", "reason")}
		if n, ok := integer(m, "score_change", "scoreChange"); ok {
			rc.ScoreChange = &n
		}
		if s, ok := str(m, "new_status", "newStatus"); ok && state.RelationshipStatus(s).Valid() {
			rc.NewStatus = state.RelationshipStatus(s)
		}
		out = append(out, rc)
	}
	return out
}

// ParseInitialRelationships reads the opening relationship table. A profile
// without an id takes the id of the matching NPC seed entity, else
// npc-<slug>.
func ParseInitialRelationships(raw any, seeds []state.Entity) []state.NPCProfile {
	var out []state.NPCProfile
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, ok := str(m, "name")
		if !ok || name == "" {
			continue
		}
		p := state.NPCProfile{
			ID:          strOr(m, "", "id"),
			Name:        name,
			Status:      state.StatusNeutral,
			Description: strOr(m, "", "description"),
			Known:       true,
		}
		if p.ID == "" {
			p.ID = seedID(seeds, name)
		}
		if s, ok := str(m, "status"); ok && state.RelationshipStatus(s).Valid() {
			p.Status = state.RelationshipStatus(s)
		}
		if n, ok := integer(m, "score"); ok {
			p.Score = state.ClampScore(n)
		}
		if known, ok := boolean(m, "known"); ok {
			p.Known = known
		}
		out = append(out, p)
	}
	return out
}

func seedID(seeds []state.Entity, name string) string {
	for _, e := range seeds {
		if e.Type == state.EntityNPC && e.Name == name && e.ID != "" {
			return e.ID
		}
	}
	return "npc-" + state.Slug(name)
}

// ParseObjectives reads objectives. Title and description are required.
// For the opening story an explicit is_player_goal wins; otherwise an
// objective whose title contains the character goal is the player goal.
// Suggested objectives mid-story are never player goals.
func ParseObjectives(raw any, playerGoal string, initial bool) []state.Objective {
	goal := strings.ToLower(strings.TrimSpace(playerGoal))
	var out []state.Objective
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		title, ok := str(m, "title")
		if !ok || title == "" {
			continue
		}
		desc, ok := str(m, "description")
		if !ok {
			continue
		}
		sub, _ := field(m, "sub_objectives", "subObjectives")
		obj := state.Objective{
			Title:         title,
			Description:   desc,
			Status:        state.ObjectiveActive,
			SubObjectives: stringList(sub),
			RewardPreview: strOr(m, "", "reward_preview", "rewardPreview"),
		}
		if initial {
			if pg, ok := boolean(m, "is_player_goal", "isPlayerGoal"); ok {
				obj.IsPlayerGoal = pg
			} else {
				obj.IsPlayerGoal = utf8.RuneCountInString(goal) > 5 && strings.Contains(strings.ToLower(title), goal)
			}
		}
		out = append(out, obj)
	}
	return out
}

// ParseObjectiveUpdates reads objective status transitions. Only completed
// and failed are accepted.
func ParseObjectiveUpdates(raw any) []state.ObjectiveUpdate {
	var out []state.ObjectiveUpdate
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		ref, ok := str(m, "objective_id_or_title", "objectiveIdOrTitle", "id", "title")
		if !ok || ref == "" {
			continue
		}
		status := state.ObjectiveStatus(strOr(m, "", "new_status", "newStatus"))
		if status != state.ObjectiveCompleted && status != state.ObjectiveFailed {
			continue
		}
		out = append(out, state.ObjectiveUpdate{
			IDOrTitle: ref,
			NewStatus: status,
			Reason:    strOr(m, "", "reason"),
		})
	}
	return out
}
