package parser

import (
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// ParseSkills reads skill definitions. Entries need a name; everything else
// is defaulted.
func ParseSkills(raw any) []state.Skill {
	var out []state.Skill
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, ok := str(m, "name")
		if !ok || name == "" {
			continue
		}
		sk := state.Skill{
			ID:            strOr(m, "", "id"),
			Name:          name,
			Description:   strOr(m, state.DefaultSkillDescription, "description"),
			Icon:          strOr(m, state.DefaultSkillIcon, "icon"),
			Category:      strOr(m, state.CategoryOther, "category"),
			Proficiency:   state.ProficiencyNovice,
			XPToNextLevel: state.DefaultSkillThreshold,
			Effects:       parseSkillEffects(m),
		}
		if p, ok := str(m, "proficiency"); ok && state.Proficiency(p).Valid() {
			sk.Proficiency = state.Proficiency(p)
		}
		if xp, ok := integer(m, "xp"); ok && xp > 0 {
			sk.XP = xp
		}
		if next, ok := integer(m, "xp_to_next_level", "xpToNextLevel"); ok && next > 0 {
			sk.XPToNextLevel = next
		}
		out = append(out, sk)
	}
	return out
}

func parseSkillEffects(m map[string]any) []state.SkillEffect {
	raw, _ := field(m, "effects")
	var out []state.SkillEffect
	for _, el := range asSlice(raw) {
		if s, ok := el.(string); ok {
			if s != "" {
				out = append(out, state.SkillEffect{Description: s})
			}
			continue
		}
		em, ok := asMap(el)
		if !ok {
			continue
		}
		desc, ok := str(em, "description")
		if !ok || desc == "" {
			continue
		}
		eff := state.SkillEffect{Description: desc}
		if d, ok := asMap(em["details"]); ok {
			eff.Details = d
		}
		out = append(out, eff)
	}
	return out
}

// ParseSkillChanges reads skill deltas. Entries need a skill id or name.
// An unknown new proficiency is dropped.
func ParseSkillChanges(raw any) []state.SkillChange {
	var out []state.SkillChange
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		id, ok := str(m, "skill_id", "skillId", "skill_name", "skillName")
		if !ok || id == "" {
			continue
		}
		sc := state.SkillChange{
			SkillID:        id,
			NewDescription: strOr(m, "", "new_description", "newDescription"),
			Reason:         strOr(m, "", "reason"),
		}
		if xp, ok := integer(m, "xp_gained", "xpGained"); ok {
			sc.XPGained = &xp
		}
		if p, ok := str(m, "new_proficiency", "newProficiency"); ok && state.Proficiency(p).Valid() {
			prof := state.Proficiency(p)
			sc.NewProficiency = &prof
		}
		if next, ok := integer(m, "new_xp_to_next_level", "newXpToNextLevel"); ok && next > 0 {
			sc.NewXPToNextLevel = &next
		}
		out = append(out, sc)
	}
	return out
}
