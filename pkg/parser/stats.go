package parser

import (
	"sort"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// ParseStats reads an object of stats keyed by id. Entries need a string
// name and a number or string value. Returns nil when nothing survives.
func ParseStats(raw any) state.CharacterStats {
	m, ok := asMap(raw)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stats := make(state.CharacterStats)
	for _, key := range keys {
		rs, ok := asMap(m[key])
		if !ok {
			continue
		}
		name, ok := str(rs, "name")
		if !ok || name == "" {
			continue
		}
		val, ok := attributeValue(rs, "value")
		if !ok {
			continue
		}
		id := strOr(rs, key, "id")

		attr := state.CharacterAttribute{
			ID:          id,
			Name:        name,
			Value:       val,
			Description: strOr(rs, "", "description"),
			Icon:        strOr(rs, "", "icon"),
		}
		if maxV, ok := number(rs, "max_value", "maxValue"); ok {
			attr.MaxValue = &maxV
		}
		if prog, ok := boolean(rs, "is_progression_stat", "isProgressionStat"); ok {
			attr.IsProgressionStat = prog
		} else {
			attr.IsProgressionStat = id == state.StatProgressionLevel
		}
		stats[id] = attr
	}
	if len(stats) == 0 {
		return nil
	}
	return stats
}

func attributeValue(m map[string]any, keys ...string) (state.AttributeValue, bool) {
	v, ok := field(m, keys...)
	if !ok {
		return state.AttributeValue{}, false
	}
	if s, ok := v.(string); ok {
		return state.Str(s), true
	}
	if f, ok := toNumber(v); ok {
		return state.Num(f), true
	}
	return state.AttributeValue{}, false
}

// ParseStatChanges reads stat deltas. Entries need an attribute id.
func ParseStatChanges(raw any) []state.StatChange {
	var out []state.StatChange
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		id, ok := str(m, "attribute_id", "attributeId", "stat_id", "statId")
		if !ok || id == "" {
			continue
		}
		sc := state.StatChange{AttributeID: id, Reason: strOr(m, "", "reason")}
		if f, ok := number(m, "change_value", "changeValue"); ok {
			sc.ChangeValue = &f
		}
		if v, ok := attributeValue(m, "new_value", "newValue"); ok {
			sc.NewValue = &v
		}
		if f, ok := number(m, "new_max_value", "newMaxValue"); ok {
			sc.NewMaxValue = &f
		}
		out = append(out, sc)
	}
	return out
}
