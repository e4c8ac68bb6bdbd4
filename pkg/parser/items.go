package parser

import (
	"math"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// DefaultDescription fills missing item and entity descriptions.
const DefaultDescription = "Không có mô tả."

// ParseInventoryItems reads an array of items. Entries need a string name
// and a positive numeric quantity. An equippable item with an unknown slot
// is kept as a plain item.
func ParseInventoryItems(raw any) []state.InventoryItem {
	var out []state.InventoryItem
	for _, el := range asSlice(raw) {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		name, ok := str(m, "name")
		if !ok || name == "" {
			continue
		}
		qf, ok := number(m, "quantity")
		if !ok {
			continue
		}
		qty := toInt(math.Floor(qf))
		if qty <= 0 {
			continue
		}

		item := state.InventoryItem{
			ID:          strOr(m, "", "id"),
			Name:        name,
			Description: strOr(m, DefaultDescription, "description"),
			Quantity:    qty,
			Icon:        strOr(m, "", "icon"),
			Category:    strOr(m, state.CategoryOther, "category"),
			Usable:      truthy(m, "usable"),
			Consumable:  truthy(m, "consumable"),
			Equippable:  truthy(m, "equippable"),
			Effects:     parseEffects(m),
			StatBonuses: parseStatBonuses(m),
		}
		if slot, ok := str(m, "slot"); ok && state.EquipmentSlot(slot).Valid() {
			item.Slot = state.EquipmentSlot(slot)
		} else {
			item.Equippable = false
		}
		out = append(out, item)
	}
	return out
}

func parseStatBonuses(m map[string]any) []state.StatBonus {
	raw, _ := field(m, "stat_bonuses", "statBonuses")
	var out []state.StatBonus
	for _, el := range asSlice(raw) {
		bm, ok := asMap(el)
		if !ok {
			continue
		}
		id, ok := str(bm, "stat_id", "statId")
		if !ok || id == "" {
			continue
		}
		v, ok := number(bm, "value")
		if !ok {
			continue
		}
		b := state.StatBonus{StatID: id, Value: v}
		b.IsPercentage, _ = boolean(bm, "is_percentage", "isPercentage")
		b.AppliesToMax, _ = boolean(bm, "applies_to_max", "appliesToMax")
		out = append(out, b)
	}
	return out
}

func parseEffects(m map[string]any) []state.ItemEffect {
	raw, _ := field(m, "effects")
	var out []state.ItemEffect
	for _, el := range asSlice(raw) {
		em, ok := asMap(el)
		if !ok {
			continue
		}
		id, ok := str(em, "stat_id", "statId")
		if !ok || id == "" {
			continue
		}
		v, ok := number(em, "change_value", "changeValue")
		if !ok {
			continue
		}
		eff := state.ItemEffect{StatID: id, ChangeValue: v}
		if d, ok := integer(em, "duration"); ok {
			eff.Duration = &d
		}
		out = append(out, eff)
	}
	return out
}

// ParseLostItems reads item losses. Entries need an id or a name; a bare
// string is a name. Quantity defaults to 1 and must be positive.
func ParseLostItems(raw any) []state.LostItem {
	var out []state.LostItem
	for _, el := range asSlice(raw) {
		if s, ok := el.(string); ok {
			if s != "" {
				out = append(out, state.LostItem{Name: s, Quantity: 1})
			}
			continue
		}
		m, ok := asMap(el)
		if !ok {
			continue
		}
		lost := state.LostItem{
			ID:       strOr(m, "", "id", "item_id", "itemId"),
			Name:     strOr(m, "", "name"),
			Quantity: 1,
		}
		if lost.ID == "" && lost.Name == "" {
			continue
		}
		if q, ok := number(m, "quantity"); ok {
			lost.Quantity = toInt(math.Floor(q))
		}
		if lost.Quantity <= 0 {
			continue
		}
		out = append(out, lost)
	}
	return out
}
