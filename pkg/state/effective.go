package state

import "math"

// ComputeEffectiveStats layers the bonuses of equipped items over base stats.
// Inputs are never mutated. Flat bonuses apply first; percentage bonuses are
// computed from the base value so that several items never compound.
func ComputeEffectiveStats(base CharacterStats, equipped EquippedItems, inventory []InventoryItem) CharacterStats {
	eff := base.Clone()
	if eff == nil {
		eff = make(CharacterStats)
	}

	bonuses := equippedBonuses(equipped, inventory)

	for _, b := range bonuses {
		if b.IsPercentage {
			continue
		}
		addBonus(eff, b.StatID, b.AppliesToMax, b.Value)
	}

	for _, b := range bonuses {
		if !b.IsPercentage {
			continue
		}
		orig, ok := base[b.StatID]
		if !ok {
			continue
		}
		var from float64
		if b.AppliesToMax && orig.MaxValue != nil {
			from = *orig.MaxValue
		} else if v, ok := orig.Value.Float(); ok {
			from = v
		}
		if from == 0 {
			continue
		}
		addBonus(eff, b.StatID, b.AppliesToMax, from*b.Value/100)
	}

	for id, attr := range eff {
		eff[id] = clampAttribute(id, attr)
	}
	return eff
}

// equippedBonuses collects bonuses in slot order so aggregation is deterministic.
func equippedBonuses(equipped EquippedItems, inventory []InventoryItem) []StatBonus {
	var out []StatBonus
	for _, slot := range EquipmentSlots {
		id, ok := equipped[slot]
		if !ok || id == "" {
			continue
		}
		idx := findItem(inventory, id)
		if idx < 0 {
			continue
		}
		item := inventory[idx]
		if !item.Equippable {
			continue
		}
		out = append(out, item.StatBonuses...)
	}
	return out
}

func addBonus(stats CharacterStats, id string, toMax bool, amount float64) {
	attr, ok := stats[id]
	if !ok {
		return
	}
	if toMax && attr.MaxValue != nil {
		m := *attr.MaxValue + amount
		attr.MaxValue = &m
	} else if v, ok := attr.Value.Float(); ok {
		attr.Value = Num(v + amount)
	}
	stats[id] = attr
}

func clampAttribute(id string, attr CharacterAttribute) CharacterAttribute {
	v, numeric := attr.Value.Float()
	if numeric && attr.MaxValue != nil && !attr.IsProgressionStat {
		if limit := *attr.MaxValue; v > limit {
			v = limit
		}
		if id == StatHP || id == StatMP || id == StatSpiritualQi {
			v = math.Max(0, v)
		}
	}

	places := 1
	if id == StatAttackSpeed {
		places = 2
	}
	if numeric {
		attr.Value = Num(roundTo(v, places))
	}
	if attr.MaxValue != nil {
		m := roundTo(*attr.MaxValue, places)
		attr.MaxValue = &m
	}
	return attr
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// EffectiveStats returns the stats the player currently sees.
func (gs *GameState) EffectiveStats() CharacterStats {
	return ComputeEffectiveStats(gs.CharacterStats, gs.EquippedItems, gs.Inventory)
}
