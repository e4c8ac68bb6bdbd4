package state

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fixed actions sent to the oracle on the player's behalf.
const (
	ActionCultivate = "Tập Trung Nâng Cấp"
	ActionAdvance   = "Thử Thách Thăng Tiến"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrItemNotUsable     = errors.New("item is not usable")
	ErrItemNotEquippable = errors.New("item is not equippable")
	ErrInvalidSlot       = errors.New("invalid equipment slot")
	ErrRerollNotAllowed  = errors.New("opening can only be rerolled before the first action")
	ErrNotEnoughQi       = errors.New("Chưa đủ điểm kinh nghiệm để đột phá.")
)

// RecordPlayerAction snapshots the state and logs the player's decision.
func (gs *GameState) RecordPlayerAction(action string, at time.Time) {
	gs.PushSnapshot()
	gs.LogPlayerAction(action, at)
}

// LogPlayerAction appends the player's decision without taking a snapshot,
// for callers that already captured one before changing the state.
func (gs *GameState) LogPlayerAction(action string, at time.Time) {
	gs.AppendMessage(MessageSystem, fmt.Sprintf("%s quyết định: %q", gs.CharacterName(), action), at)
	gs.UpdatedAt = at
}

// UseItem applies a usable item's effects to base stats. Consumables lose
// one unit and are removed and unequipped at zero. It returns the item as it
// was before use.
func (gs *GameState) UseItem(itemID string) (InventoryItem, error) {
	idx := findItem(gs.Inventory, itemID)
	if idx < 0 {
		return InventoryItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item := gs.Inventory[idx]
	if !item.Usable || item.Quantity <= 0 {
		return InventoryItem{}, fmt.Errorf("%w: %s", ErrItemNotUsable, item.Name)
	}

	for _, eff := range item.Effects {
		attr, ok := gs.CharacterStats[eff.StatID]
		if !ok {
			continue
		}
		v, numeric := attr.Value.Float()
		if !numeric {
			continue
		}
		v += eff.ChangeValue
		if attr.MaxValue != nil {
			v = math.Min(v, *attr.MaxValue)
		}
		if eff.StatID == StatHP {
			v = math.Max(0, v)
		}
		attr.Value = Num(v)
		gs.CharacterStats[eff.StatID] = attr
	}

	if item.Consumable {
		gs.Inventory[idx].Quantity--
		if gs.Inventory[idx].Quantity <= 0 {
			gs.Inventory = append(gs.Inventory[:idx], gs.Inventory[idx+1:]...)
			gs.EquippedItems.unequipItem(item.ID)
		}
	}
	return item, nil
}

// EquipItem puts an item into its slot, replacing any current occupant.
func (gs *GameState) EquipItem(itemID string) (InventoryItem, error) {
	idx := findItem(gs.Inventory, itemID)
	if idx < 0 {
		return InventoryItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item := gs.Inventory[idx]
	if !item.CanEquip() {
		return InventoryItem{}, fmt.Errorf("%w: %s", ErrItemNotEquippable, item.Name)
	}
	if gs.EquippedItems == nil {
		gs.EquippedItems = make(EquippedItems)
	}
	gs.EquippedItems[item.Slot] = item.ID
	return item, nil
}

// UnequipItem clears a slot. Clearing an empty slot is not an error.
func (gs *GameState) UnequipItem(slot EquipmentSlot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}
	delete(gs.EquippedItems, slot)
	return nil
}

// ToggleRoleplay flips roleplay mode. Entering it clears the choices.
func (gs *GameState) ToggleRoleplay() bool {
	gs.IsRoleplayModeActive = !gs.IsRoleplayModeActive
	if gs.IsRoleplayModeActive {
		gs.CurrentChoices = make([]PlayerChoice, 0)
	}
	return gs.IsRoleplayModeActive
}

// CanAdvance checks whether spiritual qi is full enough for a breakthrough.
func (gs *GameState) CanAdvance() error {
	qi, ok := gs.EffectiveStats()[StatSpiritualQi]
	if !ok || qi.MaxValue == nil {
		return ErrNotEnoughQi
	}
	v, numeric := qi.Value.Float()
	if !numeric || *qi.MaxValue <= 0 || v < *qi.MaxValue {
		return ErrNotEnoughQi
	}
	return nil
}

// CanReroll reports whether the opening may still be regenerated.
func (gs *GameState) CanReroll() error {
	if len(gs.History) > 0 {
		return ErrRerollNotAllowed
	}
	return nil
}

// ApplyWorldEvent makes ev the current event and announces it in the log.
func (gs *GameState) ApplyWorldEvent(ev WorldEvent, at time.Time) WorldEvent {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Status = WorldEventActive
	ev.Timestamp = at.UTC().Format(time.RFC3339)
	gs.CurrentWorldEvent = &ev
	gs.AppendMessage(MessageEvent, fmt.Sprintf("SỰ KIỆN THẾ GIỚI MỚI: %s\n%s", ev.Name, ev.Description), at)
	gs.UpdatedAt = at
	return ev
}

// StoryText joins narration and event messages, the material for a summary.
func (gs *GameState) StoryText() string {
	var parts []string
	for _, m := range gs.StoryLog {
		if m.Type == MessageNarration || m.Type == MessageEvent {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
