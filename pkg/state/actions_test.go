package state

import (
	"errors"
	"strings"
	"testing"
)

func TestRecordPlayerAction(t *testing.T) {
	gs := newTestGame(t)
	gs.RecordPlayerAction("Rút kiếm", testTime)

	if len(gs.History) != 1 {
		t.Errorf("expected one snapshot, got %d", len(gs.History))
	}
	last := gs.StoryLog[len(gs.StoryLog)-1]
	if last.Type != MessageSystem || last.Content != `Lâm Phong quyết định: "Rút kiếm"` {
		t.Errorf("unexpected action message %+v", last)
	}
}

func TestUseItem(t *testing.T) {
	gs := newTestGame(t)
	hp := gs.CharacterStats[StatHP]
	hp.Value = Num(50)
	gs.CharacterStats[StatHP] = hp

	item, err := gs.UseItem("potion")
	if err != nil {
		t.Fatalf("UseItem failed: %v", err)
	}
	if item.Name != "Hồi Xuân Đan" {
		t.Errorf("unexpected item %+v", item)
	}
	if v, _ := gs.CharacterStats.Value(StatHP); v != 80 {
		t.Errorf("expected hp 80, got %v", v)
	}
	if gs.Inventory[findItem(gs.Inventory, "potion")].Quantity != 1 {
		t.Error("consumable should lose one unit")
	}

	// second use caps at max and removes the item
	if _, err := gs.UseItem("potion"); err != nil {
		t.Fatalf("UseItem failed: %v", err)
	}
	if v, _ := gs.CharacterStats.Value(StatHP); v != 100 {
		t.Errorf("expected hp capped at 100, got %v", v)
	}
	if findItem(gs.Inventory, "potion") >= 0 {
		t.Error("item should be removed at zero")
	}
	if _, err := gs.UseItem("potion"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestUseItem_NotUsable(t *testing.T) {
	gs := newTestGame(t)
	if _, err := gs.UseItem("sword"); !errors.Is(err, ErrItemNotUsable) {
		t.Errorf("expected ErrItemNotUsable, got %v", err)
	}
}

func TestUseItem_ConsumedWhileEquipped(t *testing.T) {
	gs := newTestGame(t)
	gs.Inventory = append(gs.Inventory, InventoryItem{
		ID: "talisman", Name: "Bùa", Quantity: 1, Usable: true, Consumable: true,
		Equippable: true, Slot: SlotAmulet,
	})
	if _, err := gs.EquipItem("talisman"); err != nil {
		t.Fatalf("EquipItem failed: %v", err)
	}
	if _, err := gs.UseItem("talisman"); err != nil {
		t.Fatalf("UseItem failed: %v", err)
	}
	if _, ok := gs.EquippedItems[SlotAmulet]; ok {
		t.Error("consumed item should be unequipped")
	}
}

func TestEquipAndUnequip(t *testing.T) {
	gs := newTestGame(t)
	gs.Inventory = append(gs.Inventory, InventoryItem{
		ID: "blade", Name: "Thanh Phong Kiếm", Quantity: 1, Equippable: true, Slot: SlotWeapon,
	})

	if _, err := gs.EquipItem("blade"); err != nil {
		t.Fatalf("EquipItem failed: %v", err)
	}
	if gs.EquippedItems[SlotWeapon] != "blade" {
		t.Errorf("new weapon should replace the old, got %q", gs.EquippedItems[SlotWeapon])
	}
	if _, err := gs.EquipItem("potion"); !errors.Is(err, ErrItemNotEquippable) {
		t.Errorf("expected ErrItemNotEquippable, got %v", err)
	}
	if _, err := gs.EquipItem("missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	if err := gs.UnequipItem(SlotWeapon); err != nil {
		t.Fatalf("UnequipItem failed: %v", err)
	}
	if _, ok := gs.EquippedItems[SlotWeapon]; ok {
		t.Error("slot should be empty")
	}
	if err := gs.UnequipItem(SlotWeapon); err != nil {
		t.Errorf("unequipping an empty slot should succeed, got %v", err)
	}
	if err := gs.UnequipItem("Đuôi"); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestToggleRoleplay(t *testing.T) {
	gs := newTestGame(t)
	gs.CurrentChoices = []PlayerChoice{{Text: "a"}}
	if !gs.ToggleRoleplay() {
		t.Fatal("expected roleplay on")
	}
	if len(gs.CurrentChoices) != 0 {
		t.Error("entering roleplay should clear choices")
	}
	if gs.ToggleRoleplay() {
		t.Error("expected roleplay off")
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		max   *float64
		ok    bool
	}{
		{"full", 100, maxOf(100), true},
		{"over", 120, maxOf(100), true},
		{"short", 99, maxOf(100), false},
		{"zero max", 0, maxOf(0), false},
		{"no max", 500, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newTestGame(t)
			gs.CharacterStats[StatSpiritualQi] = CharacterAttribute{ID: StatSpiritualQi, Value: Num(tt.value), MaxValue: tt.max}
			err := gs.CanAdvance()
			if tt.ok && err != nil {
				t.Errorf("expected advance allowed, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrNotEnoughQi) {
				t.Errorf("expected ErrNotEnoughQi, got %v", err)
			}
		})
	}
}

func TestCanReroll(t *testing.T) {
	gs := newTestGame(t)
	if err := gs.CanReroll(); err != nil {
		t.Errorf("fresh game should allow reroll, got %v", err)
	}
	gs.RecordPlayerAction("x", testTime)
	if err := gs.CanReroll(); !errors.Is(err, ErrRerollNotAllowed) {
		t.Errorf("expected ErrRerollNotAllowed, got %v", err)
	}
}

func TestApplyWorldEvent(t *testing.T) {
	gs := newTestGame(t)
	ev := gs.ApplyWorldEvent(WorldEvent{
		Name:        "Bí Cảnh Mở Ra",
		Type:        WorldEventBoon,
		Scope:       ScopeRegional,
		Description: "Một bí cảnh cổ xưa xuất hiện.",
	}, testTime)

	if ev.ID == "" || ev.Status != WorldEventActive {
		t.Errorf("event not initialized: %+v", ev)
	}
	if gs.CurrentWorldEvent == nil || gs.CurrentWorldEvent.Name != "Bí Cảnh Mở Ra" {
		t.Error("event should become current")
	}
	last := gs.StoryLog[len(gs.StoryLog)-1]
	if last.Type != MessageEvent || !strings.HasPrefix(last.Content, "SỰ KIỆN THẾ GIỚI MỚI: Bí Cảnh Mở Ra\n") {
		t.Errorf("unexpected event message %+v", last)
	}
}

func TestStoryText(t *testing.T) {
	gs := newTestGame(t)
	gs.RecordPlayerAction("đi", testTime)
	gs.AppendMessage(MessageNarration, "Trời tối.", testTime)
	gs.AppendMessage(MessageEvent, "Sấm sét.", testTime)

	if got := gs.StoryText(); got != "Câu chuyện bắt đầu.\n\nTrời tối.\n\nSấm sét." {
		t.Errorf("unexpected story text %q", got)
	}
}
