package state

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSetup() *StorySetup {
	return &StorySetup{
		ID: "setup-1",
		World: WorldSetup{
			Theme:   "Tu tiên",
			Context: "Một thế giới tu luyện",
			Tone:    "Nghiêm túc",
		},
		Character: CharacterSetup{
			Name:    "Lâm Phong",
			Gender:  "Nam",
			Summary: "Một thiếu niên nghèo",
			Goal:    "Trở thành tiên nhân",
		},
		Entities: []Entity{
			{ID: "npc-lao-gia", Type: EntityNPC, Name: "Lão Già", Description: "Một ông lão bí ẩn"},
		},
		InitialInventory: []InventoryItem{
			{ID: "sword", Name: "Thiết Kiếm", Description: "Kiếm sắt", Quantity: 1, Equippable: true, Slot: SlotWeapon,
				StatBonuses: []StatBonus{{StatID: StatDamageOutput, Value: 5}}},
			{ID: "potion", Name: "Hồi Xuân Đan", Description: "Hồi máu", Quantity: 2, Usable: true, Consumable: true,
				Effects: []ItemEffect{{StatID: StatHP, ChangeValue: 30}}},
		},
	}
}

func newTestGame(t *testing.T) *GameState {
	t.Helper()
	gs := NewGameState(testSetup(), DefaultNSFW())
	gs.AppendMessage(MessageNarration, "Câu chuyện bắt đầu.", testTime)
	gs.IsInitialStoryGenerated = true
	return gs
}

func TestNewGameState(t *testing.T) {
	gs := NewGameState(testSetup(), DefaultNSFW())

	if len(gs.CharacterStats) != len(DefaultStats()) {
		t.Errorf("expected %d default stats, got %d", len(DefaultStats()), len(gs.CharacterStats))
	}
	if gs.EquippedItems[SlotWeapon] != "sword" {
		t.Errorf("expected sword auto-equipped, got %q", gs.EquippedItems[SlotWeapon])
	}
	if len(gs.EquippedItems) != 1 {
		t.Errorf("expected one equipped item, got %d", len(gs.EquippedItems))
	}
	if len(gs.Encyclopedia) != 1 || gs.Encyclopedia[0].Name != "Lão Già" {
		t.Errorf("expected setup entities in encyclopedia, got %+v", gs.Encyclopedia)
	}
	if gs.ActiveSidebarTab != TabStats {
		t.Errorf("expected sidebar tab %q, got %q", TabStats, gs.ActiveSidebarTab)
	}
	if gs.IsInitialStoryGenerated {
		t.Error("new game should not have an opening yet")
	}
}

func TestNewGameState_CustomStatsFilled(t *testing.T) {
	setup := testSetup()
	setup.InitialCharacterStats = CharacterStats{
		StatHP: {ID: StatHP, Name: "Sinh Lực", Value: Num(250), MaxValue: maxOf(250)},
	}
	gs := NewGameState(setup, DefaultNSFW())

	if v, _ := gs.CharacterStats.Value(StatHP); v != 250 {
		t.Errorf("custom hp should be kept, got %v", v)
	}
	if _, ok := gs.CharacterStats[StatLuck]; !ok {
		t.Error("missing default stats should be filled in")
	}
	if _, ok := setup.InitialCharacterStats[StatLuck]; ok {
		t.Error("setup stats must not be mutated")
	}
}

func TestGameState_DeepCopy(t *testing.T) {
	gs := newTestGame(t)
	cp, err := gs.DeepCopy()
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	cp.Inventory[0].Quantity = 99
	cp.StoryLog = append(cp.StoryLog, StoryMessage{Content: "x"})
	hp := cp.CharacterStats[StatHP]
	hp.Value = Num(1)
	cp.CharacterStats[StatHP] = hp

	if gs.Inventory[0].Quantity == 99 {
		t.Error("inventory shared between copies")
	}
	if len(gs.StoryLog) != 1 {
		t.Error("story log shared between copies")
	}
	if v, _ := gs.CharacterStats.Value(StatHP); v != 100 {
		t.Error("stats shared between copies")
	}
	if cp.ID != gs.ID {
		t.Error("copy should keep the id")
	}
}

func TestGameState_CharacterName(t *testing.T) {
	gs := &GameState{}
	if got := gs.CharacterName(); got != "Nhân vật" {
		t.Errorf("expected fallback name, got %q", got)
	}
	gs.Setup = testSetup()
	if got := gs.CharacterName(); got != "Lâm Phong" {
		t.Errorf("expected setup name, got %q", got)
	}
}
