package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/services"
	"github.com/jwebster45206/roleplay-engine/internal/services/events"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSetup() *state.StorySetup {
	return &state.StorySetup{
		ID:   "tien-hiep",
		Name: "Tiên hiệp",
		World: state.WorldSetup{
			Theme:   "Tu tiên",
			Context: "Một thế giới tu luyện",
			Tone:    "Nghiêm túc",
		},
		Character: state.CharacterSetup{
			Name:    "Lâm Phong",
			Gender:  "Nam",
			Summary: "Một thiếu niên nghèo",
			Goal:    "Trở thành tiên nhân",
		},
		Entities: []state.Entity{
			{ID: "npc-lao-gia", Type: state.EntityNPC, Name: "Lão Già", Description: "Một ông lão bí ẩn"},
		},
		InitialInventory: []state.InventoryItem{
			{ID: "sword", Name: "Thiết Kiếm", Description: "Kiếm sắt", Quantity: 1, Equippable: true, Slot: state.SlotWeapon,
				StatBonuses: []state.StatBonus{{StatID: state.StatDamageOutput, Value: 5}}},
			{ID: "potion", Name: "Hồi Xuân Đan", Description: "Hồi máu", Quantity: 2, Usable: true, Consumable: true,
				Effects: []state.ItemEffect{{StatID: state.StatHP, ChangeValue: 30}}},
		},
	}
}

const openingResponse = `{
	"story": "Lâm Phong tỉnh dậy trong túp lều rách nát.",
	"choices": ["Ra ngoài", "Ngủ tiếp"]
}`

const segmentResponse = `{
	"story": "Gió nổi lên, một con sói lao tới.",
	"choices": ["Chiến đấu", "Bỏ chạy"],
	"stat_changes": [{"attribute_id": "hp", "change_value": -10}],
	"item_changes": {"gained": [{"name": "Linh Thạch", "quantity": 3}]}
}`

type testHarness struct {
	engine *Engine
	store  *storage.MockStorage
	llm    *services.MockLLMAPI
}

func newHarness(t *testing.T, opts ...Option) *testHarness {
	t.Helper()
	store := storage.NewMockStorage()
	llm := services.NewMockLLMAPI()
	opts = append([]Option{WithClock(fixedClock), WithIDs(state.SequentialIDs())}, opts...)
	return &testHarness{
		engine: New(store, llm, testLogger(), opts...),
		store:  store,
		llm:    llm,
	}
}

// start creates a game with the canned opening.
func (h *testHarness) start(t *testing.T) uuid.UUID {
	t.Helper()
	h.llm.QueueResponses(openingResponse)
	res, err := h.engine.NewStory(context.Background(), NewStoryRequest{Setup: testSetup()})
	if err != nil {
		t.Fatalf("NewStory failed: %v", err)
	}
	return res.GameState.ID
}

func (h *testHarness) chatCalls() int {
	_, calls := h.llm.GetCalls()
	return len(calls)
}

func (h *testHarness) stored(t *testing.T, id uuid.UUID) *state.GameState {
	t.Helper()
	gs, err := h.store.LoadGameState(context.Background(), id)
	if err != nil || gs == nil {
		t.Fatalf("Failed to load stored game: %v", err)
	}
	return gs
}

func hasNotice(notices []state.Notice, substr string) bool {
	for _, n := range notices {
		if strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func TestNewStory(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	gs := h.stored(t, id)
	if !gs.IsInitialStoryGenerated {
		t.Error("Expected opening to be marked as generated")
	}
	if len(gs.StoryLog) != 1 || gs.StoryLog[0].Type != state.MessageNarration {
		t.Fatalf("Expected one narration message, got %+v", gs.StoryLog)
	}
	if len(gs.CurrentChoices) != 2 {
		t.Errorf("Expected 2 choices, got %d", len(gs.CurrentChoices))
	}
	if gs.EquippedItems[state.SlotWeapon] != "sword" {
		t.Errorf("Expected setup weapon to be auto-equipped, got %v", gs.EquippedItems)
	}
	if !gs.CreatedAt.Equal(testTime) {
		t.Errorf("Expected injected clock, got %v", gs.CreatedAt)
	}

	_, calls := h.llm.GetCalls()
	if len(calls) != 1 || len(calls[0].Messages) != 2 {
		t.Fatalf("Expected one oracle call with system and user messages, got %+v", calls)
	}
}

func TestNewStory_FromSetupID(t *testing.T) {
	h := newHarness(t)
	h.store.AddSetup("tien-hiep", testSetup())
	h.llm.QueueResponses(openingResponse)

	res, err := h.engine.NewStory(context.Background(), NewStoryRequest{SetupID: "tien-hiep"})
	if err != nil {
		t.Fatalf("NewStory failed: %v", err)
	}
	if res.GameState.CharacterName() != "Lâm Phong" {
		t.Errorf("Unexpected character %q", res.GameState.CharacterName())
	}

	_, err = h.engine.NewStory(context.Background(), NewStoryRequest{SetupID: "missing"})
	if !errors.Is(err, storage.ErrSetupNotFound) {
		t.Errorf("Expected ErrSetupNotFound, got %v", err)
	}
}

func TestNewStory_Validation(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		req  NewStoryRequest
	}{
		{name: "empty", req: NewStoryRequest{}},
		{name: "setup without character", req: NewStoryRequest{Setup: &state.StorySetup{World: state.WorldSetup{Theme: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.engine.NewStory(context.Background(), tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest, got %v", err)
			}
		})
	}
	if h.chatCalls() != 0 {
		t.Error("Invalid requests must not reach the oracle")
	}
}

func TestNewStory_OracleFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	h.llm.SetChatError(errors.New("quota exceeded"))

	_, err := h.engine.NewStory(context.Background(), NewStoryRequest{Setup: testSetup()})
	if !errors.Is(err, ErrOracle) {
		t.Fatalf("Expected ErrOracle, got %v", err)
	}
	if h.store.SaveCalls() != 0 {
		t.Errorf("Expected no saves, got %d", h.store.SaveCalls())
	}
}

func TestAction_AppliesSegment(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses(segmentResponse)

	res, err := h.engine.Action(context.Background(), id, "Ra ngoài")
	if err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	if !hasNotice(res.Notices, "Nhận được: Linh Thạch (x3)") {
		t.Errorf("Expected item notice, got %+v", res.Notices)
	}

	gs := h.stored(t, id)
	if hp, _ := gs.CharacterStats.Value(state.StatHP); hp != 90 {
		t.Errorf("Expected hp 90, got %v", hp)
	}
	if len(gs.History) != 1 {
		t.Errorf("Expected one snapshot, got %d", len(gs.History))
	}
	if len(gs.StoryLog) != 3 {
		t.Fatalf("Expected opening, decision and narration, got %d messages", len(gs.StoryLog))
	}
	if decision := gs.StoryLog[1]; decision.Type != state.MessageSystem || !strings.Contains(decision.Content, "quyết định") {
		t.Errorf("Unexpected decision message %+v", decision)
	}
	if gs.StoryLog[2].Content != "Gió nổi lên, một con sói lao tới." {
		t.Errorf("Unexpected narration %q", gs.StoryLog[2].Content)
	}
}

func TestAction_OracleFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	before := append([]byte(nil), h.store.RawGameState(id)...)
	saves := h.store.SaveCalls()

	h.llm.SetChatError(errors.New("connection reset"))
	if _, err := h.engine.Action(context.Background(), id, "Ra ngoài"); !errors.Is(err, ErrOracle) {
		t.Fatalf("Expected ErrOracle, got %v", err)
	}

	if !bytes.Equal(before, h.store.RawGameState(id)) {
		t.Error("Stored game changed after a failed oracle call")
	}
	if h.store.SaveCalls() != saves {
		t.Error("Expected no save after a failed oracle call")
	}
	if len(h.stored(t, id).History) != 0 {
		t.Error("History must not grow after a failed oracle call")
	}
}

func TestAction_UndecodableResponseUsesFallback(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses("Tôi không hiểu yêu cầu.")

	res, err := h.engine.Action(context.Background(), id, "Ra ngoài")
	if err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	last := res.GameState.StoryLog[len(res.GameState.StoryLog)-1]
	if last.Content != "AI không thể tiếp tục câu chuyện. Vui lòng thử lại." {
		t.Errorf("Expected fallback story, got %q", last.Content)
	}
}

func TestAction_CommandShortcut(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	calls, saves := h.chatCalls(), h.store.SaveCalls()

	res, err := h.engine.Action(context.Background(), id, "túi đồ")
	if err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	if !strings.Contains(res.Message, "Thiết Kiếm") {
		t.Errorf("Expected inventory listing, got %q", res.Message)
	}
	if h.chatCalls() != calls || h.store.SaveCalls() != saves {
		t.Error("Commands must not call the oracle or save")
	}
}

func TestAction_Validation(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	if _, err := h.engine.Action(context.Background(), id, "   "); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
	if _, err := h.engine.Action(context.Background(), uuid.New(), "Ra ngoài"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestAction_ConcurrentRequestRejected(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	release := make(chan struct{})
	h.llm.SetChatBlocking(release, segmentResponse)

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.Action(context.Background(), id, "Ra ngoài")
		done <- err
	}()

	// Wait for the first action to reach the oracle
	deadline := time.Now().Add(2 * time.Second)
	for h.chatCalls() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("First action never reached the oracle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := h.engine.Action(context.Background(), id, "Ngủ tiếp"); !errors.Is(err, services.ErrRequestInFlight) {
		t.Errorf("Expected ErrRequestInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("First action failed: %v", err)
	}
	if len(h.stored(t, id).History) != 1 {
		t.Error("Expected only the first action to be applied")
	}
}

func TestAction_OracleTimeout(t *testing.T) {
	h := newHarness(t, WithOracleTimeout(20*time.Millisecond))
	id := h.start(t)
	h.llm.SetChatBlocking(make(chan struct{}), segmentResponse)

	_, err := h.engine.Action(context.Background(), id, "Ra ngoài")
	if !errors.Is(err, ErrOracle) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected oracle deadline error, got %v", err)
	}
}

func TestAction_DeathBlocksFurtherActions(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses(`{
		"story": "Con sói cắn trúng cổ họng.",
		"choices": ["Đứng dậy"],
		"stat_changes": [{"attribute_id": "hp", "change_value": -500}]
	}`)

	res, err := h.engine.Action(context.Background(), id, "Chiến đấu")
	if err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	gs := res.GameState
	if len(gs.CurrentChoices) != 0 {
		t.Error("Expected choices to be cleared on death")
	}
	if last := gs.StoryLog[len(gs.StoryLog)-1]; last.Content != gs.DeathMessage() {
		t.Errorf("Expected death message, got %q", last.Content)
	}
	if !hasNotice(res.Notices, "đã tử vong") {
		t.Error("Expected a death notice")
	}

	calls := h.chatCalls()
	for _, act := range []func() error{
		func() error { _, err := h.engine.Action(context.Background(), id, "Đứng dậy"); return err },
		func() error { _, err := h.engine.Cultivate(context.Background(), id); return err },
		func() error { _, err := h.engine.UseItem(context.Background(), id, "potion"); return err },
	} {
		if err := act(); !errors.Is(err, state.ErrCharacterDead) {
			t.Errorf("Expected ErrCharacterDead, got %v", err)
		}
	}
	if h.chatCalls() != calls {
		t.Error("A dead character must not reach the oracle")
	}

	// Undo still works and revives the character
	if _, err := h.engine.Undo(context.Background(), id); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if h.stored(t, id).IsDead() {
		t.Error("Expected undo to restore the living state")
	}
}

func TestUndo(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses(segmentResponse)
	if _, err := h.engine.Action(context.Background(), id, "Ra ngoài"); err != nil {
		t.Fatalf("Action failed: %v", err)
	}

	res, err := h.engine.Undo(context.Background(), id)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(res.GameState.StoryLog) != 1 {
		t.Errorf("Expected story log restored to the opening, got %d messages", len(res.GameState.StoryLog))
	}
	if hp, _ := res.GameState.CharacterStats.Value(state.StatHP); hp != 100 {
		t.Errorf("Expected hp restored to 100, got %v", hp)
	}

	if _, err := h.engine.Undo(context.Background(), id); !errors.Is(err, state.ErrNothingToUndo) {
		t.Errorf("Expected ErrNothingToUndo, got %v", err)
	}
}

func TestReroll(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	h.llm.QueueResponses(`{"story": "Một buổi sáng khác.", "choices": ["Đi"]}`)
	res, err := h.engine.Reroll(context.Background(), id)
	if err != nil {
		t.Fatalf("Reroll failed: %v", err)
	}
	if len(res.GameState.StoryLog) != 1 || res.GameState.StoryLog[0].Content != "Một buổi sáng khác." {
		t.Errorf("Expected new opening, got %+v", res.GameState.StoryLog)
	}

	h.llm.QueueResponses(segmentResponse)
	if _, err := h.engine.Action(context.Background(), id, "Đi"); err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	if _, err := h.engine.Reroll(context.Background(), id); !errors.Is(err, state.ErrRerollNotAllowed) {
		t.Errorf("Expected ErrRerollNotAllowed, got %v", err)
	}
}

func TestUseItem(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses(segmentResponse)

	res, err := h.engine.UseItem(context.Background(), id, "potion")
	if err != nil {
		t.Fatalf("UseItem failed: %v", err)
	}
	for _, item := range res.GameState.Inventory {
		if item.ID == "potion" && item.Quantity != 1 {
			t.Errorf("Expected one potion left, got %d", item.Quantity)
		}
	}

	_, calls := h.llm.GetCalls()
	prompt := calls[len(calls)-1].Messages[1].Content
	if !strings.Contains(prompt, "Sử dụng vật phẩm Hồi Xuân Đan.") {
		t.Errorf("Expected item action in prompt, got %q", prompt)
	}

	n := h.chatCalls()
	if _, err := h.engine.UseItem(context.Background(), id, "sword"); !errors.Is(err, state.ErrItemNotUsable) {
		t.Errorf("Expected ErrItemNotUsable, got %v", err)
	}
	if _, err := h.engine.UseItem(context.Background(), id, "ghost"); !errors.Is(err, state.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
	if h.chatCalls() != n {
		t.Error("Rejected item use must not reach the oracle")
	}
}

func TestEquipAndUnequip(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	calls := h.chatCalls()

	res, err := h.engine.Unequip(context.Background(), id, state.SlotWeapon, false)
	if err != nil {
		t.Fatalf("Unequip failed: %v", err)
	}
	if _, ok := res.GameState.EquippedItems[state.SlotWeapon]; ok {
		t.Error("Expected weapon slot to be empty")
	}

	res, err = h.engine.Equip(context.Background(), id, "sword", false)
	if err != nil {
		t.Fatalf("Equip failed: %v", err)
	}
	if res.GameState.EquippedItems[state.SlotWeapon] != "sword" {
		t.Error("Expected sword in weapon slot")
	}
	if h.chatCalls() != calls {
		t.Error("Silent equipment changes must not reach the oracle")
	}

	if _, err := h.engine.Equip(context.Background(), id, "potion", false); !errors.Is(err, state.ErrItemNotEquippable) {
		t.Errorf("Expected ErrItemNotEquippable, got %v", err)
	}
	if _, err := h.engine.Unequip(context.Background(), id, "Đuôi", false); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestUnequip_DeathWithoutOracle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.start(t)

	// Alive only through the amulet's flat hp bonus
	gs := h.stored(t, id)
	hp := gs.CharacterStats[state.StatHP]
	hp.Value = state.Num(0)
	gs.CharacterStats[state.StatHP] = hp
	gs.Inventory = append(gs.Inventory, state.InventoryItem{
		ID: "amulet", Name: "Hộ Mệnh Phù", Quantity: 1, Equippable: true, Slot: state.SlotAmulet,
		StatBonuses: []state.StatBonus{{StatID: state.StatHP, Value: 30}},
	})
	gs.EquippedItems[state.SlotAmulet] = "amulet"
	if err := h.store.SaveGameState(ctx, id, gs); err != nil {
		t.Fatalf("Failed to store game: %v", err)
	}
	if gs.IsDead() || len(gs.CurrentChoices) == 0 {
		t.Fatal("Expected a living character with choices")
	}

	res, err := h.engine.Unequip(ctx, id, state.SlotAmulet, false)
	if err != nil {
		t.Fatalf("Unequip failed: %v", err)
	}
	stored := h.stored(t, id)
	if !stored.IsDead() {
		t.Fatal("Expected the character to die when the amulet comes off")
	}
	if len(stored.CurrentChoices) != 0 {
		t.Errorf("Expected choices to be cleared, got %d", len(stored.CurrentChoices))
	}
	if last := stored.StoryLog[len(stored.StoryLog)-1]; last.Content != stored.DeathMessage() {
		t.Errorf("Expected death message, got %q", last.Content)
	}
	if !hasNotice(res.Notices, "đã tử vong") {
		t.Error("Expected a death notice")
	}

	if _, err := h.engine.Action(ctx, id, "Đứng dậy"); !errors.Is(err, state.ErrCharacterDead) {
		t.Errorf("Expected ErrCharacterDead, got %v", err)
	}
	if _, err := h.engine.ToggleRoleplay(ctx, id); err != nil {
		t.Fatalf("ToggleRoleplay failed: %v", err)
	}
	count := 0
	for _, m := range h.stored(t, id).StoryLog {
		if m.Content == stored.DeathMessage() {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one death message, got %d", count)
	}
}

func TestImport_DeadSaveGetsDeathMessage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.start(t)

	gs := h.stored(t, id)
	hp := gs.CharacterStats[state.StatHP]
	hp.Value = state.Num(0)
	gs.CharacterStats[state.StatHP] = hp
	doc, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("Failed to marshal game: %v", err)
	}

	imported, err := h.engine.Import(ctx, doc)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(imported.CurrentChoices) != 0 {
		t.Error("Expected choices to be cleared")
	}
	if last := imported.StoryLog[len(imported.StoryLog)-1]; last.Content != imported.DeathMessage() {
		t.Errorf("Expected death message, got %q", last.Content)
	}
}

func TestUnequip_Narrated(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.llm.QueueResponses(segmentResponse)

	if _, err := h.engine.Unequip(context.Background(), id, state.SlotWeapon, true); err != nil {
		t.Fatalf("Unequip failed: %v", err)
	}
	_, calls := h.llm.GetCalls()
	prompt := calls[len(calls)-1].Messages[1].Content
	if !strings.Contains(prompt, "Thiết Kiếm") {
		t.Errorf("Expected item name in prompt, got %q", prompt)
	}
	if len(h.stored(t, id).History) != 1 {
		t.Error("Expected a narrated change to be undoable")
	}
}

func TestToggleRoleplay(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	res, err := h.engine.ToggleRoleplay(context.Background(), id)
	if err != nil {
		t.Fatalf("ToggleRoleplay failed: %v", err)
	}
	if !res.GameState.IsRoleplayModeActive || len(res.GameState.CurrentChoices) != 0 {
		t.Error("Expected roleplay on with no choices")
	}
}

func TestAdvance(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	if _, err := h.engine.Advance(context.Background(), id); !errors.Is(err, state.ErrNotEnoughQi) {
		t.Fatalf("Expected ErrNotEnoughQi, got %v", err)
	}

	h.llm.QueueResponses(`{"story": "Linh khí tràn đầy.", "choices": [], "stat_changes": [{"attribute_id": "spiritual_qi", "new_value": 100}]}`)
	if _, err := h.engine.Cultivate(context.Background(), id); err != nil {
		t.Fatalf("Cultivate failed: %v", err)
	}

	h.llm.QueueResponses(`{"story": "Đột phá thành công.", "choices": []}`)
	if _, err := h.engine.Advance(context.Background(), id); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	_, calls := h.llm.GetCalls()
	if prompt := calls[len(calls)-1].Messages[1].Content; !strings.Contains(prompt, state.ActionAdvance) {
		t.Errorf("Expected advance action in prompt, got %q", prompt)
	}
}

func TestCreateWorldEvent(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	req := WorldEventRequest{Type: state.WorldEventCalamity, Scope: state.ScopeRegional, Keywords: "yêu thú"}

	h.llm.QueueResponses(`{"name": "Thú Triều", "description": "Yêu thú tràn xuống thôn.", "keyElements": ["Hắc Lang"]}`)
	res, err := h.engine.CreateWorldEvent(context.Background(), id, req)
	if err != nil {
		t.Fatalf("CreateWorldEvent failed: %v", err)
	}
	ev := res.GameState.CurrentWorldEvent
	if ev == nil || ev.Name != "Thú Triều" || ev.Status != state.WorldEventActive || ev.Scope != state.ScopeRegional {
		t.Fatalf("Unexpected world event %+v", ev)
	}
	last := res.GameState.StoryLog[len(res.GameState.StoryLog)-1]
	if last.Type != state.MessageEvent || !strings.HasPrefix(last.Content, "SỰ KIỆN THẾ GIỚI MỚI: Thú Triều") {
		t.Errorf("Unexpected event message %+v", last)
	}

	before := append([]byte(nil), h.store.RawGameState(id)...)
	h.llm.QueueResponses(`{"name": ""}`)
	if _, err := h.engine.CreateWorldEvent(context.Background(), id, req); !errors.Is(err, ErrOracle) {
		t.Errorf("Expected ErrOracle, got %v", err)
	}
	if !bytes.Equal(before, h.store.RawGameState(id)) {
		t.Error("A malformed world event must not change the game")
	}

	if _, err := h.engine.CreateWorldEvent(context.Background(), id, WorldEventRequest{Type: "Động đất", Scope: state.ScopePersonal}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	calls := h.chatCalls()

	got, err := h.engine.Summarize(context.Background(), id)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != msgStoryTooShort || h.chatCalls() != calls {
		t.Errorf("Expected short-story answer without the oracle, got %q", got)
	}

	long := strings.Repeat("Lâm Phong luyện kiếm dưới thác nước. ", 5)
	h.llm.QueueResponses(`{"story": "` + long + `", "choices": []}`)
	if _, err := h.engine.Action(context.Background(), id, "Luyện kiếm"); err != nil {
		t.Fatalf("Action failed: %v", err)
	}

	h.llm.QueueResponses(`{"summary": "Lâm Phong chăm chỉ luyện kiếm."}`)
	got, err = h.engine.Summarize(context.Background(), id)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "Lâm Phong chăm chỉ luyện kiếm." {
		t.Errorf("Unexpected summary %q", got)
	}
	if h.stored(t, id).CurrentSummary != "" {
		t.Error("Summaries must not be stored")
	}
}

func TestPublishesEvents(t *testing.T) {
	broadcaster := events.NewMemoryBroadcaster()
	h := newHarness(t, WithPublisher(broadcaster))
	id := h.start(t)

	ch, cancel, err := broadcaster.Subscribe(context.Background(), id)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	h.llm.QueueResponses(segmentResponse)
	if _, err := h.engine.Action(context.Background(), id, "Ra ngoài"); err != nil {
		t.Fatalf("Action failed: %v", err)
	}

	var types []events.EventType
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}
	if len(types) < 4 || types[0] != events.EventTypeRequestProcessing || types[len(types)-1] != events.EventTypeRequestCompleted {
		t.Fatalf("Unexpected event sequence %v", types)
	}
	seen := map[events.EventType]bool{}
	for _, typ := range types {
		seen[typ] = true
	}
	if !seen[events.EventTypeNotice] || !seen[events.EventTypeGameStateUpdated] {
		t.Errorf("Expected notice and state events, got %v", types)
	}
}

func TestGetAndDelete(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	view, err := h.engine.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if dmg, _ := view.EffectiveStats.Value(state.StatDamageOutput); dmg != 15 {
		t.Errorf("Expected weapon bonus in effective stats, got %v", dmg)
	}
	if view.CombatProfile == nil || view.IsDead {
		t.Errorf("Unexpected view %+v", view)
	}

	if err := h.engine.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := h.engine.Get(context.Background(), id); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}
