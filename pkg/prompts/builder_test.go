package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGame() *state.GameState {
	setup := &state.StorySetup{
		ID: "setup-1",
		World: state.WorldSetup{
			Theme:   "Tiên hiệp",
			Context: "Thanh Vân đại lục",
			Tone:    "Sử thi",
		},
		Character: state.CharacterSetup{
			Name:    "Lâm Phong",
			Gender:  "Nam",
			Summary: "Thiếu niên mồ côi.",
			Goal:    "Báo thù cho sư phụ",
			Traits:  []state.CharacterTrait{{ID: "t1", Name: "Kiếm Tâm", Description: "Nhạy bén với kiếm."}},
		},
	}
	return state.NewGameState(setup, state.DefaultNSFW())
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.historyLimit != DefaultHistoryLimit {
		t.Errorf("Expected default history limit of %d, got %d", DefaultHistoryLimit, builder.historyLimit)
	}
	if builder.messages == nil {
		t.Error("Expected messages slice to be initialized")
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	gs := newTestGame()

	builder := New().
		WithGameState(gs).
		WithUserPrompt("Hello").
		WithHistoryLimit(4)

	if builder.gs != gs {
		t.Error("WithGameState did not set gamestate")
	}
	if builder.userPrompt != "Hello" {
		t.Error("WithUserPrompt did not set prompt")
	}
	if builder.historyLimit != 4 {
		t.Error("WithHistoryLimit did not set limit")
	}
}

func TestBuilder_Build_RequiresGameState(t *testing.T) {
	_, err := New().WithUserPrompt("x").Build()
	if err == nil {
		t.Fatal("Expected error when gamestate is not set")
	}
	if err.Error() != "gamestate is required" {
		t.Errorf("Expected 'gamestate is required' error, got: %v", err)
	}
}

func TestBuilder_Build_RequiresUserPrompt(t *testing.T) {
	_, err := New().WithGameState(newTestGame()).Build()
	if err == nil || err.Error() != "user prompt is required" {
		t.Errorf("Expected 'user prompt is required' error, got: %v", err)
	}
}

func TestBuilder_Build_BasicMessages(t *testing.T) {
	messages, err := BuildMessages(newTestGame(), "Tiến lên", DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.ChatRoleSystem {
		t.Errorf("Expected first message to be system, got %s", messages[0].Role)
	}
	if messages[1].Role != chat.ChatRoleUser || messages[1].Content != "Tiến lên" {
		t.Errorf("Unexpected user message: %+v", messages[1])
	}
}

func TestBuilder_Build_SystemSections(t *testing.T) {
	gs := newTestGame()
	gs.Inventory = []state.InventoryItem{
		{ID: "kiem", Name: "Thiết Kiếm", Quantity: 1, Category: state.CategoryWeapon,
			Equippable: true, Slot: state.SlotWeapon,
			StatBonuses: []state.StatBonus{{StatID: state.StatDamageOutput, Value: 5}}},
	}
	gs.EquippedItems = state.EquippedItems{state.SlotWeapon: "kiem"}
	gs.CharacterSkills = []state.Skill{{ID: "ngu_kiem", Name: "Ngự Kiếm", Proficiency: state.ProficiencyNovice, XPToNextLevel: 100}}
	gs.UnlockedAchievements = []state.Achievement{{ID: "a1", Name: "Bước Đầu", Description: "x"}}
	gs.Encyclopedia = []state.Entity{{ID: "e1", Type: state.EntityLocation, Name: "Thanh Vân Môn", Description: "Đại phái."}}
	gs.NPCRelationships = state.Relationships{
		"npc-1": {ID: "npc-1", Name: "Lão Già", Status: state.StatusFriendly, Score: 40, Known: true},
		"npc-2": {ID: "npc-2", Name: "Bí Ẩn", Status: state.StatusNeutral, Known: false},
	}
	gs.Objectives = []state.Objective{
		{ID: "o1", Title: "Tìm kiếm", Description: "Tìm thanh kiếm.", Status: state.ObjectiveActive},
		{ID: "o2", Title: "Đã xong", Description: "x", Status: state.ObjectiveCompleted},
	}
	gs.CurrentWorldEvent = &state.WorldEvent{Name: "Mưa Máu", Status: state.WorldEventActive, KeyElements: []string{"Huyết Ma"}}

	messages, err := New().WithGameState(gs).WithUserPrompt("x").Build()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	system := messages[0].Content

	wants := []string{
		"Lâm Phong",
		"Chủ đề: Tiên hiệp",
		"Kiếm Tâm: Nhạy bén với kiếm.",
		"Sát Thương Cơ Bản (damage_output): 15",
		"Chỉ số chiến đấu (d20)",
		"Vũ Khí Chính: Thiết Kiếm",
		"Thiết Kiếm (SL: 1",
		"Ngự Kiếm (ID: ngu_kiem",
		"Bước Đầu",
		"Thanh Vân Môn",
		"Lão Già: Thân Thiện (Điểm: 40)",
		"Tìm kiếm (ID: o1)",
		"Mưa Máu",
		"Yếu tố chính: Huyết Ma",
		NSFWOffPrompt,
		"### ĐỊNH DẠNG PHẢN HỒI",
	}
	for _, want := range wants {
		if !strings.Contains(system, want) {
			t.Errorf("Expected system prompt to contain %q", want)
		}
	}

	for _, unwanted := range []string{"Bí Ẩn", "Đã xong", RoleplayPrompt} {
		if strings.Contains(system, unwanted) {
			t.Errorf("System prompt should not contain %q", unwanted)
		}
	}
}

func TestBuilder_Build_RoleplayMode(t *testing.T) {
	gs := newTestGame()
	gs.ToggleRoleplay()

	messages, err := New().WithGameState(gs).WithUserPrompt("x").Build()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(messages[0].Content, RoleplayPrompt) {
		t.Error("Expected roleplay instructions in system prompt")
	}
}

func TestBuilder_Build_HistoryWindow(t *testing.T) {
	gs := newTestGame()
	for i := range 6 {
		gs.AppendMessage(state.MessageNarration, "đoạn "+string(rune('A'+i)), testTime)
	}
	gs.StoryLog = append(gs.StoryLog, state.StoryMessage{Type: state.MessageDialogue, CharacterName: "Lão Già", Content: "Đi đi."})
	gs.AppendMessage(state.MessageLoading, "đang tải", testTime)

	messages, err := New().WithGameState(gs).WithUserPrompt("x").WithHistoryLimit(3).Build()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	system := messages[0].Content

	if !strings.Contains(system, "đoạn F\nLão Già: \"Đi đi.\"") {
		t.Error("Expected the last narration and dialogue in the history window")
	}
	if strings.Contains(system, "đoạn E") {
		t.Error("History window should exclude older messages")
	}
	if strings.Contains(system, "đang tải") {
		t.Error("Loading placeholders should never reach the prompt")
	}
}

func TestSingleRequest(t *testing.T) {
	msgs := SingleRequest("gợi ý")
	if len(msgs) != 1 || msgs[0].Role != chat.ChatRoleUser || msgs[0].Content != "gợi ý" {
		t.Errorf("Unexpected messages: %+v", msgs)
	}
}
