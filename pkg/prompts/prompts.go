package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/roleplay-engine/pkg/actor"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// BaseSystemPrompt is the narrator persona and the rules every response follows.
// The %s verb is replaced with the protagonist's name.
const BaseSystemPrompt = `Bạn là một AI kể chuyện chuyên nghiệp, am hiểu sâu sắc văn phong và mô-típ của tiểu thuyết mạng Trung Quốc. Bạn dẫn dắt một trò chơi nhập vai bằng văn bản xoay quanh nhân vật chính %s.

### HỆ THỐNG GAME
Trò chơi có các hệ thống: Chỉ Số Nhân Vật, Ba Lô Vật Phẩm và Trang Bị, Cảnh Giới Tu Luyện, Kỹ Năng, Chiến Đấu, Bách Khoa Toàn Thư, Thành Tựu, Mối Quan Hệ NPC và Mục Tiêu. Client tự tính bonus trang bị; các chỉ số bên dưới đã là chỉ số hiệu dụng.

### QUY TẮC KỂ CHUYỆN
- Tư duy, lời nói và hành động của nhân vật chính PHẢI phản ánh đúng chỉ số, kỹ năng và đặc điểm hiện tại. Trí Lực thấp thì không thể bày mưu tinh vi; May Mắn thấp thì khó gặp kỳ ngộ.
- Trong trường "story" TUYỆT ĐỐI KHÔNG dùng mã đánh dấu như [ITEM:...], [NPC:...], [LOC:...]. Văn bản phải là lời kể tự nhiên.
- Mọi thay đổi về chỉ số, vật phẩm, kỹ năng, quan hệ và mục tiêu PHẢI được trả về trong các trường JSON tương ứng, không chỉ trong lời kể.
- ID chỉ số hợp lệ: hp, mp, progression_level, spiritual_qi, intelligence, constitution, agility, luck, damage_output, attack_speed, crit_chance, crit_damage_bonus, defense_value, evasion_chance.
- Ô trang bị hợp lệ (chính xác từng ký tự): "Vũ Khí Chính", "Tay Phụ", "Mũ", "Giáp", "Giày", "Dây Chuyền", "Nhẫn 1", "Nhẫn 2".
- Nếu HP về 0 mà không có cơ chế hồi sinh, hãy mô tả cái chết và trả về "choices" rỗng.
- Không lặp lại câu văn từ các lượt trước. Câu chuyện phải luôn tiến triển.`

// ResponseContract lists the JSON keys the oracle may return for a story segment.
const ResponseContract = `### ĐỊNH DẠNG PHẢN HỒI
Chỉ trả lời bằng MỘT đối tượng JSON, không thêm văn bản nào khác. Các trường:
- "story" (bắt buộc): string, nội dung truyện.
- "choices" (bắt buộc): mảng 3-4 lựa chọn, mỗi lựa chọn là string hoặc {"text", "tooltip"}.
- "stat_changes": [{"attribute_id", "change_value"?, "new_value"?, "new_max_value"?, "reason"?}]
- "item_changes": {"gained": [vật phẩm đầy đủ], "lost": [{"id"?, "name", "quantity"}]}
- "skill_changes": [{"skill_id", "xp_gained"?, "new_proficiency"?, "new_xp_to_next_level"?, "new_description"?, "reason"?}]
- "new_skills_unlocked": [{"name", "description", "icon", "category", "proficiency"?, "xp"?, "xpToNextLevel"?, "effects"?}]
- "new_encyclopedia_entries": [{"name", "type", "description"}], type là một trong "NPC", "Vật phẩm", "Địa điểm", "Tổ chức", "Khác".
- "newly_unlocked_achievements": [{"name", "description", "icon"?, "isSecret"?}]
- "relationship_changes": [{"npc_name", "score_change"?, "new_status"?, "reason"?}]
- "new_objectives_suggested": [{"title", "description", "subObjectives"?, "rewardPreview"?}]
- "objective_updates": [{"objective_id_or_title", "new_status": "completed" | "failed", "reason"?}]
- "summary_update": string
Chỉ đưa các trường tùy chọn khi có thay đổi. TUYỆT ĐỐI KHÔNG thêm trường nào khác.`

// InitialResponseContract lists the JSON keys for the opening of a story.
const InitialResponseContract = `Trả lời JSON. Đối tượng JSON CHỈ chứa: story (bắt buộc), choices (bắt buộc), và NẾU CÓ: initial_stats, initial_inventory, initial_skills, new_encyclopedia_entries, newly_unlocked_achievements, initial_relationships, initial_objectives. TUYỆT ĐỐI KHÔNG thêm trường nào khác.`

const RoleplayPrompt = `### CHẾ ĐỘ NHẬP VAI ĐANG BẬT
Người chơi tự kiểm soát lời nói và hành động của nhân vật chính. AI KHÔNG ĐƯỢC tạo lời nói, suy nghĩ hay hành động cho nhân vật chính.
- Các NPC PHẢI chủ động đối đáp với nhân vật chính, không im lặng quan sát.
- Lời thoại NPC thể hiện cá tính và thúc đẩy câu chuyện.
- Giữ ngôi kể thứ ba. Lời nói của NPC đặt trong ngoặc kép.
Trường "choices" PHẢI là mảng rỗng [].`

const NSFWOffPrompt = "### Chế Độ NSFW Đang TẮT\nTránh các nội dung nhạy cảm."

// Limits applied to free text when listing state in the prompt.
const (
	itemDescriptionLimit   = 50
	skillDescriptionLimit  = 70
	entityDescriptionLimit = 100
)

// Players' own decisions are logged as system messages with this marker.
const decisionMarker = "quyết định:"

// BuildSystemPrompt renders every section of the system prompt for gs.
// profile is optional; pass nil to omit the combat line.
func BuildSystemPrompt(gs *state.GameState, profile *actor.CombatProfile, historyLimit int) string {
	ps := state.ToPromptState(gs)

	sections := []string{
		fmt.Sprintf(BaseSystemPrompt, gs.CharacterName()),
		worldSection(gs.Setup),
		characterSection(gs.Setup),
		statsSection(ps.CharacterStats, profile),
		equipmentSection(ps.Equipped),
		inventorySection(ps.Inventory),
		skillsSection(ps.Skills),
		achievementsSection(ps.Achievements),
		encyclopediaSection(ps.Encyclopedia),
		relationshipsSection(ps.Relationships),
		objectivesSection(ps.Objectives),
		worldEventSection(ps.CurrentWorldEvent),
		summarySection(ps.Summary),
		NSFWPrompt(gs.Preferences()),
	}
	if gs.IsRoleplayModeActive {
		sections = append(sections, RoleplayPrompt)
	}
	sections = append(sections, historySection(gs.StoryLog, historyLimit), ResponseContract)

	var out []string
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

func worldSection(setup *state.StorySetup) string {
	if setup == nil {
		return ""
	}
	w := setup.World
	sb := strings.Builder{}
	sb.WriteString("### Thế Giới\n")
	sb.WriteString(fmt.Sprintf("- Chủ đề: %s\n- Bối cảnh: %s\n- Phong cách/Giọng văn: %s", w.Theme, w.Context, w.Tone))
	if w.AdvancedPrompt != "" {
		sb.WriteString("\n- Prompt Nâng Cao: " + w.AdvancedPrompt)
	}
	return sb.String()
}

func characterSection(setup *state.StorySetup) string {
	if setup == nil {
		return ""
	}
	c := setup.Character
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("### Nhân Vật Chính (%s)\n", c.Name))
	sb.WriteString(fmt.Sprintf("- Giới tính: %s\n- Sơ lược: %s\n- Mục tiêu/Động lực chính: %s", c.Gender, c.Summary, c.Goal))
	if len(c.Traits) > 0 {
		sb.WriteString("\n- Đặc điểm:")
		for _, t := range c.Traits {
			sb.WriteString(fmt.Sprintf("\n  - %s: %s", t.Name, t.Description))
		}
	}
	return sb.String()
}

func statsSection(stats state.CharacterStats, profile *actor.CombatProfile) string {
	if len(stats) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Chỉ Số Hiện Tại (đã bao gồm trang bị)")
	for _, id := range sortedStatIDs(stats) {
		attr := stats[id]
		sb.WriteString(fmt.Sprintf("\n- %s (%s): %s", attr.Name, id, attr.Value.String()))
		switch id {
		case state.StatCritChance, state.StatEvasionChance, state.StatCritDamageBonus:
			sb.WriteString("%")
		default:
			if !attr.IsProgressionStat && attr.Value.IsNumeric() && attr.MaxValue != nil {
				sb.WriteString(fmt.Sprintf("/%s", state.Num(*attr.MaxValue).String()))
			}
		}
	}
	if line := actor.BuildPrompt(profile); line != "" {
		sb.WriteString("\n" + line)
	}
	return sb.String()
}

func equipmentSection(equipped map[string]string) string {
	if len(equipped) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Trang Bị Hiện Tại")
	for _, slot := range state.EquipmentSlots {
		if name, ok := equipped[string(slot)]; ok {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", slot, name))
		}
	}
	return sb.String()
}

func inventorySection(items []state.InventoryItem) string {
	if len(items) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Ba Lô")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("\n- %s (SL: %d, Loại: %s)", item.Name, item.Quantity, item.Category))
		if item.Description != "" {
			sb.WriteString(": " + truncate(item.Description, itemDescriptionLimit))
		}
	}
	return sb.String()
}

func skillsSection(skills []state.Skill) string {
	if len(skills) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Kỹ Năng")
	for _, sk := range skills {
		sb.WriteString(fmt.Sprintf("\n- %s (ID: %s, %s, %d/%d XP): %s",
			sk.Name, sk.ID, sk.Proficiency, sk.XP, sk.XPToNextLevel, truncate(sk.Description, skillDescriptionLimit)))
	}
	sb.WriteString("\nChỉ trả về kỹ năng MỚI trong \"new_skills_unlocked\", thay đổi XP hoặc bậc trong \"skill_changes\".")
	return sb.String()
}

func achievementsSection(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "### Thành Tựu Đã Mở Khóa\n- " + strings.Join(names, "\n- ") +
		"\nChỉ trả về thành tựu MỚI trong \"newly_unlocked_achievements\"."
}

func encyclopediaSection(entries []state.Entity) string {
	if len(entries) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Bách Khoa Toàn Thư (đã biết)")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n- %s \"%s\": %s", e.Type, e.Name, truncate(e.Description, entityDescriptionLimit)))
	}
	sb.WriteString("\nChỉ bổ sung mục thực sự mới hoặc cập nhật mô tả vào \"new_encyclopedia_entries\".")
	return sb.String()
}

func relationshipsSection(profiles []state.NPCProfile) string {
	if len(profiles) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Mối Quan Hệ Với NPC")
	for _, p := range profiles {
		sb.WriteString(fmt.Sprintf("\n- %s: %s (Điểm: %d)", p.Name, p.Status, p.Score))
	}
	sb.WriteString("\nCung cấp \"relationship_changes\" khi hành động của nhân vật chính thay đổi tình cảm của NPC.")
	return sb.String()
}

func objectivesSection(objs []state.Objective) string {
	if len(objs) == 0 {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("### Mục Tiêu Đang Theo Đuổi")
	for _, o := range objs {
		sb.WriteString(fmt.Sprintf("\n- %s (ID: %s): %s", o.Title, o.ID, truncate(o.Description, skillDescriptionLimit)))
	}
	sb.WriteString("\nCó thể đề xuất \"new_objectives_suggested\" hoặc \"objective_updates\".")
	return sb.String()
}

func worldEventSection(ev *state.WorldEvent) string {
	if ev == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("### Sự Kiện Thế Giới Hiện Tại (%s)\n", ev.Status))
	sb.WriteString(fmt.Sprintf("- Tên: %s\n- Loại: %s\n- Phạm vi: %s\n- Mô tả: %s", ev.Name, ev.Type, ev.Scope, ev.Description))
	if len(ev.KeyElements) > 0 {
		sb.WriteString("\n- Yếu tố chính: " + strings.Join(ev.KeyElements, ", "))
	}
	return sb.String()
}

func summarySection(summary string) string {
	if summary == "" {
		return ""
	}
	return "### Tóm Tắt Cốt Truyện\n" + summary
}

// NSFWPrompt renders the mature-content rules for prefs.
func NSFWPrompt(prefs state.NSFWPreferences) string {
	if !prefs.Enabled {
		return NSFWOffPrompt
	}
	sb := strings.Builder{}
	sb.WriteString("### Chế Độ NSFW Đang BẬT")
	if prefs.EroticaLevel != state.LevelNone {
		sb.WriteString("\n- Khiêu dâm: " + string(prefs.EroticaLevel))
	}
	if prefs.ViolenceLevel != state.LevelNone {
		sb.WriteString("\n- Bạo lực: " + string(prefs.ViolenceLevel))
	}
	if prefs.DarkContentLevel != state.LevelNone {
		sb.WriteString("\n- Nội dung đen tối: " + string(prefs.DarkContentLevel))
	}
	if custom := strings.TrimSpace(prefs.CustomPrompt); custom != "" {
		sb.WriteString("\n- Phong cách tùy chỉnh: " + custom)
	}
	sb.WriteString("\nHãy lồng ghép các yếu tố này một cách tự nhiên, phù hợp với bối cảnh.")
	return sb.String()
}

// historySection renders the last limit story messages. Loading placeholders
// and engine notes are skipped.
func historySection(log []state.StoryMessage, limit int) string {
	if len(log) == 0 || limit <= 0 {
		return ""
	}
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	var lines []string
	for _, m := range log {
		if line := historyLine(m); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "### Diễn Biến Gần Đây\n" + strings.Join(lines, "\n")
}

func historyLine(m state.StoryMessage) string {
	switch m.Type {
	case state.MessageNarration, state.MessageEvent:
		return m.Content
	case state.MessageDialogue:
		name := m.CharacterName
		if name == "" {
			name = "NPC"
		}
		return fmt.Sprintf("%s: \"%s\"", name, m.Content)
	case state.MessageSystem:
		if strings.Contains(m.Content, decisionMarker) {
			return m.Content
		}
	}
	return ""
}

// StoryContext is the compact view of a game passed to side requests such
// as world event generation.
type StoryContext struct {
	Theme       string   `json:"theme"`
	Character   string   `json:"character"`
	Summary     string   `json:"summary,omitempty"`
	RecentStory []string `json:"recent_story,omitempty"`
}

// NewStoryContext collects the theme, summary and last few lines of gs.
func NewStoryContext(gs *state.GameState, limit int) StoryContext {
	ctx := StoryContext{
		Character: gs.CharacterName(),
		Summary:   gs.CurrentSummary,
	}
	if gs.Setup != nil {
		ctx.Theme = gs.Setup.World.Theme
	}
	log := gs.StoryLog
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	for _, m := range log {
		if line := historyLine(m); line != "" {
			ctx.RecentStory = append(ctx.RecentStory, line)
		}
	}
	return ctx
}

func (c StoryContext) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func sortedStatIDs(stats state.CharacterStats) []string {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	// Default stats first in their canonical order, then the rest by id.
	order := make(map[string]int, len(state.StatOrder))
	for i, id := range state.StatOrder {
		order[id] = i
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		ia, aok := order[a]
		ib, bok := order[b]
		switch {
		case aok && bok:
			return ia < ib
		case aok != bok:
			return aok
		default:
			return a < b
		}
	})
	return ids
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
