package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// Prefixes of actions that report an equipment change already handled by the engine.
const (
	equipPrefix   = "Người chơi đã trang bị"
	unequipPrefix = "Người chơi đã tháo bỏ"
)

// InitialStoryPrompt asks for the opening of a new adventure.
func InitialStoryPrompt(setup *state.StorySetup) string {
	name := setup.Character.Name
	goal := setup.Character.Goal
	return fmt.Sprintf(`Hãy bắt đầu câu chuyện, tập trung vào hành trình của nhân vật chính %s.
Yêu cầu cụ thể:
- Bắt đầu bằng một tình huống làm nổi bật hoàn cảnh hiện tại của nhân vật chính.
- Nhanh chóng giới thiệu một mâu thuẫn hoặc cơ hội đầu tiên.
- Cung cấp "initial_stats" phù hợp với thế giới và nhân vật, "initial_inventory" (kèm "equippable", "slot", "statBonuses" cho trang bị) và "initial_skills".
- Với NPC quan trọng hoặc thân nhân, cung cấp "initial_relationships" với trạng thái và điểm số phù hợp, và mô tả họ trong "new_encyclopedia_entries".
- Cung cấp "initial_objectives", trong đó mục tiêu chính của nhân vật ("%s") có "isPlayerGoal": true.
- Nếu có thành tựu mở khóa, thêm vào "newly_unlocked_achievements".
- Đưa ra 3-4 lựa chọn hành động.
%s`, name, goal, InitialResponseContract)
}

// NextSegmentPrompt wraps a player action. Equipment reports, roleplay mode
// and ordinary actions each get their own instructions.
func NextSegmentPrompt(action, characterName string, roleplay bool) string {
	if IsEquipmentAction(action) {
		return action + "\nEngine đã xử lý việc thay đổi trang bị. KHÔNG mô tả lại hành động này và KHÔNG cung cấp \"stat_changes\" cho việc này."
	}
	if roleplay {
		return fmt.Sprintf(`Nhân vật chính (%s) thực hiện hành động/nói: "%s". Hãy miêu tả phản ứng của thế giới và các NPC. Các NPC NÊN chủ động đối đáp. KHÔNG tạo lời nói hay hành động cho nhân vật chính. Cung cấp mảng "choices" rỗng.`, characterName, action)
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Người chơi chọn hành động: %q.\n", action))
	sb.WriteString(`Nếu hành động là sử dụng vật phẩm, hãy mô tả kết quả.
Nếu hành động là "` + state.ActionCultivate + `", mô tả quá trình và cung cấp "stat_changes" cho "spiritual_qi".
Nếu hành động là "` + state.ActionAdvance + `", mô tả kết quả và cập nhật "progression_level", "spiritual_qi" qua "stat_changes".
Nếu người chơi vứt bỏ vật phẩm, xác nhận trong "item_changes.lost".
Trong chiến đấu, dùng chỉ số chiến đấu (d20) để quyết định kết quả một cách nhất quán.
Tiếp tục câu chuyện với nội dung hoàn toàn MỚI. Nếu HP về 0, mô tả cái chết và trả "choices" rỗng.
Cung cấp "relationship_changes" chi tiết khi NPC bị ảnh hưởng.`)
	return sb.String()
}

// IsEquipmentAction reports whether action is an equipment report from EquipAction or UnequipAction.
func IsEquipmentAction(action string) bool {
	return strings.HasPrefix(action, equipPrefix) || strings.HasPrefix(action, unequipPrefix)
}

// EquipAction describes an item being equipped, for narration.
func EquipAction(itemName string, slot state.EquipmentSlot) string {
	return fmt.Sprintf("%s %s vào ô %s.", equipPrefix, itemName, slot)
}

// UnequipAction describes an item being removed from a slot, for narration.
func UnequipAction(itemName string, slot state.EquipmentSlot) string {
	return fmt.Sprintf("%s %s khỏi ô %s.", unequipPrefix, itemName, slot)
}

// UseItemAction is the action forwarded to the oracle after an item is used.
func UseItemAction(itemName string) string {
	return fmt.Sprintf("Sử dụng vật phẩm %s.", itemName)
}

// WorldEventPrompt asks for a world event of the given type and scope.
func WorldEventPrompt(ctx StoryContext, eventType state.WorldEventType, scope state.WorldEventScope, keywords string) string {
	if strings.TrimSpace(keywords) == "" {
		keywords = "không có"
	}
	return fmt.Sprintf(`Tạo một sự kiện thế giới cho câu chuyện đang diễn ra. Thông tin hiện tại: %s. Yêu cầu: Loại sự kiện %s, phạm vi %s, từ khóa gợi ý "%s". Sự kiện cần có tên, mô tả, các yếu tố chính (NPC, vật phẩm, địa điểm liên quan nếu có) và trạng thái là "active". Trả lời dưới dạng JSON object: {"name": "...", "description": "...", "keyElements": ["..."], "status": "active"}.`,
		ctx, eventType, scope, keywords)
}

// SummaryPrompt asks for a plain-text plot summary of storyText.
func SummaryPrompt(storyText string) string {
	return `Dựa trên toàn bộ diễn biến câu chuyện sau đây, hãy viết một bản tóm tắt cốt truyện chính từ đầu đến hiện tại. Tập trung vào các sự kiện quan trọng, sự phát triển của nhân vật chính và các mâu thuẫn lớn.
Bản tóm tắt nên mạch lạc, dễ hiểu và không quá dài (khoảng 200-300 từ). Trả lời chỉ bằng nội dung tóm tắt, không thêm lời dẫn.
Toàn bộ câu chuyện:
` + storyText + `
Bắt đầu tóm tắt:`
}

// ExtractEntitiesPrompt asks for the entities mentioned in free text.
func ExtractEntitiesPrompt(text, worldTheme string) string {
	if worldTheme == "" {
		worldTheme = "Không xác định"
	}
	types := make([]string, len(state.EntityTypes))
	for i, t := range state.EntityTypes {
		types[i] = string(t)
	}
	return fmt.Sprintf(`Phân tích đoạn văn bản sau đây để trích xuất các thực thể (NPC, Vật phẩm, Địa điểm, Tổ chức, Khác) cho một trò chơi nhập vai.
Thế giới có chủ đề chính là: "%s". Hãy phân loại các thực thể dựa trên ngữ cảnh này.
Nếu có đề cập đến cảnh giới tu luyện hoặc khái niệm trừu tượng quan trọng có mô tả, hãy trích xuất chúng với type là "Khác".
Văn bản cần phân tích:
---
%s
---
Trả lời bằng một JSON array. Mỗi object phải có các key: "name", "type" (một trong: "%s"), "description".
Nếu không tìm thấy, trả về array rỗng []. Chỉ trả về JSON array.`, worldTheme, text, strings.Join(types, `", "`))
}
