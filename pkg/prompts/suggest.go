package prompts

import (
	"fmt"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// SuggestionKind selects a setup-assistant request.
type SuggestionKind string

const (
	SuggestTheme       SuggestionKind = "theme"
	SuggestContext     SuggestionKind = "context"
	SuggestTone        SuggestionKind = "tone"
	SuggestCharName    SuggestionKind = "char_name"
	SuggestCharSummary SuggestionKind = "char_summary"
	SuggestCharGoal    SuggestionKind = "char_goal"
	SuggestTraits      SuggestionKind = "traits"
	SuggestEntity      SuggestionKind = "entity"
	SuggestSkill       SuggestionKind = "skill"
)

var SuggestionKinds = []SuggestionKind{
	SuggestTheme, SuggestContext, SuggestTone, SuggestCharName, SuggestCharSummary,
	SuggestCharGoal, SuggestTraits, SuggestEntity, SuggestSkill,
}

func (k SuggestionKind) Valid() bool {
	for _, v := range SuggestionKinds {
		if k == v {
			return true
		}
	}
	return false
}

// SuggestionInput is the partially filled setup a suggestion builds on.
// Empty fields fall back to genre defaults.
type SuggestionInput struct {
	Theme       string           `json:"theme,omitempty"`
	Context     string           `json:"context,omitempty"`
	CharName    string           `json:"char_name,omitempty"`
	CharGender  string           `json:"char_gender,omitempty"`
	CharSummary string           `json:"char_summary,omitempty"`
	EntityType  state.EntityType `json:"entity_type,omitempty"`
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SuggestionPrompt returns the request text for kind.
func SuggestionPrompt(kind SuggestionKind, in SuggestionInput) (string, error) {
	switch kind {
	case SuggestTheme:
		return "Tạo 3-5 gợi ý chủ đề độc đáo cho một thế giới truyện nhập vai kiểu tiểu thuyết mạng Trung Quốc. Mỗi chủ đề cần ngắn gọn (dưới 10 từ). Trả lời dưới dạng JSON array của strings.", nil
	case SuggestContext:
		return fmt.Sprintf(`Dựa trên chủ đề "%s", hãy tạo 3-5 gợi ý bối cảnh (khoảng 1-2 câu mỗi bối cảnh) cho truyện. Trả lời dưới dạng JSON array của strings.`,
			or(in.Theme, "Tiên hiệp")), nil
	case SuggestTone:
		return fmt.Sprintf(`Gợi ý 3-5 phong cách/giọng văn (ví dụ: Hài hước đen tối, Sử thi bi tráng, Lãng mạn kỳ ảo) cho một câu chuyện dựa trên chủ đề "%s". Trả lời dưới dạng JSON array của strings.`,
			or(in.Theme, "Huyền ảo")), nil
	case SuggestCharName:
		return fmt.Sprintf(`Gợi ý 5 tên nhân vật chính phù hợp với thế giới có chủ đề "%s" và bối cảnh "%s". Tên nên có phong cách Trung Quốc hoặc phù hợp với bối cảnh. Trả lời dưới dạng JSON array của strings.`,
			or(in.Theme, "Tiên hiệp"), or(in.Context, "Một thế giới tu tiên rộng lớn")), nil
	case SuggestCharSummary:
		return fmt.Sprintf(`Dựa trên tên "%s", giới tính "%s", trong thế giới chủ đề "%s", hãy viết một sơ lược (ngoại hình, tính cách, nguồn gốc, khoảng 3-5 câu) cho nhân vật này. Trả lời dưới dạng một JSON object với key "summary" và value là string.`,
			or(in.CharName, "Lâm Phàm"), or(in.CharGender, "Nam"), or(in.Theme, "Tiên hiệp")), nil
	case SuggestCharGoal:
		return fmt.Sprintf(`Với nhân vật %s có sơ lược: "%s", hãy gợi ý 3 mục tiêu/động lực chính cho nhân vật này. Trả lời dưới dạng JSON array của strings.`,
			or(in.CharName, "MC"), or(in.CharSummary, "Một thiếu niên bình thường tình cờ nhặt được bí kíp võ công.")), nil
	case SuggestTraits:
		return fmt.Sprintf(`Nhân vật %s (Sơ lược: %s) trong thế giới chủ đề %s. Gợi ý 3 đặc điểm (thiên phú, kỹ năng đặc biệt, hoặc vật phẩm khởi đầu độc đáo). Mỗi đặc điểm có tên ngắn gọn và mô tả 1-2 câu. Trả lời dưới dạng JSON array các object {"name": "...", "description": "..."}.`,
			or(in.CharName, "MC"), or(in.CharSummary, "chưa có"), or(in.Theme, "chưa rõ")), nil
	case SuggestEntity:
		entityType := in.EntityType
		if !entityType.Valid() {
			entityType = state.EntityNPC
		}
		return fmt.Sprintf(`Trong thế giới %s, cho loại thực thể %s. Gợi ý tên và mô tả chi tiết cho 1 thực thể này. Nếu là cảnh giới tu luyện (type: "Khác"), hãy mô tả đặc điểm của cảnh giới đó. Trả lời dạng JSON object: {"name": "...", "description": "..."}.`,
			or(in.Theme, "chưa rõ"), entityType), nil
	case SuggestSkill:
		return fmt.Sprintf(`Dựa trên thế giới có chủ đề "%s" và nhân vật %s, gợi ý MỘT kỹ năng khởi đầu phù hợp. Kỹ năng cần có "name", "description" (cho cấp %s), "category" (ví dụ: "chiến đấu", "chế tạo", "phép thuật"), "icon" (Font Awesome class). Trả lời dưới dạng một JSON object duy nhất.`,
			or(in.Theme, "Tiên hiệp"), or(in.CharName, "MC"), state.ProficiencyNovice), nil
	}
	return "", fmt.Errorf("unknown suggestion kind %q", kind)
}
