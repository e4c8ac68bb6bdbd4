package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known stat ids.
const (
	StatHP               = "hp"
	StatMP               = "mp"
	StatProgressionLevel = "progression_level"
	StatSpiritualQi      = "spiritual_qi"
	StatIntelligence     = "intelligence"
	StatConstitution     = "constitution"
	StatAgility          = "agility"
	StatLuck             = "luck"
	StatDamageOutput     = "damage_output"
	StatAttackSpeed      = "attack_speed"
	StatCritChance       = "crit_chance"
	StatCritDamageBonus  = "crit_damage_bonus"
	StatDefenseValue     = "defense_value"
	StatEvasionChance    = "evasion_chance"
)

// StatOrder is the canonical display order of the well-known stats.
var StatOrder = []string{
	StatHP, StatMP, StatProgressionLevel, StatSpiritualQi,
	StatIntelligence, StatConstitution, StatAgility, StatLuck,
	StatDamageOutput, StatAttackSpeed, StatCritChance, StatCritDamageBonus,
	StatDefenseValue, StatEvasionChance,
}

// AttributeValue is either a number or a free-form string (tier names such as "Tân Thủ").
// It marshals to a bare JSON number or string.
type AttributeValue struct {
	num   float64
	str   string
	isStr bool
}

// Num returns a numeric AttributeValue.
func Num(f float64) AttributeValue {
	return AttributeValue{num: f}
}

// Str returns a string AttributeValue.
func Str(s string) AttributeValue {
	return AttributeValue{str: s, isStr: true}
}

// Float reports the numeric value and whether the value is numeric.
func (v AttributeValue) Float() (float64, bool) {
	if v.isStr {
		return 0, false
	}
	return v.num, true
}

// IsNumeric reports whether the value holds a number.
func (v AttributeValue) IsNumeric() bool {
	return !v.isStr
}

func (v AttributeValue) String() string {
	if v.isStr {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.isStr {
		return json.Marshal(v.str)
	}
	return json.Marshal(v.num)
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Str(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("attribute value must be a number or string: %w", err)
	}
	*v = Num(f)
	return nil
}

// CharacterAttribute is one base stat of the player character.
type CharacterAttribute struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Value             AttributeValue `json:"value"`
	MaxValue          *float64       `json:"max_value,omitempty"`
	Description       string         `json:"description,omitempty"`
	Icon              string         `json:"icon,omitempty"`
	IsProgressionStat bool           `json:"is_progression_stat,omitempty"`
}

// CharacterStats maps stat id to attribute.
type CharacterStats map[string]CharacterAttribute

// Clone returns a deep copy, including the MaxValue pointers.
func (cs CharacterStats) Clone() CharacterStats {
	if cs == nil {
		return nil
	}
	out := make(CharacterStats, len(cs))
	for k, attr := range cs {
		if attr.MaxValue != nil {
			m := *attr.MaxValue
			attr.MaxValue = &m
		}
		out[k] = attr
	}
	return out
}

// Value returns the numeric value of a stat, if present and numeric.
func (cs CharacterStats) Value(id string) (float64, bool) {
	attr, ok := cs[id]
	if !ok {
		return 0, false
	}
	return attr.Value.Float()
}

func maxOf(f float64) *float64 {
	return &f
}

// DefaultStats returns the stat block used for a new adventure without custom stats.
func DefaultStats() CharacterStats {
	return CharacterStats{
		StatHP:               {ID: StatHP, Name: "HP", Value: Num(100), MaxValue: maxOf(100), Description: "Sinh lực của bạn. Khi về 0, bạn sẽ tử vong.", Icon: "fas fa-heartbeat"},
		StatMP:               {ID: StatMP, Name: "MP", Value: Num(50), MaxValue: maxOf(50), Description: "Năng lượng/Linh lực/Nội năng để sử dụng kỹ năng.", Icon: "fas fa-bolt"},
		StatProgressionLevel: {ID: StatProgressionLevel, Name: "Cấp Độ/Cảnh Giới", Value: Str("Tân Thủ"), IsProgressionStat: true, Description: "Cấp bậc hiện tại của bạn trong hệ thống tu luyện/phát triển.", Icon: "fas fa-star"},
		StatSpiritualQi:      {ID: StatSpiritualQi, Name: "Điểm Kinh Nghiệm/Linh Khí", Value: Num(0), MaxValue: maxOf(100), Description: "Tài nguyên cần để thăng cấp hoặc nâng cao cảnh giới.", Icon: "fas fa-arrow-up"},
		StatIntelligence:     {ID: StatIntelligence, Name: "Trí Lực", Value: Num(10), Description: "Ảnh hưởng đến khả năng học hỏi và sức mạnh phép thuật.", Icon: "fas fa-brain"},
		StatConstitution:     {ID: StatConstitution, Name: "Thể Chất", Value: Num(7), Description: "Ảnh hưởng đến HP tối đa và khả năng chịu đựng.", Icon: "fas fa-heart-circle-bolt"},
		StatAgility:          {ID: StatAgility, Name: "Nhanh Nhẹn", Value: Num(7), Description: "Ảnh hưởng đến tốc độ hành động và khả năng né tránh.", Icon: "fas fa-shoe-prints"},
		StatLuck:             {ID: StatLuck, Name: "May Mắn", Value: Num(5), Description: "Ảnh hưởng đến tỉ lệ rơi vật phẩm quý hiếm và kỳ ngộ.", Icon: "fas fa-dice-five"},
		StatDamageOutput:     {ID: StatDamageOutput, Name: "Sát Thương Cơ Bản", Value: Num(10), Description: "Sức mạnh đòn đánh cơ bản.", Icon: "fas fa-fist-raised"},
		StatAttackSpeed:      {ID: StatAttackSpeed, Name: "Tốc Độ Đánh", Value: Num(1.0), Description: "Tần suất ra đòn.", Icon: "fas fa-wind"},
		StatCritChance:       {ID: StatCritChance, Name: "Tỷ Lệ Chí Mạng", Value: Num(5), MaxValue: maxOf(100), Description: "% cơ hội gây sát thương chí mạng.", Icon: "fas fa-bullseye"},
		StatCritDamageBonus:  {ID: StatCritDamageBonus, Name: "Thưởng Sát Thương Chí Mạng", Value: Num(50), Description: "% sát thương cộng thêm khi chí mạng.", Icon: "fas fa-percentage"},
		StatDefenseValue:     {ID: StatDefenseValue, Name: "Phòng Thủ", Value: Num(5), Description: "Giảm sát thương nhận vào.", Icon: "fas fa-shield-alt"},
		StatEvasionChance:    {ID: StatEvasionChance, Name: "Tỷ Lệ Né Tránh", Value: Num(5), MaxValue: maxOf(100), Description: "% cơ hội né hoàn toàn một đòn tấn công.", Icon: "fas fa-running"},
	}
}

// FillDefaultStats adds every default stat missing from cs and returns the result.
// Existing stats are never overwritten.
func FillDefaultStats(cs CharacterStats) CharacterStats {
	if cs == nil {
		cs = make(CharacterStats)
	}
	for id, attr := range DefaultStats() {
		if _, ok := cs[id]; !ok {
			cs[id] = attr
		}
	}
	return cs
}
