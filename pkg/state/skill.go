package state

import "math"

// Proficiency is a skill mastery tier.
type Proficiency string

const (
	ProficiencyNovice      Proficiency = "Sơ Nhập Môn"
	ProficiencyAdept       Proficiency = "Tiểu Thành"
	ProficiencyExpert      Proficiency = "Đại Thành"
	ProficiencyMaster      Proficiency = "Viên Mãn"
	ProficiencyGrandmaster Proficiency = "Lô Hoả Thuần Thanh"
	ProficiencyPinnacle    Proficiency = "Đăng Phong Tạo Cực"
)

// Proficiencies lists the tiers from lowest to terminal.
var Proficiencies = []Proficiency{
	ProficiencyNovice, ProficiencyAdept, ProficiencyExpert,
	ProficiencyMaster, ProficiencyGrandmaster, ProficiencyPinnacle,
}

// Rank returns the zero-based position of the tier, or -1 if unknown.
func (p Proficiency) Rank() int {
	for i, tier := range Proficiencies {
		if tier == p {
			return i
		}
	}
	return -1
}

func (p Proficiency) Valid() bool {
	return p.Rank() >= 0
}

// Terminal reports whether p is the highest tier.
func (p Proficiency) Terminal() bool {
	return p == ProficiencyPinnacle
}

// Next returns the following tier. The terminal tier returns itself.
func (p Proficiency) Next() Proficiency {
	r := p.Rank()
	if r < 0 || r >= len(Proficiencies)-1 {
		return p
	}
	return Proficiencies[r+1]
}

type SkillEffect struct {
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

type Skill struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Icon          string        `json:"icon,omitempty"`
	Category      string        `json:"category,omitempty"`
	Proficiency   Proficiency   `json:"proficiency"`
	XP            int           `json:"xp"`
	XPToNextLevel int           `json:"xp_to_next_level"`
	Effects       []SkillEffect `json:"effects,omitempty"`
}

// Skill defaults for entries the oracle leaves incomplete.
const (
	DefaultSkillDescription = "Chưa có mô tả."
	DefaultSkillIcon        = "fas fa-book-sparkles"
	DefaultSkillThreshold   = 100
)

// SkillProgression decides the xp threshold after a tier advance.
type SkillProgression interface {
	NextThreshold(current int) int
}

// GrowthProgression multiplies the threshold by Factor on each advance.
// The result is always strictly larger than the previous threshold.
type GrowthProgression struct {
	Factor float64
}

func (g GrowthProgression) NextThreshold(current int) int {
	next := int(math.Floor(float64(current) * g.Factor))
	if next <= current {
		next = current + 1
	}
	return next
}

// DefaultSkillProgression grows thresholds by half on each tier.
var DefaultSkillProgression SkillProgression = GrowthProgression{Factor: 1.5}

// Advance applies tier-advance rules until xp falls below the threshold.
// It returns the number of tiers gained. At the terminal tier xp is capped
// at the threshold.
func (s *Skill) Advance(p SkillProgression) int {
	if p == nil {
		p = DefaultSkillProgression
	}
	gained := 0
	for s.XPToNextLevel > 0 && s.XP >= s.XPToNextLevel {
		if s.Proficiency.Terminal() {
			s.XP = s.XPToNextLevel
			break
		}
		if !s.Proficiency.Valid() {
			break
		}
		s.XP -= s.XPToNextLevel
		s.Proficiency = s.Proficiency.Next()
		s.XPToNextLevel = p.NextThreshold(s.XPToNextLevel)
		gained++
	}
	return gained
}

// SkillChange is a parsed skill delta from a segment.
type SkillChange struct {
	SkillID          string       `json:"skill_id"`
	XPGained         *int         `json:"xp_gained,omitempty"`
	NewProficiency   *Proficiency `json:"new_proficiency,omitempty"`
	NewXPToNextLevel *int         `json:"new_xp_to_next_level,omitempty"`
	NewDescription   string       `json:"new_description,omitempty"`
	Reason           string       `json:"reason,omitempty"`
}

func findSkill(skills []Skill, idOrName string) int {
	for i := range skills {
		if skills[i].ID == idOrName || skills[i].Name == idOrName {
			return i
		}
	}
	return -1
}
