package actor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// BaseAC is the armor class of an unarmored, untrained character.
const BaseAC = 10

// Attributes copied from effective stats into the d20 actor.
var coreAttributes = []string{
	state.StatIntelligence,
	state.StatConstitution,
	state.StatAgility,
	state.StatLuck,
}

// CombatProfile is the d20 view of the protagonist, derived from effective stats.
// It is recomputed on demand and never persisted.
type CombatProfile struct {
	HP         int
	MaxHP      int
	Damage     int
	CritChance int
	Evasion    int
	Actor      *d20.Actor
}

// NewCombatProfile builds a profile from effective stats. Missing or
// non-numeric stats count as zero; max HP is at least 1.
func NewCombatProfile(id string, stats state.CharacterStats) (*CombatProfile, error) {
	hp := intStat(stats, state.StatHP)
	maxHP := hp
	if attr, ok := stats[state.StatHP]; ok && attr.MaxValue != nil {
		maxHP = int(math.Round(*attr.MaxValue))
	}
	if maxHP < 1 {
		maxHP = 1
	}
	hp = max(0, min(hp, maxHP))

	attrs := make(map[string]int, len(coreAttributes))
	for _, key := range coreAttributes {
		attrs[key] = intStat(stats, key)
	}

	agility := attrs[state.StatAgility]
	defense := intStat(stats, state.StatDefenseValue)
	ac := BaseAC + defense/5 + agility/5

	// Modifiers to the attack roll, keyed by source.
	mods := map[string]int{}
	if bonus := agility / 5; bonus != 0 {
		mods[state.StatAgility] = bonus
	}
	if bonus := attrs[state.StatLuck] / 10; bonus != 0 {
		mods[state.StatLuck] = bonus
	}

	actor, err := d20.NewActor(id).
		WithHP(maxHP).
		WithAC(ac).
		WithAttributes(attrs).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if hp != maxHP && hp > 0 {
		if err := actor.SetHP(hp); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &CombatProfile{
		HP:         hp,
		MaxHP:      maxHP,
		Damage:     intStat(stats, state.StatDamageOutput),
		CritChance: intStat(stats, state.StatCritChance),
		Evasion:    intStat(stats, state.StatEvasionChance),
		Actor:      actor,
	}, nil
}

// ForGameState derives the profile from the effective stats of gs.
func ForGameState(gs *state.GameState) (*CombatProfile, error) {
	return NewCombatProfile(gs.ID.String(), gs.EffectiveStats())
}

// AC returns the armor class.
func (p *CombatProfile) AC() int {
	return p.Actor.AC()
}

// AttackBonus sums every combat modifier on the actor.
func (p *CombatProfile) AttackBonus() int {
	total := 0
	for _, mod := range p.Actor.GetCombatModifiers() {
		total += mod.Value
	}
	return total
}

// Attribute returns a core attribute, or 0 when absent.
func (p *CombatProfile) Attribute(key string) int {
	if v, ok := p.Actor.Attribute(key); ok {
		return v
	}
	return 0
}

// MarshalJSON reads the runtime values from the actor for API responses.
func (p *CombatProfile) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	type profileResponse struct {
		HP              int            `json:"hp"`
		MaxHP           int            `json:"max_hp"`
		AC              int            `json:"ac"`
		AttackBonus     int            `json:"attack_bonus"`
		Damage          int            `json:"damage"`
		CritChance      int            `json:"crit_chance"`
		Evasion         int            `json:"evasion"`
		Attributes      map[string]int `json:"attributes"`
		CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	}

	resp := profileResponse{
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		AC:          p.AC(),
		AttackBonus: p.AttackBonus(),
		Damage:      p.Damage,
		CritChance:  p.CritChance,
		Evasion:     p.Evasion,
		Attributes:  make(map[string]int, len(coreAttributes)),
	}
	for _, key := range coreAttributes {
		resp.Attributes[key] = p.Attribute(key)
	}
	for _, mod := range p.Actor.GetCombatModifiers() {
		if resp.CombatModifiers == nil {
			resp.CombatModifiers = make(map[string]int)
		}
		resp.CombatModifiers[mod.Reason] = mod.Value
	}
	return json.Marshal(resp)
}

// BuildPrompt renders the profile as one line for the system prompt.
// Returns an empty string if p is nil.
//
// Example output:
// Chỉ số chiến đấu (d20): HP 80/100, AC 12, thưởng tấn công +1, sát thương 10, bạo kích 5%, né tránh 5%.
func BuildPrompt(p *CombatProfile) string {
	if p == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("Chỉ số chiến đấu (d20): ")
	sb.WriteString(fmt.Sprintf("HP %d/%d, AC %d", p.HP, p.MaxHP, p.AC()))
	sb.WriteString(fmt.Sprintf(", thưởng tấn công %+d", p.AttackBonus()))
	sb.WriteString(fmt.Sprintf(", sát thương %d, bạo kích %d%%, né tránh %d%%.", p.Damage, p.CritChance, p.Evasion))
	return sb.String()
}

func intStat(stats state.CharacterStats, id string) int {
	v, ok := stats.Value(id)
	if !ok {
		return 0
	}
	return int(math.Round(v))
}
