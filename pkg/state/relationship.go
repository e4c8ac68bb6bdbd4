package state

import "sort"

// RelationshipStatus describes how an NPC feels about the player.
type RelationshipStatus string

const (
	StatusHostile     RelationshipStatus = "Thù Địch"
	StatusMistrustful RelationshipStatus = "Không Tin Tưởng"
	StatusNeutral     RelationshipStatus = "Trung Lập"
	StatusAmicable    RelationshipStatus = "Hòa Hảo"
	StatusFriendly    RelationshipStatus = "Thân Thiện"
	StatusLoyal       RelationshipStatus = "Trung Thành"
	StatusAdored      RelationshipStatus = "Ngưỡng Mộ"
)

// RelationshipStatuses lists statuses from most hostile to most devoted.
var RelationshipStatuses = []RelationshipStatus{
	StatusHostile, StatusMistrustful, StatusNeutral, StatusAmicable,
	StatusFriendly, StatusLoyal, StatusAdored,
}

func (s RelationshipStatus) Valid() bool {
	for _, v := range RelationshipStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Score bounds.
const (
	MinRelationshipScore = -100
	MaxRelationshipScore = 100
)

// StatusBand maps every score up to and including Max onto Status.
type StatusBand struct {
	Max    int
	Status RelationshipStatus
}

// StatusBands is an ordered score→status table. The final band catches
// everything above the previous bands.
type StatusBands []StatusBand

// DefaultStatusBands:
//
//	≤ -80 hostile, -79..-30 mistrustful, -29..29 neutral, 30..59 amicable,
//	60..79 friendly, 80..99 loyal, 100 adored.
var DefaultStatusBands = StatusBands{
	{Max: -80, Status: StatusHostile},
	{Max: -30, Status: StatusMistrustful},
	{Max: 29, Status: StatusNeutral},
	{Max: 59, Status: StatusAmicable},
	{Max: 79, Status: StatusFriendly},
	{Max: 99, Status: StatusLoyal},
	{Max: MaxRelationshipScore, Status: StatusAdored},
}

// Derive returns the status for score. Scores above the last band map to
// the last band, so the function is total.
func (b StatusBands) Derive(score int) RelationshipStatus {
	if len(b) == 0 {
		return StatusNeutral
	}
	for _, band := range b {
		if score <= band.Max {
			return band.Status
		}
	}
	return b[len(b)-1].Status
}

// DeriveStatus derives a status from score using DefaultStatusBands.
func DeriveStatus(score int) RelationshipStatus {
	return DefaultStatusBands.Derive(score)
}

// ClampScore bounds score to [-100, 100].
func ClampScore(score int) int {
	if score < MinRelationshipScore {
		return MinRelationshipScore
	}
	if score > MaxRelationshipScore {
		return MaxRelationshipScore
	}
	return score
}

// NPCProfile tracks the player's standing with one NPC. Profiles are never deleted.
type NPCProfile struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Status      RelationshipStatus `json:"status"`
	Score       int                `json:"score"`
	Description string             `json:"description,omitempty"`
	Known       bool               `json:"known"`
}

// RelationshipChange is a parsed relationship delta.
type RelationshipChange struct {
	NPCName     string             `json:"npc_name"`
	ScoreChange *int               `json:"score_change,omitempty"`
	NewStatus   RelationshipStatus `json:"new_status,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

// Relationships maps profile id to profile.
type Relationships map[string]NPCProfile

// ByName returns the profile with the given display name.
func (r Relationships) ByName(name string) (NPCProfile, bool) {
	for _, p := range r {
		if p.Name == name {
			return p, true
		}
	}
	return NPCProfile{}, false
}

func (r Relationships) Clone() Relationships {
	if r == nil {
		return nil
	}
	out := make(Relationships, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func sortProfiles(ps []NPCProfile) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
