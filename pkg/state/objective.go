package state

type ObjectiveStatus string

const (
	ObjectiveActive    ObjectiveStatus = "active"
	ObjectiveCompleted ObjectiveStatus = "completed"
	ObjectiveFailed    ObjectiveStatus = "failed"
)

// Objective is a goal the player is pursuing. Completed and failed are terminal.
type Objective struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Status        ObjectiveStatus `json:"status"`
	IsPlayerGoal  bool            `json:"is_player_goal,omitempty"`
	SubObjectives []string        `json:"sub_objectives,omitempty"`
	RewardPreview string          `json:"reward_preview,omitempty"`
}

// ObjectiveUpdate moves an active objective to completed or failed.
type ObjectiveUpdate struct {
	IDOrTitle string          `json:"objective_id_or_title"`
	NewStatus ObjectiveStatus `json:"new_status"`
	Reason    string          `json:"reason,omitempty"`
}

// Achievement is append-only and unique by name.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnlockedAt  string `json:"unlocked_at"`
	Icon        string `json:"icon,omitempty"`
	IsSecret    bool   `json:"is_secret,omitempty"`
}

func findActiveObjective(objs []Objective, idOrTitle string) int {
	for i := range objs {
		if objs[i].Status != ObjectiveActive {
			continue
		}
		if objs[i].ID == idOrTitle || objs[i].Title == idOrTitle {
			return i
		}
	}
	return -1
}
