package state

// EntityType classifies an encyclopedia entry.
type EntityType string

const (
	EntityNPC          EntityType = "NPC"
	EntityItem         EntityType = "Vật phẩm"
	EntityLocation     EntityType = "Địa điểm"
	EntityOrganization EntityType = "Tổ chức"
	EntityOther        EntityType = "Khác"
)

var EntityTypes = []EntityType{EntityNPC, EntityItem, EntityLocation, EntityOrganization, EntityOther}

func (t EntityType) Valid() bool {
	for _, v := range EntityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Entity is an encyclopedia entry. (Name, Type) is the uniqueness key.
type Entity struct {
	ID          string     `json:"id"`
	Type        EntityType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

func findEntity(entries []Entity, name string, t EntityType) int {
	for i := range entries {
		if entries[i].Name == name && entries[i].Type == t {
			return i
		}
	}
	return -1
}
