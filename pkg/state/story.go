package state

// MessageType classifies a story log entry.
type MessageType string

const (
	MessageNarration MessageType = "narration"
	MessageDialogue  MessageType = "dialogue"
	MessageSystem    MessageType = "system"
	MessageEvent     MessageType = "event"
	MessageLoading   MessageType = "loading"
)

// StoryMessage is one append-only entry in the story log.
type StoryMessage struct {
	ID            string      `json:"id"`
	Type          MessageType `json:"type"`
	Content       string      `json:"content"`
	CharacterName string      `json:"character_name,omitempty"`
	Timestamp     string      `json:"timestamp"`
}

type PlayerChoice struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text"`
	Tooltip string `json:"tooltip,omitempty"`
}

type WorldEventType string

const (
	WorldEventBoon              WorldEventType = "Kỳ Ngộ / Cơ Duyên"
	WorldEventCalamity          WorldEventType = "Tai Họa / Biến Cố"
	WorldEventPoliticalConflict WorldEventType = "Mâu Thuẫn / Xung Đột Chính Trị"
	WorldEventSocial            WorldEventType = "Sự Kiện Xã Hội"
	WorldEventRumor             WorldEventType = "Tin Đồn / Bí Mật Bị Tiết Lộ"
	WorldEventRandom            WorldEventType = "Ngẫu Nhiên"
)

var WorldEventTypes = []WorldEventType{
	WorldEventBoon, WorldEventCalamity, WorldEventPoliticalConflict,
	WorldEventSocial, WorldEventRumor, WorldEventRandom,
}

func (t WorldEventType) Valid() bool {
	for _, v := range WorldEventTypes {
		if t == v {
			return true
		}
	}
	return false
}

type WorldEventScope string

const (
	ScopePersonal WorldEventScope = "Cá Nhân"
	ScopeRegional WorldEventScope = "Khu Vực"
	ScopeGlobal   WorldEventScope = "Toàn Cầu / Rộng Lớn"
)

func (s WorldEventScope) Valid() bool {
	return s == ScopePersonal || s == ScopeRegional || s == ScopeGlobal
}

type WorldEventStatus string

const (
	WorldEventActive    WorldEventStatus = "active"
	WorldEventConcluded WorldEventStatus = "concluded"
)

// WorldEvent is a player-triggered happening injected into the narrative.
type WorldEvent struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        WorldEventType   `json:"type"`
	Scope       WorldEventScope  `json:"scope"`
	Description string           `json:"description"`
	KeyElements []string         `json:"key_elements,omitempty"`
	Status      WorldEventStatus `json:"status"`
	Timestamp   string           `json:"timestamp"`
}
