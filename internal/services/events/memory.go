package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryBroadcaster delivers events in-process. Slow subscribers drop events
// rather than block publishers.
type MemoryBroadcaster struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[int]chan Event
	nextID int
}

var (
	_ Publisher  = (*MemoryBroadcaster)(nil)
	_ Subscriber = (*MemoryBroadcaster)(nil)
)

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[uuid.UUID]map[int]chan Event)}
}

func (m *MemoryBroadcaster) Publish(ctx context.Context, gameID uuid.UUID, event Event) error {
	event.GameID = gameID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[gameID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MemoryBroadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, 64)
	if m.subs[gameID] == nil {
		m.subs[gameID] = make(map[int]chan Event)
	}
	m.subs[gameID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs[gameID], id)
			if len(m.subs[gameID]) == 0 {
				delete(m.subs, gameID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
