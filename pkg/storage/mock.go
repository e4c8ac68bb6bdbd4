package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing.
// Game states are held as JSON so callers never share memory with the store.
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID][]byte
	saves      map[string][]byte
	summaries  map[string]SaveSummary
	setups     map[string]*state.StorySetup
	pingError  error
	saveError  error
	saveCalls  int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID][]byte),
		saves:      make(map[string][]byte),
		summaries:  make(map[string]SaveSummary),
		setups:     make(map[string]*state.StorySetup),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes SaveGameState fail with err. Pass nil to clear it.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SaveCalls returns how many times SaveGameState succeeded.
func (m *MockStorage) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pingError != nil {
		return m.pingError
	}
	return nil
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a gamestate
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gamestate *state.GameState) error {
	if gamestate == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(gamestate)
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	m.gamestates[id] = data
	m.saveCalls++
	return nil
}

// LoadGameState mocks loading a gamestate
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

// RawGameState returns the stored document for id, for byte comparisons in tests.
func (m *MockStorage) RawGameState(id uuid.UUID) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamestates[id]
}

// DeleteGameState mocks deleting a gamestate
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

// ListSaves mocks listing save slots, most recent first
func (m *MockStorage) ListSaves(ctx context.Context) ([]SaveSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]SaveSummary, 0, len(m.summaries))
	for _, s := range m.summaries {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SavedAt.After(result[j].SavedAt)
	})
	return result, nil
}

// WriteSave mocks writing a save slot
func (m *MockStorage) WriteSave(ctx context.Context, slot string, gs *state.GameState) (*SaveSummary, error) {
	if gs == nil {
		return nil, errors.New("gamestate cannot be nil")
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	sum := Summarize(slot, gs, time.Now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[slot] = data
	m.summaries[slot] = sum
	return &sum, nil
}

// ReadSave mocks reading a save slot
func (m *MockStorage) ReadSave(ctx context.Context, slot string) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.saves[slot]
	if !exists {
		return nil, ErrSaveNotFound
	}
	return state.LoadGameState(data)
}

// DeleteSave mocks deleting a save slot
func (m *MockStorage) DeleteSave(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.saves[slot]; !exists {
		return ErrSaveNotFound
	}
	delete(m.saves, slot)
	delete(m.summaries, slot)
	return nil
}

// ListSetups mocks listing presets, keyed by display name
func (m *MockStorage) ListSetups(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string)
	for id, s := range m.setups {
		name := s.Name
		if name == "" {
			name = id
		}
		result[name] = id
	}
	return result, nil
}

// GetSetup mocks getting a preset by id
func (m *MockStorage) GetSetup(ctx context.Context, id string) (*state.StorySetup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.setups[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSetupNotFound, id)
	}
	cp := *s
	return &cp, nil
}

// AddSetup adds a preset to the mock storage (for testing)
func (m *MockStorage) AddSetup(id string, s *state.StorySetup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setups[id] = s
}
