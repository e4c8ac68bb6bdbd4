package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/services"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

type failingLocker struct{ err error }

func (l failingLocker) TryLock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	return nil, l.err
}

func (l failingLocker) Ping(ctx context.Context) error { return l.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setupStorage   func() storage.Storage
		locker         services.Locker
		expectedStatus int
		expectedHealth string
		expectedStore  string
		expectedLock   string
	}{
		{
			name: "all healthy",
			setupStorage: func() storage.Storage {
				mockStorage := storage.NewMockStorage()
				mockStorage.SetPingSuccess()
				return mockStorage
			},
			locker:         services.NewMemoryLocker(),
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedStore:  "healthy",
			expectedLock:   "healthy",
		},
		{
			name: "unhealthy storage",
			setupStorage: func() storage.Storage {
				mockStorage := storage.NewMockStorage()
				mockStorage.SetPingError(errors.New("connection failed"))
				return mockStorage
			},
			locker:         services.NewMemoryLocker(),
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "unhealthy",
			expectedLock:   "healthy",
		},
		{
			name: "unhealthy lock backend",
			setupStorage: func() storage.Storage {
				return storage.NewMockStorage()
			},
			locker:         failingLocker{err: errors.New("redis down")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "healthy",
			expectedLock:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStorage(), tt.locker, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedHealth {
				t.Errorf("Expected health status %s, got %s", tt.expectedHealth, response.Status)
			}
			if response.Components["storage"] != tt.expectedStore {
				t.Errorf("Expected storage status %s, got %s", tt.expectedStore, response.Components["storage"])
			}
			if response.Components["lock"] != tt.expectedLock {
				t.Errorf("Expected lock status %s, got %s", tt.expectedLock, response.Components["lock"])
			}
			if response.Service != "roleplay-engine" {
				t.Errorf("Unexpected service name %q", response.Service)
			}
		})
	}
}
