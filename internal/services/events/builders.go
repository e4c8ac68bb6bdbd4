package events

import "github.com/jwebster45206/roleplay-engine/pkg/state"

// RequestProcessing announces that an operation has started on a game.
func RequestProcessing(requestID, operation, action string) Event {
	return Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		Data: map[string]any{
			"status":    "processing",
			"operation": operation,
			"action":    action,
		},
	}
}

func RequestCompleted(requestID, operation string) Event {
	return Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		Data: map[string]any{
			"status":    "completed",
			"operation": operation,
		},
	}
}

func RequestFailed(requestID, operation string, err error) Event {
	return Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		Data: map[string]any{
			"status":    "failed",
			"operation": operation,
			"error":     err.Error(),
		},
	}
}

// NoticeEvent carries one reducer notice to clients.
func NoticeEvent(requestID string, n state.Notice) Event {
	return Event{
		Type:      EventTypeNotice,
		RequestID: requestID,
		Data: map[string]any{
			"kind":    string(n.Kind),
			"message": n.Message,
		},
	}
}

// StateUpdated tells clients to refresh their copy of the game.
func StateUpdated(requestID string, gs *state.GameState) Event {
	return Event{
		Type:      EventTypeGameStateUpdated,
		RequestID: requestID,
		Data: map[string]any{
			"story_length": len(gs.StoryLog),
			"history":      len(gs.History),
			"is_dead":      gs.IsDead(),
		},
	}
}

func GameDeleted(requestID string) Event {
	return Event{
		Type:      EventTypeGameDeleted,
		RequestID: requestID,
	}
}
