package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
	"github.com/jwebster45206/roleplay-engine/internal/services/events"
	"github.com/jwebster45206/roleplay-engine/pkg/actor"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"github.com/jwebster45206/roleplay-engine/pkg/parser"
	"github.com/jwebster45206/roleplay-engine/pkg/prompts"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// MinSummaryLength is the story length, in characters, below which no
// summary is requested.
const MinSummaryLength = 100

const msgStoryTooShort = "Câu chuyện còn quá ngắn để tóm tắt."

// NewStoryRequest starts an adventure from a stored preset or an inline setup.
type NewStoryRequest struct {
	SetupID string                 `json:"setup_id,omitempty"`
	Setup   *state.StorySetup      `json:"setup,omitempty"`
	NSFW    *state.NSFWPreferences `json:"nsfw,omitempty"`
}

func (r *NewStoryRequest) Validate() error {
	if r.SetupID == "" && r.Setup == nil {
		return fmt.Errorf("%w: setup_id or setup is required", ErrInvalidRequest)
	}
	if r.Setup != nil {
		if err := r.Setup.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}

// WorldEventRequest asks the oracle for a world event.
type WorldEventRequest struct {
	Type     state.WorldEventType  `json:"type"`
	Scope    state.WorldEventScope `json:"scope"`
	Keywords string                `json:"keywords,omitempty"`
}

func (r *WorldEventRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown world event type %q", ErrInvalidRequest, r.Type)
	}
	if !r.Scope.Valid() {
		return fmt.Errorf("%w: unknown world event scope %q", ErrInvalidRequest, r.Scope)
	}
	return nil
}

// View is a game together with its derived stats.
type View struct {
	*state.GameState
	EffectiveStats state.CharacterStats `json:"effective_stats"`
	CombatProfile  *actor.CombatProfile `json:"combat_profile,omitempty"`
	IsDead         bool                 `json:"is_dead"`
}

// Get returns the stored game with effective stats and combat profile.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	gs, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.view(ctx, gs), nil
}

func (e *Engine) view(ctx context.Context, gs *state.GameState) *View {
	v := &View{
		GameState:      gs,
		EffectiveStats: gs.EffectiveStats(),
		IsDead:         gs.IsDead(),
	}
	profile, err := actor.ForGameState(gs)
	if err != nil {
		e.log(ctx).Warn("Failed to build combat profile", "game_state_id", gs.ID, "error", err)
	} else {
		v.CombatProfile = profile
	}
	return v
}

// Delete removes a live session.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := e.load(ctx, id); err != nil {
		return err
	}
	if err := e.storage.DeleteGameState(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	e.publish(ctx, id, events.GameDeleted(logger.RequestID(ctx)))
	return nil
}

// NewStory seeds a game from the setup and asks the oracle for the opening.
// Nothing is stored if the oracle fails.
func (e *Engine) NewStory(ctx context.Context, req NewStoryRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setup := req.Setup
	if setup == nil {
		s, err := e.storage.GetSetup(ctx, req.SetupID)
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		setup = s
	}

	nsfw := state.DefaultNSFW()
	if req.NSFW != nil {
		nsfw = *req.NSFW
	}

	gs := state.NewGameState(setup, nsfw)
	now := e.now()
	gs.CreatedAt, gs.UpdatedAt = now, now

	if err := e.generateOpening(ctx, gs); err != nil {
		return nil, err
	}
	notices := e.settleDeath(ctx, gs)

	if err := e.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	e.log(ctx).Info("Story started", "game_state_id", gs.ID, "character", gs.CharacterName())
	return newResult(gs, notices), nil
}

// Reroll regenerates the opening. It is refused once the player has acted.
func (e *Engine) Reroll(ctx context.Context, id uuid.UUID) (*Result, error) {
	return e.withGame(ctx, id, "reroll", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		if err := gs.CanReroll(); err != nil {
			return nil, err
		}
		return nil, e.generateOpening(ctx, gs)
	})
}

func (e *Engine) generateOpening(ctx context.Context, gs *state.GameState) error {
	messages, err := prompts.BuildMessages(gs, prompts.InitialStoryPrompt(gs.Setup), e.historyLimit)
	if err != nil {
		return fmt.Errorf("failed to build chat messages: %w", err)
	}
	raw, err := e.ask(ctx, messages)
	if err != nil {
		return err
	}

	opening := parser.ParseInitialStory(raw, gs.Setup.Character.Goal, gs.Setup.Entities)
	if opening.Fallback {
		e.log(ctx).Warn("Opening could not be decoded, using fallback story", "game_state_id", gs.ID)
	}
	state.NewDeltaWorker(gs, nil, e.log(ctx)).
		WithClock(e.now).
		WithIDs(e.ids).
		ApplyInitial(opening)
	return nil
}

// advance runs one story turn. prepare may change the working copy after the
// undo snapshot and returns the action sent to the oracle.
func (e *Engine) advance(ctx context.Context, id uuid.UUID, operation string, prepare func(gs *state.GameState) (string, error)) (*Result, error) {
	return e.withGame(ctx, id, operation, func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		if gs.IsDead() {
			return nil, state.ErrCharacterDead
		}
		gs.PushSnapshot()
		action, err := prepare(gs)
		if err != nil {
			return nil, err
		}
		return e.turn(ctx, gs, action)
	})
}

// turn logs the action, asks the oracle for the next segment and applies it.
// The death rule runs when the change is committed.
func (e *Engine) turn(ctx context.Context, gs *state.GameState, action string) ([]state.Notice, error) {
	gs.LogPlayerAction(action, e.now())

	prompt := prompts.NextSegmentPrompt(action, gs.CharacterName(), gs.IsRoleplayModeActive)
	messages, err := prompts.BuildMessages(gs, prompt, e.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat messages: %w", err)
	}
	raw, err := e.ask(ctx, messages)
	if err != nil {
		return nil, err
	}

	seg := parser.ParseNextSegment(raw)
	if seg.Fallback {
		e.log(ctx).Warn("Segment could not be decoded, using fallback story", "game_state_id", gs.ID)
	}
	notices := state.NewDeltaWorker(gs, seg, e.log(ctx)).
		WithClock(e.now).
		WithIDs(e.ids).
		Apply()
	return notices, nil
}

// Action handles a player action. Shortcut commands such as "inventory" are
// answered from the state without the oracle and change nothing.
func (e *Engine) Action(ctx context.Context, id uuid.UUID, action string) (*Result, error) {
	req := chat.ActionRequest{Action: action}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	action = strings.TrimSpace(action)

	gs, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd := gs.TryHandleCommand(action); cmd.Handled {
		res := newResult(gs, nil)
		res.Message = cmd.Message
		return res, nil
	}

	return e.advance(ctx, id, "action", func(gs *state.GameState) (string, error) {
		return action, nil
	})
}

// Cultivate sends the fixed cultivation action.
func (e *Engine) Cultivate(ctx context.Context, id uuid.UUID) (*Result, error) {
	return e.advance(ctx, id, "cultivate", func(gs *state.GameState) (string, error) {
		return state.ActionCultivate, nil
	})
}

// Advance attempts a breakthrough once spiritual qi is full.
func (e *Engine) Advance(ctx context.Context, id uuid.UUID) (*Result, error) {
	return e.advance(ctx, id, "advance", func(gs *state.GameState) (string, error) {
		if err := gs.CanAdvance(); err != nil {
			return "", err
		}
		return state.ActionAdvance, nil
	})
}

// UseItem applies the item and lets the oracle narrate the result.
func (e *Engine) UseItem(ctx context.Context, id uuid.UUID, itemID string) (*Result, error) {
	return e.advance(ctx, id, "use_item", func(gs *state.GameState) (string, error) {
		item, err := gs.UseItem(itemID)
		if err != nil {
			return "", err
		}
		return prompts.UseItemAction(item.Name), nil
	})
}

// Equip puts an item into its slot. With narrate the change is also sent to
// the oracle as a story turn.
func (e *Engine) Equip(ctx context.Context, id uuid.UUID, itemID string, narrate bool) (*Result, error) {
	if narrate {
		return e.advance(ctx, id, "equip", func(gs *state.GameState) (string, error) {
			item, err := gs.EquipItem(itemID)
			if err != nil {
				return "", err
			}
			return prompts.EquipAction(item.Name, item.Slot), nil
		})
	}
	return e.withGame(ctx, id, "equip", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		_, err := gs.EquipItem(itemID)
		return nil, err
	})
}

// Unequip clears a slot, optionally narrated like Equip.
func (e *Engine) Unequip(ctx context.Context, id uuid.UUID, slot state.EquipmentSlot, narrate bool) (*Result, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidRequest, state.ErrInvalidSlot, slot)
	}
	if narrate {
		return e.advance(ctx, id, "unequip", func(gs *state.GameState) (string, error) {
			name := equippedName(gs, slot)
			if err := gs.UnequipItem(slot); err != nil {
				return "", err
			}
			return prompts.UnequipAction(name, slot), nil
		})
	}
	return e.withGame(ctx, id, "unequip", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		return nil, gs.UnequipItem(slot)
	})
}

func equippedName(gs *state.GameState, slot state.EquipmentSlot) string {
	itemID := gs.EquippedItems[slot]
	for _, item := range gs.Inventory {
		if item.ID == itemID {
			return item.Name
		}
	}
	return "vật phẩm"
}

// ToggleRoleplay flips roleplay mode.
func (e *Engine) ToggleRoleplay(ctx context.Context, id uuid.UUID) (*Result, error) {
	return e.withGame(ctx, id, "roleplay", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		on := gs.ToggleRoleplay()
		msg := "Đã tắt chế độ nhập vai."
		if on {
			msg = "Đã bật chế độ nhập vai."
		}
		return []state.Notice{{Kind: state.NoticeInfo, Message: msg}}, nil
	})
}

// Undo restores the most recent snapshot.
func (e *Engine) Undo(ctx context.Context, id uuid.UUID) (*Result, error) {
	return e.withGame(ctx, id, "undo", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		return nil, gs.Undo()
	})
}

// CreateWorldEvent asks the oracle for an event and makes it current. A
// response without a name or description changes nothing.
func (e *Engine) CreateWorldEvent(ctx context.Context, id uuid.UUID, req WorldEventRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return e.withGame(ctx, id, "world_event", func(ctx context.Context, gs *state.GameState) ([]state.Notice, error) {
		prompt := prompts.WorldEventPrompt(prompts.NewStoryContext(gs, e.historyLimit), req.Type, req.Scope, req.Keywords)
		raw, err := e.ask(ctx, prompts.SingleRequest(prompt))
		if err != nil {
			return nil, err
		}
		draft, err := parser.ParseWorldEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOracle, err)
		}

		ev := gs.ApplyWorldEvent(state.WorldEvent{
			Name:        draft.Name,
			Description: draft.Description,
			Type:        req.Type,
			Scope:       req.Scope,
			KeyElements: draft.KeyElements,
		}, e.now())
		return []state.Notice{{Kind: state.NoticeInfo, Message: "Sự kiện thế giới mới: " + ev.Name}}, nil
	})
}

// Summarize returns a plot summary without storing it. Short stories are
// answered without the oracle.
func (e *Engine) Summarize(ctx context.Context, id uuid.UUID) (string, error) {
	gs, err := e.load(ctx, id)
	if err != nil {
		return "", err
	}
	text := gs.StoryText()
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinSummaryLength {
		return msgStoryTooShort, nil
	}

	raw, err := e.ask(ctx, prompts.SingleRequest(prompts.SummaryPrompt(text)))
	if err != nil {
		return "", err
	}
	return parser.ParseSummary(raw), nil
}
