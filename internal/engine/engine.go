package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
	"github.com/jwebster45206/roleplay-engine/internal/services"
	"github.com/jwebster45206/roleplay-engine/internal/services/events"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"github.com/jwebster45206/roleplay-engine/pkg/prompts"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

// DefaultOracleTimeout bounds a single oracle call.
const DefaultOracleTimeout = 90 * time.Second

var (
	ErrOracle         = errors.New("oracle request failed")
	ErrGameNotFound   = errors.New("game not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Engine orchestrates the oracle around a game: it builds prompts, parses
// responses and applies them to a copy of the stored state, committing the
// copy only when every step succeeded. Story-advancing operations hold the
// game's lock for their whole duration.
type Engine struct {
	storage       storage.Storage
	llm           services.LLMService
	locker        services.Locker
	publisher     events.Publisher
	logger        *slog.Logger
	historyLimit  int
	oracleTimeout time.Duration
	now           func() time.Time
	ids           state.IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker sets the per-game lock. The default is a MemoryLocker.
func WithLocker(l services.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithPublisher sets where game events are sent. Without one, events are dropped.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.historyLimit = n
		}
	}
}

func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.oracleTimeout = d
		}
	}
}

// WithClock sets the time source for messages and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDs sets the id generator for items, skills and entries.
func WithIDs(ids state.IDGenerator) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// New creates an engine over store and llm.
func New(store storage.Storage, llm services.LLMService, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		storage:       store,
		llm:           llm,
		locker:        services.NewMemoryLocker(),
		logger:        logger,
		historyLimit:  prompts.DefaultHistoryLimit,
		oracleTimeout: DefaultOracleTimeout,
		now:           time.Now,
		ids:           state.StableID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of an operation that changed a game.
type Result struct {
	GameState *state.GameState `json:"game_state"`
	Notices   []state.Notice   `json:"notices"`
	Message   string           `json:"message,omitempty"`
}

func newResult(gs *state.GameState, notices []state.Notice) *Result {
	if notices == nil {
		notices = []state.Notice{}
	}
	return &Result{GameState: gs, Notices: notices}
}

// Ping checks the storage and lock backends.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.storage.Ping(ctx); err != nil {
		return err
	}
	return e.locker.Ping(ctx)
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, e.logger)
}

// load returns the stored game or ErrGameNotFound.
func (e *Engine) load(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := e.storage.LoadGameState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return gs, nil
}

// mutation changes a working copy of the game. Returning an error discards
// the copy.
type mutation func(ctx context.Context, gs *state.GameState) ([]state.Notice, error)

// withGame locks the game, runs fn on a deep copy and saves the copy on
// success. The stored state is untouched when fn fails.
func (e *Engine) withGame(ctx context.Context, id uuid.UUID, operation string, fn mutation) (*Result, error) {
	release, err := e.locker.TryLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	requestID := logger.RequestID(ctx)
	e.publish(ctx, id, events.RequestProcessing(requestID, operation, ""))

	result, err := e.commit(ctx, id, fn)
	if err != nil {
		e.publish(ctx, id, events.RequestFailed(requestID, operation, err))
		return nil, err
	}

	for _, n := range result.Notices {
		e.publish(ctx, id, events.NoticeEvent(requestID, n))
	}
	e.publish(ctx, id, events.StateUpdated(requestID, result.GameState))
	e.publish(ctx, id, events.RequestCompleted(requestID, operation))
	return result, nil
}

func (e *Engine) commit(ctx context.Context, id uuid.UUID, fn mutation) (*Result, error) {
	stored, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	work, err := stored.DeepCopy()
	if err != nil {
		return nil, err
	}

	notices, err := fn(ctx, work)
	if err != nil {
		return nil, err
	}
	notices = append(notices, e.settleDeath(ctx, work)...)

	work.UpdatedAt = e.now()
	if err := e.storage.SaveGameState(ctx, id, work); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	return newResult(work, notices), nil
}

// settleDeath applies the death rule to gs. It returns a notice only when the
// death message was appended by this call.
func (e *Engine) settleDeath(ctx context.Context, gs *state.GameState) []state.Notice {
	logged := len(gs.StoryLog)
	if !gs.CheckDeath(e.now()) || len(gs.StoryLog) == logged {
		return nil
	}
	e.log(ctx).Info("Character died", "game_state_id", gs.ID)
	return []state.Notice{{Kind: state.NoticeError, Message: gs.DeathMessage()}}
}

// ask sends messages to the oracle under the configured timeout.
func (e *Engine) ask(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	oracleCtx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	e.log(ctx).Debug("Sending request to LLM", "messages", len(messages))
	resp, err := e.llm.Chat(oracleCtx, messages)
	if err != nil {
		e.log(ctx).Error("LLM chat failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrOracle, err)
	}
	return resp.Message, nil
}

func (e *Engine) publish(ctx context.Context, id uuid.UUID, ev events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, id, ev); err != nil {
		e.log(ctx).Warn("Failed to publish event", "game_state_id", id, "event_type", ev.Type, "error", err)
	}
}
