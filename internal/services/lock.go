package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRequestInFlight is returned when another request already holds the game.
var ErrRequestInFlight = errors.New("a request for this game is already in progress")

// DefaultLockTTL bounds how long a crashed holder can block a game.
const DefaultLockTTL = 2 * time.Minute

// Locker guards a game against concurrent story-advancing requests.
// TryLock never waits: a held game fails immediately with ErrRequestInFlight.
type Locker interface {
	TryLock(ctx context.Context, gameID uuid.UUID) (release func(), err error)
	Ping(ctx context.Context) error
}

// releaseScript deletes the lock only if it still holds our token, so an
// expired holder cannot release a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX and a TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

func lockKey(gameID uuid.UUID) string {
	return "game-lock:" + gameID.String()
}

func (l *RedisLocker) TryLock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	key := lockKey(gameID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire game lock: %w", err)
	}
	if !ok {
		return nil, ErrRequestInFlight
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The request context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Error("Failed to release game lock", "game_state_id", gameID, "error", err)
			}
		})
	}
	return release, nil
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// MemoryLocker implements Locker within a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[uuid.UUID]struct{})}
}

func (l *MemoryLocker) TryLock(ctx context.Context, gameID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[gameID]; busy {
		return nil, ErrRequestInFlight
	}
	l.held[gameID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, gameID)
			l.mu.Unlock()
		})
	}, nil
}

func (l *MemoryLocker) Ping(ctx context.Context) error {
	return nil
}
