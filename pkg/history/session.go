package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis key templates for session history storage. Entries live in a list,
// the cursor in a plain key; both expire together.
const (
	redisKeyEntries = "wp:history:%s:entries"
	redisKeyCursor  = "wp:history:%s:cursor"
)

// DefaultSessionTTL is how long an idle session's history survives.
const DefaultSessionTTL = 24 * time.Hour

// SessionNavigator is a Navigator persisted in Redis, keyed by session ID.
// Server-rendered hosts use it so back/forward survives across stateless
// requests; every instance bound to the same session sees the same stack.
type SessionNavigator struct {
	redis     *redis.Client
	sessionID string
	ttl       time.Duration
	logger    zerolog.Logger

	mu    sync.Mutex
	onPop func(entry Entry, hasState bool)
}

// NewSessionNavigator creates a session-backed navigator. The session is
// seeded with the initial entry when it does not exist yet.
func NewSessionNavigator(ctx context.Context, redisClient *redis.Client, sessionID string, initial Entry, logger zerolog.Logger) (*SessionNavigator, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	n := &SessionNavigator{
		redis:     redisClient,
		sessionID: sessionID,
		ttl:       DefaultSessionTTL,
		logger:    logger.With().Str("session", sessionID).Logger(),
	}

	length, err := redisClient.LLen(ctx, n.entriesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read session history: %w", err)
	}
	if length == 0 {
		if err := n.seed(ctx, initial); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *SessionNavigator) entriesKey() string { return fmt.Sprintf(redisKeyEntries, n.sessionID) }
func (n *SessionNavigator) cursorKey() string  { return fmt.Sprintf(redisKeyCursor, n.sessionID) }

func (n *SessionNavigator) seed(ctx context.Context, initial Entry) error {
	data, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := n.redis.Pipeline()
	pipe.RPush(ctx, n.entriesKey(), data)
	pipe.Set(ctx, n.cursorKey(), 0, n.ttl)
	pipe.Expire(ctx, n.entriesKey(), n.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed session history: %w", err)
	}
	return nil
}

func (n *SessionNavigator) cursor(ctx context.Context) (int64, error) {
	cursor, err := n.redis.Get(ctx, n.cursorKey()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read history cursor: %w", err)
	}
	return cursor, nil
}

func (n *SessionNavigator) entryAt(ctx context.Context, index int64) (Entry, error) {
	data, err := n.redis.LIndex(ctx, n.entriesKey(), index).Result()
	if err == redis.Nil {
		return Entry{}, ErrNoEntry
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read history entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return Entry{}, fmt.Errorf("unmarshal history entry: %w", err)
	}
	return entry, nil
}

// Current implements Navigator.
func (n *SessionNavigator) Current(ctx context.Context) (Entry, error) {
	cursor, err := n.cursor(ctx)
	if err != nil {
		return Entry{}, err
	}
	return n.entryAt(ctx, cursor)
}

// Push implements Navigator. Forward entries beyond the cursor are dropped,
// then the new entry is appended and becomes current.
func (n *SessionNavigator) Push(ctx context.Context, entry Entry) error {
	cursor, err := n.cursor(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := n.redis.Pipeline()
	pipe.LTrim(ctx, n.entriesKey(), 0, cursor)
	pipe.RPush(ctx, n.entriesKey(), data)
	pipe.Set(ctx, n.cursorKey(), cursor+1, n.ttl)
	pipe.Expire(ctx, n.entriesKey(), n.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push session history: %w", err)
	}

	n.logger.Debug().
		Str("path", entry.Path).
		Int64("cursor", cursor+1).
		Msg("Session history entry pushed")
	return nil
}

// OnPop implements Navigator.
func (n *SessionNavigator) OnPop(fn func(entry Entry, hasState bool)) {
	n.mu.Lock()
	n.onPop = fn
	n.mu.Unlock()
}

// Back moves the cursor one entry backwards and fires the pop listener.
func (n *SessionNavigator) Back(ctx context.Context) error {
	return n.move(ctx, -1)
}

// Forward moves the cursor one entry forwards and fires the pop listener.
func (n *SessionNavigator) Forward(ctx context.Context) error {
	return n.move(ctx, +1)
}

func (n *SessionNavigator) move(ctx context.Context, delta int64) error {
	cursor, err := n.cursor(ctx)
	if err != nil {
		return err
	}

	next := cursor + delta
	if next < 0 {
		return ErrNoEntry
	}
	entry, err := n.entryAt(ctx, next)
	if err != nil {
		return err
	}

	if err := n.redis.Set(ctx, n.cursorKey(), next, n.ttl).Err(); err != nil {
		return fmt.Errorf("write history cursor: %w", err)
	}

	n.mu.Lock()
	onPop := n.onPop
	n.mu.Unlock()
	if onPop != nil {
		onPop(entry, entry.State != nil)
	}
	return nil
}
