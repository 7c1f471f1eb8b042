package redis_session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/redis/go-redis/v9"
)

// lockTTL bounds how long a crashed process can hold a thread.
const lockTTL = 10 * time.Minute

// unlockScript deletes the lock only while it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Store struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisSessionStore connects and pings before returning.
func NewRedisSessionStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
		ReadTimeout: cfg.Timeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	return &Store{client: rdb, ttl: ttl, tokens: make(map[string]string)}, nil
}

func key(threadID string) string { return fmt.Sprintf("thread:%s", threadID) }

func lockKey(threadID string) string { return fmt.Sprintf("thread:%s:lock", threadID) }

func (store *Store) Load(ctx context.Context, threadID string) (*core.State, error) {
	val, err := store.client.Get(ctx, key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st core.State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadID, err)
	}
	return &st, nil
}

// Save overwrites the thread and refreshes its TTL.
func (store *Store) Save(ctx context.Context, st *core.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return store.client.Set(ctx, key(st.ThreadID), data, store.ttl).Err()
}

func (store *Store) Delete(ctx context.Context, threadID string) error {
	return store.client.Del(ctx, key(threadID)).Err()
}

// LockThread claims the thread for one turn across every process sharing
// this Redis.
func (store *Store) LockThread(ctx context.Context, threadID string) (bool, error) {
	token := uuid.NewString()
	ok, err := store.client.SetNX(ctx, lockKey(threadID), token, lockTTL).Result()
	if err != nil || !ok {
		return false, err
	}
	store.mu.Lock()
	store.tokens[threadID] = token
	store.mu.Unlock()
	return true, nil
}

func (store *Store) UnlockThread(ctx context.Context, threadID string) error {
	store.mu.Lock()
	token, ok := store.tokens[threadID]
	delete(store.tokens, threadID)
	store.mu.Unlock()
	if !ok {
		return nil
	}
	return unlockScript.Run(ctx, store.client, []string{lockKey(threadID)}, token).Err()
}

// Client exposes the connection for other Redis users such as the scheduler lock.
func (store *Store) Client() *redis.Client { return store.client }

func (store *Store) Close() error { return store.client.Close() }
