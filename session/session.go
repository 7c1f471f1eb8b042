package session

import (
	"context"
	"fmt"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/juhapellotsalo/agentic-content-scout/session/inmemory"
	redis_session "github.com/juhapellotsalo/agentic-content-scout/session/redis"
)

// Store persists conversation threads between turns
type Store interface {
	core.Checkpointer
	Delete(ctx context.Context, threadID string) error
	Close() error
}

type StoreType string

const (
	InMemoryStore StoreType = "inmemory"
	RedisStore    StoreType = "redis"
)

// NewStore builds the checkpointer selected by storage.checkpointer. Idle
// threads expire after ttl.
func NewStore(ctx context.Context, storage config.StorageConfig, ttl time.Duration) (Store, error) {
	switch StoreType(storage.Checkpointer) {
	case InMemoryStore, "":
		return inmemory.NewInMemorySessionStore(ttl), nil
	case RedisStore:
		return redis_session.NewRedisSessionStore(ctx, storage.Redis, ttl)
	}
	return nil, fmt.Errorf("unsupported store type: %s", storage.Checkpointer)
}
