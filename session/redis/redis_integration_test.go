package redis_session_test

import (
	"context"
	"testing"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	redis_session "github.com/juhapellotsalo/agentic-content-scout/session/redis"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	store, err := redis_session.NewRedisSessionStore(ctx, config.RedisConfig{Host: host, Port: port.Port(), Timeout: 5 * time.Second}, time.Hour)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	st := &core.State{
		ThreadID:    "t1",
		Messages:    []models.Message{models.HumanMessage("hi")},
		ActiveAgent: core.ProfileManager,
		Pending: &core.ResumePoint{
			Agent:    core.ProfileManager,
			Stage:    core.StageToolLoop,
			Question: "Which sources?",
			Loop:     &core.LoopCheckpoint{Question: "Which sources?", Pending: models.ToolCall{ID: "c1", Name: "gather_preferences"}},
		},
	}
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ActiveAgent != core.ProfileManager || got.Pending == nil || got.Pending.Loop.Pending.ID != "c1" {
		t.Fatalf("unexpected state %+v", got)
	}
	ttl, err := store.Client().TTL(ctx, "thread:t1").Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected a TTL, got %v %v", ttl, err)
	}

	other, err := redis_session.NewRedisSessionStore(ctx, config.RedisConfig{Host: host, Port: port.Port(), Timeout: 5 * time.Second}, time.Hour)
	if err != nil {
		t.Fatalf("connect second store: %v", err)
	}
	defer other.Close()
	if ok, err := store.LockThread(ctx, "t1"); err != nil || !ok {
		t.Fatalf("first lock: %v %v", ok, err)
	}
	if ok, err := other.LockThread(ctx, "t1"); err != nil || ok {
		t.Fatalf("a second process must not take a held thread: %v %v", ok, err)
	}
	if err := other.UnlockThread(ctx, "t1"); err != nil {
		t.Fatalf("foreign unlock: %v", err)
	}
	if n, _ := store.Client().Exists(ctx, "thread:t1:lock").Result(); n != 1 {
		t.Fatalf("foreign unlock released the lock")
	}
	if err := store.UnlockThread(ctx, "t1"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, err := other.LockThread(ctx, "t1"); err != nil || !ok {
		t.Fatalf("lock after release: %v %v", ok, err)
	}
	_ = other.UnlockThread(ctx, "t1")

	if err := store.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := store.Load(ctx, "t1"); err != nil || got != nil {
		t.Fatalf("deleted thread: %+v %v", got, err)
	}
}
