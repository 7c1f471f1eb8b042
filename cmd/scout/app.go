package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/provider"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/juhapellotsalo/agentic-content-scout/session"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search"
	"github.com/redis/go-redis/v9"
)

// app is the wired process: config, stores, telemetry and the orchestrator.
type app struct {
	cfg       *config.Config
	topics    repository.TopicRepository
	threads   session.Store
	orch      *core.Orchestrator
	telemetry *telemetry.Telemetry
	tracing   *telemetry.Tracing
	actions   *telemetry.ActionLog
	rdb       *redis.Client // dialed by redisClient, closed with the app
}

func loadTopics(ctx context.Context, cfgPath string) (*config.Config, repository.TopicRepository, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	topics, err := repository.NewTopicRepository(ctx, repository.RepoTypeFile, cfg.Storage.TopicsDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, topics, nil
}

func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, topics, err := loadTopics(ctx, cfgPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, topics: topics}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Writer(), "[SCOUT] ", log.LstdFlags)
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey(), cfg.Search.Timeout)
	if err != nil {
		logger.Printf("web search disabled: %v", err)
		searcher = nil
	}
	var fetcher web_fetch.WebFetcher
	if cfg.Fetch.Enabled {
		fetcher, err = web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetch.Fetcher), cfg.Fetch.Timeout, cfg.Fetch.MaxChars)
		if err != nil {
			return nil, fmt.Errorf("fetch.fetcher: %w", err)
		}
	}

	a.threads, err = session.NewStore(ctx, cfg.Storage, cfg.Memory.ThreadTTL)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled {
		a.telemetry = telemetry.NewTelemetry()
		a.tracing, err = telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, "scout", version)
		if err != nil {
			a.close()
			return nil, err
		}
		a.actions, err = telemetry.OpenActionLog(filepath.Join(cfg.General.LogDir, cfg.Telemetry.ActionLogFile))
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.orch, err = core.NewOrchestrator(core.Options{
		Provider:    llm,
		Searcher:    searcher,
		Fetcher:     fetcher,
		Topics:      topics,
		Checkpoints: a.threads,
		Agents:      cfg.Agents,
		Routing:     cfg.LLM.Routing,
		MaxResults:  cfg.Search.MaxResults,
		Logger:      log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
		Telemetry:   a.telemetry,
		Actions:     a.actions,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// redisClient reuses the checkpointer's connection when it is Redis, or
// dials one when only storage.redis is configured.
func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if rs, ok := a.threads.(interface{ Client() *redis.Client }); ok {
		return rs.Client(), nil
	}
	rc := a.cfg.Storage.Redis
	if !rc.Enabled() {
		return nil, nil
	}
	if a.rdb != nil {
		return a.rdb, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", rc.Addr(), err)
	}
	a.rdb = rdb
	return rdb, nil
}

func (a *app) close() {
	if a.threads != nil {
		_ = a.threads.Close()
	}
	if a.actions != nil {
		_ = a.actions.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.tracing.Shutdown(ctx)
}
