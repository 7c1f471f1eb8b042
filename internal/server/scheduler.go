package server

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/redis/go-redis/v9"
)

// TopicLister lists the topics to scout.
type TopicLister interface {
	ListTopics(ctx context.Context) ([]string, error)
}

// ScoutRunner runs one unattended pipeline.
type ScoutRunner interface {
	ScoutTopic(ctx context.Context, slug, task string) (core.ScoutState, error)
}

// Scheduler scouts every topic whose cron spec is due. With Redis configured
// the lock and last-run times are shared between instances.
type Scheduler struct {
	Topics   TopicLister
	Runner   ScoutRunner
	Rdb      *redis.Client
	Cron     string
	Task     string
	Interval time.Duration
	Logger   *log.Logger

	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// Start ticks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs every due topic once, sequentially, and returns how many ran.
func (s *Scheduler) Tick(ctx context.Context) int {
	topics, err := s.Topics.ListTopics(ctx)
	if err != nil {
		s.logf("list topics: %v", err)
		return 0
	}
	ran := 0
	for _, slug := range topics {
		if ctx.Err() != nil {
			return ran
		}
		last := s.lastRun(ctx, slug)
		if !isDue(s.Cron, last, s.clock()) {
			continue
		}
		if !s.lock(ctx, slug) {
			continue
		}
		st, err := s.Runner.ScoutTopic(ctx, slug, s.Task)
		s.unlock(ctx, slug)
		if err != nil {
			s.logf("scout %s failed: %v", slug, err)
			continue
		}
		s.setLastRun(ctx, slug, s.clock())
		ran++
		s.logf("scouted %s: %d new links", slug, len(st.Saved))
	}
	return ran
}

func (s *Scheduler) lock(ctx context.Context, slug string) bool {
	if s.Rdb == nil {
		return true
	}
	// distributed lock to avoid duplicate runs
	ok, err := s.Rdb.SetNX(ctx, "sched:lock:"+slug, "1", 10*time.Minute).Result()
	if err != nil {
		s.logf("lock %s: %v", slug, err)
		return false
	}
	return ok
}

func (s *Scheduler) unlock(ctx context.Context, slug string) {
	if s.Rdb != nil {
		s.Rdb.Del(ctx, "sched:lock:"+slug)
	}
}

func (s *Scheduler) lastRun(ctx context.Context, slug string) *time.Time {
	if s.Rdb != nil {
		v, err := s.Rdb.Get(ctx, "sched:last:"+slug).Result()
		if err == nil {
			if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
				t := time.Unix(sec, 0)
				return &t
			}
		}
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.last[slug]; ok {
		return &t
	}
	return nil
}

func (s *Scheduler) setLastRun(ctx context.Context, slug string, t time.Time) {
	if s.Rdb != nil {
		s.Rdb.Set(ctx, "sched:last:"+slug, strconv.FormatInt(t.Unix(), 10), 0)
		return
	}
	s.mu.Lock()
	if s.last == nil {
		s.last = make(map[string]time.Time)
	}
	s.last[slug] = t
	s.mu.Unlock()
}

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// isDue determines if a topic with cronSpec should run at now based on last run time.
// Supports "@daily", "@hourly", and standard 5-field cron expressions.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	switch cronSpec {
	case "@daily", "":
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(*last) >= time.Hour
	}
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		// Fallback: treat as @daily if invalid
		return now.Sub(*last) >= 24*time.Hour
	}
	next := expr.Next(*last)
	return !next.IsZero() && !next.After(now)
}
