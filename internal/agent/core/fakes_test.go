package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	searchmodels "github.com/juhapellotsalo/agentic-content-scout/tools/web_search/models"
)

// scriptedProvider answers from per-role queues. The role is "resolve" for
// structured resolution calls and the model name otherwise.
type scriptedProvider struct {
	mu       sync.Mutex
	queues   map[string][]models.ChatResponse
	requests []models.ChatRequest
	fallback func(req models.ChatRequest) (models.ChatResponse, bool)
}

func newScripted() *scriptedProvider {
	return &scriptedProvider{queues: map[string][]models.ChatResponse{}}
}

func (p *scriptedProvider) push(role string, resps ...models.ChatResponse) *scriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues[role] = append(p.queues[role], resps...)
	return p
}

func roleOf(req models.ChatRequest) string {
	if req.ResponseSchema != nil {
		return "resolve"
	}
	return req.Model
}

func (p *scriptedProvider) Chat(_ context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	role := roleOf(req)
	q := p.queues[role]
	if len(q) == 0 {
		if p.fallback != nil {
			if resp, ok := p.fallback(req); ok {
				return resp, nil
			}
		}
		return models.ChatResponse{}, fmt.Errorf("unexpected %s call #%d", role, p.count(role))
	}
	p.queues[role] = q[1:]
	return q[0], nil
}

func (p *scriptedProvider) count(role string) int {
	n := 0
	for _, r := range p.requests {
		if roleOf(r) == role {
			n++
		}
	}
	return n
}

func (p *scriptedProvider) callCount(role string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count(role)
}

func reply(content string) models.ChatResponse {
	return models.ChatResponse{Content: content}
}

func calls(tcs ...models.ToolCall) models.ChatResponse {
	return models.ChatResponse{ToolCalls: tcs}
}

var callSeq int

func call(name string, args map[string]any) models.ToolCall {
	callSeq++
	return models.ToolCall{ID: fmt.Sprintf("call_%d", callSeq), Name: name, Arguments: args}
}

// memCheckpoints round-trips state through JSON like a real store would.
type memCheckpoints struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCheckpoints() *memCheckpoints { return &memCheckpoints{data: map[string][]byte{}} }

func (m *memCheckpoints) Load(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *memCheckpoints) Save(_ context.Context, st *State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[st.ThreadID] = b
	m.mu.Unlock()
	return nil
}

func (m *memCheckpoints) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

// lockingCheckpoints stands in for a store shared between processes.
type lockingCheckpoints struct {
	*memCheckpoints
	lockMu   sync.Mutex
	held     map[string]bool
	unlocks  int
	failWith error
}

func (l *lockingCheckpoints) LockThread(_ context.Context, id string) (bool, error) {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()
	if l.failWith != nil {
		return false, l.failWith
	}
	if l.held[id] {
		return false, nil
	}
	l.held[id] = true
	return true, nil
}

func (l *lockingCheckpoints) UnlockThread(_ context.Context, id string) error {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()
	delete(l.held, id)
	l.unlocks++
	return nil
}

func (l *lockingCheckpoints) unlockOther(id string) {
	l.lockMu.Lock()
	delete(l.held, id)
	l.lockMu.Unlock()
}

func (l *lockingCheckpoints) isHeld(id string) bool {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()
	return l.held[id]
}

type fixedSearcher struct {
	mu      sync.Mutex
	results []searchmodels.Result
	queries []string
}

func (s *fixedSearcher) Discover(_ context.Context, q string, _ int) ([]searchmodels.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.results, nil
}

func newTopics(t *testing.T, seed map[string]string) repository.TopicRepository {
	t.Helper()
	repo, err := repository.NewTopicRepository(context.Background(), repository.RepoTypeFile, t.TempDir())
	if err != nil {
		t.Fatalf("NewTopicRepository: %v", err)
	}
	for slug, prefs := range seed {
		if err := repo.CreateTopic(context.Background(), slug, prefs); err != nil {
			t.Fatalf("seed %s: %v", slug, err)
		}
	}
	return repo
}

var testRouting = config.LLMRoutingConfig{Router: "router", ProfileManager: "pm", Scout: "scout"}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }

func newTestOrchestrator(t *testing.T, p *scriptedProvider, topics repository.TopicRepository, cp Checkpointer, searcher *fixedSearcher) *Orchestrator {
	t.Helper()
	opts := Options{
		Provider:    p,
		Topics:      topics,
		Checkpoints: cp,
		Agents:      config.AgentsConfig{MaxToolRounds: 6, ScoutSearchRounds: 3, MaxDispatches: 6, MaxMessages: 16},
		Routing:     testRouting,
		Now:         fixedNow,
	}
	if searcher != nil {
		opts.Searcher = searcher
	}
	o, err := NewOrchestrator(opts)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}
