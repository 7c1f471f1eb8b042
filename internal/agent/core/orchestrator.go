package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juhapellotsalo/agentic-content-scout/config"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/internal/library"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/provider"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const noResponse = "No response generated."

var orchestratorTracer trace.Tracer = otel.Tracer("agentic-content-scout/internal/agent/orchestrator")

// Options wires the orchestrator's collaborators.
type Options struct {
	Provider    provider.Provider
	Searcher    web_search.WebSearcher // nil makes the search tool report a configuration error
	Fetcher     web_fetch.WebFetcher   // nil leaves read_link out of the profile manager's tools
	Topics      repository.TopicRepository
	Checkpoints Checkpointer
	Agents      config.AgentsConfig
	Routing     config.LLMRoutingConfig
	MaxResults  int
	Now         func() time.Time

	Logger    *log.Logger
	Telemetry *telemetry.Telemetry
	Actions   *telemetry.ActionLog
}

// Orchestrator owns per-thread conversation state and dispatches each turn to
// the active worker until a plain reply or a suspension.
type Orchestrator struct {
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
	actions     *telemetry.ActionLog
	checkpoints Checkpointer

	router   Worker
	profiles Worker
	scout    Worker
	pipeline *ScoutPipeline

	maxDispatches int

	mu     sync.Mutex
	active map[string]struct{}
}

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Provider == nil {
		return nil, errors.New("provider is required")
	}
	if opts.Topics == nil {
		return nil, errors.New("topic repository is required")
	}
	if opts.Checkpoints == nil {
		return nil, errors.New("checkpointer is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	maxDispatches := opts.Agents.MaxDispatches
	if maxDispatches <= 0 {
		maxDispatches = 8
	}

	lib := library.New(opts.Topics)
	profileTools := []Tool{
		reflectTool(),
		gatherPreferencesTool(),
		listTopicsTool(opts.Topics),
		createTopicTool(opts.Topics),
		getTopicTool(opts.Topics),
		updateTopicTool(opts.Topics),
		deleteTopicTool(opts.Topics),
		renameTopicTool(opts.Topics),
		searchSavedLinksTool(lib),
	}
	if opts.Fetcher != nil {
		profileTools = append(profileTools, readLinkTool(opts.Fetcher))
	}
	profileTools = append(profileTools, handoffToRouter(ProfileManager))
	newExec := func(kind AgentKind, model, prompt string, tools ...Tool) *Executor {
		return &Executor{
			Name:         kind.String(),
			Provider:     opts.Provider,
			Model:        model,
			SystemPrompt: prompt,
			Tools:        tools,
			MaxRounds:    opts.Agents.MaxToolRounds,
			MaxMessages:  opts.Agents.MaxMessages,
			Logger:       opts.Logger,
			Telemetry:    opts.Telemetry,
			Actions:      opts.Actions,
		}
	}

	pipeline := &ScoutPipeline{
		Provider:    opts.Provider,
		Model:       opts.Routing.Scout,
		Searcher:    opts.Searcher,
		MaxResults:  opts.MaxResults,
		Topics:      opts.Topics,
		MaxRounds:   opts.Agents.ScoutSearchRounds,
		MaxMessages: opts.Agents.MaxMessages,
		Now:         opts.Now,
		Logger:      opts.Logger,
		Telemetry:   opts.Telemetry,
		Actions:     opts.Actions,
	}

	o := &Orchestrator{
		logger:      opts.Logger,
		telemetry:   opts.Telemetry,
		actions:     opts.Actions,
		checkpoints: opts.Checkpoints,
		router: &loopWorker{
			kind: Router,
			exec: newExec(Router, opts.Routing.Router, routerPrompt,
				reflectTool(), handoffToProfileManager(), handoffToContentScout()),
			logger:    opts.Logger,
			telemetry: opts.Telemetry,
		},
		profiles: &loopWorker{
			kind:      ProfileManager,
			exec:      newExec(ProfileManager, opts.Routing.ProfileManager, profileManagerPrompt, profileTools...),
			logger:    opts.Logger,
			telemetry: opts.Telemetry,
		},
		scout:         &scoutWorker{pipeline: pipeline, telemetry: opts.Telemetry},
		pipeline:      pipeline,
		maxDispatches: maxDispatches,
		active:        make(map[string]struct{}),
	}
	return o, nil
}

// NewThreadID mints an identifier for a new conversation.
func NewThreadID() string { return uuid.NewString() }

// worker is the single dispatch point over the closed set of agents.
func (o *Orchestrator) worker(kind AgentKind) (Worker, error) {
	switch kind {
	case Router:
		return o.router, nil
	case ProfileManager:
		return o.profiles, nil
	case ContentScout:
		return o.scout, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownAgent, int(kind))
}

// Chat runs one turn on threadID. If the thread is parked on a question, text
// is the answer; otherwise it is a new user message.
func (o *Orchestrator) Chat(ctx context.Context, threadID, text string) (TurnResult, error) {
	start := time.Now()
	if threadID == "" {
		threadID = NewThreadID()
	}
	ctx, span := orchestratorTracer.Start(ctx, "agent.turn", trace.WithAttributes(attribute.String("thread.id", threadID)))
	result, err := o.chat(ctx, threadID, text)
	endSpan(span, err)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		o.logger.Printf("turn failed on thread %s: %v", threadID, err)
	case result.Suspension != nil:
		outcome = "suspended"
	}
	o.telemetry.RecordTurn(outcome, time.Since(start))
	return result, err
}

func (o *Orchestrator) chat(ctx context.Context, threadID, text string) (TurnResult, error) {
	ok, err := o.acquire(ctx, threadID)
	if err != nil {
		return TurnResult{}, err
	}
	if !ok {
		return TurnResult{}, ErrTurnInProgress
	}
	defer o.release(ctx, threadID)

	st, err := o.checkpoints.Load(ctx, threadID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("failed to load thread: %w", err)
	}
	if st == nil {
		st = &State{ThreadID: threadID}
	}
	turnStart := len(st.Messages)

	var rp *ResumePoint
	if st.Pending != nil {
		pending := *st.Pending
		st.Pending = nil
		o.actions.Note("resume %s/%s with %q", pending.Agent, pending.Stage, text)
		rp, err = o.resume(ctx, st, pending, text)
	} else {
		st.Messages = append(st.Messages, models.HumanMessage(text))
	}
	if err == nil && rp == nil {
		rp, err = o.dispatch(ctx, st)
	}
	if err != nil {
		return TurnResult{}, err
	}

	st.Pending = rp
	st.UpdatedAt = time.Now()
	if err := o.checkpoints.Save(ctx, st); err != nil {
		return TurnResult{}, fmt.Errorf("failed to save thread: %w", err)
	}

	if rp != nil {
		o.telemetry.RecordSuspension(rp.Agent.String(), rp.Stage)
		return TurnResult{
			ThreadID:   threadID,
			Response:   rp.Question,
			Suspension: &Suspension{Question: rp.Question, Agent: rp.Agent, Stage: rp.Stage},
		}, nil
	}
	response := lastAssistantContent(st.Messages[min(turnStart, len(st.Messages)):])
	if response == "" {
		response = noResponse
	}
	return TurnResult{ThreadID: threadID, Response: response}, nil
}

func (o *Orchestrator) resume(ctx context.Context, st *State, rp ResumePoint, answer string) (*ResumePoint, error) {
	w, err := o.worker(rp.Agent)
	if err != nil {
		return nil, err
	}
	ctx, span := orchestratorTracer.Start(ctx, "agent.resume", trace.WithAttributes(
		attribute.String("agent", rp.Agent.String()),
		attribute.String("stage", rp.Stage),
	))
	next, err := w.Resume(ctx, st, rp, answer)
	endSpan(span, err)
	return next, err
}

// dispatch keeps running the active worker while the conversation has not
// ended on a plain assistant reply.
func (o *Orchestrator) dispatch(ctx context.Context, st *State) (*ResumePoint, error) {
	for i := 0; shouldContinue(st); i++ {
		if i >= o.maxDispatches {
			return nil, fmt.Errorf("%w (%d)", ErrDispatchLimit, o.maxDispatches)
		}
		w, err := o.worker(st.ActiveAgent)
		if err != nil {
			return nil, err
		}
		o.telemetry.RecordDispatch(w.Kind().String())
		dctx, span := orchestratorTracer.Start(ctx, "agent.dispatch", trace.WithAttributes(attribute.String("agent", w.Kind().String())))
		rp, err := w.Run(dctx, st)
		endSpan(span, err)
		if err != nil {
			return nil, err
		}
		if rp != nil {
			return rp, nil
		}
	}
	return nil, nil
}

func shouldContinue(st *State) bool {
	if len(st.Messages) == 0 {
		return false
	}
	return !st.Messages[len(st.Messages)-1].IsFinalReply()
}

// ScoutTopic runs the pipeline outside any conversation, for the CLI and the
// scheduler. A run that would need to ask the user fails with ErrNeedsInput.
func (o *Orchestrator) ScoutTopic(ctx context.Context, slug, task string) (ScoutState, error) {
	ctx, span := orchestratorTracer.Start(ctx, "agent.scout_topic", trace.WithAttributes(attribute.String("topic.slug", slug)))
	out, err := o.pipeline.Run(ctx, task, slug)
	if err == nil && out.Suspend != nil {
		err = fmt.Errorf("%w: %s", ErrNeedsInput, out.Suspend.Question)
	}
	endSpan(span, err)
	if err != nil {
		return ScoutState{}, err
	}
	return out.State, nil
}

// DeleteThread forgets a thread. It fails with ErrTurnInProgress while a turn
// is running on it.
func (o *Orchestrator) DeleteThread(ctx context.Context, threadID string) error {
	d, ok := o.checkpoints.(interface {
		Delete(ctx context.Context, threadID string) error
	})
	if !ok {
		return errors.New("checkpointer does not support deleting threads")
	}
	locked, err := o.acquire(ctx, threadID)
	if err != nil {
		return err
	}
	if !locked {
		return ErrTurnInProgress
	}
	defer o.release(ctx, threadID)
	return d.Delete(ctx, threadID)
}

// Thread returns the stored state of a thread, or nil.
func (o *Orchestrator) Thread(ctx context.Context, threadID string) (*State, error) {
	return o.checkpoints.Load(ctx, threadID)
}

// acquire takes the in-process lock and, when the checkpointer is shared
// between processes, its thread lock as well.
func (o *Orchestrator) acquire(ctx context.Context, threadID string) (bool, error) {
	o.mu.Lock()
	if _, busy := o.active[threadID]; busy {
		o.mu.Unlock()
		return false, nil
	}
	o.active[threadID] = struct{}{}
	o.mu.Unlock()

	locker, ok := o.checkpoints.(ThreadLocker)
	if !ok {
		return true, nil
	}
	locked, err := locker.LockThread(ctx, threadID)
	if err != nil || !locked {
		o.forget(threadID)
		if err != nil {
			return false, fmt.Errorf("failed to lock thread: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (o *Orchestrator) release(ctx context.Context, threadID string) {
	if locker, ok := o.checkpoints.(ThreadLocker); ok {
		if err := locker.UnlockThread(context.WithoutCancel(ctx), threadID); err != nil {
			o.logger.Printf("failed to unlock thread %s: %v", threadID, err)
		}
	}
	o.forget(threadID)
}

func (o *Orchestrator) forget(threadID string) {
	o.mu.Lock()
	delete(o.active, threadID)
	o.mu.Unlock()
}
