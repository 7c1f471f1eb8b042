package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

var (
	ErrTurnInProgress    = errors.New("a turn is already running on this thread")
	ErrDispatchLimit     = errors.New("dispatch limit reached without a final reply")
	ErrHandoffNotAllowed = errors.New("handoff not allowed from this agent")
	ErrUnknownAgent      = errors.New("unknown agent")
	ErrNeedsInput        = errors.New("scout needs user input")
)

// AgentKind is the closed set of workers the orchestrator can dispatch to.
// The zero value is Router.
type AgentKind int

const (
	Router AgentKind = iota
	ProfileManager
	ContentScout
)

func (k AgentKind) String() string {
	switch k {
	case Router:
		return "router"
	case ProfileManager:
		return "profile_manager"
	case ContentScout:
		return "content_scout"
	}
	return fmt.Sprintf("agent(%d)", int(k))
}

// DisplayName is used in transfer notes.
func (k AgentKind) DisplayName() string {
	switch k {
	case Router:
		return "Router"
	case ProfileManager:
		return "ProfileManager"
	case ContentScout:
		return "ContentScout"
	}
	return k.String()
}

func (k AgentKind) MarshalText() ([]byte, error) {
	switch k {
	case Router, ProfileManager, ContentScout:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownAgent, int(k))
}

func (k *AgentKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "router", "":
		*k = Router
	case "profile_manager":
		*k = ProfileManager
	case "content_scout":
		*k = ContentScout
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAgent, string(b))
	}
	return nil
}

const (
	StageToolLoop     = "tool_loop"
	StageResolveTopic = "resolve_topic"
)

// State is everything the orchestrator persists per thread between turns.
type State struct {
	ThreadID     string            `json:"thread_id"`
	Messages     []models.Message  `json:"messages"`
	ActiveAgent  AgentKind         `json:"active_agent"`
	TopicContext map[string]string `json:"topic_context,omitempty"`
	Pending      *ResumePoint      `json:"pending,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ResumePoint records where a suspended turn stopped. Exactly one of Loop
// and Scout is set.
type ResumePoint struct {
	Agent    AgentKind        `json:"agent"`
	Stage    string           `json:"stage"`
	Question string           `json:"question"`
	Loop     *LoopCheckpoint  `json:"loop,omitempty"`
	Scout    *ScoutCheckpoint `json:"scout,omitempty"`
}

// Suspension is what the caller sees when a turn stops on a question.
type Suspension struct {
	Question string    `json:"question"`
	Agent    AgentKind `json:"agent"`
	Stage    string    `json:"stage"`
}

// TurnResult is the outcome of one inbound message.
type TurnResult struct {
	ThreadID   string      `json:"thread_id"`
	Response   string      `json:"response"`
	Suspension *Suspension `json:"suspension,omitempty"`
}

// Checkpointer persists thread state. Load returns nil, nil for unknown threads.
type Checkpointer interface {
	Load(ctx context.Context, threadID string) (*State, error)
	Save(ctx context.Context, st *State) error
}

// ThreadLocker is implemented by checkpointers shared between processes.
// LockThread reports false when another holder owns the thread.
type ThreadLocker interface {
	LockThread(ctx context.Context, threadID string) (bool, error)
	UnlockThread(ctx context.Context, threadID string) error
}

// Worker is one dispatchable agent. Workers mutate the state they are given
// and return a non-nil ResumePoint when they suspend.
type Worker interface {
	Kind() AgentKind
	Run(ctx context.Context, st *State) (*ResumePoint, error)
	Resume(ctx context.Context, st *State, rp ResumePoint, answer string) (*ResumePoint, error)
}
