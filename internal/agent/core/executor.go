package core

import (
	"context"
	"fmt"
	"log"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/provider"
)

const skippedAfterHandoff = "Skipped: control was transferred to another agent."

// Executor runs the tool-call loop for one worker: ask the model, run the
// requested tools in order, feed the results back, repeat until a plain reply.
type Executor struct {
	Name         string
	Provider     provider.Provider
	Model        string
	SystemPrompt string
	Tools        []Tool
	MaxRounds    int
	MaxMessages  int

	Logger    *log.Logger
	Telemetry *telemetry.Telemetry
	Actions   *telemetry.ActionLog
}

// LoopCheckpoint is a loop parked on a tool that asked the user a question.
// Pending has no tool result yet; Remaining are the calls of the same batch
// that have not run.
type LoopCheckpoint struct {
	Question  string            `json:"question"`
	Pending   models.ToolCall   `json:"pending"`
	Remaining []models.ToolCall `json:"remaining,omitempty"`
	Rounds    int               `json:"rounds"`
}

// LoopResult carries the messages appended during the run and how it ended.
type LoopResult struct {
	Messages []models.Message
	Reply    string
	Handoff  *Handoff
	Suspend  *LoopCheckpoint
	Capped   bool
}

type loopRun struct {
	e      *Executor
	msgs   []models.Message
	added  []models.Message
	rounds int
}

// Run starts a loop over history.
func (e *Executor) Run(ctx context.Context, history []models.Message) (LoopResult, error) {
	r := e.newRun(history)
	return r.loop(ctx)
}

// Resume answers the pending call with answer, runs the rest of its batch and
// continues the loop.
func (e *Executor) Resume(ctx context.Context, history []models.Message, cp LoopCheckpoint, answer string) (LoopResult, error) {
	r := e.newRun(history)
	r.rounds = cp.Rounds
	r.append(models.ToolMessage(cp.Pending.ID, cp.Pending.Name, answer))
	e.Actions.ToolResult(answer)
	res, done, err := r.execBatch(ctx, cp.Remaining)
	if err != nil || done {
		return res, err
	}
	r.rounds++
	if r.rounds >= e.maxRounds() {
		return r.capped(), nil
	}
	return r.loop(ctx)
}

func (e *Executor) newRun(history []models.Message) *loopRun {
	msgs := make([]models.Message, len(history), len(history)+8)
	copy(msgs, history)
	return &loopRun{e: e, msgs: msgs}
}

func (e *Executor) maxRounds() int {
	if e.MaxRounds <= 0 {
		return 12
	}
	return e.MaxRounds
}

func (r *loopRun) append(m models.Message) {
	r.msgs = append(r.msgs, m)
	r.added = append(r.added, m)
}

func (r *loopRun) loop(ctx context.Context) (LoopResult, error) {
	e := r.e
	schemas := make([]models.ToolSchema, 0, len(e.Tools))
	for _, t := range e.Tools {
		schemas = append(schemas, t.Schema())
	}
	for {
		if err := ctx.Err(); err != nil {
			return LoopResult{}, err
		}
		resp, err := e.Provider.Chat(ctx, models.ChatRequest{
			Model:        e.Model,
			SystemPrompt: e.SystemPrompt,
			Messages:     TrimMessages(r.msgs, e.MaxMessages),
			Tools:        schemas,
		})
		e.Telemetry.RecordLLMCall(e.Model, err)
		if err != nil {
			return LoopResult{}, fmt.Errorf("%s: model call failed: %w", e.Name, err)
		}
		r.append(models.Message{Role: models.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		e.Actions.Response(e.Name, resp.Content)

		if len(resp.ToolCalls) == 0 {
			return LoopResult{Messages: r.added, Reply: resp.Content}, nil
		}
		res, done, err := r.execBatch(ctx, resp.ToolCalls)
		if err != nil || done {
			return res, err
		}
		r.rounds++
		if r.rounds >= e.maxRounds() {
			return r.capped(), nil
		}
	}
}

// execBatch runs calls in order. done is true when the loop must stop because
// of a handoff or a question.
func (r *loopRun) execBatch(ctx context.Context, calls []models.ToolCall) (LoopResult, bool, error) {
	e := r.e
	for i, call := range calls {
		e.Actions.ToolCall(call.Name, call.Arguments)
		e.Telemetry.RecordToolCall(call.Name)
		tool := e.lookup(call.Name)
		if tool == nil {
			out := fmt.Sprintf("Error: unknown tool '%s'.", call.Name)
			r.append(models.ToolMessage(call.ID, call.Name, out))
			e.Actions.ToolResult(out)
			continue
		}
		res, err := tool.Call(ctx, call.Arguments)
		if err != nil {
			return LoopResult{}, true, fmt.Errorf("%s: tool %s: %w", e.Name, call.Name, err)
		}
		if res.Question != "" {
			e.Actions.Note("%s asks: %s", e.Name, res.Question)
			cp := &LoopCheckpoint{
				Question:  res.Question,
				Pending:   call,
				Remaining: append([]models.ToolCall(nil), calls[i+1:]...),
				Rounds:    r.rounds,
			}
			return LoopResult{Messages: r.added, Suspend: cp}, true, nil
		}
		r.append(models.ToolMessage(call.ID, call.Name, res.Content))
		e.Actions.ToolResult(res.Content)
		if res.Handoff != nil {
			for _, rest := range calls[i+1:] {
				r.append(models.ToolMessage(rest.ID, rest.Name, skippedAfterHandoff))
			}
			return LoopResult{Messages: r.added, Handoff: res.Handoff}, true, nil
		}
	}
	return LoopResult{}, false, nil
}

// capped ends a loop that hit the round cap with the best answer seen so far.
func (r *loopRun) capped() LoopResult {
	e := r.e
	reply := ""
	for i := len(r.added) - 1; i >= 0; i-- {
		if m := r.added[i]; m.Role == models.RoleAssistant && m.Content != "" {
			reply = m.Content
			break
		}
	}
	if reply == "" {
		reply = fmt.Sprintf("Stopped after %d tool rounds without a final answer.", r.rounds)
	}
	if e.Logger != nil {
		e.Logger.Printf("warn: %s hit the tool round cap (%d)", e.Name, r.rounds)
	}
	e.Telemetry.RecordRoundCap(e.Name)
	r.append(models.AssistantMessage(reply))
	return LoopResult{Messages: r.added, Reply: reply, Capped: true}
}

func (e *Executor) lookup(name string) Tool {
	for _, t := range e.Tools {
		if t.Schema().Name == name {
			return t
		}
	}
	return nil
}
