package core

import (
	"context"
	"strings"
	"testing"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

func echoTool(name string) Tool {
	return FuncTool{Name: name, Fn: func(_ context.Context, args map[string]any) (ToolResult, error) {
		return text(name + ":" + argString(args, "v")), nil
	}}
}

func TestExecutorRoundCapWithToolHappyModel(t *testing.T) {
	p := newScripted()
	p.fallback = func(req models.ChatRequest) (models.ChatResponse, bool) {
		return models.ChatResponse{Content: "still thinking", ToolCalls: []models.ToolCall{call("reflect", map[string]any{"thought": "again"})}}, true
	}
	e := &Executor{Name: "test", Provider: p, Model: "m", Tools: []Tool{reflectTool()}, MaxRounds: 4}

	res, err := e.Run(context.Background(), []models.Message{models.HumanMessage("go")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Capped || res.Reply != "still thinking" {
		t.Fatalf("expected capped best-effort reply, got %+v", res)
	}
	if got := p.callCount("m"); got != 4 {
		t.Fatalf("expected 4 model calls, got %d", got)
	}
	last := res.Messages[len(res.Messages)-1]
	if !last.IsFinalReply() {
		t.Fatalf("capped loop must end on a plain reply, got %+v", last)
	}
}

func TestExecutorRoundCapWithoutContent(t *testing.T) {
	p := newScripted()
	p.fallback = func(models.ChatRequest) (models.ChatResponse, bool) {
		return calls(call("reflect", nil)), true
	}
	e := &Executor{Name: "test", Provider: p, Model: "m", Tools: []Tool{reflectTool()}, MaxRounds: 2}
	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Capped || !strings.Contains(res.Reply, "Stopped after 2 tool rounds") {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
}

func TestExecutorPayloadIsTrimmed(t *testing.T) {
	p := newScripted()
	for i := 0; i < 5; i++ {
		p.push("m", calls(call("a", nil), call("b", nil)))
	}
	p.push("m", reply("done"))
	e := &Executor{Name: "test", Provider: p, Model: "m", Tools: []Tool{echoTool("a"), echoTool("b")}, MaxRounds: 10}

	history := make([]models.Message, 12)
	for i := range history {
		history[i] = models.HumanMessage("h")
	}
	res, err := e.Run(context.Background(), history)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reply != "done" {
		t.Fatalf("reply %q", res.Reply)
	}
	for i, req := range p.requests {
		if len(req.Messages) > MaxMessages {
			t.Fatalf("request %d sent %d messages", i, len(req.Messages))
		}
	}
	if len(history)+len(res.Messages) != 12+5*3+1 {
		t.Fatalf("full history should be kept: %d new messages", len(res.Messages))
	}
}

func TestExecutorHandoffSkipsRemainingCalls(t *testing.T) {
	p := newScripted().push("m", calls(
		call("a", map[string]any{"v": "1"}),
		call("handoff_to_router", map[string]any{"summary": "done"}),
		call("b", nil),
	))
	e := &Executor{Name: "test", Provider: p, Model: "m", Tools: []Tool{echoTool("a"), echoTool("b"), handoffToRouter(ProfileManager)}}
	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Handoff == nil || res.Handoff.To != Router {
		t.Fatalf("expected handoff, got %+v", res)
	}
	tools := res.Messages[1:]
	if len(tools) != 3 {
		t.Fatalf("every call must be answered, got %d tool messages", len(tools))
	}
	if tools[0].Content != "a:1" || tools[1].Content != "ProfileManager completed: done" || tools[2].Content != skippedAfterHandoff {
		t.Fatalf("unexpected tool results %+v", tools)
	}
}

func TestExecutorSuspendAndResumeMidBatch(t *testing.T) {
	p := newScripted().push("m",
		calls(
			call("gather_preferences", map[string]any{"question": "Which sources?"}),
			call("a", map[string]any{"v": "after"}),
		),
		reply("thanks"),
	)
	e := &Executor{Name: "test", Provider: p, Model: "m", Tools: []Tool{gatherPreferencesTool(), echoTool("a")}}

	history := []models.Message{models.HumanMessage("new topic")}
	res, err := e.Run(context.Background(), history)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Suspend == nil || res.Suspend.Question != "Which sources?" || len(res.Suspend.Remaining) != 1 {
		t.Fatalf("expected suspension with one remaining call, got %+v", res)
	}
	history = append(history, res.Messages...)

	res, err = e.Resume(context.Background(), history, *res.Suspend, "blogs only")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.Reply != "thanks" {
		t.Fatalf("reply %q", res.Reply)
	}
	if res.Messages[0].Role != models.RoleTool || res.Messages[0].Content != "blogs only" || res.Messages[1].Content != "a:after" {
		t.Fatalf("unexpected resumed messages %+v", res.Messages)
	}
	if got := p.callCount("m"); got != 2 {
		t.Fatalf("expected 2 model calls, got %d", got)
	}
}

func TestExecutorUnknownTool(t *testing.T) {
	p := newScripted().push("m", calls(call("teleport", nil)), reply("ok"))
	e := &Executor{Name: "test", Provider: p, Model: "m"}
	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Messages[1].Content, "unknown tool 'teleport'") || res.Reply != "ok" {
		t.Fatalf("unexpected %+v", res.Messages)
	}
}
