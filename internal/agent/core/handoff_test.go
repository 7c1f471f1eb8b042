package core

import (
	"context"
	"errors"
	"testing"

	fetchmodels "github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/models"
)

func TestHandoffExclusivity(t *testing.T) {
	kinds := []AgentKind{Router, ProfileManager, ContentScout}
	for _, from := range kinds {
		for _, to := range kinds {
			st := &State{ActiveAgent: from, TopicContext: map[string]string{"task": "old"}}
			err := Handoff{To: to, Task: "t", TopicSlug: "s"}.Apply(st, from)
			legal := (from == Router && to != Router) || (from != Router && to == Router)
			if legal && err != nil {
				t.Fatalf("%s -> %s should be allowed: %v", from, to, err)
			}
			if !legal {
				if !errors.Is(err, ErrHandoffNotAllowed) {
					t.Fatalf("%s -> %s should be rejected, got %v", from, to, err)
				}
				if st.ActiveAgent != from || st.TopicContext["task"] != "old" {
					t.Fatalf("rejected handoff mutated state: %+v", st)
				}
			}
		}
	}
}

func TestHandoffContextAndNotes(t *testing.T) {
	st := &State{}
	h := Handoff{To: ContentScout, Task: "find boss guides", TopicSlug: "metroidvania"}
	if err := h.Apply(st, Router); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if st.ActiveAgent != ContentScout || st.TopicContext["topic_slug"] != "metroidvania" || st.TopicContext["task"] != "find boss guides" {
		t.Fatalf("unexpected state %+v", st)
	}
	if got := h.Note(Router); got != "Transferring to ContentScout: find boss guides (topic: metroidvania)" {
		t.Fatalf("note: %q", got)
	}

	back := Handoff{To: Router, Summary: "created topic"}
	if err := back.Apply(st, ContentScout); err != nil {
		t.Fatalf("apply back: %v", err)
	}
	if st.ActiveAgent != Router || st.TopicContext != nil {
		t.Fatalf("context not cleared: %+v", st)
	}
	if got := back.Note(ProfileManager); got != "ProfileManager completed: created topic" {
		t.Fatalf("note: %q", got)
	}
	if got := (Handoff{To: ProfileManager, Task: "list"}).Note(Router); got != "Transferring to ProfileManager: list" {
		t.Fatalf("note: %q", got)
	}
}

func TestHandoffToolsPerWorker(t *testing.T) {
	o := newTestOrchestrator(t, newScripted(), newTopics(t, nil), newMemCheckpoints(), nil)
	names := func(w Worker) map[string]bool {
		out := map[string]bool{}
		for _, tool := range w.(*loopWorker).exec.Tools {
			out[tool.Schema().Name] = true
		}
		return out
	}
	router := names(o.router)
	if !router["handoff_to_profile_manager"] || !router["handoff_to_content_scout"] || router["handoff_to_router"] {
		t.Fatalf("router tools: %v", router)
	}
	pm := names(o.profiles)
	if !pm["handoff_to_router"] || pm["handoff_to_profile_manager"] || pm["handoff_to_content_scout"] {
		t.Fatalf("profile manager tools: %v", pm)
	}
}

func TestAgentKindText(t *testing.T) {
	for _, k := range []AgentKind{Router, ProfileManager, ContentScout} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", k, err)
		}
		var got AgentKind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Fatalf("round trip %v: got %v, %v", k, got, err)
		}
	}
	var k AgentKind
	if err := k.UnmarshalText([]byte("supervisor")); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

type stubFetcher struct{ text string }

func (s stubFetcher) Exec(_ context.Context, url string) (fetchmodels.Result, error) {
	return fetchmodels.Result{URL: url, Title: "Agents in Go", Text: s.text}, nil
}

func TestReadLinkTool(t *testing.T) {
	tool := readLinkTool(stubFetcher{text: "Loops, handoffs and checkpoints."})
	res, err := tool.Call(context.Background(), map[string]any{"url": "https://example.com/a"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Content != "Title: Agents in Go\n\nLoops, handoffs and checkpoints." {
		t.Fatalf("unexpected content %q", res.Content)
	}
	res, _ = readLinkTool(stubFetcher{}).Call(context.Background(), map[string]any{"url": "https://example.com/empty"})
	if res.Content != "No readable text found at https://example.com/empty." {
		t.Fatalf("unexpected empty content %q", res.Content)
	}
}
