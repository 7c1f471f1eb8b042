package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/juhapellotsalo/agentic-content-scout/repository"
	searchmodels "github.com/juhapellotsalo/agentic-content-scout/tools/web_search/models"
)

func newTestPipeline(p *scriptedProvider, topics repository.TopicRepository, s *fixedSearcher) *ScoutPipeline {
	return &ScoutPipeline{
		Provider:   p,
		Model:      "scout",
		Searcher:   s,
		MaxResults: 3,
		Topics:     topics,
		MaxRounds:  3,
		Now:        fixedNow,
	}
}

const recommendedReply = "Two picks:\n```json\n" +
	`{"articles":[` +
	`{"url":"https://example.com/a","title":"Agents in Go","reason":"hands-on"},` +
	`{"url":"https://example.com/a","title":"Agents in Go (again)","reason":"dup"}` +
	`],"summary":"Found one solid guide."}` +
	"\n```"

func TestScoutWithoutTopicsSuspendsAndSearchesNothing(t *testing.T) {
	p := newScripted()
	s := &fixedSearcher{}
	pipe := newTestPipeline(p, newTopics(t, nil), s)

	out, err := pipe.Run(context.Background(), "find stuff", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Suspend == nil || out.Suspend.Question != noTopicsQuestion {
		t.Fatalf("expected no-topics question, got %+v", out)
	}

	out, err = pipe.Resume(context.Background(), *out.Suspend, "ok")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if out.Suspend != nil || out.State.Summary != unresolvedSummary {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(p.requests) != 0 || len(s.queries) != 0 {
		t.Fatalf("nothing should be called: %d model calls, %d searches", len(p.requests), len(s.queries))
	}
}

func TestScoutExactHintSavesAndIsIdempotent(t *testing.T) {
	topics := newTopics(t, map[string]string{"go-agents": "Practical agent code in Go.", "metroidvania": "Indie games."})
	s := &fixedSearcher{results: []searchmodels.Result{{Title: "Agents in Go", URL: "https://example.com/a", Snippet: "guide"}}}
	p := newScripted()
	for i := 0; i < 2; i++ {
		p.push("scout",
			calls(call("search", map[string]any{"queries": []any{"go agents", "agent loops"}})),
			reply(recommendedReply),
		)
	}
	pipe := newTestPipeline(p, topics, s)
	ctx := context.Background()

	out, err := pipe.Run(ctx, "new agent posts", "go-agents")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.callCount("resolve") != 0 {
		t.Fatalf("an exact slug must skip the resolution call")
	}
	if len(out.State.Saved) != 1 || !strings.Contains(out.State.Summary, "Saved to go-agents:") ||
		!strings.HasPrefix(out.State.Summary, "Found one solid guide.") {
		t.Fatalf("unexpected first run %+v", out.State)
	}
	links, err := topics.ReadLinks(ctx, "go-agents")
	if err != nil {
		t.Fatalf("ReadLinks: %v", err)
	}
	if len(links) != 1 || links[0].Date != "2026-10-18" || links[0].Title != "Agents in Go" {
		t.Fatalf("unexpected links %+v", links)
	}
	if len(s.queries) != 2 {
		t.Fatalf("expected 2 queries, got %v", s.queries)
	}

	out, err = pipe.Run(ctx, "new agent posts", "go-agents")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(out.State.Saved) != 0 || !strings.Contains(out.State.Summary, "No new articles to save (duplicates filtered).") {
		t.Fatalf("unexpected second run %+v", out.State)
	}
	if links, _ = topics.ReadLinks(ctx, "go-agents"); len(links) != 1 {
		t.Fatalf("rerun must not duplicate links: %+v", links)
	}
	last := p.requests[len(p.requests)-1]
	if !strings.Contains(last.SystemPrompt, "https://example.com/a") || !strings.Contains(last.SystemPrompt, "Practical agent code in Go.") {
		t.Fatalf("search prompt should carry preferences and saved links: %q", last.SystemPrompt)
	}
}

func TestScoutLowConfidenceAsksAndResumes(t *testing.T) {
	topics := newTopics(t, map[string]string{"ai-safety": "Alignment research.", "metroidvania": "Indie games."})
	p := newScripted().
		push("resolve", reply(`{"slug":"metroidvania","confidence":"low","reason":"games were mentioned"}`)).
		push("scout", reply("Nothing relevant today."))
	pipe := newTestPipeline(p, topics, &fixedSearcher{})

	out, err := pipe.Run(context.Background(), "find platformer news", "games")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Suspend == nil || !strings.HasPrefix(out.Suspend.Question, "Did you mean the 'metroidvania' topic?") {
		t.Fatalf("expected confirmation question, got %+v", out)
	}

	out, err = pipe.Resume(context.Background(), *out.Suspend, "Y")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if out.State.TopicSlug != "metroidvania" || out.State.Summary != "Nothing relevant today." || len(out.State.Saved) != 0 {
		t.Fatalf("unexpected outcome %+v", out.State)
	}
}

func TestScoutUnknownGuessListsTopics(t *testing.T) {
	topics := newTopics(t, map[string]string{"ai-safety": "Alignment research.", "metroidvania": "Indie games."})
	p := newScripted().
		push("resolve", reply(`{"slug":"cooking","confidence":"high","reason":"made up"}`)).
		push("scout", reply(`{"articles":[],"summary":"Quiet week."}`))
	pipe := newTestPipeline(p, topics, &fixedSearcher{})

	out, err := pipe.Run(context.Background(), "anything new?", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Suspend == nil || out.Suspend.Question != "Which topic? Available: ai-safety, metroidvania" {
		t.Fatalf("expected topic list question, got %+v", out)
	}
	out, err = pipe.Resume(context.Background(), *out.Suspend, "the safety one")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if out.State.TopicSlug != "" || out.State.Summary != unresolvedSummary {
		t.Fatalf("a reply naming no slug must stay unresolved: %+v", out.State)
	}
}

func TestScoutHighConfidenceProceeds(t *testing.T) {
	topics := newTopics(t, map[string]string{"ai-safety": "Alignment research."})
	p := newScripted().
		push("resolve", reply(`{"slug":"ai-safety","confidence":"high","reason":"clear"}`)).
		push("scout", reply(`{"articles":[],"summary":"Quiet week."}`))
	pipe := newTestPipeline(p, topics, &fixedSearcher{})

	out, err := pipe.Run(context.Background(), "alignment news", "AI Safety")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Suspend != nil || out.State.TopicSlug != "ai-safety" || out.State.Summary != "Quiet week." {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestScoutSearchWithoutSearcher(t *testing.T) {
	topics := newTopics(t, map[string]string{"ai-safety": "Alignment research."})
	p := newScripted().push("scout",
		calls(call("search", map[string]any{"queries": []any{"alignment"}})),
		reply("Search is unavailable."),
	)
	pipe := newTestPipeline(p, topics, nil)
	pipe.Searcher = nil

	out, err := pipe.Run(context.Background(), "", "ai-safety")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.State.Task != defaultScoutTask {
		t.Fatalf("empty task should default, got %q", out.State.Task)
	}
	second := p.requests[1].Messages
	if got := second[len(second)-1].Content; !strings.Contains(got, "search API key is not configured") {
		t.Fatalf("search tool should report missing key, got %q", got)
	}
}

func TestConcurrentScoutsOnOneTopicKeepBothLinks(t *testing.T) {
	topics := newTopics(t, map[string]string{"go": "Go releases and tooling."})
	ctx := context.Background()
	const runs = 2
	pipes := make([]*ScoutPipeline, runs)
	for i := range pipes {
		p := newScripted().push("scout", reply(fmt.Sprintf(
			"```json\n{\"articles\":[{\"url\":\"https://example.com/%d\",\"title\":\"Post %d\",\"reason\":\"new\"}],\"summary\":\"One pick.\"}\n```", i, i)))
		pipes[i] = newTestPipeline(p, topics, &fixedSearcher{})
	}

	var wg sync.WaitGroup
	outs := make([]ScoutOutcome, runs)
	errs := make([]error, runs)
	for i := range pipes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], errs[i] = pipes[i].Run(ctx, "latest go news", "go")
		}(i)
	}
	wg.Wait()

	for i := range pipes {
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}
		if len(outs[i].State.Saved) != 1 {
			t.Fatalf("run %d should report one saved link, got %+v", i, outs[i].State)
		}
	}
	links, err := topics.ReadLinks(ctx, "go")
	if err != nil {
		t.Fatalf("ReadLinks: %v", err)
	}
	if len(links) != runs {
		t.Fatalf("expected %d links after concurrent runs, got %+v", runs, links)
	}
}
