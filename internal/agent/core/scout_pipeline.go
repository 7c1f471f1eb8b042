package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/provider"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultScoutTask     = "Find relevant content"
	unresolvedSummary    = "Could not determine which topic to scout, so nothing was searched."
	noPreferences        = "No preferences found."
	nothingToSaveSummary = "No articles found to save."
)

// ScoutState is local to one pipeline run.
type ScoutState struct {
	Task        string           `json:"task"`
	TopicSlug   string           `json:"topic_slug"`
	Preferences string           `json:"preferences,omitempty"`
	SavedURLs   []string         `json:"saved_urls,omitempty"`
	Recommended []models.Article `json:"recommended,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Saved       []string         `json:"saved,omitempty"`
}

// ScoutCheckpoint is a pipeline parked inside topic resolution.
type ScoutCheckpoint struct {
	State     ScoutState `json:"state"`
	Guess     string     `json:"guess,omitempty"`
	Available []string   `json:"available,omitempty"`
	Question  string     `json:"question"`
}

// ScoutOutcome is either a finished state or a suspension.
type ScoutOutcome struct {
	State   ScoutState
	Suspend *ScoutCheckpoint
}

// ScoutPipeline runs resolve_topic, load_context, search_evaluate and
// save_articles in that order. Only resolve_topic may suspend.
type ScoutPipeline struct {
	Provider    provider.Provider
	Model       string
	Searcher    web_search.WebSearcher
	MaxResults  int
	Topics      repository.TopicRepository
	MaxRounds   int
	MaxMessages int
	Now         func() time.Time

	Logger    *log.Logger
	Telemetry *telemetry.Telemetry
	Actions   *telemetry.ActionLog
}

type scoutStage struct {
	name string
	run  func(ctx context.Context, st *ScoutState) error
}

func (p *ScoutPipeline) stages() []scoutStage {
	return []scoutStage{
		{"load_context", p.loadContext},
		{"search_evaluate", p.searchEvaluate},
		{"save_articles", p.saveArticles},
	}
}

// Run starts a fresh pipeline. hint is the slug suggested by the caller.
func (p *ScoutPipeline) Run(ctx context.Context, task, hint string) (ScoutOutcome, error) {
	if strings.TrimSpace(task) == "" {
		task = defaultScoutTask
	}
	st := ScoutState{Task: task, TopicSlug: strings.TrimSpace(hint)}
	ctx, span := orchestratorTracer.Start(ctx, "scout."+StageResolveTopic)
	cp, err := p.resolveTopic(ctx, &st)
	endSpan(span, err)
	if err != nil {
		return ScoutOutcome{}, err
	}
	if cp != nil {
		p.logf("resolve_topic suspended: %s", cp.Question)
		return ScoutOutcome{State: st, Suspend: cp}, nil
	}
	return p.finish(ctx, st)
}

// Resume continues after the user answered the resolution question.
func (p *ScoutPipeline) Resume(ctx context.Context, cp ScoutCheckpoint, answer string) (ScoutOutcome, error) {
	st := cp.State
	st.TopicSlug = ""
	if len(cp.Available) > 0 {
		st.TopicSlug = MatchTopicReply(answer, cp.Guess, cp.Available)
	}
	p.Actions.Note("resolve_topic answer %q -> %q", answer, st.TopicSlug)
	return p.finish(ctx, st)
}

func (p *ScoutPipeline) finish(ctx context.Context, st ScoutState) (ScoutOutcome, error) {
	if st.TopicSlug == "" {
		st.Summary = unresolvedSummary
		return ScoutOutcome{State: st}, nil
	}
	for _, stage := range p.stages() {
		sctx, span := orchestratorTracer.Start(ctx, "scout."+stage.name,
			trace.WithAttributes(attribute.String("topic.slug", st.TopicSlug)))
		err := stage.run(sctx, &st)
		endSpan(span, err)
		if err != nil {
			return ScoutOutcome{}, fmt.Errorf("%s: %w", stage.name, err)
		}
	}
	return ScoutOutcome{State: st}, nil
}

func (p *ScoutPipeline) loadContext(ctx context.Context, st *ScoutState) error {
	prefs, err := p.Topics.ReadPreferences(ctx, st.TopicSlug)
	switch {
	case errors.Is(err, models.ErrTopicNotFound):
		prefs = noPreferences
	case err != nil:
		return err
	}
	links, err := p.Topics.ReadLinks(ctx, st.TopicSlug)
	if err != nil {
		return err
	}
	st.Preferences = prefs
	st.SavedURLs = st.SavedURLs[:0]
	for _, l := range links {
		st.SavedURLs = append(st.SavedURLs, l.URL)
	}
	return nil
}

func (p *ScoutPipeline) searchEvaluate(ctx context.Context, st *ScoutState) error {
	saved := "(none)"
	if len(st.SavedURLs) > 0 {
		lines := make([]string, len(st.SavedURLs))
		for i, u := range st.SavedURLs {
			lines[i] = "- " + u
		}
		saved = strings.Join(lines, "\n")
	}
	exec := &Executor{
		Name:         "content_scout.search",
		Provider:     p.Provider,
		Model:        p.Model,
		SystemPrompt: fmt.Sprintf(searchEvaluatePrompt, st.Preferences, saved, st.Task),
		Tools:        []Tool{p.searchTool()},
		MaxRounds:    p.MaxRounds,
		MaxMessages:  p.MaxMessages,
		Logger:       p.Logger,
		Telemetry:    p.Telemetry,
		Actions:      p.Actions,
	}
	res, err := exec.Run(ctx, []models.Message{models.HumanMessage(st.Task)})
	if err != nil {
		return err
	}
	st.Recommended, st.Summary = ParseRecommendations(lastAssistantContent(res.Messages))
	return nil
}

func (p *ScoutPipeline) searchTool() Tool {
	return FuncTool{
		Name: "search",
		Description: "Search the web for content related to a topic: articles, blog posts, papers. " +
			"Provide multiple diverse queries to cast a wide net.",
		Parameters: objectSchema(map[string]any{
			"queries": stringListProp("List of search queries, e.g. [\"LangGraph agents tutorial\", \"multi-agent patterns\"]"),
		}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			queries := argStrings(args, "queries")
			if len(queries) == 0 {
				return text("Error: queries must be a non-empty list of strings."), nil
			}
			return text(web_search.SearchAll(ctx, p.Searcher, queries, p.MaxResults)), nil
		},
	}
}

func (p *ScoutPipeline) saveArticles(ctx context.Context, st *ScoutState) error {
	if len(st.Recommended) == 0 {
		if st.Summary == "" {
			st.Summary = nothingToSaveSummary
		}
		return nil
	}
	today := p.now().Format("2006-01-02")
	candidates := make([]models.Link, 0, len(st.Recommended))
	for _, a := range st.Recommended {
		title := a.Title
		if title == "" {
			title = "Untitled"
		}
		candidates = append(candidates, models.Link{Title: title, URL: a.URL, Reason: a.Reason, Date: today})
	}
	saved, err := p.Topics.AppendLinks(ctx, st.TopicSlug, candidates)
	if err != nil {
		return err
	}
	st.Saved = saved
	if len(st.Saved) == 0 {
		st.Summary += "\n\nNo new articles to save (duplicates filtered)."
		return nil
	}
	p.Telemetry.RecordSaved(len(st.Saved))
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nSaved to %s:", st.Summary, st.TopicSlug)
	for _, u := range st.Saved {
		b.WriteString("\n  → ")
		b.WriteString(u)
	}
	st.Summary = b.String()
	return nil
}

func (p *ScoutPipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *ScoutPipeline) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}
	span.End()
}
