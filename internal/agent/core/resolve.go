package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

const noTopicsQuestion = "No topics found. Please create a topic first using the topic manager."

var resolutionSchema = &models.ResponseSchema{
	Name: "topic_resolution",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"slug":       map[string]any{"type": []string{"string", "null"}, "description": "The resolved topic slug, or null if ambiguous/not found"},
			"confidence": map[string]any{"type": "string", "enum": []string{"high", "low"}, "description": "'high' if certain, 'low' if ambiguous or unsure"},
			"reason":     map[string]any{"type": "string", "description": "Brief explanation of the resolution"},
		},
		"required":             []string{"slug", "confidence", "reason"},
		"additionalProperties": false,
	},
}

// resolveTopic fills st.TopicSlug or returns the question to park on.
func (p *ScoutPipeline) resolveTopic(ctx context.Context, st *ScoutState) (*ScoutCheckpoint, error) {
	available, err := p.Topics.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	if len(available) == 0 {
		return &ScoutCheckpoint{State: *st, Question: noTopicsQuestion}, nil
	}
	hint := st.TopicSlug
	st.TopicSlug = ""
	if contains(available, hint) {
		st.TopicSlug = hint
		return nil, nil
	}

	res, err := p.askResolution(ctx, st.Task, hint, available)
	if err != nil {
		return nil, err
	}
	if res.Slug != nil && contains(available, *res.Slug) {
		if res.Confidence == models.ConfidenceHigh {
			st.TopicSlug = *res.Slug
			return nil, nil
		}
		return &ScoutCheckpoint{
			State:     *st,
			Guess:     *res.Slug,
			Available: available,
			Question:  fmt.Sprintf("Did you mean the '%s' topic? (yes/no, or type a different topic name)", *res.Slug),
		}, nil
	}
	return &ScoutCheckpoint{
		State:     *st,
		Available: available,
		Question:  "Which topic? Available: " + strings.Join(available, ", "),
	}, nil
}

func (p *ScoutPipeline) askResolution(ctx context.Context, task, hint string, available []string) (models.TopicResolution, error) {
	prompt := fmt.Sprintf(resolveTopicPrompt, task, hint, strings.Join(available, ", "))
	resp, err := p.Provider.Chat(ctx, models.ChatRequest{
		Model:          p.Model,
		Messages:       []models.Message{models.HumanMessage(prompt)},
		ResponseSchema: resolutionSchema,
	})
	p.Telemetry.RecordLLMCall(p.Model, err)
	if err != nil {
		return models.TopicResolution{}, fmt.Errorf("topic resolution failed: %w", err)
	}
	res := parseResolution(resp.Content)
	p.Actions.Note("resolve_topic: slug=%v confidence=%s reason=%s", deref(res.Slug), res.Confidence, res.Reason)
	return res, nil
}

// MatchTopicReply maps the user's answer to a slug: yes/y accepts the guess,
// otherwise the first available slug (in order) that equals, contains or is
// contained in the reply. Empty replies never match.
func MatchTopicReply(reply, guess string, available []string) string {
	r := strings.ToLower(strings.TrimSpace(reply))
	if r == "" {
		return ""
	}
	if (r == "yes" || r == "y") && guess != "" {
		return guess
	}
	for _, t := range available {
		if r == t || strings.Contains(t, r) || strings.Contains(r, t) {
			return t
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
