package core

import (
	"context"
	"fmt"
	"sort"
)

// Handoff transfers control of the conversation to another worker.
type Handoff struct {
	To        AgentKind `json:"to"`
	Task      string    `json:"task,omitempty"`
	TopicSlug string    `json:"topic_slug,omitempty"`
	Summary   string    `json:"summary,omitempty"`
}

// allowed reports whether from may hand control to to. The router only hands
// out; specialists only hand back.
func allowed(from, to AgentKind) bool {
	switch from {
	case Router:
		return to == ProfileManager || to == ContentScout
	case ProfileManager, ContentScout:
		return to == Router
	}
	return false
}

// Note is the transfer text recorded as the handoff tool's result.
func (h Handoff) Note(from AgentKind) string {
	switch h.To {
	case ProfileManager:
		return "Transferring to ProfileManager: " + h.Task
	case ContentScout:
		return fmt.Sprintf("Transferring to ContentScout: %s (topic: %s)", h.Task, h.TopicSlug)
	}
	return fmt.Sprintf("%s completed: %s", from.DisplayName(), h.Summary)
}

// Apply moves the state to the target worker. Topic context is set on the way
// out of the router and cleared on the way back.
func (h Handoff) Apply(st *State, from AgentKind) error {
	if !allowed(from, h.To) {
		return fmt.Errorf("%w: %s -> %s", ErrHandoffNotAllowed, from, h.To)
	}
	st.ActiveAgent = h.To
	switch h.To {
	case Router:
		st.TopicContext = nil
	case ProfileManager:
		st.TopicContext = map[string]string{"task": h.Task}
	case ContentScout:
		st.TopicContext = map[string]string{"task": h.Task, "topic_slug": h.TopicSlug}
	}
	return nil
}

func handoffTool(name, description string, props map[string]any, from AgentKind, build func(args map[string]any) Handoff) Tool {
	return FuncTool{
		Name:        name,
		Description: description,
		Parameters:  objectSchema(props),
		Fn: func(_ context.Context, args map[string]any) (ToolResult, error) {
			h := build(args)
			return ToolResult{Content: h.Note(from), Handoff: &h}, nil
		},
	}
}

func handoffToProfileManager() Tool {
	return handoffTool("handoff_to_profile_manager",
		"Hand off to the ProfileManager for topic operations: creating, updating, renaming, deleting, viewing or listing topics and their preferences.",
		map[string]any{"task": stringProp("Description of what the user wants to do with topics")},
		Router,
		func(args map[string]any) Handoff {
			return Handoff{To: ProfileManager, Task: argString(args, "task")}
		})
}

func handoffToContentScout() Tool {
	return handoffTool("handoff_to_content_scout",
		"Hand off to the ContentScout to find and save new content (articles, posts, papers) for a topic.",
		map[string]any{
			"task":       stringProp("What the user wants to find"),
			"topic_slug": stringProp("The topic slug to scout, e.g. 'metroidvania' or 'ai-safety'"),
		},
		Router,
		func(args map[string]any) Handoff {
			return Handoff{To: ContentScout, Task: argString(args, "task"), TopicSlug: argString(args, "topic_slug")}
		})
}

func handoffToRouter(from AgentKind) Tool {
	return handoffTool("handoff_to_router",
		"Hand control back to the router when your task is complete. Include the actual content for read operations.",
		map[string]any{"summary": stringProp("Brief summary of what was accomplished")},
		from,
		func(args map[string]any) Handoff {
			return Handoff{To: Router, Summary: argString(args, "summary")}
		})
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
