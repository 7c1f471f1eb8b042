package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/internal/library"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch"
	"github.com/juhapellotsalo/agentic-content-scout/utils"
)

const readLinkLimit = 4000

// topicMessage turns a store error into the short text the model sees.
// Errors that are not about the topic itself are returned unchanged.
func topicMessage(slug string, err error) (string, error) {
	switch {
	case errors.Is(err, models.ErrTopicNotFound):
		return fmt.Sprintf("Topic '%s' not found.", slug), nil
	case errors.Is(err, models.ErrTopicExists):
		return fmt.Sprintf("Topic '%s' already exists.", slug), nil
	case errors.Is(err, models.ErrInvalidTopic):
		return fmt.Sprintf("'%s' exists but has no preferences.md - not a valid topic.", slug), nil
	case errors.Is(err, models.ErrInvalidSlug):
		return fmt.Sprintf("Invalid topic slug '%s'. Use lowercase words joined by hyphens.", slug), nil
	}
	return "", err
}

func topicResult(slug string, err error) (ToolResult, error) {
	msg, err := topicMessage(slug, err)
	return text(msg), err
}

func gatherPreferencesTool() Tool {
	return FuncTool{
		Name: "gather_preferences",
		Description: "Ask the user a question to gather topic preferences: which aspects interest them, " +
			"sources to prefer or avoid, content to prioritize or skip. The conversation pauses until the user responds.",
		Parameters: objectSchema(map[string]any{"question": stringProp("A conversational question to ask the user")}),
		Fn: func(_ context.Context, args map[string]any) (ToolResult, error) {
			q := argString(args, "question")
			if q == "" {
				return text("Error: question must not be empty."), nil
			}
			return ToolResult{Question: q}, nil
		},
	}
}

func listTopicsTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "list_topics",
		Description: "List all tracked topic slugs.",
		Fn: func(ctx context.Context, _ map[string]any) (ToolResult, error) {
			return listTopics(ctx, topics)
		},
	}
}

func listTopics(ctx context.Context, topics repository.TopicRepository) (ToolResult, error) {
	slugs, err := topics.ListTopics(ctx)
	if err != nil {
		return ToolResult{}, err
	}
	return text(FormatTopicList(slugs)), nil
}

// FormatTopicList renders slugs as a markdown list.
func FormatTopicList(slugs []string) string {
	if len(slugs) == 0 {
		return "No topics found."
	}
	var b strings.Builder
	b.WriteString("Topics:")
	for _, s := range slugs {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

func createTopicTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "create_topic",
		Description: "Create a new topic with the provided preferences.md content.",
		Parameters: objectSchema(map[string]any{
			"slug":                stringProp("URL-friendly name for the topic, e.g. 'ai-safety-research'"),
			"preferences_content": stringProp("The full preferences.md content to write"),
		}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			slug := argString(args, "slug")
			if err := topics.CreateTopic(ctx, slug, argString(args, "preferences_content")); err != nil {
				return topicResult(slug, err)
			}
			return text(fmt.Sprintf("Created topic '%s'.", slug)), nil
		},
	}
}

func getTopicTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "get_topic",
		Description: "Get the full state of a topic: preferences and saved links.",
		Parameters:  objectSchema(map[string]any{"slug": stringProp("The topic slug to read")}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			slug := argString(args, "slug")
			t, err := topics.GetTopic(ctx, slug)
			if err != nil {
				return topicResult(slug, err)
			}
			return text(FormatTopic(t)), nil
		},
	}
}

// FormatTopic renders preferences followed by the saved links section.
func FormatTopic(t models.Topic) string {
	var b strings.Builder
	b.WriteString(t.Preferences)
	b.WriteString("\n\n## Saved Links\n")
	if len(t.Links) == 0 {
		b.WriteString("No links saved yet.")
		return b.String()
	}
	for _, l := range t.Links {
		title := l.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", title, l.URL)
	}
	return b.String()
}

func updateTopicTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "update_topic",
		Description: "Update a topic's preferences by rewriting the entire preferences.md. Use get_topic first to read the current content.",
		Parameters: objectSchema(map[string]any{
			"slug":                stringProp("The topic slug to update"),
			"preferences_content": stringProp("The complete new preferences.md content"),
		}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			slug := argString(args, "slug")
			if err := topics.UpdatePreferences(ctx, slug, argString(args, "preferences_content")); err != nil {
				return topicResult(slug, err)
			}
			return text(fmt.Sprintf("Updated preferences for '%s'.", slug)), nil
		},
	}
}

func deleteTopicTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "delete_topic",
		Description: "Delete a topic and all its files.",
		Parameters:  objectSchema(map[string]any{"slug": stringProp("The topic slug to delete")}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			slug := argString(args, "slug")
			if err := topics.DeleteTopic(ctx, slug); err != nil {
				return topicResult(slug, err)
			}
			return text(fmt.Sprintf("Deleted topic '%s'.", slug)), nil
		},
	}
}

func renameTopicTool(topics repository.TopicRepository) Tool {
	return FuncTool{
		Name:        "rename_topic",
		Description: "Rename a topic. The new name is converted to a slug (lowercase, spaces to hyphens).",
		Parameters: objectSchema(map[string]any{
			"old_slug": stringProp("The current topic slug"),
			"new_name": stringProp("The new name for the topic"),
		}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			oldSlug := argString(args, "old_slug")
			newSlug := models.Slugify(argString(args, "new_name"))
			err := topics.RenameTopic(ctx, oldSlug, newSlug)
			switch {
			case err == nil:
				return text(fmt.Sprintf("Renamed '%s' to '%s'.", oldSlug, newSlug)), nil
			case errors.Is(err, models.ErrTopicExists):
				return text(fmt.Sprintf("Cannot rename: '%s' already exists.", newSlug)), nil
			case errors.Is(err, models.ErrInvalidSlug):
				return topicResult(newSlug, err)
			}
			return topicResult(oldSlug, err)
		},
	}
}

func searchSavedLinksTool(lib *library.Library) Tool {
	return FuncTool{
		Name:        "search_saved_links",
		Description: "Full-text search over the links already saved in every topic.",
		Parameters:  objectSchema(map[string]any{"query": stringProp("Words to look for in titles, reasons and URLs")}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			q := argString(args, "query")
			if q == "" {
				return text("Error: query must not be empty."), nil
			}
			hits, err := lib.Search(ctx, q, 10)
			if err != nil {
				return ToolResult{}, err
			}
			if len(hits) == 0 {
				return text(fmt.Sprintf("No saved links match '%s'.", q)), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Found %d saved links:", len(hits))
			for _, h := range hits {
				fmt.Fprintf(&b, "\n- [%s](%s) (topic: %s, saved %s)", h.Title, h.URL, h.Topic, h.Date)
			}
			return text(b.String()), nil
		},
	}
}

// readLinkTool extracts a page's article text so the model can summarize it.
func readLinkTool(f web_fetch.WebFetcher) Tool {
	return FuncTool{
		Name:        "read_link",
		Description: "Fetch a web page and return its readable article text, e.g. to summarize a saved link.",
		Parameters:  objectSchema(map[string]any{"url": stringProp("The page URL")}),
		Fn: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			url := argString(args, "url")
			if url == "" {
				return text("Error: url must not be empty."), nil
			}
			res, err := f.Exec(ctx, url)
			if err != nil {
				return text(fmt.Sprintf("Could not read %s: %v", url, err)), nil
			}
			if strings.TrimSpace(res.Text) == "" {
				return text(fmt.Sprintf("No readable text found at %s.", url)), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Title: %s\n", res.Title)
			if res.SiteName != "" {
				fmt.Fprintf(&b, "Site: %s\n", res.SiteName)
			}
			b.WriteString("\n")
			b.WriteString(utils.Truncate(res.Text, readLinkLimit))
			return text(b.String()), nil
		},
	}
}
