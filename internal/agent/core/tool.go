package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

// Tool is something a model may call during the tool-call loop.
// An error from Call aborts the turn; domain failures belong in the result text.
type Tool interface {
	Schema() models.ToolSchema
	Call(ctx context.Context, args map[string]any) (ToolResult, error)
}

// ToolResult is returned by every tool. A Handoff stops the loop and transfers
// control; a non-empty Question suspends the loop until the user answers.
type ToolResult struct {
	Content  string
	Handoff  *Handoff
	Question string
}

// FuncTool adapts a function to the Tool interface.
type FuncTool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Fn          func(ctx context.Context, args map[string]any) (ToolResult, error)
}

func (f FuncTool) Schema() models.ToolSchema {
	params := f.Parameters
	if params == nil {
		params = objectSchema(nil)
	}
	return models.ToolSchema{Name: f.Name, Description: f.Description, Parameters: params}
}

func (f FuncTool) Call(ctx context.Context, args map[string]any) (ToolResult, error) {
	return f.Fn(ctx, args)
}

func text(s string) ToolResult { return ToolResult{Content: s} }

// objectSchema builds a JSON schema object where every property is required.
func objectSchema(props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             sortedStrings(required),
		"additionalProperties": false,
	}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func stringListProp(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func argStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{v}
		}
	}
	return nil
}

func reflectTool() Tool {
	return FuncTool{
		Name:        "reflect",
		Description: "Pause to reflect on progress and plan next steps. Use this to analyze what you know, identify gaps, and decide what to do next.",
		Parameters:  objectSchema(map[string]any{"thought": stringProp("Your analysis and decision on next steps")}),
		Fn: func(_ context.Context, args map[string]any) (ToolResult, error) {
			return text("Recorded: " + argString(args, "thought")), nil
		},
	}
}
