package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

func TestChatToolCalls(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"search","arguments":"{\"queries\":[\"a\",\"b\"]}"}},
			{"id":"","type":"function","function":{"name":"reflect","arguments":"not json"}}
		]}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL+"/v1/", nil, 0, time.Second)
	resp, err := c.Chat(context.Background(), models.ChatRequest{
		Model:        "mini",
		SystemPrompt: "sys",
		Messages: []models.Message{
			models.HumanMessage("hi"),
			{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "c0", Name: "list_topics"}}},
			models.ToolMessage("c0", "list_topics", "No topics found."),
		},
		Tools: []models.ToolSchema{{Name: "search", Parameters: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(got.Messages) != 4 || got.Messages[0].Role != "system" || got.Messages[2].ToolCalls[0].Function.Arguments != "{}" {
		t.Fatalf("unexpected wire messages %+v", got.Messages)
	}
	if got.Messages[3].ToolCallID != "c0" || len(got.Tools) != 1 || got.Tools[0].Type != "function" {
		t.Fatalf("unexpected wire request %+v", got)
	}
	if got.Temperature != nil {
		t.Fatalf("temperature should be omitted when unset")
	}

	if resp.Content != "" || len(resp.ToolCalls) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	qs, ok := resp.ToolCalls[0].Arguments["queries"].([]any)
	if !ok || len(qs) != 2 {
		t.Fatalf("arguments not decoded: %+v", resp.ToolCalls[0].Arguments)
	}
	if !strings.HasPrefix(resp.ToolCalls[1].ID, "call_") || resp.ToolCalls[1].Arguments["_raw"] != "not json" {
		t.Fatalf("malformed call not preserved: %+v", resp.ToolCalls[1])
	}
}

func TestChatResponseSchemaAndErrors(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.Model == "broken" {
			http.Error(w, `{"error":"bad model"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"slug\":\"go\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL, nil, 0, time.Second)
	resp, err := c.Chat(context.Background(), models.ChatRequest{
		Model:          "mini",
		Messages:       []models.Message{models.HumanMessage("which?")},
		ResponseSchema: &models.ResponseSchema{Name: "topic_resolution", Schema: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" || got.ResponseFormat.JSONSchema.Name != "topic_resolution" {
		t.Fatalf("response_format not sent: %+v", got.ResponseFormat)
	}
	if resp.Content != `{"slug":"go"}` {
		t.Fatalf("unexpected content %q", resp.Content)
	}

	_, err = c.Chat(context.Background(), models.ChatRequest{Model: "broken"})
	if err == nil || !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("expected status error with body excerpt, got %v", err)
	}
}

func TestBuildMessagesDropsOrphanToolResults(t *testing.T) {
	msgs := buildMessages("", []models.Message{
		models.ToolMessage("gone", "search", "old result"),
		models.AssistantMessage("earlier answer"),
		models.HumanMessage("next"),
	})
	if len(msgs) != 2 || msgs[0].Role != "assistant" {
		t.Fatalf("orphan tool result should be skipped: %+v", msgs)
	}
}
