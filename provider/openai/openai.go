package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juhapellotsalo/agentic-content-scout/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
)

// client implements the provider interface against any OpenAI-compatible
// chat completions endpoint.
type client struct {
	apiKey      string
	baseURL     string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
}

type message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type tool struct {
	Type     string            `json:"type"`
	Function models.ToolSchema `json:"function"`
}

type responseFormat struct {
	Type       string `json:"type"`
	JSONSchema struct {
		Name   string         `json:"name"`
		Schema map[string]any `json:"schema"`
		Strict bool           `json:"strict"`
	} `json:"json_schema"`
}

// request represents a request to the chat completions API
type request struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Tools          []tool          `json:"tools,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

// response represents a response from the chat completions API
type response struct {
	Choices []struct {
		Message struct {
			Content   *string    `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, baseURL string, temperature *float64, maxTokens int, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Chat sends one completion request. A reply with tool calls is returned as
// such; otherwise Content holds the answer.
func (c *client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	body := request{
		Model:       req.Model,
		Messages:    buildMessages(req.SystemPrompt, req.Messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, tool{Type: "function", Function: t})
	}
	if req.ResponseSchema != nil {
		rf := &responseFormat{Type: "json_schema"}
		rf.JSONSchema.Name = req.ResponseSchema.Name
		rf.JSONSchema.Schema = req.ResponseSchema.Schema
		rf.JSONSchema.Strict = true
		body.ResponseFormat = rf
	}

	raw, err := c.sendRequest(ctx, body)
	if err != nil {
		return models.ChatResponse{}, err
	}
	if len(raw.Choices) == 0 {
		return models.ChatResponse{}, fmt.Errorf("no choices in response")
	}
	choice := raw.Choices[0].Message
	var out models.ChatResponse
	if choice.Content != nil {
		out.Content = *choice.Content
	}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, parseToolCall(tc))
	}
	return out, nil
}

func buildMessages(system string, msgs []models.Message) []message {
	out := make([]message, 0, len(msgs)+1)
	if system != "" {
		out = append(out, message{Role: string(models.RoleSystem), Content: system})
	}
	open := map[string]bool{}
	for _, m := range msgs {
		// A trimmed history can start with results whose call was cut off;
		// the API rejects those.
		if m.Role == models.RoleTool && !open[m.ToolCallID] {
			continue
		}
		wm := message{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		if m.Role == models.RoleTool {
			wm.Name = m.Name
		}
		for _, tc := range m.ToolCalls {
			var w toolCall
			w.ID = tc.ID
			w.Type = "function"
			w.Function.Name = tc.Name
			args, err := json.Marshal(tc.Arguments)
			if err != nil || tc.Arguments == nil {
				args = []byte("{}")
			}
			w.Function.Arguments = string(args)
			wm.ToolCalls = append(wm.ToolCalls, w)
			open[tc.ID] = true
		}
		out = append(out, wm)
	}
	return out
}

func parseToolCall(tc toolCall) models.ToolCall {
	id := tc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := map[string]any{}
	if s := strings.TrimSpace(tc.Function.Arguments); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			args = map[string]any{"_raw": s}
		}
	}
	return models.ToolCall{ID: id, Name: tc.Function.Name, Arguments: args}
}

// sendRequest sends a request to the chat completions API
func (c *client) sendRequest(ctx context.Context, body request) (response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return response{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}
