package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model's request to run one tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is one conversation turn. Assistant messages may carry tool calls;
// tool messages answer exactly one call via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

func HumanMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

// IsFinalReply reports whether m is an assistant answer with no pending tool calls.
func (m Message) IsFinalReply() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) == 0
}

// ToolSchema describes a callable tool with a JSON-schema parameter object.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ResponseSchema asks the model for a reply matching Schema.
type ResponseSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type ChatRequest struct {
	Model          string
	SystemPrompt   string
	Messages       []Message
	Tools          []ToolSchema
	ResponseSchema *ResponseSchema
}

type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}
