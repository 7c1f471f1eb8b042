package server

import "github.com/juhapellotsalo/agentic-content-scout/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// TokenRequest is the password exchanged for a bearer token.
type TokenRequest struct {
	Subject  string `json:"subject"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ThreadResponse identifies a conversation thread.
type ThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

// MessageRequest is one user message or the answer to a pending question.
type MessageRequest struct {
	Message string `json:"message"`
}

// TurnResponse is the assistant's answer to one message.
type TurnResponse struct {
	ThreadID  string `json:"thread_id"`
	Response  string `json:"response"`
	Suspended bool   `json:"suspended"`
	Question  string `json:"question,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

// ThreadDetailResponse is the stored view of a thread.
type ThreadDetailResponse struct {
	ThreadID     string           `json:"thread_id"`
	ActiveAgent  string           `json:"active_agent"`
	Pending      string           `json:"pending_question,omitempty"`
	Messages     []models.Message `json:"messages"`
	MessageCount int              `json:"message_count"`
}

// TopicListResponse lists topic slugs.
type TopicListResponse struct {
	Topics []string `json:"topics"`
}

// TopicDetailResponse is a topic with its saved links.
type TopicDetailResponse struct {
	Slug        string        `json:"slug"`
	Preferences string        `json:"preferences"`
	Links       []models.Link `json:"links"`
}

// ScoutRequest starts a direct scouting run.
type ScoutRequest struct {
	Task string `json:"task"`
}

// ScoutResponse reports a direct scouting run.
type ScoutResponse struct {
	Topic   string   `json:"topic"`
	Summary string   `json:"summary"`
	Saved   []string `json:"saved"`
}
