package provider

import (
	"context"
	"errors"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/models"
	openai_provider "github.com/juhapellotsalo/agentic-content-scout/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Options carries the connection settings shared by every client.
type Options struct {
	APIKey      string
	BaseURL     string
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenAI, "":
		if opts.APIKey == "" {
			return nil, errors.New("llm api key not set")
		}
		return openai_provider.NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Temperature, opts.MaxTokens, opts.Timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
