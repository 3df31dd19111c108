package models

import "context"

// Model describes an LLM available through the gateway.
type Model struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Provider         string   `json:"provider"`
	InputModalities  []string `json:"inputModalities,omitempty"`
	OutputModalities []string `json:"outputModalities,omitempty"`
}

// PromptMessage is one turn of a chat conversation.
type PromptMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// CompletionRequest is the input to a single-prompt completion.
type CompletionRequest struct {
	ModelID     string
	System      string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxGenLen   int
}

// ChatRequest is the input to a multi-turn chat completion.
type ChatRequest struct {
	ModelID     string
	System      string
	Messages    []PromptMessage
	Temperature float64
	TopP        float64
	MaxGenLen   int
}

// Completion is the output of a model invocation.
type Completion struct {
	Generation   string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// CompletionProvider is the interface every model backend implements.
// Implementations must be safe for concurrent use.
type CompletionProvider interface {
	// GetModel fetches backend metadata for a provider-native model ID.
	GetModel(ctx context.Context, providerModelID string) (*Model, error)
	// Complete generates a completion for a single prompt.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// Chat generates a completion for an ordered conversation.
	Chat(ctx context.Context, req ChatRequest) (*Completion, error)
	// Name returns the backend identifier (e.g., "bedrock").
	Name() string
}
