package mock

import (
	"context"

	"github.com/alexgladd/llmsvc/pkg/models"
)

// MockProvider satisfies models.CompletionProvider for testing and local
// development.
type MockProvider struct {
	Name_        string
	GetModelFunc func(ctx context.Context, providerModelID string) (*models.Model, error)
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (*models.Completion, error)
	ChatFunc     func(ctx context.Context, req models.ChatRequest) (*models.Completion, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) GetModel(ctx context.Context, providerModelID string) (*models.Model, error) {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(ctx, providerModelID)
	}
	return &models.Model{ID: providerModelID, Name: "Mock Model", Provider: "mock"}, nil
}

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (*models.Completion, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &models.Completion{Generation: "mock completion", StopReason: "stop"}, nil
}

func (m *MockProvider) Chat(ctx context.Context, req models.ChatRequest) (*models.Completion, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &models.Completion{Generation: "mock chat completion", StopReason: "stop"}, nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GetModelFunc: func(_ context.Context, providerModelID string) (*models.Model, error) {
			return &models.Model{
				ID:               providerModelID,
				Name:             "Mock " + providerModelID,
				Provider:         "mock",
				InputModalities:  []string{"TEXT"},
				OutputModalities: []string{"TEXT"},
			}, nil
		},
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (*models.Completion, error) {
			return &models.Completion{
				Generation:   "Mock completion for testing",
				StopReason:   "stop",
				InputTokens:  len(req.Prompt) / 4,
				OutputTokens: 8,
			}, nil
		},
		ChatFunc: func(_ context.Context, req models.ChatRequest) (*models.Completion, error) {
			return &models.Completion{
				Generation:   "Mock chat completion for testing",
				StopReason:   "stop",
				InputTokens:  len(req.Messages) * 16,
				OutputTokens: 8,
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GetModelFunc: func(_ context.Context, _ string) (*models.Model, error) {
			return nil, err
		},
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (*models.Completion, error) {
			return nil, err
		},
		ChatFunc: func(_ context.Context, _ models.ChatRequest) (*models.Completion, error) {
			return nil, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (*models.Completion, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		ChatFunc: func(ctx context.Context, _ models.ChatRequest) (*models.Completion, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements CompletionProvider.
var _ models.CompletionProvider = (*MockProvider)(nil)
