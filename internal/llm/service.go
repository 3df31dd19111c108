package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexgladd/llmsvc/pkg/models"
)

// Service fronts a CompletionProvider with the public model catalog. It
// resolves public model IDs to provider-native ones and caps inference time.
type Service struct {
	provider models.CompletionProvider
	timeout  time.Duration
}

// NewService creates a new Service.
func NewService(provider models.CompletionProvider, timeout time.Duration) *Service {
	return &Service{provider: provider, timeout: timeout}
}

// ProviderName returns the backend identifier.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// ListModels returns the static catalog. Backend metadata is only fetched
// for single-model lookups.
func (s *Service) ListModels() []*models.Model {
	return Catalog()
}

// GetModel returns backend metadata for a single public model ID.
func (s *Service) GetModel(ctx context.Context, id string) (*models.Model, error) {
	a, ok := Resolve(id)
	if !ok {
		return nil, ErrModelNotFound
	}
	m, err := s.provider.GetModel(ctx, a.ProviderModelID)
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", a.ID, err)
	}
	m.ID = a.ID
	return m, nil
}

// Complete runs a single-prompt completion against the resolved model.
func (s *Service) Complete(ctx context.Context, req models.CompletionRequest) (*models.Completion, error) {
	a, ok := Resolve(req.ModelID)
	if !ok {
		return nil, ErrModelNotFound
	}
	req.ModelID = a.ProviderModelID

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.provider.Complete(ctx, req)
	return completion, classifyErr(err)
}

// Chat runs a multi-turn completion against the resolved model.
func (s *Service) Chat(ctx context.Context, req models.ChatRequest) (*models.Completion, error) {
	a, ok := Resolve(req.ModelID)
	if !ok {
		return nil, ErrModelNotFound
	}
	req.ModelID = a.ProviderModelID

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.provider.Chat(ctx, req)
	return completion, classifyErr(err)
}

// classifyErr maps provider failures onto the package sentinels.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrInferenceTimeout
	}
	return err
}
