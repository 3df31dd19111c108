package llm

import (
	"context"
	"fmt"

	"github.com/alexgladd/llmsvc/internal/config"
	"github.com/alexgladd/llmsvc/internal/llm/bedrock"
	"github.com/alexgladd/llmsvc/internal/llm/mock"
	"github.com/alexgladd/llmsvc/pkg/models"
)

// NewProvider constructs the appropriate completion provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (models.CompletionProvider, error) {
	switch cfg.Provider {
	case "bedrock":
		return bedrock.NewProvider(ctx, cfg.AWSRegion)
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q: must be one of bedrock, mock", cfg.Provider)
	}
}
