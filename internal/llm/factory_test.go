package llm_test

import (
	"context"
	"testing"

	"github.com/alexgladd/llmsvc/internal/config"
	"github.com/alexgladd/llmsvc/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Mock(t *testing.T) {
	cfg := config.LLMConfig{Provider: "mock"}
	p, err := llm.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := config.LLMConfig{Provider: "unknown-provider"}
	_, err := llm.NewProvider(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestNewProvider_Empty(t *testing.T) {
	cfg := config.LLMConfig{Provider: ""}
	_, err := llm.NewProvider(context.Background(), cfg)
	require.Error(t, err)
}
