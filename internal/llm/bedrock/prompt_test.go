package bedrock_test

import (
	"testing"

	"github.com/alexgladd/llmsvc/internal/llm/bedrock"
	"github.com/alexgladd/llmsvc/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildLlamaPrompt_SingleTurn(t *testing.T) {
	got := bedrock.BuildLlamaPrompt("", []models.PromptMessage{
		{Role: "user", Message: "Hello there"},
	})

	want := "<|begin_of_text|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHello there<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)
}

func TestBuildLlamaPrompt_WithSystem(t *testing.T) {
	got := bedrock.BuildLlamaPrompt("You are terse.", []models.PromptMessage{
		{Role: "user", Message: "Hi"},
	})

	want := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nYou are terse.<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)
}

func TestBuildLlamaPrompt_MultiTurn(t *testing.T) {
	got := bedrock.BuildLlamaPrompt("", []models.PromptMessage{
		{Role: "user", Message: "Hi"},
		{Role: "assistant", Message: "Hello!"},
		{Role: "user", Message: "How are you?"},
	})

	want := "<|begin_of_text|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\nHello!<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHow are you?<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)
}

func TestBuildLlamaPrompt_EmptyConversation(t *testing.T) {
	got := bedrock.BuildLlamaPrompt("", nil)

	want := "<|begin_of_text|><|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)
}
