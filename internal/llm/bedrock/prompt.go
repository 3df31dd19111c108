package bedrock

import (
	"strings"

	"github.com/alexgladd/llmsvc/pkg/models"
)

// BuildLlamaPrompt renders a system prompt and conversation into the llama3
// instruct format. The trailing assistant header cues the model to generate
// the next assistant turn.
func BuildLlamaPrompt(system string, messages []models.PromptMessage) string {
	var b strings.Builder
	b.WriteString("<|begin_of_text|>")
	if system != "" {
		writeTurn(&b, "system", system)
	}
	for _, m := range messages {
		writeTurn(&b, m.Role, m.Message)
	}
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return b.String()
}

func writeTurn(b *strings.Builder, role, content string) {
	b.WriteString("<|start_header_id|>")
	b.WriteString(role)
	b.WriteString("<|end_header_id|>\n\n")
	b.WriteString(content)
	b.WriteString("<|eot_id|>")
}
