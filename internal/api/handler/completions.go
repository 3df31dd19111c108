package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/llm"
	"github.com/alexgladd/llmsvc/pkg/models"
)

// completionResponse is the wire shape shared by both inference endpoints.
type completionResponse struct {
	Model      string `json:"model"`
	Generation string `json:"generation"`
	StopReason string `json:"stopReason"`
	Usage      struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"usage"`
}

func newCompletionResponse(modelID string, c *models.Completion) completionResponse {
	resp := completionResponse{
		Model:      modelID,
		Generation: c.Generation,
		StopReason: c.StopReason,
	}
	resp.Usage.InputTokens = c.InputTokens
	resp.Usage.OutputTokens = c.OutputTokens
	return resp
}

// NewCompletionHandler returns the handler for POST /completions.
func NewCompletionHandler(svc *llm.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model       string  `json:"model"`
			System      string  `json:"system"`
			Prompt      string  `json:"prompt"`
			Temperature float64 `json:"temperature"`
			TopP        float64 `json:"topP"`
			MaxGenLen   int     `json:"maxGenLen"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}

		var problems []string
		if req.Model == "" {
			problems = append(problems, "model is required")
		}
		if req.Prompt == "" {
			problems = append(problems, "prompt is required")
		}
		if len(problems) > 0 {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, problems...)
			return
		}

		completion, err := svc.Complete(r.Context(), models.CompletionRequest{
			ModelID:     req.Model,
			System:      req.System,
			Prompt:      req.Prompt,
			Temperature: req.Temperature,
			TopP:        req.TopP,
			MaxGenLen:   req.MaxGenLen,
		})
		if err != nil {
			writeInferenceError(w, req.Model, err)
			return
		}

		response.JSON(w, newCompletionResponse(req.Model, completion))
	}
}

// NewChatHandler returns the handler for POST /chat/completions.
func NewChatHandler(svc *llm.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model       string                 `json:"model"`
			System      string                 `json:"system"`
			Messages    []models.PromptMessage `json:"messages"`
			Temperature float64                `json:"temperature"`
			TopP        float64                `json:"topP"`
			MaxGenLen   int                    `json:"maxGenLen"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}

		var problems []string
		if req.Model == "" {
			problems = append(problems, "model is required")
		}
		if len(req.Messages) == 0 {
			problems = append(problems, "messages must not be empty")
		}
		for _, m := range req.Messages {
			if m.Role != "user" && m.Role != "assistant" {
				problems = append(problems, fmt.Sprintf("invalid message role %q", m.Role))
				break
			}
		}
		if len(problems) > 0 {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, problems...)
			return
		}

		completion, err := svc.Chat(r.Context(), models.ChatRequest{
			ModelID:     req.Model,
			System:      req.System,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			TopP:        req.TopP,
			MaxGenLen:   req.MaxGenLen,
		})
		if err != nil {
			writeInferenceError(w, req.Model, err)
			return
		}

		response.JSON(w, newCompletionResponse(req.Model, completion))
	}
}

func writeInferenceError(w http.ResponseWriter, modelID string, err error) {
	switch {
	case errors.Is(err, llm.ErrModelNotFound):
		response.Error(w, http.StatusNotFound, response.CategoryNotFound,
			fmt.Sprintf("Unknown model identifier %q", modelID))
	case errors.Is(err, llm.ErrInferenceTimeout):
		response.Error(w, http.StatusInternalServerError, response.CategoryInternal,
			"Model inference timed out")
	default:
		serverError(w, "inference failed", err)
	}
}
