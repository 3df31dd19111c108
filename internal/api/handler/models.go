package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/llm"
	"github.com/alexgladd/llmsvc/pkg/models"
)

// NewListModelsHandler returns the handler for GET /models.
func NewListModelsHandler(svc *llm.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, struct {
			Models []*models.Model `json:"models"`
		}{Models: svc.ListModels()})
	}
}

// NewGetModelHandler returns the handler for GET /models/{modelID}.
func NewGetModelHandler(svc *llm.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")

		m, err := svc.GetModel(r.Context(), modelID)
		if err != nil {
			if errors.Is(err, llm.ErrModelNotFound) {
				response.Error(w, http.StatusNotFound, response.CategoryNotFound,
					fmt.Sprintf("Unknown model identifier %q", modelID))
				return
			}
			serverError(w, "get model failed", err)
			return
		}

		response.JSON(w, m)
	}
}
