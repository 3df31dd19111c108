package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/auth"
	"github.com/alexgladd/llmsvc/internal/notify"
	"github.com/alexgladd/llmsvc/internal/store"
	"github.com/alexgladd/llmsvc/pkg/models"
)

// NewListUsersHandler returns the handler for GET /users.
func NewListUsersHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListApiUsersWithKeys(r.Context())
		if err != nil {
			serverError(w, "list users failed", err)
			return
		}
		if users == nil {
			users = []*models.ApiUserWithKeys{}
		}
		response.JSON(w, struct {
			Count int                       `json:"count"`
			Users []*models.ApiUserWithKeys `json:"users"`
		}{Count: len(users), Users: users})
	}
}

// NewCreateUserHandler returns the handler for POST /users. The raw key is
// never returned in the response; it only goes out via the notification
// email.
func NewCreateUserHandler(st store.Store, sender notify.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name         string `json:"name"`
			Email        string `json:"email"`
			KeyExpiresAt string `json:"keyExpiresAt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}

		var problems []string
		if req.Name == "" {
			problems = append(problems, "name is required")
		}
		if req.Email == "" {
			problems = append(problems, "email is required")
		}
		if req.KeyExpiresAt == "" {
			problems = append(problems, "keyExpiresAt is required")
		}
		if len(problems) > 0 {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, problems...)
			return
		}

		keyExpiresAt, err := time.Parse(time.RFC3339, req.KeyExpiresAt)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"keyExpiresAt must be a valid RFC3339 timestamp")
			return
		}

		rawKey, err := auth.APIKey()
		if err != nil {
			serverError(w, "api key generation failed", err)
			return
		}

		now := time.Now().UTC()
		user := &models.ApiUser{
			ID:        auth.NewID(),
			Name:      req.Name,
			Email:     req.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		key := &models.ApiKey{
			ID:        auth.NewID(),
			UserID:    user.ID,
			Key:       rawKey,
			ExpiresAt: keyExpiresAt,
		}

		if err := st.CreateApiUser(r.Context(), user, key); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
					fmt.Sprintf("User with email %s already exists", req.Email))
				return
			}
			serverError(w, "create user failed", err)
			return
		}

		if err := sender.Send(r.Context(), notify.Message{
			Type:      notify.TypeNewUser,
			Name:      user.Name,
			Email:     user.Email,
			APIKey:    rawKey,
			ExpiresAt: keyExpiresAt,
		}); err != nil {
			slog.Error("queue new user notification", "error", err, "userId", user.ID)
		}

		response.Created(w, &models.ApiUserWithKeys{
			ApiUser: *user,
			ApiKeys: []models.ApiKey{keyView(key)},
		})
	}
}

// NewDeleteUserHandler returns the handler for DELETE /users/{userID}.
func NewDeleteUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		if err := st.DeleteApiUser(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
					"User does not exist")
				return
			}
			serverError(w, "delete user failed", err)
			return
		}

		response.NoContent(w)
	}
}

// NewCreateKeyHandler returns the handler for POST /users/{userID}/keys.
func NewCreateKeyHandler(st store.Store, sender notify.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		var req struct {
			ExpiresAt string `json:"expiresAt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}
		if req.ExpiresAt == "" {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"expiresAt is required")
			return
		}
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"expiresAt must be a valid RFC3339 timestamp")
			return
		}

		user, err := st.GetApiUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
					"User does not exist")
				return
			}
			serverError(w, "create key failed", err)
			return
		}

		rawKey, err := auth.APIKey()
		if err != nil {
			serverError(w, "api key generation failed", err)
			return
		}

		key := &models.ApiKey{
			ID:        auth.NewID(),
			UserID:    user.ID,
			Key:       rawKey,
			ExpiresAt: expiresAt,
		}
		if err := st.CreateApiKey(r.Context(), key); err != nil {
			serverError(w, "create key failed", err)
			return
		}

		if err := sender.Send(r.Context(), notify.Message{
			Type:      notify.TypeNewKey,
			Name:      user.Name,
			Email:     user.Email,
			APIKey:    rawKey,
			ExpiresAt: expiresAt,
		}); err != nil {
			slog.Error("queue new key notification", "error", err, "userId", user.ID)
		}

		kv := keyView(key)
		response.Created(w, &kv)
	}
}

// NewDeleteKeyHandler returns the handler for DELETE /users/{userID}/keys/{keyID}.
func NewDeleteKeyHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		keyID := chi.URLParam(r, "keyID")

		deleted, err := st.DeleteApiKey(r.Context(), userID, keyID)
		if err != nil {
			serverError(w, "delete key failed", err)
			return
		}
		if !deleted {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"Key does not exist")
			return
		}

		response.NoContent(w)
	}
}

// keyView strips the raw key down to its displayable form.
func keyView(key *models.ApiKey) models.ApiKey {
	view := *key
	view.Snippet = view.Key
	if len(view.Snippet) > models.SnippetLen {
		view.Snippet = view.Snippet[:models.SnippetLen]
	}
	view.Key = ""
	return view
}
