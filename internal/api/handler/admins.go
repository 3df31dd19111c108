package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/alexgladd/llmsvc/internal/api/middleware"
	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/auth"
	"github.com/alexgladd/llmsvc/internal/notify"
	"github.com/alexgladd/llmsvc/internal/store"
	"github.com/alexgladd/llmsvc/pkg/models"
)

const sessionDuration = 30 * 24 * time.Hour

// SessionCookie describes how the session token cookie is written.
type SessionCookie struct {
	Name string
	// Domain scopes the cookie; empty leaves it host-only.
	Domain string
	// DevMode relaxes SameSite for cross-origin consoles.
	DevMode bool
}

func (sc SessionCookie) write(w http.ResponseWriter, token string, expires time.Time) {
	sameSite := http.SameSiteLaxMode
	if sc.DevMode {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		Domain:   sc.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
	})
}

func (sc SessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		Domain:   sc.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

// adminIdentity pulls the admin identity set by the session middleware.
func adminIdentity(w http.ResponseWriter, r *http.Request) (*auth.AdminIdentity, bool) {
	ident, ok := mw.GetIdentity(r)
	if !ok || ident.Admin == nil {
		response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized, "Not authorized")
		return nil, false
	}
	return ident.Admin, true
}

// NewLoginHandler returns the handler for POST /admins/sessions.
func NewLoginHandler(st store.Store, cookie SessionCookie) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}
		if req.Email == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"email and password are required")
			return
		}

		admin, hash, err := st.FindAdminByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			serverError(w, "login failed", err)
			return
		}

		verified := false
		if err == nil {
			verified, err = auth.VerifyPassword(hash, req.Password)
			if err != nil {
				serverError(w, "login failed", err)
				return
			}
		}
		if !verified {
			// Burn comparable time on unknown emails and bad passwords alike.
			auth.Throttle(req.Password)
			response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized,
				"Invalid email or password")
			return
		}

		token, err := auth.SessionToken()
		if err != nil {
			serverError(w, "session token generation failed", err)
			return
		}
		expiresAt := time.Now().UTC().Add(sessionDuration)
		if err := st.CreateSession(r.Context(), &models.AdminSession{
			AdminID:   admin.ID,
			Token:     token,
			ExpiresAt: expiresAt,
		}); err != nil {
			serverError(w, "session creation failed", err)
			return
		}

		cookie.write(w, token, expiresAt)
		response.Created(w, admin)
	}
}

// NewLogoutHandler returns the handler for DELETE /admins/{userID}/sessions.
func NewLogoutHandler(st store.Store, cookie SessionCookie) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := adminIdentity(w, r)
		if !ok {
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID != ident.Admin.ID {
			response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized, "Not authorized")
			return
		}

		if err := st.DeleteSession(r.Context(), userID, ident.SessionToken); err != nil {
			serverError(w, "logout failed", err)
			return
		}

		cookie.clear(w)
		response.NoContent(w)
	}
}

// NewCurrentAdminHandler returns the handler for GET /admins/current.
func NewCurrentAdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := adminIdentity(w, r)
		if !ok {
			return
		}
		response.JSON(w, ident.Admin)
	}
}

// NewListAdminsHandler returns the handler for GET /admins.
func NewListAdminsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admins, err := st.ListAdmins(r.Context())
		if err != nil {
			serverError(w, "list admins failed", err)
			return
		}
		if admins == nil {
			admins = []*models.AdminUser{}
		}
		response.JSON(w, struct {
			Count  int                 `json:"count"`
			Admins []*models.AdminUser `json:"admins"`
		}{Count: len(admins), Admins: admins})
	}
}

// NewCreateAdminHandler returns the handler for POST /admins.
func NewCreateAdminHandler(st store.Store, sender notify.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
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
		if req.Password == "" {
			problems = append(problems, "password is required")
		}
		if len(problems) > 0 {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, problems...)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			serverError(w, "password hashing failed", err)
			return
		}

		now := time.Now().UTC()
		admin := &models.AdminUser{
			ID:        auth.NewID(),
			Name:      req.Name,
			Email:     req.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.CreateAdmin(r.Context(), admin, hash); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
					fmt.Sprintf("Admin with email %s already exists", req.Email))
				return
			}
			serverError(w, "create admin failed", err)
			return
		}

		if err := sender.Send(r.Context(), notify.Message{
			Type:     notify.TypeNewAdmin,
			Name:     admin.Name,
			Email:    admin.Email,
			Password: req.Password,
		}); err != nil {
			slog.Error("queue new admin notification", "error", err, "adminId", admin.ID)
		}

		response.Created(w, admin)
	}
}

// NewDeleteAdminHandler returns the handler for DELETE /admins/{userID}.
func NewDeleteAdminHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := adminIdentity(w, r)
		if !ok {
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID == ident.Admin.ID {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"Admins can't delete their own accounts")
			return
		}

		if err := st.DeleteAdmin(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
					"Admin does not exist")
				return
			}
			serverError(w, "delete admin failed", err)
			return
		}

		response.NoContent(w)
	}
}

// NewChangeAdminPasswordHandler returns the handler for PUT /admins/{userID}/password.
func NewChangeAdminPasswordHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := adminIdentity(w, r)
		if !ok {
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID != ident.Admin.ID {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"Admins can only change their own passwords")
			return
		}

		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest, "Invalid JSON body")
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			response.Error(w, http.StatusBadRequest, response.CategoryInvalidRequest,
				"currentPassword and newPassword are required")
			return
		}

		verified, err := auth.VerifyPassword(ident.PasswordHash, req.CurrentPassword)
		if err != nil {
			serverError(w, "password verification failed", err)
			return
		}
		if !verified {
			auth.Throttle(req.NewPassword)
			response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized,
				"Authorization failed")
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			serverError(w, "password hashing failed", err)
			return
		}

		now := time.Now().UTC()
		if err := st.UpdateAdminPassword(r.Context(), userID, hash, now); err != nil {
			serverError(w, "password update failed", err)
			return
		}

		updated := *ident.Admin
		updated.UpdatedAt = now
		response.JSON(w, &updated)
	}
}

func serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	response.Error(w, http.StatusInternalServerError, response.CategoryInternal,
		"An unexpected error occurred")
}
