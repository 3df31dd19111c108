package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/alexgladd/llmsvc/internal/api/middleware"
	"github.com/alexgladd/llmsvc/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	LoginHandler          http.HandlerFunc
	LogoutHandler         http.HandlerFunc
	CurrentAdminHandler   http.HandlerFunc
	ListAdminsHandler     http.HandlerFunc
	CreateAdminHandler    http.HandlerFunc
	DeleteAdminHandler    http.HandlerFunc
	ChangePasswordHandler http.HandlerFunc

	ListUsersHandler  http.HandlerFunc
	CreateUserHandler http.HandlerFunc
	DeleteUserHandler http.HandlerFunc
	CreateKeyHandler  http.HandlerFunc
	DeleteKeyHandler  http.HandlerFunc

	ListModelsHandler http.HandlerFunc
	GetModelHandler   http.HandlerFunc
	CompletionHandler http.HandlerFunc
	ChatHandler       http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/health", orNotImplemented(deps.HealthHandler))
	r.Post("/admins/sessions", orNotImplemented(deps.LoginHandler))

	// Management console: session cookie only
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.RequireSession)

		r.Get("/admins", orNotImplemented(deps.ListAdminsHandler))
		r.Post("/admins", orNotImplemented(deps.CreateAdminHandler))
		r.Get("/admins/current", orNotImplemented(deps.CurrentAdminHandler))
		r.Delete("/admins/{userID}", orNotImplemented(deps.DeleteAdminHandler))
		r.Put("/admins/{userID}/password", orNotImplemented(deps.ChangePasswordHandler))
		r.Delete("/admins/{userID}/sessions", orNotImplemented(deps.LogoutHandler))

		r.Get("/users", orNotImplemented(deps.ListUsersHandler))
		r.Post("/users", orNotImplemented(deps.CreateUserHandler))
		r.Delete("/users/{userID}", orNotImplemented(deps.DeleteUserHandler))
		r.Post("/users/{userID}/keys", orNotImplemented(deps.CreateKeyHandler))
		r.Delete("/users/{userID}/keys/{keyID}", orNotImplemented(deps.DeleteKeyHandler))
	})

	// Inference surface: session or bearer key, rate limited per key
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.RequireAuth)
		r.Use(deps.RateLimit.Limit)

		r.Get("/models", orNotImplemented(deps.ListModelsHandler))
		r.Get("/models/{modelID}", orNotImplemented(deps.GetModelHandler))
		r.Post("/completions", orNotImplemented(deps.CompletionHandler))
		r.Post("/chat/completions", orNotImplemented(deps.ChatHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, response.CategoryInternal,
			"Endpoint not yet implemented")
	}
}
