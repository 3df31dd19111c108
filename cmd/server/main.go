// Package main is the entrypoint for the llmsvc API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexgladd/llmsvc/internal/api"
	"github.com/alexgladd/llmsvc/internal/api/handler"
	mw "github.com/alexgladd/llmsvc/internal/api/middleware"
	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/auth"
	"github.com/alexgladd/llmsvc/internal/cache"
	"github.com/alexgladd/llmsvc/internal/config"
	"github.com/alexgladd/llmsvc/internal/llm"
	"github.com/alexgladd/llmsvc/internal/notify"
	"github.com/alexgladd/llmsvc/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "llm_provider", cfg.LLM.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create LLM provider and service
	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	llmService := llm.NewService(provider, cfg.LLM.InferenceTimeout)
	slog.Info("LLM provider initialized", "provider", provider.Name())

	// 6. Create store
	pgStore := store.NewPostgresStore(pool)

	// 7. Notifications: queue + email worker, or a no-op when disabled
	var sender notify.Sender = notify.NopSender{}
	if cfg.Email.Enabled {
		sender = notify.NewQueueSender(redisCache, cfg.Email.QueueKey)

		emailer, err := notify.NewEmailer(ctx, redisCache, cfg.LLM.AWSRegion,
			cfg.Email.QueueKey, cfg.Email.Sender, cfg.IsDevelopment())
		if err != nil {
			return fmt.Errorf("create emailer: %w", err)
		}
		go emailer.Run(ctx)
		slog.Info("email worker started", "queue", cfg.Email.QueueKey)
	}

	// 8. Build router with dependencies
	authorizer := auth.NewAuthorizer(pgStore)
	authMw := mw.NewAuth(authorizer, cfg.Server.CookieName)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	cookie := handler.SessionCookie{
		Name:    cfg.Server.CookieName,
		Domain:  cfg.Server.Domain,
		DevMode: cfg.IsDevelopment(),
	}

	deps := api.Dependencies{
		Auth:      authMw,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		LoginHandler:          handler.NewLoginHandler(pgStore, cookie),
		LogoutHandler:         handler.NewLogoutHandler(pgStore, cookie),
		CurrentAdminHandler:   handler.NewCurrentAdminHandler(),
		ListAdminsHandler:     handler.NewListAdminsHandler(pgStore),
		CreateAdminHandler:    handler.NewCreateAdminHandler(pgStore, sender),
		DeleteAdminHandler:    handler.NewDeleteAdminHandler(pgStore),
		ChangePasswordHandler: handler.NewChangeAdminPasswordHandler(pgStore),

		ListUsersHandler:  handler.NewListUsersHandler(pgStore),
		CreateUserHandler: handler.NewCreateUserHandler(pgStore, sender),
		DeleteUserHandler: handler.NewDeleteUserHandler(pgStore),
		CreateKeyHandler:  handler.NewCreateKeyHandler(pgStore, sender),
		DeleteKeyHandler:  handler.NewDeleteKeyHandler(pgStore),

		ListModelsHandler: handler.NewListModelsHandler(llmService),
		GetModelHandler:   handler.NewGetModelHandler(llmService),
		CompletionHandler: handler.NewCompletionHandler(llmService),
		ChatHandler:       handler.NewChatHandler(llmService),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var degraded []string

		if err := s.Ping(r.Context()); err != nil {
			degraded = append(degraded, "database unavailable")
		}
		if err := c.Ping(r.Context()); err != nil {
			degraded = append(degraded, "cache unavailable")
		}

		if len(degraded) > 0 {
			response.Error(w, http.StatusServiceUnavailable, response.CategoryInternal, degraded...)
			return
		}

		response.JSON(w, map[string]string{"status": "ok"})
	}
}
