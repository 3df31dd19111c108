// Package main bootstraps the first admin account. Every other admin is
// created through the API, which requires an existing session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alexgladd/llmsvc/internal/auth"
	"github.com/alexgladd/llmsvc/internal/config"
	"github.com/alexgladd/llmsvc/internal/store"
	"github.com/alexgladd/llmsvc/pkg/models"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	name := flag.String("name", "", "admin display name")
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	if err := run(*name, *email, *password); err != nil {
		slog.Error("seed admin failed", "error", err)
		os.Exit(1)
	}
}

func run(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return errors.New("-name, -email, and -password are all required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.AdminUser{
		ID:        auth.NewID(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.NewPostgresStore(pool).CreateAdmin(ctx, admin, hash); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return fmt.Errorf("admin with email %s already exists", email)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	slog.Info("admin created", "id", admin.ID, "email", admin.Email)
	return nil
}
