// Package main seeds a handful of demo expenses so the HTTP boundary can be
// exercised manually without a separate client. It creates them through
// the real ExpenseLifecycle and prints each directory.DemoAccountSeeds
// entry's password with a ready-to-use JWT.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"ringi.sh/ringi/internal/api/middleware"
	"ringi.sh/ringi/internal/config"
	"ringi.sh/ringi/internal/directory"
	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/eventbus"
	"ringi.sh/ringi/internal/infrastructure"
	"ringi.sh/ringi/internal/pkg/logger"
	"ringi.sh/ringi/internal/platform/clock"
	"ringi.sh/ringi/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	logger.Info("starting demo seeding...")

	// Database and River migrations are expected to have already run;
	// this command only performs data bootstrap.
	bus, err := eventbus.New(ctx, eventbus.Config{Core: 1, Max: 1, QueueCapacity: 10, TaskTimeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}
	defer bus.Shutdown(5 * time.Second)

	lifecycle := usecase.New(db.Pool, clock.System{}, bus)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.SessionSecret),
		Issuer:     "ringi",
		ExpiresIn:  24 * time.Hour,
	}

	applicant := domain.Actor{ID: "applicant-1", Roles: []domain.Role{domain.RoleApplicant}}
	traceID := "seed"

	seedExpenses := []struct {
		title    string
		amount   string
		currency string
	}{
		{title: "Team offsite catering", amount: "482.50", currency: "USD"},
		{title: "Conference travel", amount: "1290.00", currency: "USD"},
	}

	for _, se := range seedExpenses {
		expense, err := lifecycle.Create(ctx, applicant, se.title, se.amount, se.currency, traceID)
		if err != nil {
			return fmt.Errorf("seed expense %q: %w", se.title, err)
		}
		logger.Info("seeded expense", zap.Int64("id", expense.ID), zap.String("title", expense.Title))
	}

	fmt.Println("\nDemo accounts (password shown once, already bcrypt-hashed in the directory):")
	for _, seed := range directory.DemoAccountSeeds {
		token, expiresAt, err := middleware.GenerateToken(jwtCfg, seed.ID, seed.Roles)
		if err != nil {
			return fmt.Errorf("generate token for %s: %w", seed.ID, err)
		}
		fmt.Printf("  %-12s  password=%-20s  token=%s  (expires %s)\n",
			seed.ID, seed.Password, token, expiresAt.Format(time.RFC3339))
	}

	logger.Info("demo seeding completed successfully")
	return nil
}
