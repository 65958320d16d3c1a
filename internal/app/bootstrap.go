// Package app is the composition root: it wires config into the concrete
// EventBus, directory, lifecycle, search and HTTP layers and hands back a
// ready-to-run Application. Nothing here contains domain logic of its own.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"ringi.sh/ringi/internal/analytics"
	"ringi.sh/ringi/internal/api/handlers"
	"ringi.sh/ringi/internal/api/middleware"
	"ringi.sh/ringi/internal/config"
	"ringi.sh/ringi/internal/directory"
	"ringi.sh/ringi/internal/eventbus"
	"ringi.sh/ringi/internal/infrastructure"
	"ringi.sh/ringi/internal/jobs"
	"ringi.sh/ringi/internal/notification"
	"ringi.sh/ringi/internal/outbox"
	"ringi.sh/ringi/internal/platform/clock"
	"ringi.sh/ringi/internal/pkg/logger"
	"ringi.sh/ringi/internal/search"
	"ringi.sh/ringi/internal/store"
	"ringi.sh/ringi/internal/usecase"
)

const migrationPath = "migrations/0001_init.sql"

// Application holds composed application dependencies.
type Application struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *infrastructure.DatabaseClients
	Analytics *analytics.Collector

	eventBus    *eventbus.Bus
	usingOutbox bool
}

// Bootstrap initializes every collaborator and wires them into an
// Application. The EventBus implementation (in-process vs durable outbox)
// is selected by cfg.EventBus.Outbox; everything downstream of C6 is
// identical either way because ExpenseLifecycle only depends on the
// EventPublisher interface.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	accounts, err := directory.DemoAccounts(cfg.Security.PasswordHashCost)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build demo directory: %w", err)
	}
	dir := directory.NewInMemoryDirectory(accounts, 30*time.Second)

	collector := analytics.NewCollector()
	inboxSender := notification.NewInboxSender(db.Pool)

	var lifecycleBus usecase.EventPublisher
	var inProcBus *eventbus.Bus
	usingOutbox := cfg.EventBus.Outbox

	if usingOutbox {
		// outboxBus's EventWorker must be registered in workers before
		// InitRiverClient can build the River client it enqueues through,
		// so the Bus is constructed without one and bound afterward.
		outboxBus := outbox.NewBus(db.Pool, nil)
		notification.RegisterOnOutbox(outboxBus, inboxSender, dir)
		analytics.RegisterOnOutbox(outboxBus, collector)

		workers := river.NewWorkers()
		river.AddWorker(workers, outbox.NewEventWorker(outboxBus))
		river.AddWorker(workers, jobs.NewNotificationCleanupWorker(db.Pool, cfg.Notification.RetentionPeriod))

		if err := db.InitRiverClient(workers, cfg.River); err != nil {
			db.Close()
			return nil, fmt.Errorf("init river client: %w", err)
		}
		outboxBus.SetRiverClient(db.RiverClient)
		lifecycleBus = outboxBus

		db.RiverClient.PeriodicJobs().Add(
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Notification.CleanupInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.NotificationCleanupArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		)
	} else {
		inProcBus, err = eventbus.New(ctx, eventbus.Config{
			Core:          cfg.EventBus.Core,
			Max:           cfg.EventBus.Max,
			QueueCapacity: cfg.EventBus.QueueCapacity,
			TaskTimeout:   cfg.EventBus.TaskTimeout,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init event bus: %w", err)
		}
		notification.RegisterOnEventBus(inProcBus, inboxSender, dir)
		analytics.RegisterOnEventBus(inProcBus, collector)
		lifecycleBus = inProcBus
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx, migrationPath, usingOutbox); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	lifecycle := usecase.New(db.Pool, clock.System{}, lifecycleBus)
	searchSvc := search.NewService(store.NewExpenseStore(db.Pool))

	server := handlers.NewServer(handlers.ServerDeps{Lifecycle: lifecycle, Search: searchSvc})

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.SessionSecret),
		Issuer:     "ringi",
		ExpiresIn:  cfg.Session.Lifetime,
	}
	for _, key := range cfg.Security.JWTVerificationKeys {
		jwtCfg.VerificationKeys = append(jwtCfg.VerificationKeys, []byte(key))
	}

	logger.Info("application bootstrap complete", zap.Bool("outbox", usingOutbox))

	return &Application{
		Config:      cfg,
		Router:      newRouter(cfg, server, jwtCfg),
		DB:          db,
		Analytics:   collector,
		eventBus:    inProcBus,
		usingOutbox: usingOutbox,
	}, nil
}

// Start launches the River client (only present when the outbox EventBus is
// selected). The in-process eventbus needs no separate start step.
func (a *Application) Start(ctx context.Context) error {
	if a.usingOutbox && a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
	}
	return nil
}

// Shutdown releases every collaborator Bootstrap created, in reverse
// dependency order.
func (a *Application) Shutdown() {
	if a.usingOutbox && a.DB != nil && a.DB.RiverClient != nil {
		_ = a.DB.RiverClient.Stop(context.Background())
	}
	if a.eventBus != nil {
		a.eventBus.Shutdown(10 * time.Second)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
