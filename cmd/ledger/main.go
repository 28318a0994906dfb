package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	"ledger/internal/events"
	apphttp "ledger/internal/http"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/remote"
	"ledger/internal/remote/memory"
	remotemongo "ledger/internal/remote/mongo"
	"ledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := cli.InitStateStore(logger, cfg.SQLiteDBPath)
	defer state.Close()

	store := ledger.NewStore(state)
	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load ledger state", "error", err)
		os.Exit(1)
	}

	// Event publishing is optional; without a broker mutations stay local.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	transactions := services.NewTransactionService(store, publisher)

	// Household sync is optional; without an id this device runs standalone.
	var reconciler *services.Reconciler
	if cfg.SyncEnabled() {
		var snapshots remote.SnapshotStore
		switch cfg.RemoteBackend {
		case "mongo":
			mongoStore, err := remotemongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				logger.Error("Failed to connect to MongoDB", "error", err)
				os.Exit(1)
			}
			defer mongoStore.Close(context.Background())
			snapshots = mongoStore
			logger.Info("Using MongoDB snapshot backend", "database", cfg.MongoDatabase)
		default:
			snapshots = memory.New()
			logger.Info("Using in-memory snapshot backend")
		}

		rc := services.DefaultReconcilerConfig(cfg.HouseholdID)
		rc.Debounce = cfg.PushDebounce
		reconciler = services.NewReconciler(store, snapshots, rc)
		if err := reconciler.Start(ctx); err != nil {
			logger.Error("Failed to start reconciler", "error", err)
			os.Exit(1)
		}
		go reconciler.PullOnce(ctx)
	} else {
		logger.Info("Household sync disabled - no HOUSEHOLD_ID provided")
	}

	appLogger := applog.New(applog.DefaultConfig())
	srv := apphttp.NewServer(":"+cfg.Port, store, transactions, cfg.MonthWindow, cfg.DefaultPayer, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if reconciler != nil {
			if err := reconciler.Stop(shutdownCtx); err != nil {
				logger.Warn("Reconciler shutdown error", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
