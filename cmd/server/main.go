// Package main is the entry point for the retailops API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailops/internal/config"
	"retailops/internal/domain/allocations"
	"retailops/internal/domain/expenses"
	"retailops/internal/domain/ledger"
	"retailops/internal/domain/reports"
	"retailops/internal/domain/sales"
	"retailops/internal/domain/workers"
	"retailops/internal/events"
	v1 "retailops/internal/infrastructure/http/v1"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting server", "app", cfg.App.Name, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	publisher := postgres.NewNotifyPublisher(txManager)

	// --- Event bus over LISTEN/NOTIFY ---
	bus := events.NewBus()
	listener := postgres.NewListener(pool, bus)
	go listener.Run(ctx)

	// --- Repositories ---
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	catalogRepo := postgres.NewCatalogRepo(txManager)
	salesRepo := postgres.NewSalesRepo(txManager)
	allocationRepo := postgres.NewAllocationRepo(txManager)
	expenseRepo := postgres.NewExpenseRepo(txManager)
	workerRepo := postgres.NewWorkerRepo(txManager)

	// --- Services ---
	tokenIssuer := workers.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	workerService := workers.NewService(workerRepo, tokenIssuer)
	ledgerService := ledger.NewService(ledgerRepo, catalogRepo, txManager, publisher)
	salesService := sales.NewService(salesRepo, catalogRepo, ledgerService, txManager, publisher)
	allocationService := allocations.NewService(allocationRepo, ledgerRepo, catalogRepo, txManager, publisher, cfg.Ledger.RevertLockWindow)
	expenseService := expenses.NewService(expenseRepo, txManager, publisher)
	reportService := reports.NewService(ledgerRepo, salesRepo, expenseRepo, catalogRepo, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		Logger:            log,
		Verifier:          tokenIssuer,
		Bus:               bus,
		WorkerService:     workerService,
		LedgerService:     ledgerService,
		SalesService:      salesService,
		AllocationService: allocationService,
		ExpenseService:    expenseService,
		ReportService:     reportService,
	})

	// --- HTTP Server ---
	// WriteTimeout stays zero: /stream holds SSE connections open indefinitely.
	server := &http.Server{
		Addr:        cfg.App.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", cfg.App.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancel() // stops the notification listener

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
