// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/allocations"
	"retailops/internal/domain/expenses"
	"retailops/internal/domain/ledger"
	"retailops/internal/domain/reports"
	"retailops/internal/domain/sales"
	"retailops/internal/domain/workers"
	"retailops/internal/events"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/http/v1/middleware"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

// RouterConfig holds everything the HTTP layer depends on.
type RouterConfig struct {
	// Pool is the database connection pool (used by readiness checks).
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Verifier validates bearer tokens on protected routes.
	Verifier middleware.TokenVerifier

	// Bus delivers domain events to SSE subscribers.
	Bus *events.Bus

	WorkerService     *workers.Service
	LedgerService     *ledger.Service
	SalesService      *sales.Service
	AllocationService *allocations.Service
	ExpenseService    *expenses.Service
	ReportService     *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	authHandler := handlers.NewAuthHandler(cfg.WorkerService)
	stockHandler := handlers.NewStockHandler(cfg.LedgerService)
	salesHandler := handlers.NewSalesHandler(cfg.SalesService)
	allocationHandler := handlers.NewAllocationHandler(cfg.AllocationService)
	expenseHandler := handlers.NewExpenseHandler(cfg.ExpenseService)
	reportHandler := handlers.NewReportHandler(cfg.ReportService)
	streamHandler := handlers.NewStreamHandler(cfg.Bus)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints
		v1.POST("/auth/login", authHandler.Login)

		// Everything else requires a valid token
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.Verifier))

		protected.POST("/auth/register", middleware.RequireSuperAdmin(), authHandler.Register)

		stock := protected.Group("/stock")
		{
			stock.GET("", stockHandler.List)
			stock.POST("/transfers", stockHandler.Transfer)
			stock.GET("/logs", stockHandler.Logs)
			stock.GET("/batches", stockHandler.ListBatches)
			stock.POST("/batches", middleware.RequireSuperAdmin(), stockHandler.AddBatch)
			stock.DELETE("/batches/:id", middleware.RequireSuperAdmin(), stockHandler.DeleteBatch)
		}

		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("", salesHandler.Create)
			salesGroup.GET("", salesHandler.List)
			salesGroup.GET("/:id", salesHandler.Get)
			salesGroup.POST("/:id/payments", salesHandler.AddPayment)
			salesGroup.GET("/:id/payments", salesHandler.Payments)
			salesGroup.GET("/:id/receipt", salesHandler.Receipt)
		}

		allocationsGroup := protected.Group("/allocations")
		{
			allocationsGroup.GET("", allocationHandler.List)
			allocationsGroup.POST("", middleware.RequireSuperAdmin(), allocationHandler.Create)
			allocationsGroup.DELETE("/:id", middleware.RequireSuperAdmin(), allocationHandler.Revert)
		}

		expensesGroup := protected.Group("/expenses")
		{
			expensesGroup.POST("", expenseHandler.Create)
			expensesGroup.GET("", expenseHandler.List)
		}

		reportsGroup := protected.Group("/reports")
		{
			reportsGroup.GET("/stock-movement", reportHandler.StockMovement)
			reportsGroup.GET("/cash", reportHandler.Cash)
			reportsGroup.GET("/summary", reportHandler.Summary)
		}

		protected.GET("/stream", streamHandler.Stream)
	}

	return router
}
