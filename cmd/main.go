package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/config"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/gateway"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/handler"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/ledger"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/messaging"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/middleware"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/processor"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/repository"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/resilience"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/saga"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	// Redis connection (event streaming + async request queues)
	redis, err := messaging.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	// --- wiring ---
	publisher := messaging.NewPublisher(redis)
	store := repository.NewPostgresStore(db)
	accounts := ledger.New(store, logger)
	proc := processor.New(accounts, publisher, logger)
	envelope := resilience.NewEnvelope(proc, cfg.Resilience, logger)
	transfers := saga.NewCoordinator(envelope, logger)
	monitor := gateway.NewLoadMonitor(cfg.Monitor)
	router := gateway.NewRouter(cfg.Router, monitor, envelope, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background worker for async-routed requests. It shares the envelope
	// so queued work gets the same guards as inline work.
	worker := messaging.NewWorker(redis, publisher, envelope, cfg.Worker, logger)
	go func() {
		if err := worker.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("worker stopped", zap.Error(err))
		}
	}()

	// HTTP surface
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationID())
	engine.Use(middleware.RequestLogger(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := handler.NewBankingHandler(router, proc, transfers)
	api := engine.Group("/api/gateway")
	api.POST("/accounts", h.CreateAccount)
	api.GET("/accounts/:id", h.GetAccount)
	api.POST("/transactions/credit", h.Credit)
	api.POST("/transactions/debit", h.Debit)
	api.POST("/transfers", h.Transfer)
	api.GET("/load-status", h.LoadStatus)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}
	go func() {
		logger.Info("banking gateway listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
