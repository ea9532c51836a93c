package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/advisory"
	"github.com/rongwang/finance-cockpit/internal/api"
	"github.com/rongwang/finance-cockpit/internal/config"
	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/repository"
	"github.com/rongwang/finance-cockpit/internal/service"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.Log.Level)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Create repository
	repo, closeRepo, err := setupRepository(sigCtx, cfg)
	if err != nil {
		logger.WithField("driver", cfg.Storage.Driver).Fatalf("Failed to set up storage: %v", err)
	}
	defer closeRepo()

	// Create backend clients
	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, nil, cfg.Upstream.Timeout, logger)
	advisoryClient := advisory.NewClient(cfg.Advisory.BaseURL, nil, cfg.Upstream.Timeout, logger)

	// Create service
	svc := service.NewDefaultService(service.Deps{
		Ledger:          ledgerClient,
		Advisory:        advisoryClient,
		DefaultEntityID: cfg.Cockpit.DefaultEntityID,
		Logger:          logger,
	})

	// Create API handler
	handler := api.NewHandler(svc, repo, cfg.Auth.CookieSecret, logger)

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), api.CORSMiddleware(cfg.Server.AllowedOrigins))

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"addr":     srv.Addr,
		"ledger":   cfg.Ledger.BaseURL,
		"advisory": cfg.Advisory.BaseURL,
		"storage":  cfg.Storage.Driver,
	}).Info("Starting server")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server stopped unexpectedly: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

// setupRepository opens the storage backend chosen by STORAGE_DRIVER
func setupRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return repository.NewMemoryRepository(), func() {}, nil

	case config.DriverPostgres:
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(db), func() { db.Close() }, nil

	case config.DriverRedis:
		client, err := config.SetupRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(client, cfg.Redis.Prefix), func() { client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
