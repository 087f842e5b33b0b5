package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/config"
	"github.com/macrostat/econdata/internal/handler"
	"github.com/macrostat/econdata/internal/migration"
	"github.com/macrostat/econdata/internal/repository"
	"github.com/macrostat/econdata/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize logger: %v", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	cfg, err := config.NewServerConfig()
	if err != nil {
		logSugar.Fatalf("can't read config: %v", err)
	}

	ctx := context.Background()

	var storage repository.Repository
	if cfg.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, logSugar); err != nil {
			logSugar.Fatalf("migrations failed: %v", err)
		}
		dbStorage, err := repository.NewDBStorage(cfg.DatabaseDSN)
		if err != nil {
			logSugar.Fatalf("can't connect to database: %v", err)
		}
		storage = dbStorage
	} else {
		logSugar.Info("no database DSN configured, using in-memory storage")
		storage = repository.NewMemStorage()
	}
	defer storage.Close()

	dataService := service.NewDataService(storage, nil, logSugar)

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: handler.Router(logSugar, dataService),
	}

	go func() {
		logSugar.Infof("serving on %s", cfg.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logSugar.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logSugar.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logSugar.Errorf("shutdown error: %v", err)
	}
}
