package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"grateful-roasted/internal/config"
	"grateful-roasted/internal/db"
	"grateful-roasted/internal/logger"
	"grateful-roasted/internal/party"
	"grateful-roasted/internal/realtime"
	"grateful-roasted/internal/server"
	"grateful-roasted/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := realtime.NewHub(st, log)
	defer hub.Close()
	srv := server.New(party.New(st, log), hub, log, cfg)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// openStore keeps games in memory when no database is configured.
func openStore(cfg config.Config, log *zap.SugaredLogger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warnw("no database configured, games will not survive a restart")
		return store.NewMemory(), func() {}, nil
	}

	conn, err := db.Open(cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second,
		LogQueries:      cfg.LogLevel == "debug",
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return nil, nil, err
		}
		log.Infow("database schema migrated")
	}

	closeStore := func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return store.NewGorm(conn), closeStore, nil
}
