package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lend_tracker/internal/config"
	"lend_tracker/internal/controllers"
	"lend_tracker/internal/logger"
	"lend_tracker/internal/middleware"
	"lend_tracker/internal/notify"
	"lend_tracker/internal/routes"
	"lend_tracker/internal/service"
	"lend_tracker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize structured logging to file
	accessLog := logger.Setup(cfg.LogFile, cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	hub := notify.NewHub()
	defer hub.Close()

	st, notifier, cleanup := openStore(cfg, hub)
	defer cleanup()

	svc := service.New(st, notifier)
	tokens := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.TrackSessionTTL)
	ctl := controllers.New(svc, tokens, hub, cfg.CORSOrigins)
	r := routes.SetupRouter(ctl, tokens, accessLog)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.EnableCORS(cfg.CORSOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "store": cfg.StoreDriver}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStore picks the storage backend. With Postgres, events go through
// NOTIFY so every instance's hub sees them; if the LISTEN connection
// cannot be opened, events stay in this process.
func openStore(cfg config.Config, hub *notify.Hub) (store.Store, notify.Notifier, func()) {
	if cfg.StoreDriver == config.DriverMemory {
		logrus.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemory(), hub, func() {}
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Database setup failed")
	}

	listener, err := notify.Listen(cfg.DSN(), cfg.NotifyChannel, hub)
	if err != nil {
		logrus.WithError(err).Warn("Change notifications limited to this instance")
		return store.NewGorm(db), hub, func() {}
	}
	return store.NewGorm(db), notify.NewPgNotifier(db, cfg.NotifyChannel), func() {
		if err := listener.Close(); err != nil {
			logrus.WithError(err).Warn("Closing notification listener")
		}
	}
}
