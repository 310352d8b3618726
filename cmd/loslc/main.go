package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/loslc/loslc-links/internal/app"
	"github.com/loslc/loslc-links/internal/auth"
	"github.com/loslc/loslc-links/internal/links"
	"github.com/loslc/loslc-links/internal/observability"
	"github.com/loslc/loslc-links/internal/platform/cache"
	"github.com/loslc/loslc-links/internal/platform/db"
	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
	"github.com/loslc/loslc-links/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, sessionManager, cfg.AdminEmails)
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	rbacStore := rbac.NewStore(dbpool)
	rbacService := rbac.NewService(rbacStore, auditLogger, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService)

	linksRepo := links.NewPGRepository(dbpool)
	linksService := links.NewService(linksRepo, auditLogger, logger)
	linksHandler := links.NewHandler(logger, linksService)

	usersRepo := users.NewPGRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacService)

	metrics := observability.NewMetrics()
	metrics.Registerer().MustRegister(collectors.NewGoCollector())

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		LinksHandler:   linksHandler,
		UsersHandler:   usersHandler,
		RBACHandler:    rbacHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
