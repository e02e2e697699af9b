package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/config"
	"github.com/genz-feed/api-go/middleware"
	"github.com/genz-feed/api-go/routes"
	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/storage"
	"github.com/genz-feed/api-go/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	images, err := config.NewImageStore(cfg, logger)
	if err != nil {
		return err
	}

	opts := []services.Option{services.WithLogger(logger)}
	svc := routes.Services{
		Accounts: services.NewAccountService(db, utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), opts...),
		Posts:    services.NewPostService(db, images, opts...),
		Likes:    services.NewLikeService(db, opts...),
		Comments: services.NewCommentService(db, opts...),
		Feed:     services.NewFeedService(db, services.NewCursorCodec(cfg.CursorSecret), opts...),
	}

	if cfg.ReconcileInterval > 0 {
		reconciler := services.NewReconciler(db, cfg.ReconcileWorkers, opts...)
		go reconciler.Run(ctx, cfg.ReconcileInterval)
		logger.Info("counter reconciliation enabled", "interval", cfg.ReconcileInterval)
	}

	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stdout), gin.Recovery())
	r.MaxMultipartMemory = storage.MaxImageSize + 1<<20

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Cleanup(ctx)
		r.Use(limiter.Middleware())
	}

	routeOpts := routes.Options{FeedRequireAuth: cfg.FeedRequireAuth}
	if _, local := images.(*storage.LocalStore); local {
		routeOpts.UploadDir = cfg.UploadDir
	}
	routes.SetupRoutes(r, svc, routeOpts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "store", cfg.StoreDriver, "feed_require_auth", cfg.FeedRequireAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
