package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/cache"
	"github.com/zhouzirui/safespeak/backend/internal/config"
	"github.com/zhouzirui/safespeak/backend/internal/handler"
	"github.com/zhouzirui/safespeak/backend/internal/logging"
	authService "github.com/zhouzirui/safespeak/backend/internal/service/auth"
	"github.com/zhouzirui/safespeak/backend/internal/service/moderation"
	statsService "github.com/zhouzirui/safespeak/backend/internal/service/stats"
	"github.com/zhouzirui/safespeak/backend/internal/store"
	"github.com/zhouzirui/safespeak/backend/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载 .env 文件
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Server)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open database")
	}
	defer db.Close()
	logger.Info().Str("path", cfg.Store.Path).Msg("database ready")

	var analysisCache cache.AnalysisCache = cache.Noop{}
	if cfg.Cache.Enabled() {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, analysis cache disabled")
		} else {
			defer client.Close()
			analysisCache = cache.NewRedisCache(client, cfg.Cache.TTL)
			logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("analysis cache enabled")
		}
	}

	primary := moderation.PrimaryFromConfig(ctx, cfg, logger)
	moderationSvc := moderation.NewService(primary, analysisCache, moderation.ConfigFrom(cfg.Moderation), logger)

	authSvc := authService.NewService(db, authService.Config{
		Secret: cfg.Auth.SecretKey,
		TTL:    cfg.Auth.SessionTTL,
	})
	statsSvc := statsService.NewService(db)

	pages, err := web.LoadPages()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load templates")
	}

	router := handler.NewRouter(handler.Dependencies{
		Auth:          authSvc,
		Moderation:    moderationSvc,
		Stats:         statsSvc,
		Pages:         pages,
		Static:        web.Static(),
		Logger:        logger,
		SecureCookies: !cfg.Server.IsDevelopment(),
		Ready: func(r *http.Request) error {
			return db.Ping(r.Context())
		},
	})

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Str("env", serverCfg.Env).Msg("SafeSpeak listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
