package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tuttoxa9/vahtarep10/internal/config"
	"github.com/tuttoxa9/vahtarep10/internal/handlers"
	"golang.org/x/sync/errgroup"

	_ "time/tzdata"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration (.env, yaml file, environment)
	cfg := mustLoadConfig(parseFlags())
	setupLogger(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	// 2. Wire stores, cache and services for the selected mode
	app, err := wire(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer app.Close()

	// 3. Setup router
	router, err := handlers.NewRouter(handlers.RouterDeps{
		Applications:   handlers.NewApplicationHandler(app.submissions),
		Vacancies:      handlers.NewVacancyHandler(app.catalog, app.pages),
		Limiter:        handlers.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Mode:           cfg.App.Mode,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Router setup failed")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// 4. Serve until a signal arrives, then drain in-flight requests
	group, gctx := errgroup.WithContext(rootCtx)
	group.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.App.Mode).Msg("🚀 Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server stopped")
}

func parseFlags() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = config.DefaultPath
	}
	return configPath
}

func mustLoadConfig(path string) *config.Config {
	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("Invalid configuration")
	}
	return cfg
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}
