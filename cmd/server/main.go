package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/database"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/dispatch"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/events"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/handlers"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/remote"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/store"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/env"
)

type Application struct {
	cfg      *Config
	logger   *slog.Logger
	handlers *handlers.HandlerRepo
}

type Config struct {
	Port      int
	OutputDir string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	slogHandler := tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug, AddSource: true})
	logger := slog.New(slogHandler)
	slog.SetDefault(logger)

	cfg := &Config{
		Port:      env.GetInt("PORT", 8080),
		OutputDir: env.GetString("OUTPUT_DIR", "outputs"),
	}

	registry := programs.DefaultRegistry()

	local := executor.NewLocal(logger, registry, env.GetInt("MAX_CONCURRENT_RUNS", 0))

	remotes := remoteClients(logger, registry)
	useRemote := env.GetBool("USE_REMOTE_EXECUTION", false)
	dispatcher := dispatch.New(logger, local, remotes, useRemote)

	opts := handlers.Options{}

	if dburl := env.GetString("DATABASE_URL", ""); dburl != "" {
		pool, err := database.NewPool(dburl)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		queries := store.New(pool)
		if err := queries.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure schema", "err", err)
			os.Exit(1)
		}
		opts.Queries = queries
		logger.Info("run history store enabled")
	}

	if amqpURL := env.GetString("AMQP_URL", ""); amqpURL != "" {
		pub, err := events.NewPublisher(logger, amqpURL, env.GetString("AMQP_QUEUE", "run_events"))
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "err", err)
			os.Exit(1)
		}
		defer pub.Close()
		opts.Publisher = pub
		logger.Info("run event publisher enabled")
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		handlers: handlers.NewHandlerRepo(logger, registry, dispatcher, cfg.OutputDir, opts),
	}

	if err := app.run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// remoteClients builds one client per program that has an MCP_<ID>_URL
// configured. Programs without an endpoint always run locally.
func remoteClients(logger *slog.Logger, registry *programs.Registry) map[string]dispatch.RemoteExecutor {
	remotes := make(map[string]dispatch.RemoteExecutor)
	for _, d := range registry.All() {
		key := "MCP_" + strings.ToUpper(d.ID) + "_URL"
		if endpoint := env.GetString(key, ""); endpoint != "" {
			remotes[d.ID] = remote.NewClient(logger, endpoint, d.Timeout)
			logger.Info("remote executor configured",
				"program", d.ID,
				"endpoint", endpoint)
		}
	}
	return remotes
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", app.cfg.Port),
		Handler:     app.routes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: time.Minute,
	}

	shutdownErr := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "port", app.cfg.Port)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
