package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/timed-content/pkg/timedcontent/config"
	"github.com/tendant/timed-content/pkg/timedcontent/generator"
)

// Env holds process settings read directly by the binary. Everything else
// comes from config.WithEnv.
type Env struct {
	Host            string        `env:"HOST" env-default:"0.0.0.0"`
	EnvPrefix       string        `env:"TIMED_CONTENT_ENV_PREFIX" env-default:""`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read environment", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(env.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(serverConfig.Environment, env.LogLevel)
	slog.SetDefault(logger)

	completer, err := generator.NewOpenAI(generator.OpenAIConfig{
		APIKey:  env.OpenAIAPIKey,
		BaseURL: serverConfig.OpenAIBaseURL,
		Model:   serverConfig.OpenAIModel,
	})
	if err != nil {
		logger.Error("Failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	srv, err := newApp(serverConfig, completer, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("Failed to build server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if srv.sweeper != nil {
		go srv.sweeper.Start(ctx, serverConfig.SweepInterval)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", env.Host, serverConfig.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Timed content server starting",
			"addr", httpServer.Addr,
			"environment", serverConfig.Environment,
			"storage", serverConfig.Storage.Type,
			"column_store", serverConfig.ColumnStore.Type,
			"bucket_capacity", serverConfig.BucketCapacity,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	logger.Info("Server exiting")
}

// newLogger returns a JSON logger in production and a text logger elsewhere
func newLogger(environment, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(environment, "production") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
