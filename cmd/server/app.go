package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/api"
	"github.com/tendant/timed-content/pkg/timedcontent/config"
	"github.com/tendant/timed-content/pkg/timedcontent/generator"
	"github.com/tendant/timed-content/pkg/timedcontent/metrics"
	"github.com/tendant/timed-content/pkg/timedcontent/prompts"
	"github.com/tendant/timed-content/pkg/timedcontent/reading"
	"github.com/tendant/timed-content/pkg/timedcontent/sweep"
)

// app is the wired server: routes, an optional sweeper and the resources
// to release on exit
type app struct {
	handler http.Handler
	sweeper *sweep.Sweeper
	closers []io.Closer
}

// newApp builds every component named by cfg
func newApp(cfg *config.ServerConfig, completer generator.Completer, reg prometheus.Registerer, logger *slog.Logger) (*app, error) {
	a := &app{}

	blobs, err := cfg.BuildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	records, err := cfg.BuildColumnStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build column store: %w", err)
	}
	if closer, ok := records.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	collector := metrics.New(reg)

	cache, err := timedcontent.NewCache[reading.Contents](blobs,
		timedcontent.WithCapacity(cfg.BucketCapacity),
		timedcontent.WithLogger(logger),
		timedcontent.WithHooks(collector.Hooks()),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	registry := prompts.Default()
	logger.Info("Loaded prompts", "names", registry.Names())

	opts := []reading.Option{
		reading.WithPrompts(registry),
		reading.WithModel(cfg.OpenAIModel),
		reading.WithLogger(logger),
	}
	if records != nil {
		opts = append(opts, reading.WithColumnStore(records))
	}
	svc, err := reading.New(cache, completer, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create reading service: %w", err)
	}

	if cfg.SweepMaxAge > 0 {
		store, ok := blobs.(sweep.Store)
		if !ok {
			a.Close()
			return nil, fmt.Errorf("storage backend %s does not support deletes", cfg.Storage.Type)
		}
		a.sweeper, err = sweep.New(sweep.Config{
			Store:  store,
			MaxAge: cfg.SweepMaxAge,
			Logger: logger,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create sweeper: %w", err)
		}
	}

	handler := api.NewHandler(svc,
		api.WithStaticDir(cfg.StaticDir),
		api.WithLogger(logger),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(logger))
	r.Use(api.RecoveryMiddleware(logger))
	r.Use(api.MetricsMiddleware(collector))
	r.Use(middleware.Timeout(60 * time.Second))

	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Mount("/", handler.Routes())

	a.handler = r
	return a, nil
}

// Close releases the column store connection, if any
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
