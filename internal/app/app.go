// Package app wires configuration, storage, the progression engine and
// the servers into one lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/DiegoPatterson/CodeQuest/internal/config"
	"github.com/DiegoPatterson/CodeQuest/internal/server"
	"github.com/DiegoPatterson/CodeQuest/pkg/clock"
	"github.com/DiegoPatterson/CodeQuest/pkg/events"
	"github.com/DiegoPatterson/CodeQuest/pkg/gamify"
	"github.com/DiegoPatterson/CodeQuest/pkg/handler"
	"github.com/DiegoPatterson/CodeQuest/pkg/notify"
	"github.com/DiegoPatterson/CodeQuest/pkg/store"
)

// App holds all application dependencies and manages the application
// lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	engine            *gamify.Engine
	hub               *notify.Hub
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components are
// initialized in dependency order: storage, engine tuning, the engine
// itself, event dispatch, push hub, servers, telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	gateway, err := app.initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	tuning, err := gamify.LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine tuning from %s: %w", cfg.TuningPath, err)
	}
	logrus.Infof("loaded engine tuning from %s", cfg.TuningPath)

	app.engine = gamify.NewEngine(gateway, clock.NewSystem(), tuning)
	engineMetrics := gamify.NewMetrics()
	app.engine.AttachMetrics(engineMetrics)
	app.engine.Start(ctx)

	dispatcher := events.NewDefaultDispatcher(app.engine, events.Tuning{
		XPPerLine:    tuning.XPPerLine,
		CompletionXP: tuning.CompletionXP,
	})
	dispatcher.AttachMetrics(engineMetrics.EventsProcessed)

	app.hub = notify.NewHub()
	app.hub.Attach(app.engine, func() any { return app.engine.GetStats() })

	handlers := handler.NewHandlers(app.engine, dispatcher, app.hub)

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, cfg.ServiceName, cfg.Environment, handlers)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup http server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", engineMetrics)
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelEndpoint, cfg.OtelServiceName, cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initStore connects the persistence gateway. Redis is the production
// path; an empty REDIS_HOST falls back to the in-memory store.
func (a *App) initStore(ctx context.Context) (store.Gateway, error) {
	if a.cfg.RedisHost == "" {
		logrus.Warn("REDIS_HOST is empty, using in-memory store (state is lost on restart)")
		return store.NewMemoryGateway(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	retries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			if _, err := client.Ping(ctx).Result(); err != nil {
				logrus.Warnf("redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		retries,
	)
	if err != nil {
		return nil, err
	}

	a.redisClient = client
	logrus.Info("redis client initialized")

	return store.NewRedisGateway(client, store.RedisGatewayConfig{
		KeyPrefix: a.cfg.RedisKeyPrefix,
	}), nil
}
