package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TraderMind/internal/handler/api"
	icache "TraderMind/internal/service/cache"
	"TraderMind/internal/services/audit"
	"TraderMind/internal/services/session"
	"TraderMind/internal/usecase"
	pkgch "TraderMind/pkg/clickhouse"
	"TraderMind/pkg/config"
	xhttp "TraderMind/pkg/http"
	pkgkafka "TraderMind/pkg/kafka"
	applogger "TraderMind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.TickCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	registry    *session.Registry
	audit       *audit.Engine
	replayCache icache.BytesCache
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	registry *session.Registry,
	auditEngine *audit.Engine,
	replayCache icache.BytesCache,
) *App {
	a := &App{
		cfg:         cfg,
		logger:      lgr,
		collector:   collector,
		chClient:    chClient,
		registry:    registry,
		audit:       auditEngine,
		replayCache: replayCache,
	}
	if consumer != nil && kh != nil {
		a.consumer = consumer
		a.kh = kh
	}
	return a
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	httpHandler := a.httpHandler
	if httpHandler == nil {
		h := api.NewSessionsHandler(l, a.registry, a.audit, a.collector.Pipeline())
		if a.replayCache != nil {
			h.SetCache(a.replayCache)
		}
		httpHandler = h
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.registerHealth()

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("markets", a.cfg.Broker.Markets))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// registerHealth wires liveness and readiness endpoints.
func (a *App) registerHealth() {
	e := a.httpServer.Echo()
	e.GET("/health", func(c echo.Context) error {
		status := map[string]any{
			"status":     "ok",
			"stream":     a.collector.IsConnected(),
			"clickhouse": a.chClient != nil,
		}
		if a.chClient != nil {
			if err := a.chClient.Health(c.Request().Context()); err != nil {
				status["status"] = "degraded"
				status["clickhouse_error"] = err.Error()
			}
		}
		return c.JSON(200, status)
	})
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	a.collector.Close()

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
