package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PanelPulse/internal/domain/repository"
	"PanelPulse/internal/handler/api"
	mid "PanelPulse/internal/middleware"
	"PanelPulse/internal/usecase"
	pkgch "PanelPulse/pkg/clickhouse"
	"PanelPulse/pkg/config"
	xhttp "PanelPulse/pkg/http"
	pkgkafka "PanelPulse/pkg/kafka"
	applogger "PanelPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	scheduler *usecase.Scheduler
	collector *usecase.EventCollector
	intake    *mid.EventIntake
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	alerts    repository.AlertSink
	store     repository.MetricsStore
	events    *api.EventsEchoHandler
	pipeline  *api.PipelineEchoHandler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.Scheduler,
	collector *usecase.EventCollector,
	intake *mid.EventIntake,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaEventsHandler,
	chClient *pkgch.Client,
	alerts repository.AlertSink,
	store repository.MetricsStore,
	events *api.EventsEchoHandler,
	pipeline *api.PipelineEchoHandler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		scheduler: scheduler,
		collector: collector,
		intake:    intake,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		alerts:    alerts,
		store:     store,
		events:    events,
		pipeline:  pipeline,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(nil,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.events.RegisterRoutes(a.httpServer.Echo())
	a.pipeline.RegisterRoutes(a.httpServer.Echo())

	// Scheduler first: its initial tick seeds metrics before traffic arrives.
	a.scheduler.Start(ctx)

	// Intake accepts HTTP submissions even when the feed is disabled.
	a.intake.Start(ctx)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("feed collector started", applogger.Strings("channels", a.cfg.Feed.Channels))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	// Stop taking new events first.
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	} else {
		a.intake.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Let any in-flight tick finish before the stores go away.
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.alerts != nil {
		if err := a.alerts.Close(); err != nil {
			l.Warn("alert sink close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		l.Warn("metrics store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
