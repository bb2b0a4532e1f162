package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	pkgkafka "RiskPulse/pkg/kafka"
	applogger "RiskPulse/pkg/logger"
)

// Closer is a resource released on shutdown, in registration order.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	refresh    pkgkafka.MessageHandler
	scheduler  *usecase.Scheduler
	closers    []Closer
}

// New creates a new App instance with all dependencies. consumer, refresh
// and scheduler may be nil when the feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	refresh pkgkafka.MessageHandler,
	scheduler *usecase.Scheduler,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
		refresh:    refresh,
		scheduler:  scheduler,
	}
}

// AddCloser registers a resource to release on shutdown.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, Closer{Name: name, Close: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start brings up the consumer, the scheduler and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if a.consumer != nil && a.refresh != nil {
		a.consumer.RegisterHandler(a.refresh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.refresh.Topic()))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(a.cfg.Scheduler.PutCallSync, a.cfg.Scheduler.CacheWarmup); err != nil {
			return err
		}
		if a.cfg.Scheduler.WarmOnStart {
			go a.scheduler.WarmCache()
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("riskpulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("store", a.cfg.Store.Backend),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)
	return nil
}

// Shutdown stops intake first, then background work, then releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, c := range a.closers {
		start := time.Now()
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, err)
			continue
		}
		a.log.Debug("closed", applogger.String("resource", c.Name), applogger.Duration("took", time.Since(start)))
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
