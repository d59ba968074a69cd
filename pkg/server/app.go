package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "TrendPull/pkg/http"
	pkgkafka "TrendPull/pkg/kafka"
	applogger "TrendPull/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the service lifecycle: the HTTP server, the optional kafka consumer
// and the infrastructure clients closed on shutdown.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	shutdownTimeout time.Duration
	closers         []closer
}

// New creates an App. httpServer and consumer may be nil.
func New(l *applogger.Logger, httpServer *xhttp.Server, consumer *pkgkafka.Consumer, shutdownTimeout time.Duration) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{log: l, httpServer: httpServer, consumer: consumer, shutdownTimeout: shutdownTimeout}
}

// OnShutdown registers fn to run after the servers stop. Closers run in reverse order
// of registration.
func (a *App) OnShutdown(name string, fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, closer{name: name, fn: fn})
	}
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.log }

// HTTP returns the HTTP server, or nil.
func (a *App) HTTP() *xhttp.Server { return a.httpServer }

// Start launches the consumer and the HTTP server without blocking.
func (a *App) Start() error {
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return err
		}
	}
	a.log.Info("application started")
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run bound to ctx instead of process signals.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.Start(); err != nil {
		a.log.Error("application start error", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first, then closes clients. Every step runs even if an earlier one fails.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
