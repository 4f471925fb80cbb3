package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/interfaces/http/handler"
	"github.com/covidtrack/registry/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func runServe(env *commandEnv, a *app, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: serve takes no arguments", errUsage)
	}
	cfg := env.cfg
	log := logger.Named(env.log, "http")

	engineCfg := router.EngineConfig{
		Logger:      log,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Production:  cfg.App.Env == "production",
	}
	if a.tracer.IsEnabled() {
		engineCfg.Tracer = a.tracer.Provider()
		engineCfg.ServiceName = cfg.App.Name
	}
	if cfg.Metrics.Enabled {
		engineCfg.Metrics = a.metrics
		engineCfg.MetricsPath = cfg.Metrics.Path
	}
	engine := router.NewEngine(engineCfg)

	system := handler.NewSystemHandler(cfg.App.Name, version, a.healthCheck)
	engine.GET("/health", system.Health)
	router.NewRouter(engine).
		Register(system).
		Register(handler.NewPatientHandler(a.collection)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(env.ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("server exited gracefully")
		return nil
	})
	return g.Wait()
}
