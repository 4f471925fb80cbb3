package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	apppatient "github.com/covidtrack/registry/internal/application/patient"
	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/infrastructure/cache"
	"github.com/covidtrack/registry/internal/infrastructure/config"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/infrastructure/lookup"
	"github.com/covidtrack/registry/internal/infrastructure/metrics"
	"github.com/covidtrack/registry/internal/infrastructure/persistence"
	"github.com/covidtrack/registry/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// app holds the wired components shared by all commands
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	metrics    *metrics.Metrics
	tracer     *telemetry.TracerProvider
	db         *persistence.Database // nil with the csv driver
	answers    cache.AnswerStore
	collection *apppatient.Collection
}

// newApp opens storage and builds the collection. With createStore set a
// missing csv file is created empty; otherwise it is an error.
func newApp(env *commandEnv, createStore bool) (*app, error) {
	ctx, cfg, log := env.ctx, env.cfg, env.log
	a := &app{cfg: cfg, log: log, metrics: metrics.New(), tracer: env.tracer}

	repo, err := a.openRepository(createStore)
	if err != nil {
		return nil, err
	}

	validator, err := a.newValidator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	charset, err := csvimport.LookupCharset(cfg.Import.FallbackCharset)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("import.fallback_charset: %w", err)
	}

	a.collection, err = apppatient.NewCollection(ctx, repo, validator,
		apppatient.WithLogger(logger.Named(log, "collection")),
		apppatient.WithRecorder(a.metrics),
		apppatient.WithPageSize(cfg.Storage.PageSize),
		apppatient.WithImportCharset(charset),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openRepository(createStore bool) (patient.Repository, error) {
	if a.cfg.Storage.Driver == config.DriverCSV {
		path := a.cfg.Storage.Path
		if createStore {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("create patient file: %w", err)
			}
			_ = f.Close()
		}
		a.log.Debug("using csv storage", zap.String("path", path))
		return persistence.NewCSVPatientRepository(path), nil
	}

	db, err := persistence.NewDatabase(a.cfg, logger.Named(a.log, "database"))
	if err != nil {
		return nil, err
	}
	a.db = db

	tracing := dbTracing(a.cfg.Telemetry, a.cfg.Storage.Driver)
	if tracing.Enabled && a.tracer.IsEnabled() {
		if err := telemetry.RegisterDBTracing(db.DB, a.tracer.Provider(), tracing, logger.Named(a.log, "database")); err != nil {
			_ = db.Close()
			a.db = nil
			return nil, fmt.Errorf("register database tracing: %w", err)
		}
	}
	return persistence.NewGormPatientRepository(db.DB), nil
}

// newValidator wires the advisory lookups: HTTP registry, then metrics, then
// the answer cache in front of both.
func (a *app) newValidator(ctx context.Context) (*patient.Validator, error) {
	opts := []patient.ValidatorOption{
		patient.WithLogger(logger.Named(a.log, "validator")),
		patient.WithTypoPolicy(patient.TypoPolicy{
			NameThreshold:       a.cfg.Policy.NameThreshold,
			DocumentIDThreshold: a.cfg.Policy.DocumentIDThreshold,
			BirthDateThreshold:  a.cfg.Policy.BirthDateThreshold,
			GuardBirthDate:      a.cfg.Policy.GuardBirthDate,
		}),
	}
	if !a.cfg.Lookup.Enabled {
		return patient.NewValidator(nil, nil, opts...), nil
	}

	lookupLog := logger.Named(a.log, "lookup")
	httpOpts := []lookup.Option{
		lookup.WithTimeout(a.cfg.Lookup.Timeout),
		lookup.WithLogger(lookupLog),
	}
	var names patient.NameRegistry = lookup.NewHTTPNameRegistry(a.cfg.Lookup.NameURL, httpOpts...)
	var surnames patient.SurnameRegistry = lookup.NewHTTPSurnameRegistry(a.cfg.Lookup.SurnameURL, httpOpts...)
	names = a.metrics.Names(names)
	surnames = a.metrics.Surnames(surnames)

	store, err := cache.NewAnswerStore(ctx, a.cfg.Redis, lookupLog, true)
	if err != nil {
		return nil, err
	}
	a.answers = store
	lc := cache.NewLookupCache(store, a.cfg.Redis.TTL, lookupLog)

	return patient.NewValidator(lc.Names(names), lc.Surnames(surnames), opts...), nil
}

// healthCheck pings the database, if any
func (a *app) healthCheck() error {
	if a.db == nil {
		return nil
	}
	return a.db.Ping()
}

// Close releases storage and cache connections
func (a *app) Close() error {
	var errs []error
	if a.answers != nil {
		errs = append(errs, a.answers.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
