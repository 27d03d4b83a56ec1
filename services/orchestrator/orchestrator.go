// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator provides the quality-enforcement HTTP service.
//
// This package contains the main Orchestrator type that wires all
// components of the pipeline: the rule engine, the quality scorer, the
// AI oracle, the adaptive enforcement policy, the badger-backed
// enforcement log, and the gin HTTP surface with metrics.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 8086, StorePath: "/var/lib/ohisee"}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run(context.Background()))
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/pkg/logging"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	bstore "github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement/storage/badger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/llm"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/middleware"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/observability"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/routes"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/quality"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/scoring"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service abstracts the orchestrator lifecycle, enabling testing and
// alternative implementations.
//
// Run blocks until the context is canceled, a shutdown signal arrives,
// or the server fails; call it at most once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run(ctx context.Context) error

	// Router returns the underlying gin engine for testing. Callers
	// must not modify routes after construction.
	Router() *gin.Engine

	// Close releases the enforcement store and logger. Idempotent.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds orchestrator configuration options. All fields have
// defaults applied by New(); a zero Config yields a working in-memory
// service on the default port.
type Config struct {
	// Port is the HTTP server port. Default: 8086
	Port int

	// GinMode sets the gin framework mode: "debug", "release", "test".
	// Default: uses the GIN_MODE env var or "debug".
	GinMode string

	// StorePath is the directory for the badger enforcement log.
	// Ignored when InMemoryStore is true. Default: "./data/enforcement"
	StorePath string

	// InMemoryStore keeps the enforcement log in memory. For tests and
	// ephemeral deployments; attempt counters reset on restart.
	InMemoryStore bool

	// ScoreThreshold is the passing quality score. Default: 75
	ScoreThreshold int

	// ExplainTraces enables decision trace persistence.
	ExplainTraces bool

	// DisableMetrics skips Prometheus registration and the /metrics
	// endpoint. The zero value keeps metrics on.
	DisableMetrics bool

	// RateLimitRPS and RateLimitBurst tune the per-IP HTTP limiter.
	// Defaults: 20 rps, burst 40.
	RateLimitRPS   int
	RateLimitBurst int

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration

	// LogDir enables file logging when set.
	LogDir string

	// LogLevel is "debug", "info", "warn" or "error". Default: info.
	LogLevel string

	// Oracle overrides the AI oracle configuration. Zero fields keep
	// the defaults (10 calls/min per mode, 2s/30s latency budgets).
	Oracle llm.OracleConfig

	// Thresholds overrides the enforcement escalation bands. Zero
	// value keeps the defaults.
	Thresholds enforcement.Thresholds
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8086
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "./data/enforcement"
	}
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = scoring.DefaultThreshold
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Thresholds == (enforcement.Thresholds{}) {
		cfg.Thresholds = enforcement.DefaultThresholds()
	}
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

type service struct {
	config  Config
	logger  *logging.Logger
	router  *gin.Engine
	store   *bstore.Store
	quality *quality.Service
	metrics *observability.ValidationMetrics
	limiter *middleware.RateLimiter
	closed  bool
}

// New creates a new orchestrator Service with the given configuration.
//
// Initialization order: logging, enforcement store, rule engine,
// scorer, AI oracle (OpenAI credentials come from the environment),
// enforcement policy, quality service, HTTP router. Any failure closes
// what was already opened.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	s.logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(s.config.LogLevel),
		LogDir:  s.config.LogDir,
		Service: "orchestrator",
		JSON:    true,
	})
	log := s.logger.Slog()

	var err error
	if s.config.InMemoryStore {
		s.store, err = bstore.NewInMemoryStore()
	} else {
		storeCfg := bstore.DefaultConfig()
		storeCfg.Path = s.config.StorePath
		storeCfg.Logger = log
		s.store, err = bstore.NewStore(storeCfg)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening enforcement store: %w", err)
	}

	engine, err := rules.NewEngine()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("building rule engine: %w", err)
	}

	client, err := llm.NewOpenAIClient()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	if !s.config.DisableMetrics {
		s.metrics = observability.InitMetrics()
	}

	oracleCfg := s.config.Oracle
	if s.metrics != nil {
		oracleCfg.Recorder = s.metrics
	}
	oracle := llm.NewOracle(client, oracleCfg)

	emitter := enforcement.NewEmitter(s.store, s.store, log)

	s.quality, err = quality.NewService(quality.Dependencies{
		Rules:    engine,
		Scorer:   scoring.NewScorerWithThreshold(s.config.ScoreThreshold),
		Oracle:   oracle,
		Policy:   enforcement.NewPolicy(s.config.Thresholds),
		Attempts: s.store,
		Emitter:  emitter,
	}, quality.Config{
		ExplainTraces: s.config.ExplainTraces,
		Logger:        log,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("building quality service: %w", err)
	}

	s.initRouter()

	log.Info("orchestrator initialized",
		"port", s.config.Port,
		"in_memory_store", s.config.InMemoryStore,
		"explain_traces", s.config.ExplainTraces)
	return s, nil
}

// initRouter sets up the gin router with middleware and all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery())
	s.limiter = middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)
	s.router.Use(s.limiter.Middleware())

	routes.SetupRoutes(s.router, s.quality, s.store, s.metrics)
}

// Run starts the HTTP server and blocks until the context is canceled,
// a SIGINT/SIGTERM arrives, or the server fails. Shutdown is graceful
// within Config.ShutdownTimeout.
func (s *service) Run(ctx context.Context) error {
	defer s.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log := s.logger.Slog()
	log.Info("starting orchestrator server", "addr", srv.Addr)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down orchestrator server")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// Router returns the underlying gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Close stops the rate limiter and releases the enforcement store and
// the logger.
func (s *service) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	if s.logger != nil {
		if err := s.logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing logger: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
