package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codevet/crucible/internal/api"
	"github.com/codevet/crucible/internal/config"
	"github.com/codevet/crucible/internal/database"
	"github.com/codevet/crucible/internal/executor"
	"github.com/codevet/crucible/internal/fallback"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/limiter"
	"github.com/codevet/crucible/internal/queue"
	"github.com/codevet/crucible/internal/sandbox"
	"github.com/codevet/crucible/internal/worker"
)

type Server struct {
	conf        *config.Config
	logger      *zerolog.Logger
	httpServer  *http.Server
	db          *database.Database
	registry    *languages.Registry
	sandbox     sandbox.Sandbox
	executor    *executor.Executor
	queue       *queue.Manager
	workers     []*worker.Worker
	rateLimiter *limiter.RateLimiter
	cancelFunc  context.CancelFunc
}

func New(
	conf *config.Config,
	logger *zerolog.Logger,
) (*Server, error) {

	// The audit store is optional; an unset DB_HOST runs verdict-only.
	var db *database.Database
	if conf.Db.Host != "" {
		var err error
		db, err = database.New(conf, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	registry := languages.NewRegistry()

	var sb sandbox.Sandbox
	dockerSb, err := sandbox.NewDockerSandbox(logger)
	if err != nil {
		if !conf.Engine.AllowInsecureFallback {
			return nil, fmt.Errorf("failed to create sandbox: %w", err)
		}
		logger.Warn().Err(err).Msg("isolation runtime client unavailable, insecure fallback permitted")
	} else {
		sb = dockerSb
	}

	orch := sandbox.NewOrchestrator(sb, registry, logger, conf.Engine.StagingDir)
	fb := fallback.NewExecutor(registry, logger, conf.Engine.StagingDir)
	exec := executor.NewExecutor(registry, sb, orch, fb, conf.Engine.AllowInsecureFallback, logger)

	q := queue.NewManager(conf.Engine.QueueCapacity)

	// Rate limiter: 100 req/sec global, 10 req/sec per IP, 50 concurrent executions
	rl := limiter.NewRateLimiter(100, 10, 20, 50)
	rl.StartCleanup(5 * time.Minute)

	handler := api.NewHandler(q, registry)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/languages", handler.Languages)
	mux.HandleFunc("/execute", rl.Middleware(handler.Execute))

	httpServer := &http.Server{
		Addr:         ":" + conf.Server.Port,
		Handler:      mux,
		ReadTimeout:  time.Duration(conf.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(conf.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(conf.Server.IdleTimeout) * time.Second,
	}

	workers := make([]*worker.Worker, conf.Engine.Workers)
	for i := range workers {
		workers[i] = worker.NewWorker(i, exec, q, db, logger)
	}

	s := &Server{
		conf:        conf,
		logger:      logger,
		httpServer:  httpServer,
		db:          db,
		registry:    registry,
		sandbox:     sb,
		executor:    exec,
		queue:       q,
		workers:     workers,
		rateLimiter: rl,
	}

	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("port", s.conf.Server.Port).
		Msg("starting HTTP server")

	if s.executor.SandboxAvailable() {
		if err := s.ensureImages(context.Background()); err != nil {
			return fmt.Errorf("failed to ensure runtime images: %w", err)
		}
	} else if !s.conf.Engine.AllowInsecureFallback {
		return fmt.Errorf("isolation runtime unreachable and insecure fallback is disabled")
	} else {
		s.logger.Warn().Msg("running in degraded mode: submissions execute without isolation")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel

	for _, w := range s.workers {
		go w.Start(ctx)
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

// ensureImages pre-pulls every registered runtime image so the first
// submission does not pay the pull latency.
func (s *Server) ensureImages(ctx context.Context) error {
	uniqueImages := make(map[string]bool)
	for _, l := range s.registry.List() {
		uniqueImages[l.Config.Image] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for img := range uniqueImages {
		g.Go(func() error {
			return s.sandbox.EnsureImage(gctx, img)
		})
	}
	return g.Wait()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.rateLimiter.StopCleanup()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if s.db != nil {
		s.db.Close()
	}

	return nil
}
