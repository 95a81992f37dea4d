package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/fallback"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/report"
	"github.com/codevet/crucible/internal/sandbox"
)

// ErrNoTestCases signals caller misuse: every submission needs at least
// one test case. This is the only condition surfaced as a Go error; all
// candidate-code faults come back inside the ExecutionReport.
var ErrNoTestCases = errors.New("submission has no test cases")

const probeTimeout = 5 * time.Second

// Executor is the single entry point for collaborators. It probes the
// isolation runtime once, caches the result for the process lifetime,
// and routes every submission to the sandbox orchestrator or, when
// explicitly allowed, the degraded in-process path.
type Executor struct {
	registry      *languages.Registry
	sandbox       sandbox.Sandbox
	orchestrator  *sandbox.Orchestrator
	fallback      *fallback.Executor
	allowInsecure bool
	logger        *zerolog.Logger

	probeOnce sync.Once
	sandboxOK bool
}

func NewExecutor(
	registry *languages.Registry,
	sb sandbox.Sandbox,
	orch *sandbox.Orchestrator,
	fb *fallback.Executor,
	allowInsecure bool,
	logger *zerolog.Logger,
) *Executor {
	return &Executor{
		registry:      registry,
		sandbox:       sb,
		orchestrator:  orch,
		fallback:      fb,
		allowInsecure: allowInsecure,
		logger:        logger,
	}
}

// SandboxAvailable reports the cached probe result, probing on first
// use. Probing is expensive relative to a submission, so it is never
// repeated per call.
func (e *Executor) SandboxAvailable() bool {
	e.probeOnce.Do(func() {
		if e.sandbox == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		if err := e.sandbox.Ping(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("isolation runtime unreachable")
			return
		}
		e.sandboxOK = true
	})
	return e.sandboxOK
}

// Execute runs one submission and always returns a complete report for
// candidate-level faults. The returned error is reserved for caller
// misuse (empty test cases).
func (e *Executor) Execute(ctx context.Context, req report.SubmissionRequest) (*report.ExecutionReport, error) {
	if len(req.TestCases) == 0 {
		return nil, ErrNoTestCases
	}

	canonical, ok := e.registry.Normalize(req.Language)
	if !ok {
		return report.Errorf("Unsupported language: %s", req.Language), nil
	}
	req.Language = canonical
	req.Limits = req.Limits.Clamped()

	if e.SandboxAvailable() {
		return e.orchestrator.Execute(ctx, req), nil
	}

	if !e.allowInsecure {
		return report.Errorf("isolation runtime unavailable and insecure fallback is disabled"), nil
	}
	if !e.fallback.Available(req.Language) {
		return report.Errorf("isolation runtime unavailable and no host runtime for %s", req.Language), nil
	}
	e.logger.Warn().Str("language", req.Language).Msg("executing through insecure fallback")
	return e.fallback.Execute(ctx, req), nil
}
