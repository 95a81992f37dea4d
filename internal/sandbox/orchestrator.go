package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/harness"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/report"
)

// Orchestrator drives the full lifecycle of one submission against the
// isolation runtime: stage artifacts, run a disposable unit, extract
// the sentinel-delimited verdict, clean up. Infrastructure failures are
// mapped to error-status reports; the caller never sees a raw fault.
type Orchestrator struct {
	sandbox     Sandbox
	registry    *languages.Registry
	logger      *zerolog.Logger
	stagingRoot string
}

func NewOrchestrator(sb Sandbox, registry *languages.Registry, logger *zerolog.Logger, stagingRoot string) *Orchestrator {
	if stagingRoot == "" {
		stagingRoot = os.TempDir()
	}
	return &Orchestrator{
		sandbox:     sb,
		registry:    registry,
		logger:      logger,
		stagingRoot: stagingRoot,
	}
}

// Execute runs req inside a fresh isolated execution unit and always
// returns a complete report. req.Language must already be a canonical
// registry ID and req.Limits already clamped.
func (o *Orchestrator) Execute(ctx context.Context, req report.SubmissionRequest) *report.ExecutionReport {
	lang, err := o.registry.Get(req.Language)
	if err != nil {
		return report.Errorf("Unsupported language: %s", req.Language)
	}

	staging, cleanup, err := o.stage(lang, req)
	if err != nil {
		return report.Errorf("failed to stage submission: %v", err)
	}
	defer cleanup()

	res, err := o.sandbox.Run(ctx, RunSpec{
		Image:          lang.Config.Image,
		StagingDir:     staging,
		MountTarget:    languages.MountPath,
		Command:        lang.Config.RunCommand,
		MemoryBytes:    req.Limits.MemoryBytes,
		CPUFraction:    req.Limits.CPUFraction,
		NetworkEnabled: req.Limits.NetworkEnabled,
		Timeout:        req.Limits.Timeout(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return report.Timeoutf("Execution timed out")
		}
		if errors.Is(err, context.Canceled) {
			return report.Errorf("execution cancelled by caller")
		}
		o.logger.Error().Err(err).Str("language", req.Language).Msg("sandbox run failed")
		return report.Errorf("sandbox execution failed: %v", err)
	}
	if res.TimedOut {
		return report.Timeoutf("Execution timed out")
	}

	rep, err := report.ParseHarnessOutput(res.Stdout)
	if err != nil {
		o.logger.Warn().Err(err).Int("exit_code", res.ExitCode).Msg("no result block in unit output")
		errRep := report.Errorf("failed to parse execution results: %v", err)
		errRep.Logs = combineLogs(res.Stdout, res.Stderr)
		return errRep
	}
	if res.Stderr != "" {
		rep.Logs = combineLogs(rep.Logs, res.Stderr)
	}
	return rep
}

// stage materializes the three run artifacts (candidate source,
// generated harness, serialized test cases) into a fresh single-use
// directory under the staging root. The returned cleanup removes the
// directory unconditionally.
func (o *Orchestrator) stage(lang languages.Language, req report.SubmissionRequest) (string, func(), error) {
	dir, err := os.MkdirTemp(o.stagingRoot, "submission-"+uuid.NewString()[:8]+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			o.logger.Warn().Err(rmErr).Str("dir", dir).Msg("failed to remove staging dir")
		}
	}

	entryPoint := req.EntryPoint
	if entryPoint == "" {
		// Harness reports the structured no-entry-point error itself
		// when the scan finds nothing.
		entryPoint, _ = harness.DeriveEntryPoint(lang.ID, req.SourceCode)
	}

	harnessSrc, err := harness.Generate(
		lang.ID,
		languages.MountPath+"/"+lang.Config.SourceFile,
		languages.MountPath+"/"+lang.Config.TestsFile,
		entryPoint,
	)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	testsJSON, err := json.Marshal(req.TestCases)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to serialize test cases: %w", err)
	}

	files := map[string][]byte{
		lang.Config.SourceFile:  []byte(req.SourceCode),
		lang.Config.HarnessFile: []byte(harnessSrc),
		lang.Config.TestsFile:   testsJSON,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	// The unit runs as nobody; the mount is read-only but must be
	// traversable.
	if err := os.Chmod(dir, 0o755); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to chmod staging dir: %w", err)
	}
	return dir, cleanup, nil
}

func combineLogs(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}
