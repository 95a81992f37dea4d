// Package fallback is the degraded execution path used only when the
// isolation runtime is unavailable. Candidate code runs with the host
// interpreter: no container, no resource ceiling, only a soft
// wall-clock deadline. It must never be selected in a deployed
// environment without the explicit insecure-mode flag.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/compare"
	"github.com/codevet/crucible/internal/harness"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/report"
)

const degradedWarning = "insecure fallback executor: candidate code ran without isolation"

type Executor struct {
	registry    *languages.Registry
	logger      *zerolog.Logger
	stagingRoot string
}

func NewExecutor(registry *languages.Registry, logger *zerolog.Logger, stagingRoot string) *Executor {
	if stagingRoot == "" {
		stagingRoot = os.TempDir()
	}
	return &Executor{registry: registry, logger: logger, stagingRoot: stagingRoot}
}

// Available reports whether the host interpreter for langID resolves
// on PATH.
func (e *Executor) Available(langID string) bool {
	lang, err := e.registry.Get(langID)
	if err != nil {
		return false
	}
	_, err = exec.LookPath(lang.Config.HostCommand)
	return err == nil
}

// Execute mirrors the orchestrator contract but runs the generated
// harness directly on the host. Verdicts are re-scored host-side with
// the legacy comparator so the two comparison paths stay in parity.
func (e *Executor) Execute(ctx context.Context, req report.SubmissionRequest) *report.ExecutionReport {
	lang, err := e.registry.Get(req.Language)
	if err != nil {
		return report.Errorf("Unsupported language: %s", req.Language)
	}

	dir, err := os.MkdirTemp(e.stagingRoot, "fallback-*")
	if err != nil {
		return report.Errorf("failed to stage submission: %v", err)
	}
	defer os.RemoveAll(dir)

	entryPoint := req.EntryPoint
	if entryPoint == "" {
		entryPoint, _ = harness.DeriveEntryPoint(lang.ID, req.SourceCode)
	}

	solutionPath := filepath.Join(dir, lang.Config.SourceFile)
	testsPath := filepath.Join(dir, lang.Config.TestsFile)
	harnessPath := filepath.Join(dir, lang.Config.HarnessFile)

	harnessSrc, err := harness.Generate(lang.ID, solutionPath, testsPath, entryPoint)
	if err != nil {
		return report.Errorf("failed to generate harness: %v", err)
	}
	testsJSON, err := json.Marshal(req.TestCases)
	if err != nil {
		return report.Errorf("failed to serialize test cases: %v", err)
	}

	for path, data := range map[string][]byte{
		solutionPath: []byte(req.SourceCode),
		harnessPath:  []byte(harnessSrc),
		testsPath:    testsJSON,
	} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return report.Errorf("failed to stage submission: %v", err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, req.Limits.Timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, lang.Config.HostCommand, harnessPath)
	cmd.Dir = dir
	out, runErr := cmd.CombinedOutput()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		rep := report.Timeoutf("Execution timed out")
		rep.Warning = degradedWarning
		return rep
	}

	rep, parseErr := report.ParseHarnessOutput(string(out))
	if parseErr != nil {
		detail := parseErr.Error()
		if runErr != nil {
			detail = fmt.Sprintf("%v (%v)", parseErr, runErr)
		}
		e.logger.Warn().Err(parseErr).Str("language", req.Language).Msg("fallback harness produced no result block")
		errRep := report.Errorf("failed to parse execution results: %s", detail)
		errRep.Logs = string(out)
		errRep.Warning = degradedWarning
		return errRep
	}

	e.rescore(rep, req.TestCases)
	rep.Warning = degradedWarning
	if rep.DetailedMetrics != nil {
		rep.DetailedMetrics.Degraded = true
	}
	return rep
}

// rescore recomputes pass/fail with the host comparator for every test
// that produced an output, then refreshes the aggregate counters.
func (e *Executor) rescore(rep *report.ExecutionReport, cases []report.TestCase) {
	if rep.Status != report.StatusSuccess {
		return
	}
	for i := range rep.TestResults {
		tr := &rep.TestResults[i]
		if tr.Error != nil {
			tr.Passed = false
			continue
		}
		tr.Passed = compare.Equal(tr.Output, tr.ExpectedOutput)
	}
	rep.DetailedMetrics = nil
	rep.Finalize()
}
