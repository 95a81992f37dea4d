package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codevet/crucible/internal/api"
	"github.com/codevet/crucible/internal/executor"
	"github.com/codevet/crucible/internal/fallback"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/queue"
	"github.com/codevet/crucible/internal/report"
	"github.com/codevet/crucible/internal/sandbox"
	"github.com/codevet/crucible/internal/worker"
)

type stubSandbox struct {
	stdout string
}

func (s *stubSandbox) Run(ctx context.Context, spec sandbox.RunSpec) (*sandbox.RunResult, error) {
	return &sandbox.RunResult{Stdout: s.stdout}, nil
}
func (s *stubSandbox) EnsureImage(ctx context.Context, image string) error { return nil }
func (s *stubSandbox) Ping(ctx context.Context) error                      { return nil }

// newTestStack wires handler, queue and one worker over a stub sandbox.
func newTestStack(t *testing.T, stdout string) *api.Handler {
	t.Helper()
	logger := zerolog.Nop()
	registry := languages.NewRegistry()
	stub := &stubSandbox{stdout: stdout}
	orch := sandbox.NewOrchestrator(stub, registry, &logger, t.TempDir())
	fb := fallback.NewExecutor(registry, &logger, t.TempDir())
	eng := executor.NewExecutor(registry, stub, orch, fb, false, &logger)
	q := queue.NewManager(10)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go worker.NewWorker(0, eng, q, nil, &logger).Start(ctx)

	return api.NewHandler(q, registry)
}

func harnessBlock(t *testing.T, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return report.SentinelStart + "\n" + string(data) + "\n" + report.SentinelEnd + "\n"
}

func TestExecuteEndpoint(t *testing.T) {
	stdout := harnessBlock(t, map[string]any{
		"status":       "success",
		"passed_count": 1,
		"failed_count": 0,
		"all_passed":   true,
		"test_results": []any{
			map[string]any{"test_case_id": 0, "input": []any{2, 3}, "expected_output": 5, "passed": true, "output": 5, "error": nil, "execution_time_seconds": 0.001, "is_hidden": false},
		},
	})
	handler := newTestStack(t, stdout)

	body := `{
		"language": "python",
		"source_code": "def add(a, b):\n    return a + b\n",
		"test_cases": [{"input": [2, 3], "expected_output": 5}]
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body))
	handler.Execute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rep report.ExecutionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Equal(t, report.StatusSuccess, rep.Status)
	require.Equal(t, 1, rep.PassedCount)
	require.True(t, rep.AllPassed)
}

func TestExecuteEndpointValidation(t *testing.T) {
	handler := newTestStack(t, "")

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader("{not json"))
		handler.Execute(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing source", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(`{"language":"python","test_cases":[{"input":1,"expected_output":1}]}`))
		handler.Execute(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no test cases", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(`{"language":"python","source_code":"def f(x):\n    return x\n"}`))
		handler.Execute(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/execute", nil)
		handler.Execute(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestExecuteEndpointUnsupportedLanguage(t *testing.T) {
	handler := newTestStack(t, "")

	body := `{
		"language": "brainfuck",
		"source_code": "+++",
		"test_cases": [{"input": 1, "expected_output": 1}]
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body))
	handler.Execute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep report.ExecutionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Equal(t, report.StatusError, rep.Status)
	require.Equal(t, "Unsupported language: brainfuck", rep.ErrorMessage)
}

func TestLanguagesEndpoint(t *testing.T) {
	handler := newTestStack(t, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	handler.Languages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var langs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
	require.Len(t, langs, 2)
}
