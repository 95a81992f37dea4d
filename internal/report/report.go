package report

import (
	"fmt"
	"time"
)

// Status classifies the terminal state of one submission.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Default resource limits applied when the caller leaves a field unset.
const (
	DefaultMemoryBytes    = 128 << 20
	DefaultCPUFraction    = 0.5
	DefaultTimeoutSeconds = 10
)

// TestCase is one input/expected-output pair. Input may be a sequence
// (positional arguments), a map (keyword arguments) or a single scalar;
// the harness branches on the shape when invoking the entry point.
type TestCase struct {
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
}

// ResourceLimits bounds one isolated execution unit.
type ResourceLimits struct {
	MemoryBytes    int64   `json:"memory_bytes,omitempty"`
	CPUFraction    float64 `json:"cpu_fraction,omitempty"`
	TimeoutSeconds int     `json:"wall_clock_timeout_seconds,omitempty"`
	NetworkEnabled bool    `json:"network_enabled,omitempty"`
}

// Clamped fills unset fields with defaults and forces CPUFraction into
// (0, 1]. Out-of-range values are never rejected, only adjusted.
func (l ResourceLimits) Clamped() ResourceLimits {
	if l.MemoryBytes <= 0 {
		l.MemoryBytes = DefaultMemoryBytes
	}
	if l.CPUFraction <= 0 {
		l.CPUFraction = DefaultCPUFraction
	} else if l.CPUFraction > 1 {
		l.CPUFraction = 1
	}
	if l.TimeoutSeconds <= 0 {
		l.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return l
}

// Timeout returns the wall-clock deadline as a duration.
func (l ResourceLimits) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// SubmissionRequest is one candidate submission. It is consumed once and
// produces exactly one ExecutionReport; no state survives the call.
type SubmissionRequest struct {
	Language   string         `json:"language"`
	SourceCode string         `json:"source_code"`
	TestCases  []TestCase     `json:"test_cases"`
	EntryPoint string         `json:"entry_point,omitempty"`
	Limits     ResourceLimits `json:"resource_limits,omitempty"`
}

// TestResult is the verdict for a single test case. Exactly one of
// Output/Error is set on terminal states.
type TestResult struct {
	TestCaseID     int     `json:"test_case_id"`
	Input          any     `json:"input"`
	ExpectedOutput any     `json:"expected_output"`
	Passed         bool    `json:"passed"`
	Output         any     `json:"output"`
	Error          *string `json:"error"`
	ExecutionTime  float64 `json:"execution_time_seconds"`
	IsHidden       bool    `json:"is_hidden"`
}

// DetailedMetrics are aggregate timings computed over the test results.
type DetailedMetrics struct {
	AvgExecutionTime float64 `json:"avg_execution_time"`
	MaxExecutionTime float64 `json:"max_execution_time"`
	SuccessRate      float64 `json:"success_rate"`
	Degraded         bool    `json:"degraded,omitempty"`
}

// ExecutionReport is the uniform verdict returned for every submission,
// whatever its failure mode. Invariant: when Status is StatusSuccess,
// PassedCount+FailedCount equals len(TestResults).
type ExecutionReport struct {
	Status          Status           `json:"status"`
	PassedCount     int              `json:"passed_count"`
	FailedCount     int              `json:"failed_count"`
	AllPassed       bool             `json:"all_passed"`
	TotalTime       float64          `json:"total_execution_time_seconds"`
	TestResults     []TestResult     `json:"test_results"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	DetailedMetrics *DetailedMetrics `json:"detailed_metrics,omitempty"`
	Logs            string           `json:"logs,omitempty"`
	Warning         string           `json:"warning,omitempty"`
}

// Errorf builds an error-status report with a formatted message.
func Errorf(format string, args ...any) *ExecutionReport {
	return &ExecutionReport{
		Status:       StatusError,
		TestResults:  []TestResult{},
		ErrorMessage: fmt.Sprintf(format, args...),
	}
}

// Timeoutf builds a timeout-status report.
func Timeoutf(format string, args ...any) *ExecutionReport {
	return &ExecutionReport{
		Status:       StatusTimeout,
		TestResults:  []TestResult{},
		ErrorMessage: fmt.Sprintf(format, args...),
	}
}

// Finalize recomputes the aggregate counters and fills DetailedMetrics
// when the harness did not provide them.
func (r *ExecutionReport) Finalize() {
	if r.Status != StatusSuccess {
		if r.DetailedMetrics == nil {
			r.DetailedMetrics = &DetailedMetrics{}
		}
		return
	}

	passed, failed := 0, 0
	var total, max float64
	for _, tr := range r.TestResults {
		if tr.Passed {
			passed++
		} else {
			failed++
		}
		total += tr.ExecutionTime
		if tr.ExecutionTime > max {
			max = tr.ExecutionTime
		}
	}
	r.PassedCount = passed
	r.FailedCount = failed
	r.AllPassed = failed == 0 && passed > 0
	if r.TotalTime == 0 {
		r.TotalTime = total
	}

	if r.DetailedMetrics == nil {
		m := &DetailedMetrics{MaxExecutionTime: max}
		if n := len(r.TestResults); n > 0 {
			m.AvgExecutionTime = r.TotalTime / float64(n)
			m.SuccessRate = float64(passed) / float64(n)
		}
		r.DetailedMetrics = m
	}
}
