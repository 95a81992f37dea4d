package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinels delimiting the machine-parseable result block inside the
// unit's mixed console output. The harness emits each on its own line.
const (
	SentinelStart = "__RESULTS_JSON_START__"
	SentinelEnd   = "__RESULTS_JSON_END__"
)

var (
	ErrNoSentinels   = errors.New("result sentinels not found in output")
	ErrMalformedJSON = errors.New("malformed result block")
)

// ExtractBlock locates the sentinel-delimited JSON payload in raw unit
// output. Everything outside the markers (candidate prints, runtime
// banners) is returned as logs, preserved verbatim.
//
// All candidate stdout precedes the harness's own block, which is
// emitted last, so the block is anchored on the final start sentinel:
// a candidate printing sentinel markers of its own cannot substitute
// a verdict.
func ExtractBlock(output string) (payload string, logs string, err error) {
	start := strings.LastIndex(output, SentinelStart)
	if start < 0 {
		return "", output, fmt.Errorf("%w: missing %s", ErrNoSentinels, SentinelStart)
	}
	afterStart := start + len(SentinelStart)
	end := strings.Index(output[afterStart:], SentinelEnd)
	if end < 0 {
		return "", output, fmt.Errorf("%w: missing %s", ErrNoSentinels, SentinelEnd)
	}
	end += afterStart

	payload = strings.TrimSpace(output[afterStart:end])
	logs = strings.TrimSpace(output[:start] + output[end+len(SentinelEnd):])
	return payload, logs, nil
}

// ParseHarnessOutput extracts and decodes the result block from raw unit
// output, attaching the surrounding text as Logs and filling aggregate
// metrics the harness did not compute. A missing or undecodable block is
// reported as an error, never propagated as a parse exception.
func ParseHarnessOutput(output string) (*ExecutionReport, error) {
	payload, logs, err := ExtractBlock(output)
	if err != nil {
		return nil, err
	}

	var rep ExecutionReport
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if rep.Status == "" {
		rep.Status = StatusSuccess
	}
	if rep.TestResults == nil {
		rep.TestResults = []TestResult{}
	}
	rep.Logs = logs
	rep.Finalize()
	return &rep, nil
}
