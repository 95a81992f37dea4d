package sandbox

import (
	"context"
	"time"
)

// RunResult is the raw outcome of one isolated execution unit.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Sandbox abstracts the isolation runtime. One Run call corresponds to
// exactly one disposable execution unit; units are never reused.
type Sandbox interface {
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
	EnsureImage(ctx context.Context, image string) error
	// Ping reports whether the isolation runtime is reachable.
	Ping(ctx context.Context) error
}

// RunSpec configures one execution unit. StagingDir is bind-mounted
// read-only at MountTarget inside the unit.
type RunSpec struct {
	Image          string
	StagingDir     string
	MountTarget    string
	Command        []string
	MemoryBytes    int64
	CPUFraction    float64
	NetworkEnabled bool
	Timeout        time.Duration
}
