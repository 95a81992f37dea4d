package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/metrics"
)

const cpuPeriodMicros = 100000

type DockerSandbox struct {
	cli    *client.Client
	logger *zerolog.Logger
}

func NewDockerSandbox(logger *zerolog.Logger) (*DockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerSandbox{cli: cli, logger: logger}, nil
}

// Ping checks that the Docker daemon is reachable.
func (s *DockerSandbox) Ping(ctx context.Context) error {
	_, err := s.cli.Ping(ctx)
	return err
}

// Run creates a single-use container for spec, waits for it to finish
// within spec.Timeout, and collects its output. The container is
// force-removed on every path: success, failure or timeout.
func (s *DockerSandbox) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	// Security: Limit PID count to prevent fork bombs
	pidsLimit := int64(64)

	networkDisabled := !spec.NetworkEnabled
	networkMode := container.NetworkMode("none")
	if spec.NetworkEnabled {
		networkMode = container.NetworkMode("bridge")
	}

	createStart := time.Now()
	resp, err := s.cli.ContainerCreate(ctx, &container.Config{
		Image:           spec.Image,
		Cmd:             spec.Command,
		Tty:             false,
		NetworkDisabled: networkDisabled,
		WorkingDir:      spec.MountTarget,
		User:            "nobody",
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:     spec.MemoryBytes,
			MemorySwap: spec.MemoryBytes, // No swap allowed
			CPUPeriod:  cpuPeriodMicros,
			CPUQuota:   int64(spec.CPUFraction * cpuPeriodMicros),
			PidsLimit:  &pidsLimit, // Prevent fork bombs
		},
		NetworkMode:    networkMode,
		ReadonlyRootfs: true,
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
		Mounts: []mount.Mount{
			{
				Type:     mount.TypeBind,
				Source:   spec.StagingDir,
				Target:   spec.MountTarget,
				ReadOnly: true,
			},
		},
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=16m,mode=1777",
		},
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	// Teardown is unconditional; the removal context is detached so a
	// cancelled request never leaks its unit.
	defer s.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})

	if err := s.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	metrics.UnitCreationTime.Observe(float64(time.Since(createStart).Milliseconds()))

	started := time.Now()
	waitCh, waitErrCh := s.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	timer := time.NewTimer(spec.Timeout)
	defer timer.Stop()

	var exitCode int
	timedOut := false

	select {
	case status := <-waitCh:
		exitCode = int(status.StatusCode)
	case err := <-waitErrCh:
		return nil, fmt.Errorf("failed waiting for container: %w", err)
	case <-timer.C:
		// Wall-clock deadline hit; the unit cannot be trusted to
		// observe a cooperative cancellation, so kill it outright.
		timedOut = true
		if killErr := s.cli.ContainerKill(context.Background(), resp.ID, "SIGKILL"); killErr != nil {
			s.logger.Warn().Err(killErr).Str("container", resp.ID).Msg("failed to kill timed-out container")
		}
	case <-ctx.Done():
		if killErr := s.cli.ContainerKill(context.Background(), resp.ID, "SIGKILL"); killErr != nil {
			s.logger.Warn().Err(killErr).Str("container", resp.ID).Msg("failed to kill cancelled container")
		}
		return nil, ctx.Err()
	}
	duration := time.Since(started)

	if timedOut {
		return &RunResult{TimedOut: true, Duration: duration}, nil
	}

	stdout, stderr, err := s.collectLogs(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read container logs: %w", err)
	}

	return &RunResult{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

func (s *DockerSandbox) collectLogs(ctx context.Context, containerID string) (string, string, error) {
	reader, err := s.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", err
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}

func (s *DockerSandbox) EnsureImage(ctx context.Context, img string) error {
	_, _, err := s.cli.ImageInspectWithRaw(ctx, img)
	if err == nil {
		return nil // Image already exists
	}

	s.logger.Info().Str("image", img).Msg("pulling docker image")
	reader, err := s.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	defer reader.Close()

	// Important: must consume the reader to finish the pull
	_, _ = io.Copy(io.Discard, reader)

	s.logger.Info().Str("image", img).Msg("successfully pulled docker image")
	return nil
}
