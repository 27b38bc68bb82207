package transport

// file: internal/transport/process.go

import (
	"context"
	"os"
	"os/exec"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/logging"
)

// ProcessTransport pairs an NDJSONTransport with the *exec.Cmd it frames, so
// the supervisor can join the process on shutdown.
type ProcessTransport struct {
	*NDJSONTransport
	cmd *exec.Cmd
}

// SpawnOptions configures the child process launch.
type SpawnOptions struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to os.Environ() when non-nil
}

// Spawn starts the app-server child process, inheriting stderr for operator
// visibility and piping stdin/stdout for NDJSON framing. Fails with
// TransportSpawnFailed on any error starting the process.
func Spawn(ctx context.Context, opts SpawnOptions, logger logging.Logger) (*ProcessTransport, error) {
	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Stderr = os.Stderr
	if opts.Env != nil {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperrors.NewTransportSpawnFailed(err, opts.Command)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.NewTransportSpawnFailed(err, opts.Command)
	}
	if err := cmd.Start(); err != nil {
		return nil, apperrors.NewTransportSpawnFailed(err, opts.Command)
	}

	nd := NewNDJSONTransport(stdout, stdin, stdin, logger)
	return &ProcessTransport{NDJSONTransport: nd, cmd: cmd}, nil
}

// Wait blocks until the child process exits, surfacing its exit error.
func (p *ProcessTransport) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return apperrors.NewInternal("app-server process exited with error", err, nil)
	}
	return nil
}

// Signal requests the child process exit gracefully.
func (p *ProcessTransport) Signal() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(os.Interrupt)
}
