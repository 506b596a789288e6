package scancli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrProcessStart means the CLI process could not be started at all.
var ErrProcessStart = errors.New("could not start the scan process")

// Command is a process to run.
type Command struct {
	Args []string
	Env  []string
	Dir  string
}

// Executor runs a command to completion, sending its merged stdout and stderr
// to out. A non-zero exit status is returned as the exit code, not an error.
type Executor interface {
	Run(ctx context.Context, cmd Command, out io.Writer) (int, error)
}

// NewExecutor returns the os/exec backed Executor.
func NewExecutor() Executor {
	return &osExecutor{}
}

type osExecutor struct{}

func (e *osExecutor) Run(ctx context.Context, c Command, out io.Writer) (int, error) {
	if len(c.Args) == 0 {
		return -1, fmt.Errorf("%w: empty command", ErrProcessStart)
	}

	//nolint:gosec // the command line is built from the configured installation
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w: %w", ErrProcessStart, err)
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, fmt.Errorf("failed waiting for the scan process: %w", err)
	}
}
