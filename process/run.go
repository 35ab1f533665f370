package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// ErrNoBinary is returned by Run for a Command without a Binary.
var ErrNoBinary = errors.New("process: binary is required")

// ExitError reports a subprocess that ran but did not succeed.
type ExitError struct {
	// Command is the rendered command line.
	Command string
	// Code is the exit code, -1 when the process was killed.
	Code int
	// Stderr is the last non-empty stderr line.
	Stderr string
	// Err is the underlying exec or context error.
	Err error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("process: %s exited with code %d: %s", e.Command, e.Code, e.Stderr)
	}
	return fmt.Sprintf("process: %s exited with code %d: %v", e.Command, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Run starts cmd, waits for it, and returns what it printed. On context
// cancellation the process group gets SIGTERM, then SIGKILL once the grace
// period is over. A non-zero exit yields the Result and an *ExitError.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, ErrNoBinary
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running caller-chosen commands is this package's job
	c.Dir = cmd.Dir
	c.Env = environ(cmd.Env)
	c.Stdin = cmd.Stdin
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	exitErr := &ExitError{Command: cmd.String(), Code: result.ExitCode, Stderr: result.StderrLine(), Err: err}
	if ctx.Err() != nil {
		exitErr.Err = ctx.Err()
	}
	return result, exitErr
}

// environ returns nil, inheriting the parent environment, unless extra
// variables are given.
func environ(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
