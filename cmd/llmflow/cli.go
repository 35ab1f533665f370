package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/workflows"
)

const appName = "llmflow"

// cli holds the streams, collaborators, and global flag values shared by
// every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	registry  *workflows.Registry
	newClient func(cfg llm.Config) (llm.Client, error)

	configFile string
	envFile    string
	dialect    string
	model      string
	logLevel   string
	plain      bool
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		registry:  workflows.Builtin(),
		newClient: newLLMClient,
	}
}

func newLLMClient(cfg llm.Config) (llm.Client, error) {
	client, err := llm.New(cfg)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.Configuration("cannot create llm client").WithCause(err)
	}
	return client, nil
}

// reportedError carries the exit code of a failure already written by the
// report.
type reportedError struct{ code int }

func (e *reportedError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// execute runs the command line and returns the process exit code.
func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return c.exitCode(root, err)
}

func (c *cli) exitCode(root *cobra.Command, err error) int {
	if err == nil {
		return errors.ExitOK
	}

	var reported *reportedError
	if stderrors.As(err, &reported) {
		return reported.code
	}
	if appErr, ok := errors.AsAppError(err); ok {
		fmt.Fprintf(c.stderr, "Error: %s\n", appErr.Error())
		return errors.ExitCode(appErr)
	}

	// Anything else is a command-line mistake.
	fmt.Fprintf(c.stderr, "Error: %s\n", err)
	fmt.Fprintf(c.stderr, "Run '%s --help' for usage.\n", root.CommandPath())
	return errors.ExitUsage
}
