package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Output returns stdout as a string.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return string(r.Stdout)
}

// StderrLine returns the last non-empty line of stderr, which for most
// command-line tools carries the failure reason.
func (r *Result) StderrLine() string {
	if r == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
