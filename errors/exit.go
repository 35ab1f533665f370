package errors

// Process exit codes.
const (
	ExitOK            = 0
	ExitStageFailure  = 1
	ExitUsage         = 2
	ExitConfiguration = 3
	ExitInput         = 4
)

// ExitCode maps an error to the process exit code the CLI reports.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch code := CodeOf(err); {
	case code == ErrCodeConfiguration, code == ErrCodeMissingDependency:
		return ExitConfiguration
	case IsInputCode(code):
		return ExitInput
	default:
		return ExitStageFailure
	}
}
