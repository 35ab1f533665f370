package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors: the pipeline never starts.
const (
	// ErrCodeConfiguration indicates a missing credential or invalid setting.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeMissingDependency indicates a stage was scheduled before a
	// stage it depends on. This is a programming error, not a data error.
	ErrCodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"
)

// Input acquisition errors
const (
	// ErrCodeInputNotFound indicates the input source does not exist.
	ErrCodeInputNotFound ErrorCode = "INPUT_NOT_FOUND"
	// ErrCodeEmptyContent indicates the input source produced no text.
	ErrCodeEmptyContent ErrorCode = "EMPTY_CONTENT"
	// ErrCodeFetchError indicates reading or fetching the input failed.
	ErrCodeFetchError ErrorCode = "FETCH_ERROR"
)

// Stage errors
const (
	// ErrCodeRemoteCall indicates the text-generation service call failed.
	ErrCodeRemoteCall ErrorCode = "REMOTE_CALL_ERROR"
	// ErrCodeStreamInterrupted indicates a streamed response ended before
	// its end marker.
	ErrCodeStreamInterrupted ErrorCode = "STREAM_INTERRUPTED"
	// ErrCodeSchemaViolation indicates structured output failed to parse
	// or did not satisfy its schema.
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var inputCodes = map[ErrorCode]bool{
	ErrCodeInputNotFound: true,
	ErrCodeEmptyContent:  true,
	ErrCodeFetchError:    true,
}

// IsInputCode returns true if the code belongs to input acquisition.
func IsInputCode(code ErrorCode) bool {
	return inputCodes[code]
}
