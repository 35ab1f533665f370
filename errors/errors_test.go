package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if err.Message != "boom" {
		t.Errorf("expected message 'boom', got %q", err.Message)
	}
	if err.Error() != "INTERNAL_ERROR: boom" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
}

func TestAppError_ErrorIncludesStageAndCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := RemoteCall("analysis", cause)
	msg := err.Error()
	if !strings.Contains(msg, "REMOTE_CALL_ERROR") {
		t.Errorf("expected code in message, got %q", msg)
	}
	if !strings.Contains(msg, "[stage analysis]") {
		t.Errorf("expected stage in message, got %q", msg)
	}
	if !strings.Contains(msg, "connection reset") {
		t.Errorf("expected cause in message, got %q", msg)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_SchemaViolationKeepsRawResponse(t *testing.T) {
	raw := "```json\n{\"risk_level\": \"low\"}\n```"
	err := SchemaViolation("stage1", "missing required field \"complexity\"", raw)
	if err.Code != ErrCodeSchemaViolation {
		t.Errorf("expected SCHEMA_VIOLATION, got %s", err.Code)
	}
	if err.Stage != "stage1" {
		t.Errorf("expected stage1, got %q", err.Stage)
	}
	if err.Details["raw_response"] != raw {
		t.Errorf("expected raw response in details, got %v", err.Details["raw_response"])
	}
}

func TestAppError_StreamInterrupted(t *testing.T) {
	err := StreamInterrupted("draft", "Hello, wo", fmt.Errorf("eof"))
	if err.Details["partial_text"] != "Hello, wo" {
		t.Errorf("expected partial text, got %v", err.Details["partial_text"])
	}
	if err.Details["truncated"] != true {
		t.Error("expected truncated=true")
	}
}

func TestAppError_MissingDependency(t *testing.T) {
	err := MissingDependency("summary", "analysis")
	if err.Code != ErrCodeMissingDependency {
		t.Errorf("expected MISSING_DEPENDENCY, got %s", err.Code)
	}
	if err.Details["dependency"] != "analysis" {
		t.Errorf("expected dependency=analysis, got %v", err.Details["dependency"])
	}
}

func TestAppError_InputConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"not found", InputNotFound("a.diff"), ErrCodeInputNotFound},
		{"empty", EmptyContent("-"), ErrCodeEmptyContent},
		{"fetch", FetchFailed("https://example.com", fmt.Errorf("dns")), ErrCodeFetchError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Details["source"] == nil {
				t.Error("expected source detail")
			}
			if !IsInputError(tc.err) {
				t.Error("expected IsInputError to be true")
			}
		})
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := Configuration("bad").WithDetails(map[string]any{"a": 1}).WithDetail("b", 2)
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	inner := MissingCredential("ANTHROPIC_API_KEY")
	wrapped := fmt.Errorf("startup: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr != inner {
		t.Error("expected the same AppError instance")
	}
	if CodeOf(wrapped) != ErrCodeConfiguration {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", CodeOf(wrapped))
	}
	if !Is(wrapped, ErrCodeConfiguration) {
		t.Error("expected Is to match")
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if CodeOf(fmt.Errorf("plain")) != ErrCodeInternal {
		t.Error("expected INTERNAL_ERROR for a plain error")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"configuration", MissingCredential("X"), ExitConfiguration},
		{"missing dependency", MissingDependency("b", "a"), ExitConfiguration},
		{"input", InputNotFound("x"), ExitInput},
		{"schema", SchemaViolation("s", "bad", "raw"), ExitStageFailure},
		{"remote", RemoteCall("s", fmt.Errorf("x")), ExitStageFailure},
		{"plain", fmt.Errorf("x"), ExitStageFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}
