package pipeline

import (
	"time"

	"github.com/kbukum/llmflow/structured"
)

// Kind is the output kind a stage declares.
type Kind int

const (
	// KindText is final prose.
	KindText Kind = iota
	// KindStructured is a schema-validated record.
	KindStructured
	// KindStreamed is text assembled from streamed fragments.
	KindStreamed
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	case KindStreamed:
		return "streamed"
	default:
		return "unknown"
	}
}

// ParseKind maps a kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "text", "":
		return KindText, true
	case "structured":
		return KindStructured, true
	case "streamed", "stream":
		return KindStreamed, true
	}
	return 0, false
}

// Result is the recorded output of one stage. It is a value: Record
// returns a copy, so consumers cannot change what was recorded.
type Result struct {
	kind   Kind
	text   string
	record structured.Record
}

// TextResult creates a KindText result.
func TextResult(text string) Result { return Result{kind: KindText, text: text} }

// StreamedResult creates a KindStreamed result from the assembled buffer.
func StreamedResult(text string) Result { return Result{kind: KindStreamed, text: text} }

// StructuredResult creates a KindStructured result holding a copy of r.
func StructuredResult(r structured.Record) Result {
	return Result{kind: KindStructured, record: r.Clone()}
}

// Kind returns the result kind.
func (r Result) Kind() Kind { return r.kind }

// Text returns the text of a text or streamed result. For a structured
// result it returns the record as indented JSON.
func (r Result) Text() string {
	if r.kind == KindStructured {
		return r.record.JSON()
	}
	return r.text
}

// Record returns a copy of a structured result's record, or nil.
func (r Result) Record() structured.Record { return r.record.Clone() }

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}
