package pipeline

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/structured"
)

// Stage is one ordered unit of work. It receives only the results of the
// stages it declares as dependencies and must not modify them.
type Stage interface {
	Name() string
	DependsOn() []string
	Kind() Kind
	Execute(ctx context.Context, in Input, deps Deps) (Result, error)
}

// PromptFunc builds the completion request for a stage from the run input
// and the stage's dependency results. It must not have side effects.
type PromptFunc func(in Input, deps Deps) (llm.CompletionRequest, error)

// FragmentFunc receives each streamed fragment as it is appended.
type FragmentFunc func(stage, fragment string)

// StageConfig holds what every LLM-backed stage needs.
type StageConfig struct {
	Name      string
	DependsOn []string
	Prompt    PromptFunc
	Client    llm.Client
}

type baseStage struct {
	cfg StageConfig
}

func (b *baseStage) Name() string        { return b.cfg.Name }
func (b *baseStage) DependsOn() []string { return slices.Clone(b.cfg.DependsOn) }

func (b *baseStage) request(in Input, deps Deps) (llm.CompletionRequest, error) {
	if b.cfg.Prompt == nil {
		return llm.CompletionRequest{}, errors.Configuration("stage has no prompt").WithStage(b.cfg.Name)
	}
	req, err := b.cfg.Prompt(in, deps)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return req, appErr.WithStage(b.cfg.Name)
		}
		return req, errors.Internal(err).WithStage(b.cfg.Name)
	}
	return req, nil
}

func (b *baseStage) client() (llm.Client, error) {
	if b.cfg.Client == nil {
		return nil, errors.Configuration("stage has no llm client").WithStage(b.cfg.Name)
	}
	return b.cfg.Client, nil
}

func (b *baseStage) complete(ctx context.Context, in Input, deps Deps) (string, error) {
	c, err := b.client()
	if err != nil {
		return "", err
	}
	req, err := b.request(in, deps)
	if err != nil {
		return "", err
	}
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return "", errors.RemoteCall(b.cfg.Name, err)
	}
	return resp.Content, nil
}

// TextStage records the response text as-is.
type TextStage struct{ baseStage }

// NewTextStage creates a free-text stage.
func NewTextStage(cfg StageConfig) *TextStage {
	return &TextStage{baseStage{cfg: cfg}}
}

func (s *TextStage) Kind() Kind { return KindText }

func (s *TextStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	text, err := s.complete(ctx, in, deps)
	if err != nil {
		return Result{}, err
	}
	return TextResult(text), nil
}

// StructuredStage parses the response into a record and validates it
// against a schema. A response that fails either step is a
// SCHEMA_VIOLATION and nothing is recorded.
type StructuredStage struct {
	baseStage
	schema structured.Schema
}

// NewStructuredStage creates a structured-record stage.
func NewStructuredStage(cfg StageConfig, schema structured.Schema) *StructuredStage {
	return &StructuredStage{baseStage: baseStage{cfg: cfg}, schema: schema}
}

func (s *StructuredStage) Kind() Kind { return KindStructured }

// Schema returns the stage's record schema.
func (s *StructuredStage) Schema() structured.Schema { return s.schema }

func (s *StructuredStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	text, err := s.complete(ctx, in, deps)
	if err != nil {
		return Result{}, err
	}
	rec, err := structured.Parse(text, s.schema)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return Result{}, appErr.WithStage(s.cfg.Name)
		}
		return Result{}, errors.SchemaViolation(s.cfg.Name, err.Error(), text)
	}
	return StructuredResult(rec), nil
}

// StreamStage consumes a streamed response, appending fragments in
// arrival order. The recorded result is the complete buffer. A stream
// that ends without its end marker fails the stage with
// STREAM_INTERRUPTED; the partial text is kept in the error details only.
type StreamStage struct {
	baseStage
	onFragment []FragmentFunc
}

// NewStreamStage creates a streamed-text stage. Each subscriber sees every
// fragment in order.
func NewStreamStage(cfg StageConfig, subscribers ...FragmentFunc) *StreamStage {
	return &StreamStage{baseStage: baseStage{cfg: cfg}, onFragment: subscribers}
}

func (s *StreamStage) Kind() Kind { return KindStreamed }

func (s *StreamStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	c, err := s.client()
	if err != nil {
		return Result{}, err
	}
	req, err := s.request(in, deps)
	if err != nil {
		return Result{}, err
	}
	ch, err := c.Stream(ctx, req)
	if err != nil {
		return Result{}, errors.RemoteCall(s.cfg.Name, err)
	}

	sinks := s.onFragment
	if sink := fragmentSinkFrom(ctx); sink != nil {
		sinks = append(slices.Clone(sinks), sink)
	}

	var buf strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			drain(ch)
			return Result{}, errors.StreamInterrupted(s.cfg.Name, buf.String(), chunk.Err)
		}
		if chunk.Content != "" {
			buf.WriteString(chunk.Content)
			for _, fn := range sinks {
				fn(s.cfg.Name, chunk.Content)
			}
		}
		if chunk.Done {
			drain(ch)
			return StreamedResult(buf.String()), nil
		}
	}

	cause := llm.ErrStreamInterrupted
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause = ctxErr
	}
	return Result{}, errors.StreamInterrupted(s.cfg.Name, buf.String(), cause)
}

// drain discards anything left on ch so the producer can exit.
func drain(ch <-chan llm.StreamChunk) {
	go func() {
		for range ch {
		}
	}()
}

type fragmentSinkKey struct{}

// withFragmentSink attaches a fragment subscriber that StreamStage calls
// in addition to its own.
func withFragmentSink(ctx context.Context, fn FragmentFunc) context.Context {
	return context.WithValue(ctx, fragmentSinkKey{}, fn)
}

func fragmentSinkFrom(ctx context.Context) FragmentFunc {
	fn, _ := ctx.Value(fragmentSinkKey{}).(FragmentFunc)
	return fn
}

// IsStreamInterrupted reports whether err is a stream that ended early.
func IsStreamInterrupted(err error) bool {
	return errors.Is(err, errors.ErrCodeStreamInterrupted) || stderrors.Is(err, llm.ErrStreamInterrupted)
}

// Func adapts a function into a Stage. It is useful for stages that do
// not call a model, such as loading reference data.
func Func(name string, kind Kind, dependsOn []string, fn func(ctx context.Context, in Input, deps Deps) (Result, error)) Stage {
	return &funcStage{name: name, kind: kind, deps: slices.Clone(dependsOn), fn: fn}
}

type funcStage struct {
	name string
	kind Kind
	deps []string
	fn   func(ctx context.Context, in Input, deps Deps) (Result, error)
}

func (f *funcStage) Name() string        { return f.name }
func (f *funcStage) DependsOn() []string { return slices.Clone(f.deps) }
func (f *funcStage) Kind() Kind          { return f.kind }
func (f *funcStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	return f.fn(ctx, in, deps)
}
