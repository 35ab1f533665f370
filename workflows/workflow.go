package workflows

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/source"
)

// InputFunc acquires the run input from command-line arguments.
type InputFunc func(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error)

// Options are passed to a workflow's stage builder.
type Options struct {
	// Client serves every stage.
	Client llm.Client
	// Model overrides the client's default model when non-empty.
	Model string
}

// Workflow is a built-in pipeline together with how to acquire its input
// and how to summarize a finished run.
type Workflow struct {
	Name        string
	Title       string
	Description string
	// Usage names the positional arguments, e.g. "<diff-file|->".
	Usage   string
	MinArgs int
	MaxArgs int
	Input   InputFunc
	Build   func(opts Options) []pipeline.Stage
	// Titles are the report section titles by stage name.
	Titles map[string]string
	Status report.StatusFunc
	Footer []string
	// Preview is how many characters of input the report echoes.
	Preview int
	// EmptyMessage, when set, is printed instead of failing on an
	// EMPTY_CONTENT input and the run counts as successful.
	EmptyMessage string
}

// Stages builds the stage list.
func (w *Workflow) Stages(opts Options) []pipeline.Stage {
	return w.Build(opts)
}

// CheckArgs reports a usage error when args does not fit MinArgs/MaxArgs.
func (w *Workflow) CheckArgs(args []string) error {
	if len(args) < w.MinArgs || len(args) > w.MaxArgs {
		return fmt.Errorf("%s expects %s", w.Name, w.Usage)
	}
	return nil
}

// ReportOptions are the report.Printer options describing this workflow.
func (w *Workflow) ReportOptions() []report.Option {
	opts := []report.Option{report.WithTitles(w.Titles), report.WithFooter(w.Footer...)}
	if w.Status != nil {
		opts = append(opts, report.WithStatus(w.Status))
	}
	return opts
}

// StageInfo describes one stage of a workflow graph.
type StageInfo struct {
	Name      string
	Title     string
	Kind      pipeline.Kind
	DependsOn []string
	Level     int
}

// Graph lists the workflow's stages in run order with their dependency
// level.
func (w *Workflow) Graph() ([]StageInfo, error) {
	return Graph(w.Stages(Options{}), w.Titles)
}

// Graph describes stages in run order. Stages missing from titles are
// titled from their name.
func Graph(stages []pipeline.Stage, titles map[string]string) ([]StageInfo, error) {
	levels, err := pipeline.Levels(stages)
	if err != nil {
		return nil, err
	}
	level := make(map[string]int, len(stages))
	for i, names := range levels {
		for _, n := range names {
			level[n] = i
		}
	}

	out := make([]StageInfo, len(stages))
	for i, s := range stages {
		title, ok := titles[s.Name()]
		if !ok {
			title = report.Title(s.Name())
		}
		out[i] = StageInfo{Name: s.Name(), Title: title, Kind: s.Kind(), DependsOn: s.DependsOn(), Level: level[s.Name()]}
	}
	return out, nil
}

// request builds a single user-turn completion request.
func request(opts Options, maxTokens int, prompt string) llm.CompletionRequest {
	req := llm.UserPrompt(prompt, maxTokens)
	req.Model = opts.Model
	return req
}

func stageConfig(opts Options, name string, deps []string, prompt pipeline.PromptFunc) pipeline.StageConfig {
	return pipeline.StageConfig{Name: name, DependsOn: deps, Prompt: prompt, Client: opts.Client}
}

func textStage(opts Options, name string, deps []string, prompt pipeline.PromptFunc) pipeline.Stage {
	return pipeline.NewTextStage(stageConfig(opts, name, deps, prompt))
}

func streamStage(opts Options, name string, deps []string, prompt pipeline.PromptFunc) pipeline.Stage {
	return pipeline.NewStreamStage(stageConfig(opts, name, deps, prompt))
}

// excerpt keeps the first n bytes of s and marks the cut.
func excerpt(n int, s string) string {
	return pipeline.Truncate(n, s) + "..."
}

// value returns a string field of a structured stage's record, or fallback.
func value(run *pipeline.Run, stage, field, fallback string) string {
	res, ok := run.State.Get(stage)
	if !ok || res.Kind() != pipeline.KindStructured {
		return fallback
	}
	if v := res.Record().String(field); v != "" {
		return v
	}
	return fallback
}

// fromReference reads args[0] as a file path, "-" for stdin, or a URL.
func fromReference(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error) {
	doc, err := src.Load(ctx, args[0])
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.NewInput(doc.Text, doc.Source, nil), nil
}

// fromArgument uses the joined arguments themselves as input text.
func fromArgument(name string) InputFunc {
	return func(_ context.Context, _ *source.Loader, args []string) (pipeline.Input, error) {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return pipeline.Input{}, apperrors.EmptyContent(name)
		}
		return pipeline.NewInput(text, name, nil), nil
	}
}
