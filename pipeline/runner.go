package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
)

// Status is the terminal status of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one execution of a stage list. It is owned by the goroutine that
// called Runner.Run and is never resumed.
type Run struct {
	ID       string
	Pipeline string
	Input    Input
	State    *State
	Status   Status
	// FailedStage is the stage that failed, or "" when the run failed
	// before any stage started or succeeded.
	FailedStage string
	Err         *errors.AppError
	Timings     []StageTiming
	Started     time.Time
	Duration    time.Duration
}

// Succeeded reports whether every stage completed.
func (r *Run) Succeeded() bool { return r.Status == StatusSucceeded }

// Error returns the run's failure, or nil.
func (r *Run) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// FailureCode returns the failure code, or "" for a successful run.
func (r *Run) FailureCode() errors.ErrorCode {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

func (r *Run) String() string {
	if r.Succeeded() {
		return fmt.Sprintf("run %s: %s", r.ID, r.Status)
	}
	return fmt.Sprintf("run %s: failed at %q (%s)", r.ID, r.FailedStage, r.FailureCode())
}

// ValidateOrder checks a stage list before anything runs. Duplicate or
// empty names are a CONFIGURATION_ERROR. A dependency that is declared
// later in the list or not at all is a MISSING_DEPENDENCY.
func ValidateOrder(stages []Stage) error {
	seen := make(map[string]bool, len(stages))
	all := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s == nil {
			return errors.Configuration(fmt.Sprintf("stage %d is nil", i))
		}
		if s.Name() == "" {
			return errors.Configuration(fmt.Sprintf("stage %d has no name", i))
		}
		if all[s.Name()] {
			return errors.Configuration(fmt.Sprintf("duplicate stage name %q", s.Name())).WithStage(s.Name())
		}
		all[s.Name()] = true
	}
	for _, s := range stages {
		for _, dep := range s.DependsOn() {
			if !seen[dep] {
				e := errors.MissingDependency(s.Name(), dep)
				if all[dep] {
					e = e.WithDetail("reason", "declared after the stage that needs it")
				} else {
					e = e.WithDetail("reason", "not declared")
				}
				return e
			}
		}
		seen[s.Name()] = true
	}
	return nil
}

// Runner executes stage lists strictly in order. It holds no per-run
// state and may be reused.
type Runner struct {
	name     string
	observer Observer
	log      *logger.Logger
	metrics  *observability.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithName sets the pipeline name used in logs, spans, and metrics.
func WithName(name string) Option { return func(r *Runner) { r.name = name } }

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option { return func(r *Runner) { r.observer = o } }

// WithLogger sets the run logger.
func WithLogger(l *logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithRunMetrics records run outcomes on m.
func WithRunMetrics(m *observability.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{name: "pipeline"}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = NopObserver{}
	}
	if r.log == nil {
		r.log = logger.Get("pipeline")
	}
	return r
}

// Run executes stages in order against input. It stops at the first
// failure; results recorded before it stay in the run's State. The
// returned Run is never nil.
func (r *Runner) Run(ctx context.Context, stages []Stage, input Input) *Run {
	run := &Run{
		ID:       uuid.NewString(),
		Pipeline: r.name,
		Input:    input,
		State:    NewState(),
		Started:  time.Now(),
	}

	ctx = logger.ContextWithRun(ctx, run.ID, r.name)
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, run.ID)
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, r.name)

	log := r.log.WithContext(ctx)
	log.Info("pipeline run started", logger.Fields("stages", len(stages), logger.FieldSource, input.Source()))
	r.observer.RunStarted(run)

	defer func() {
		run.Duration = time.Since(run.Started)
		status := string(run.Status)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
		if run.Err != nil {
			observability.SetSpanError(ctx, run.Err)
			log.Error("pipeline run failed", logger.Fields(
				logger.FieldStage, run.FailedStage,
				logger.FieldCode, string(run.Err.Code),
				logger.FieldError, run.Err.Error(),
				logger.FieldDuration, run.Duration.Milliseconds(),
			))
		} else {
			log.Info("pipeline run succeeded", logger.Fields(
				"stages", run.State.Len(),
				logger.FieldDuration, run.Duration.Milliseconds(),
			))
		}
		if r.metrics != nil {
			r.metrics.RecordRun(ctx, r.name, status)
		}
		r.observer.RunFinished(run)
	}()

	if err := ValidateOrder(stages); err != nil {
		r.fail(run, nil, err, 0)
		return run
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			r.fail(run, stage, errors.Internal(err).WithStage(stage.Name()).
				WithDetail("reason", "run cancelled before stage started"), 0)
			return run
		}

		deps, err := run.State.Select(stage.Name(), stage.DependsOn())
		if err != nil {
			r.fail(run, stage, err, 0)
			return run
		}

		r.observer.StageStarted(run, stage)
		stageCtx := withFragmentSink(ctx, func(name, fragment string) {
			r.observer.Fragment(run, name, fragment)
		})

		start := time.Now()
		result, err := stage.Execute(stageCtx, input, deps)
		d := time.Since(start)
		run.Timings = append(run.Timings, StageTiming{Stage: stage.Name(), Duration: d})
		if err != nil {
			r.fail(run, stage, err, d)
			return run
		}
		if result.Kind() != stage.Kind() {
			r.fail(run, stage, errors.Internal(fmt.Errorf("stage returned %s result, declared %s",
				result.Kind(), stage.Kind())).WithStage(stage.Name()), d)
			return run
		}
		if err := run.State.Put(stage.Name(), result); err != nil {
			r.fail(run, stage, errors.Internal(err).WithStage(stage.Name()), d)
			return run
		}
		r.observer.StageCompleted(run, stage, result, d)
	}

	run.Status = StatusSucceeded
	return run
}

func (r *Runner) fail(run *Run, stage Stage, err error, d time.Duration) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	if stage != nil && appErr.Stage == "" {
		appErr = appErr.WithStage(stage.Name())
	}
	run.Status = StatusFailed
	run.Err = appErr
	run.FailedStage = appErr.Stage
	if stage != nil {
		r.observer.StageFailed(run, stage, appErr, d)
	}
}
