package pipeline

import (
	"time"

	"github.com/kbukum/llmflow/errors"
)

// Observer receives run lifecycle events. Calls are made synchronously
// from the running goroutine, in order.
type Observer interface {
	RunStarted(run *Run)
	StageStarted(run *Run, stage Stage)
	// Fragment is called for each streamed fragment of a StreamStage.
	Fragment(run *Run, stage, fragment string)
	StageCompleted(run *Run, stage Stage, result Result, d time.Duration)
	StageFailed(run *Run, stage Stage, err *errors.AppError, d time.Duration)
	RunFinished(run *Run)
}

// NopObserver ignores every event. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) RunStarted(*Run)                                          {}
func (NopObserver) StageStarted(*Run, Stage)                                 {}
func (NopObserver) Fragment(*Run, string, string)                            {}
func (NopObserver) StageCompleted(*Run, Stage, Result, time.Duration)        {}
func (NopObserver) StageFailed(*Run, Stage, *errors.AppError, time.Duration) {}
func (NopObserver) RunFinished(*Run)                                         {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) RunStarted(run *Run) {
	for _, x := range o {
		x.RunStarted(run)
	}
}

func (o Observers) StageStarted(run *Run, stage Stage) {
	for _, x := range o {
		x.StageStarted(run, stage)
	}
}

func (o Observers) Fragment(run *Run, stage, fragment string) {
	for _, x := range o {
		x.Fragment(run, stage, fragment)
	}
}

func (o Observers) StageCompleted(run *Run, stage Stage, result Result, d time.Duration) {
	for _, x := range o {
		x.StageCompleted(run, stage, result, d)
	}
}

func (o Observers) StageFailed(run *Run, stage Stage, err *errors.AppError, d time.Duration) {
	for _, x := range o {
		x.StageFailed(run, stage, err, d)
	}
}

func (o Observers) RunFinished(run *Run) {
	for _, x := range o {
		x.RunFinished(run)
	}
}
