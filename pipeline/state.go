package pipeline

import (
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/structured"
)

// ErrDuplicateStage is returned by State.Put for a name already recorded.
var ErrDuplicateStage = stderrors.New("pipeline: stage already recorded")

// State is the ordered, append-only record of completed stage results for
// one run. Each name is written at most once.
type State struct {
	mu      sync.RWMutex
	order   []string
	results map[string]Result
}

// NewState creates an empty State.
func NewState() *State {
	return &State{results: make(map[string]Result)}
}

// Put records a stage result.
func (s *State) Put(name string, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	s.order = append(s.order, name)
	s.results[name] = r
	return nil
}

// Get returns the result recorded for name.
func (s *State) Get(name string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[name]
	return r, ok
}

// Has reports whether name has been recorded.
func (s *State) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the recorded stage names in insertion order.
func (s *State) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Len returns the number of recorded results.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Select returns the results of the named stages only. A name that has
// not been recorded is a MISSING_DEPENDENCY error for stage.
func (s *State) Select(stage string, names []string) (Deps, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := Deps{names: slices.Clone(names), results: make(map[string]Result, len(names))}
	for _, name := range names {
		r, ok := s.results[name]
		if !ok {
			return Deps{}, errors.MissingDependency(stage, name)
		}
		d.results[name] = r
	}
	return d, nil
}

// Deps is the read-only view of a stage's declared dependencies.
type Deps struct {
	names   []string
	results map[string]Result
}

// NewDeps builds a Deps from results keyed by stage name, in the given order.
// It is meant for calling a stage or prompt directly, outside a Runner.
func NewDeps(names []string, results map[string]Result) Deps {
	d := Deps{names: slices.Clone(names), results: make(map[string]Result, len(names))}
	for _, n := range names {
		d.results[n] = results[n]
	}
	return d
}

// Names returns the dependency names in declared order.
func (d Deps) Names() []string { return slices.Clone(d.names) }

// Get returns a dependency result.
func (d Deps) Get(name string) (Result, bool) {
	r, ok := d.results[name]
	return r, ok
}

// Text returns a dependency's text, or "" when it is not a dependency.
func (d Deps) Text(name string) string {
	r, ok := d.results[name]
	if !ok {
		return ""
	}
	return r.Text()
}

// Record returns a copy of a structured dependency's record.
func (d Deps) Record(name string) structured.Record {
	return d.results[name].Record()
}
