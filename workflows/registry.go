package workflows

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/kbukum/llmflow/errors"
)

// Registry provides named workflow lookup.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{workflows: make(map[string]*Workflow)}
}

// Register adds a workflow. Names must be unique.
func (r *Registry) Register(w *Workflow) error {
	if w == nil || w.Name == "" || w.Build == nil || w.Input == nil {
		return apperrors.Configuration("workflow requires a name, a stage builder, and an input")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.workflows[w.Name]; dup {
		return apperrors.Configuration(fmt.Sprintf("workflow %q already registered", w.Name))
	}
	r.workflows[w.Name] = w
	return nil
}

// Get retrieves a workflow by name.
func (r *Registry) Get(name string) (*Workflow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workflows[name]
	return w, ok
}

// Lookup is Get returning a CONFIGURATION_ERROR for unknown names.
func (r *Registry) Lookup(name string) (*Workflow, error) {
	if w, ok := r.Get(name); ok {
		return w, nil
	}
	return nil, apperrors.Configuration(fmt.Sprintf("unknown workflow %q", name)).
		WithDetail("registered", r.List())
}

// List returns sorted names of all registered workflows.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry holding every built-in workflow.
func Builtin() *Registry {
	r := NewRegistry()
	for _, w := range []*Workflow{
		CodeReview(),
		QuickReview(),
		Content(),
		Support(),
		Competitor(),
		Prioritize(),
		Onboarding(),
	} {
		if err := r.Register(w); err != nil {
			panic(err)
		}
	}
	return r
}
