package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/tunegrid/internal/experiment"
	"github.com/vk/tunegrid/internal/tunable"
)

// Module is the interface that all bundled modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredFunction holds the compiled Go parts of a tunable function.
type RegisteredFunction struct {
	Fn tunable.Func

	// Args is the zero value of the struct Fn decodes its named arguments
	// into. When set, its `tune` tags must match the declared arguments
	// exactly. Nil skips the check.
	Args any
}

// Registry holds the registered handlers and evaluators of a single
// application instance.
type Registry struct {
	functions  map[string]*RegisteredFunction
	evaluators map[string]experiment.Evaluator
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		functions:  make(map[string]*RegisteredFunction),
		evaluators: make(map[string]experiment.Evaluator),
	}
}

// RegisterFunction registers a Go handler under the name declaration files
// refer to. Registering a name twice is a programmer error and panics.
func (r *Registry) RegisterFunction(handler string, fn *RegisteredFunction) {
	if fn == nil || fn.Fn == nil {
		panic(fmt.Sprintf("function handler '%s' has no implementation", handler))
	}
	if _, exists := r.functions[handler]; exists {
		panic(fmt.Sprintf("function handler with name '%s' already registered", handler))
	}
	slog.Debug("Registering function handler.", "name", handler)
	r.functions[handler] = fn
}

// RegisterEvaluator registers an evaluator under the name experiments refer to.
func (r *Registry) RegisterEvaluator(name string, ev experiment.Evaluator) {
	if ev == nil {
		panic(fmt.Sprintf("evaluator '%s' has no implementation", name))
	}
	if _, exists := r.evaluators[name]; exists {
		panic(fmt.Sprintf("evaluator with name '%s' already registered", name))
	}
	slog.Debug("Registering evaluator.", "name", name)
	r.evaluators[name] = ev
}

// Function returns the handler registered under name.
func (r *Registry) Function(handler string) (*RegisteredFunction, bool) {
	fn, ok := r.functions[handler]
	return fn, ok
}

// Evaluator returns the evaluator registered under name.
func (r *Registry) Evaluator(name string) (experiment.Evaluator, bool) {
	ev, ok := r.evaluators[name]
	return ev, ok
}

// Handlers returns the registered handler names, sorted.
func (r *Registry) Handlers() []string {
	return sortedKeys(r.functions)
}

// Evaluators returns the registered evaluator names, sorted.
func (r *Registry) Evaluators() []string {
	return sortedKeys(r.evaluators)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
