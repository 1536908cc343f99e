package config

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of every declared
// function and experiment.
type Model struct {
	Functions   map[string]*Function
	Experiments []*Experiment
}

// NewModel returns an empty model ready to be filled by a loader.
func NewModel() *Model {
	return &Model{Functions: make(map[string]*Function)}
}

// Experiment selects the experiment to run. An empty name is accepted when
// exactly one experiment is declared.
func (m *Model) Experiment(name string) (*Experiment, error) {
	if name == "" {
		switch len(m.Experiments) {
		case 0:
			return nil, fmt.Errorf("no experiment is declared")
		case 1:
			return m.Experiments[0], nil
		default:
			return nil, fmt.Errorf("%d experiments are declared, select one by name", len(m.Experiments))
		}
	}
	for _, e := range m.Experiments {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("experiment %q is not declared", name)
}

// FunctionNames returns the declared function names, sorted.
func (m *Model) FunctionNames() []string {
	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Experiment is the format-agnostic representation of an `experiment` block.
type Experiment struct {
	Name      string
	Root      string // name of the function the search space is rooted at
	Evaluator string // name of a registered evaluator
	Budget    int
}

// Function is a declared tunable function: a Go handler plus the arguments
// an optimizer may tune.
type Function struct {
	Name        string
	Handler     string
	Description string
	Args        map[string]*Argument
}

// ArgNames returns the declared argument names, sorted.
func (f *Function) ArgNames() []string {
	names := make([]string, 0, len(f.Args))
	for name := range f.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// References returns the names of the functions f's arguments refer to,
// sorted and without duplicates.
func (f *Function) References() []string {
	seen := make(map[string]struct{})
	for _, arg := range f.Args {
		for _, ref := range arg.References() {
			seen[ref] = struct{}{}
		}
	}
	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// ArgumentKind identifies how an argument's value is produced.
type ArgumentKind string

const (
	ArgParam    ArgumentKind = "param"
	ArgConstant ArgumentKind = "constant"
	ArgUse      ArgumentKind = "use"
	ArgRepeat   ArgumentKind = "repeat"
	ArgList     ArgumentKind = "list"
)

// Argument is one named argument of a function. Which fields are set
// depends on Kind.
type Argument struct {
	Name        string
	Kind        ArgumentKind
	Description string

	Param     *Param    // ArgParam
	Value     cty.Value // ArgConstant
	Function  string    // ArgUse, ArgRepeat (the template)
	Count     *Param    // ArgRepeat, always an int parameter
	Shared    bool      // ArgRepeat
	Functions []string  // ArgList
}

// References returns the names of the functions the argument refers to.
func (a *Argument) References() []string {
	switch a.Kind {
	case ArgUse, ArgRepeat:
		return []string{a.Function}
	case ArgList:
		return a.Functions
	}
	return nil
}

// ParamType names a leaf's search dimension.
type ParamType string

const (
	ParamInt         ParamType = "int"
	ParamDouble      ParamType = "double"
	ParamCategorical ParamType = "categorical"
)

// Transform names a value transform applied to a resolved leaf.
type Transform string

const (
	TransformNone  Transform = ""
	TransformLog10 Transform = "log10"
)

// Param declares a leaf. Default, Min and Max are cty.NilVal when absent;
// numeric types carry cty.Number values, categorical defaults cty.String.
type Param struct {
	Type        ParamType
	Default     cty.Value
	Min         cty.Value
	Max         cty.Value
	Choices     []string
	Transform   Transform
	Description string
}
