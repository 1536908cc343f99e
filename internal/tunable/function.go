package tunable

import (
	"fmt"
	"maps"
	"sort"

	"github.com/vk/tunegrid/internal/decode"
)

// Args carries the arguments of one invocation of a Func.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Get returns the named argument and whether it was supplied.
func (a Args) Get(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// Decode converts the named argument into the value target points to.
func (a Args) Decode(name string, target any) error {
	v, ok := a.Named[name]
	if !ok {
		return fmt.Errorf("missing required argument %q", name)
	}
	if err := decode.Into(v, target); err != nil {
		return fmt.Errorf("failed to decode argument '%s': %w", name, err)
	}
	return nil
}

// DecodeStruct fills the struct target points to from the named arguments,
// matching fields on their `tune` tag.
func (a Args) DecodeStruct(target any) error {
	return decode.Struct(a.Named, target)
}

// Func is the signature of a function whose named arguments are tunable.
type Func func(Args) (any, error)

// Function binds a Func to a set of tunable named arguments. It resolves to a
// *Bound, a deferred call carrying the resolved arguments, so whole
// sub-architectures can be composed as tunable building blocks.
type Function struct {
	fn   Func
	args Children
}

// Tune declares fn with tunable named arguments. Argument order in the tree
// is by name, which keeps flattening stable. Argument names are not checked
// here; a bad name such as "a:b" fails later in Parameters, Validate or
// NewContext. Use TuneE to check them at declaration.
func Tune(fn Func, args map[string]Tunable) *Function {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	children := make(Children, 0, len(names))
	for _, name := range names {
		children = append(children, Named(name, args[name]))
	}
	return &Function{fn: fn, args: children}
}

// TuneE is like Tune but rejects nil arguments and argument names that
// cannot appear in a parameter path, wrapping ErrDeclaration.
func TuneE(fn Func, args map[string]Tunable) (*Function, error) {
	f := Tune(fn, args)
	if err := checkChildren(nil, f.args); err != nil {
		return nil, err
	}
	for _, child := range f.args {
		if child.Tunable == nil {
			return nil, declarationErrorf("argument %q has no tunable", child.Segment.Name)
		}
	}
	return f, nil
}

// Call invokes the wrapped function directly, without resolving anything.
func (f *Function) Call(args Args) (any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("tunable function has no implementation")
	}
	return f.fn(args)
}

func (f *Function) Children() Children {
	out := make(Children, len(f.args))
	copy(out, f.args)
	return out
}

func (f *Function) Resolve(c *Context) (any, error) {
	kwargs := make(map[string]any, len(f.args))
	for i, arg := range f.args {
		v, err := c.ChildValueAt(i)
		if err != nil {
			return nil, err
		}
		kwargs[arg.Segment.Name] = v
	}
	return &Bound{function: f, kwargs: kwargs}, nil
}

// Bound is a Function together with the argument values resolved for one
// round. Invoking it is a separate, explicit step.
type Bound struct {
	function *Function
	kwargs   map[string]any
}

// Kwargs returns a copy of the resolved named arguments.
func (b *Bound) Kwargs() map[string]any {
	return maps.Clone(b.kwargs)
}

// Call invokes the function with the resolved arguments and the given
// positional arguments.
func (b *Bound) Call(positional ...any) (any, error) {
	return b.CallWith(nil, positional...)
}

// CallWith invokes the function with the resolved arguments merged with
// overrides. Overrides win on conflict.
func (b *Bound) CallWith(overrides map[string]any, positional ...any) (any, error) {
	named := maps.Clone(b.kwargs)
	if named == nil {
		named = make(map[string]any, len(overrides))
	}
	maps.Copy(named, overrides)
	return b.function.Call(Args{Positional: positional, Named: named})
}
