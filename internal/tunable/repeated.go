package tunable

import (
	"fmt"

	"github.com/vk/tunegrid/internal/decode"
)

const (
	countChild    = "count"
	repeatChild   = "repeat"
	templateChild = "template"
)

// MaxRepetitions is the largest count maximum an independent Repeat
// accepts. Every possible repetition is a declared subtree.
const MaxRepetitions = 1 << 16

// RepeatedTunable resolves a template node a tunable number of times.
//
// Two semantics are available and they are not interchangeable:
//   - Repeat (independent): every repetition is its own subtree under
//     repeat[i], so each one is resolved from its own sub-assignment and
//     repeated layers can differ from each other. The tree declares
//     count.Max() repetitions; only the first count are resolved.
//   - RepeatShared: the template is resolved once under "template" and the
//     same value is used for every repetition.
type RepeatedTunable struct {
	template Tunable
	count    *IntParam
	shared   bool
}

// Repeat declares independent repetitions of template. The count parameter
// must not allow negative values or more than MaxRepetitions.
func Repeat(template Tunable, count *IntParam) (*RepeatedTunable, error) {
	return newRepeated(template, count, false)
}

// MustRepeat is like Repeat but panics on an invalid declaration.
func MustRepeat(template Tunable, count *IntParam) *RepeatedTunable {
	return must(Repeat(template, count))
}

// RepeatShared declares repetitions that all share one resolved template value.
func RepeatShared(template Tunable, count *IntParam) (*RepeatedTunable, error) {
	return newRepeated(template, count, true)
}

// MustRepeatShared is like RepeatShared but panics on an invalid declaration.
func MustRepeatShared(template Tunable, count *IntParam) *RepeatedTunable {
	return must(RepeatShared(template, count))
}

func newRepeated(template Tunable, count *IntParam, shared bool) (*RepeatedTunable, error) {
	if template == nil {
		return nil, declarationErrorf("repeat needs a template")
	}
	if count == nil {
		return nil, declarationErrorf("repeat needs a count parameter")
	}
	if count.Min() < 0 {
		return nil, declarationErrorf("repeat count minimum %d cannot be negative", count.Min())
	}
	if !shared && count.Max() > MaxRepetitions {
		return nil, declarationErrorf("repeat count maximum %d exceeds %d independent repetitions", count.Max(), MaxRepetitions)
	}
	return &RepeatedTunable{template: template, count: count, shared: shared}, nil
}

// Shared reports whether repetitions share one resolved value.
func (r *RepeatedTunable) Shared() bool { return r.shared }

func (r *RepeatedTunable) Children() Children {
	if r.shared {
		return Children{Named(countChild, r.count), Named(templateChild, r.template)}
	}
	children := make(Children, 0, r.count.Max()+1)
	children = append(children, Named(countChild, r.count))
	for i := 0; i < int(r.count.Max()); i++ {
		children = append(children, Indexed(repeatChild, i, r.template))
	}
	return children
}

func (r *RepeatedTunable) Resolve(c *Context) (any, error) {
	raw, err := c.ChildValue(countChild)
	if err != nil {
		return nil, err
	}
	var n int
	if err := decode.Into(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: repeat count %v at %s: %w", ErrInvalidAssignment, raw, c.describe(), err)
	}
	if n < 0 || int64(n) > r.count.Max() {
		return nil, fmt.Errorf("%w: repeat count %d at %s is outside [0, %d]", ErrInvalidAssignment, n, c.describe(), r.count.Max())
	}

	values := make([]any, n)
	if r.shared {
		v, err := c.ChildValue(templateChild)
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = v
		}
		return values, nil
	}

	for i := range values {
		// Child 0 is the count; repetition i lives at index i+1.
		v, err := c.ChildValueAt(i + 1)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
