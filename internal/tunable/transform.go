package tunable

import (
	"fmt"
	"math"

	"github.com/vk/tunegrid/internal/decode"
)

// TransformFunc maps the raw value of a leaf to the value consumers see.
type TransformFunc func(raw any) (any, error)

// TransformedParam exposes an inner leaf's search dimension to the optimizer
// but hands consumers a derived value, e.g. 10^x for a log-uniform rate.
type TransformedParam struct {
	inner Param
	fn    TransformFunc
}

// Transform wraps inner so that fn is applied to its resolved value. The
// transform runs once per round; later reads hit the Context cache.
func Transform(inner Param, fn TransformFunc) *TransformedParam {
	return &TransformedParam{inner: inner, fn: fn}
}

// NewLog10 declares a real parameter searched on its base-10 exponent. The
// default and bounds are exponents; consumers receive 10^x as a float64.
func NewLog10(logDefault, logMin, logMax float64) (*TransformedParam, error) {
	inner, err := NewDouble(logDefault, logMin, logMax)
	if err != nil {
		return nil, err
	}
	return Transform(inner, Pow10), nil
}

// MustLog10 is like NewLog10 but panics on an invalid declaration.
func MustLog10(logDefault, logMin, logMax float64) *TransformedParam {
	return must(NewLog10(logDefault, logMin, logMax))
}

// Pow10 is the TransformFunc behind NewLog10.
func Pow10(raw any) (any, error) {
	var exp float64
	if err := decode.Into(raw, &exp); err != nil {
		return nil, fmt.Errorf("%w: exponent %v: %w", ErrInvalidAssignment, raw, err)
	}
	return math.Pow(10, exp), nil
}

// Inner returns the wrapped leaf.
func (p *TransformedParam) Inner() Param { return p.inner }

func (p *TransformedParam) Default() any { return p.inner.Default() }

func (p *TransformedParam) Descriptor() Descriptor { return p.inner.Descriptor() }

func (p *TransformedParam) Children() Children { return nil }

func (p *TransformedParam) Resolve(c *Context) (any, error) {
	raw, err := p.inner.Resolve(c)
	if err != nil {
		return nil, err
	}
	return p.fn(raw)
}
