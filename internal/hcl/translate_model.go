// This file contains the logic for translating HCL schema structs into the
// format-agnostic declaration model defined in the config package.

package hcl

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateExperiment converts an experiment block into the agnostic model.
func translateExperiment(s *schema.Experiment) (*config.Experiment, error) {
	if s.Root == "" {
		return nil, fmt.Errorf("experiment '%s': root must name a function", s.Name)
	}
	if s.Evaluator == "" {
		return nil, fmt.Errorf("experiment '%s': evaluator must not be empty", s.Name)
	}
	if s.Budget < 0 {
		return nil, fmt.Errorf("experiment '%s': budget cannot be negative, got %d", s.Name, s.Budget)
	}
	return &config.Experiment{
		Name:      s.Name,
		Root:      s.Root,
		Evaluator: s.Evaluator,
		Budget:    s.Budget,
	}, nil
}

// translateFunction converts a function block into the agnostic model. Every
// argument is checked and all problems are reported together.
func translateFunction(ctx context.Context, s *schema.Function) (*config.Function, error) {
	f := &config.Function{
		Name:        s.Name,
		Handler:     s.Handler,
		Description: s.Description,
		Args:        make(map[string]*config.Argument),
	}
	var errs *multierror.Error

	if s.Handler == "" {
		errs = multierror.Append(errs, fmt.Errorf("function '%s': handler must not be empty", s.Name))
	}

	add := func(arg *config.Argument, err error) {
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("function '%s', argument '%s': %w", s.Name, arg.Name, err))
			return
		}
		if _, dup := f.Args[arg.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("function '%s': argument '%s' is declared more than once", s.Name, arg.Name))
			return
		}
		f.Args[arg.Name] = arg
	}

	for _, p := range s.Params {
		arg := &config.Argument{Name: p.Name, Kind: config.ArgParam, Description: p.Description}
		param, err := translateParam(ctx, p)
		arg.Param = param
		add(arg, err)
	}
	for _, c := range s.Constants {
		arg := &config.Argument{Name: c.Name, Kind: config.ArgConstant, Description: c.Description}
		val, diags := c.Value.Value(nil)
		var err error
		if diags.HasErrors() {
			err = fmt.Errorf("invalid constant value: %w", diags)
		}
		arg.Value = val
		add(arg, err)
	}
	for _, u := range s.Uses {
		arg := &config.Argument{Name: u.Name, Kind: config.ArgUse, Function: u.Function, Description: u.Description}
		var err error
		if u.Function == "" {
			err = fmt.Errorf("use must name a function")
		}
		add(arg, err)
	}
	for _, r := range s.Repeats {
		arg, err := translateRepeat(r)
		add(arg, err)
	}
	for _, l := range s.Lists {
		arg := &config.Argument{Name: l.Name, Kind: config.ArgList, Functions: l.Functions, Description: l.Description}
		var err error
		for i, name := range l.Functions {
			if name == "" {
				err = fmt.Errorf("list entry %d must name a function", i)
				break
			}
		}
		add(arg, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return f, nil
}

func translateRepeat(r *schema.Repeat) (*config.Argument, error) {
	arg := &config.Argument{
		Name:        r.Name,
		Kind:        config.ArgRepeat,
		Function:    r.Function,
		Shared:      r.Shared,
		Description: r.Description,
	}
	if r.Function == "" {
		return arg, fmt.Errorf("repeat must name a function")
	}
	if r.Count == nil {
		return arg, fmt.Errorf("repeat requires a count block")
	}
	if r.Count.Min < 0 {
		return arg, fmt.Errorf("repeat count minimum cannot be negative, got %d", r.Count.Min)
	}
	arg.Count = &config.Param{
		Type:        config.ParamInt,
		Default:     cty.NumberIntVal(r.Count.Default),
		Min:         cty.NumberIntVal(r.Count.Min),
		Max:         cty.NumberIntVal(r.Count.Max),
		Description: r.Count.Description,
	}
	return arg, nil
}

// translateParam evaluates a param block's attributes and checks that they
// agree with its declared type. Range checks happen when the leaf is built.
func translateParam(ctx context.Context, p *schema.Param) (*config.Param, error) {
	paramType, err := typeExprToParamType(ctx, p.Type)
	if err != nil {
		return nil, err
	}

	param := &config.Param{
		Type:        paramType,
		Choices:     p.Choices,
		Transform:   config.Transform(p.Transform),
		Description: p.Description,
	}

	switch param.Transform {
	case config.TransformNone:
	case config.TransformLog10:
		if paramType != config.ParamDouble {
			return nil, fmt.Errorf("transform %q requires a double parameter, got %s", p.Transform, paramType)
		}
	default:
		return nil, fmt.Errorf("unknown transform %q", p.Transform)
	}

	if paramType == config.ParamCategorical {
		if isExprDefined(p.Min) || isExprDefined(p.Max) {
			return nil, fmt.Errorf("categorical parameters do not take min or max")
		}
		if len(p.Choices) == 0 {
			return nil, fmt.Errorf("categorical parameters require choices")
		}
		if param.Default, err = evalAs(p.Default, cty.String, "default"); err != nil {
			return nil, err
		}
		return param, nil
	}

	if len(p.Choices) > 0 {
		return nil, fmt.Errorf("%s parameters do not take choices", paramType)
	}
	for _, attr := range []struct {
		name   string
		expr   hcl.Expression
		target *cty.Value
	}{
		{"default", p.Default, &param.Default},
		{"min", p.Min, &param.Min},
		{"max", p.Max, &param.Max},
	} {
		v, err := evalAs(attr.expr, cty.Number, attr.name)
		if err != nil {
			return nil, err
		}
		if paramType == config.ParamInt && !isWholeNumber(v) {
			return nil, fmt.Errorf("%s must be a whole number for an int parameter, got %s", attr.name, v.AsBigFloat().Text('g', -1))
		}
		*attr.target = v
	}
	return param, nil
}

// evalAs evaluates a required attribute and converts it to ty.
func evalAs(expr hcl.Expression, ty cty.Type, name string) (cty.Value, error) {
	if !isExprDefined(expr) {
		return cty.NilVal, fmt.Errorf("%s is required", name)
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("invalid %s: %w", name, diags)
	}
	if val.IsNull() {
		return cty.NilVal, fmt.Errorf("%s is required", name)
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s: cannot convert %s to %s: %w", name, val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return converted, nil
}

func isWholeNumber(v cty.Value) bool {
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return false
	}
	_, acc := bf.Int64()
	return acc == big.Exact
}

// isExprDefined checks if an HCL expression was actually present in the
// source. gohcl fills omitted optional expression fields with zero-width
// placeholders, so a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
