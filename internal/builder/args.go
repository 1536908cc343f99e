package builder

import (
	"fmt"

	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/decode"
	"github.com/vk/tunegrid/internal/tunable"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

func buildArg(arg *config.Argument, built map[string]*tunable.Function) (tunable.Tunable, error) {
	switch arg.Kind {
	case config.ArgParam:
		return buildParam(arg.Param, arg.Description)

	case config.ArgConstant:
		v, err := decode.FromCty(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid constant: %w", err)
		}
		return tunable.Constant(v), nil

	case config.ArgUse:
		return lookup(built, arg.Function)

	case config.ArgRepeat:
		template, err := lookup(built, arg.Function)
		if err != nil {
			return nil, err
		}
		count, err := buildInt(arg.Count, "")
		if err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		if arg.Shared {
			return tunable.RepeatShared(template, count)
		}
		return tunable.Repeat(template, count)

	case config.ArgList:
		items := make([]tunable.Tunable, len(arg.Functions))
		for i, name := range arg.Functions {
			fn, err := lookup(built, name)
			if err != nil {
				return nil, err
			}
			items[i] = fn
		}
		return tunable.List(items...), nil
	}
	return nil, fmt.Errorf("unknown argument kind %q", arg.Kind)
}

func lookup(built map[string]*tunable.Function, name string) (tunable.Tunable, error) {
	fn, ok := built[name]
	if !ok {
		return nil, fmt.Errorf("function '%s' is not built", name)
	}
	return fn, nil
}

func buildParam(p *config.Param, fallbackDescription string) (tunable.Tunable, error) {
	if p == nil {
		return nil, fmt.Errorf("parameter has no declaration")
	}
	description := p.Description
	if description == "" {
		description = fallbackDescription
	}

	switch p.Type {
	case config.ParamInt:
		return buildInt(p, description)

	case config.ParamDouble:
		var def, lo, hi float64
		if err := fromCty(p, &def, &lo, &hi); err != nil {
			return nil, err
		}
		param, err := tunable.NewDouble(def, lo, hi)
		if err != nil {
			return nil, err
		}
		param = param.WithDescription(description)
		if p.Transform == config.TransformLog10 {
			return tunable.Transform(param, tunable.Pow10), nil
		}
		return param, nil

	case config.ParamCategorical:
		if p.Default.IsNull() || !p.Default.Type().Equals(cty.String) {
			return nil, fmt.Errorf("categorical default must be a string")
		}
		param, err := tunable.NewCategorical(p.Default.AsString(), p.Choices...)
		if err != nil {
			return nil, err
		}
		return param.WithDescription(description), nil
	}
	return nil, fmt.Errorf("unknown parameter type %q", p.Type)
}

func buildInt(p *config.Param, description string) (*tunable.IntParam, error) {
	if p == nil {
		return nil, fmt.Errorf("parameter has no declaration")
	}
	if description == "" {
		description = p.Description
	}
	var def, lo, hi int64
	if err := fromCty(p, &def, &lo, &hi); err != nil {
		return nil, err
	}
	param, err := tunable.NewInt(def, lo, hi)
	if err != nil {
		return nil, err
	}
	return param.WithDescription(description), nil
}

func fromCty(p *config.Param, def, lo, hi any) error {
	for _, f := range []struct {
		name   string
		value  cty.Value
		target any
	}{
		{"default", p.Default, def},
		{"min", p.Min, lo},
		{"max", p.Max, hi},
	} {
		if f.value.IsNull() {
			return fmt.Errorf("%s is required", f.name)
		}
		if err := gocty.FromCtyValue(f.value, f.target); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}
