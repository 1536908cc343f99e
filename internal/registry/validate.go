package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/decode"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between the declarations
// and the Go code: every handler and evaluator named in the model must be
// registered, and where a handler declares its argument struct, argument
// names and leaf types must match. All problems are reported together.
func (r *Registry) ValidateRegistry(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs *multierror.Error

	for _, name := range model.FunctionNames() {
		def := model.Functions[name]
		handler, ok := r.functions[def.Handler]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("function '%s': handler '%s' is not registered", name, def.Handler))
			continue
		}
		if handler.Args == nil {
			logger.Debug("Handler declares no argument struct, skipping parity check.", "function", name, "handler", def.Handler)
			continue
		}
		for _, err := range checkArgs(ctx, name, def, handler.Args) {
			errs = multierror.Append(errs, err)
		}
	}

	for _, exp := range model.Experiments {
		if _, ok := r.evaluators[exp.Evaluator]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("experiment '%s': evaluator '%s' is not registered", exp.Name, exp.Evaluator))
		}
		if _, ok := model.Functions[exp.Root]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("experiment '%s': root function '%s' is not declared", exp.Name, exp.Root))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	return nil
}

func checkArgs(ctx context.Context, name string, def *config.Function, args any) []error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	argsType := reflect.TypeOf(args)
	for argsType.Kind() == reflect.Ptr {
		argsType = argsType.Elem()
	}
	if argsType.Kind() != reflect.Struct {
		return []error{fmt.Errorf("function '%s': argument type %s is not a struct", name, argsType)}
	}

	goArgs := make(map[string]reflect.StructField)
	for i := 0; i < argsType.NumField(); i++ {
		field := argsType.Field(i)
		if argName, ok := decode.ArgName(field); ok {
			goArgs[argName] = field
		}
	}

	// Check for presence mismatches
	for _, argName := range sortedKeys(goArgs) {
		if _, ok := def.Args[argName]; !ok {
			errs = append(errs, fmt.Errorf("function '%s': Go struct has field for argument '%s' which is not declared", name, argName))
		}
	}
	for _, argName := range def.ArgNames() {
		if _, ok := goArgs[argName]; !ok {
			errs = append(errs, fmt.Errorf("function '%s': declared argument '%s' is not found in Go struct", name, argName))
		}
	}

	// Check for type mismatches
	for _, argName := range def.ArgNames() {
		goField, ok := goArgs[argName]
		if !ok {
			continue
		}
		if goField.Type.Kind() == reflect.Interface {
			continue
		}
		want, ok := declaredType(def.Args[argName])
		if !ok {
			continue
		}

		goType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Errorf("function '%s', argument '%s': could not imply cty type from Go field type %s: %w", name, argName, goField.Type, err))
			continue
		}
		if convert.GetConversion(want, goType) == nil {
			errs = append(errs, fmt.Errorf("function '%s', argument '%s': type mismatch. Declaration provides '%s' but Go struct field '%s' has incompatible type '%s'",
				name, argName, want.FriendlyName(), goField.Name, goType.FriendlyName()))
			continue
		}
		logger.Debug("Argument types are compatible.", "function", name, "argument", argName, "declared", want.FriendlyName(), "go", goType.FriendlyName())
	}
	return errs
}

// declaredType is the cty type of the value an argument resolves to. Only
// leaves and constants have a statically known type.
func declaredType(arg *config.Argument) (cty.Type, bool) {
	switch arg.Kind {
	case config.ArgParam:
		if arg.Param.Type == config.ParamCategorical {
			return cty.String, true
		}
		return cty.Number, true
	case config.ArgConstant:
		if arg.Value.IsNull() {
			return cty.NilType, false
		}
		return arg.Value.Type(), true
	}
	return cty.NilType, false
}
