// Package decode converts between the loosely typed values that flow through
// a tunable tree (optimizer assignments, YAML documents, HCL literals) and the
// concrete Go types consumers ask for. All conversions go through cty so that
// numeric and string coercions follow one set of rules.
package decode

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TagName is the struct tag consulted by Struct.
const TagName = "tune"

// ToCty converts a native Go value into its corresponding cty.Value. Generic
// containers ([]any, map[string]any) become tuples and objects, everything
// else is handled by gocty's implied type.
func ToCty(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int32:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float32:
		return cty.NumberFloatVal(float64(tv)), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case json.Number:
		return cty.ParseNumberVal(tv.String())
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(tv) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(tv))
		for k, e := range tv {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// FromCty converts a known cty.Value into a natural Go value: strings, bools,
// int64 for whole numbers that fit, float64 otherwise, []any for sequences
// and map[string]any for objects and maps.
func FromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := FromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := FromCty(ev)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = gv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}

// Into converts v and stores it in the value pointed to by target, coercing
// it to the type cty implies for target (e.g. 7.0 into an int, 3 into a
// string). A target of type *any receives v unchanged.
func Into(v any, target any) error {
	targetVal := reflect.ValueOf(target)
	if targetVal.Kind() != reflect.Ptr || targetVal.IsNil() {
		return fmt.Errorf("target for decoding must be a non-nil pointer, got %T", target)
	}
	if iface, ok := target.(*any); ok {
		*iface = v
		return nil
	}

	val, err := ToCty(v)
	if err != nil {
		return err
	}

	impliedType, err := gocty.ImpliedType(targetVal.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}

	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

// Struct populates the exported fields of the struct pointed to by target
// from named, matching on the `tune` tag (or the field name when untagged).
// Fields without a matching entry are left untouched; a field tagged "-" is
// skipped.
func Struct(named map[string]any, target any) error {
	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		lookupName, ok := ArgName(field)
		if !ok || !fieldVal.CanSet() {
			continue
		}

		raw, ok := named[lookupName]
		if !ok {
			continue
		}
		if err := Into(raw, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument '%s': %w", lookupName, err)
		}
	}
	return nil
}

// ArgName is the argument name Struct looks up for field: the tune tag, else
// the field name. It reports false for unexported fields and fields tagged
// "-".
func ArgName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	name := field.Name
	if tag := field.Tag.Get(TagName); tag != "" {
		name = strings.Split(tag, ",")[0]
	}
	if name == "-" {
		return "", false
	}
	return name, true
}

// FieldNames lists the argument names Struct would look up for target's
// type, sorted. It lets registries declare a handler's arguments from the
// same struct the handler decodes into.
func FieldNames(target any) []string {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		if name, ok := ArgName(t.Field(i)); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
