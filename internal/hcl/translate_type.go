// This file contains the logic for parsing parameter type expressions (e.g.,
// `int` or `"categorical"`) into config.ParamType values.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToParamType accepts the type either as a bare keyword or as a
// string literal.
func typeExprToParamType(ctx context.Context, expr hcl.Expression) (config.ParamType, error) {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return "", fmt.Errorf("parameter type is required")
	}

	var keyword string
	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return "", fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		keyword = v.Traversal.RootName()
		logger.Debug("Parsing type expression as a keyword.", "keyword", keyword)
	default:
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return "", fmt.Errorf("invalid type expression: %w", diags)
		}
		if val.IsNull() || !val.Type().Equals(cty.String) {
			return "", fmt.Errorf("unsupported expression for parameter type: %s", val.Type().FriendlyName())
		}
		keyword = val.AsString()
		logger.Debug("Parsing type expression as a string.", "keyword", keyword)
	}

	switch t := config.ParamType(keyword); t {
	case config.ParamInt, config.ParamDouble, config.ParamCategorical:
		return t, nil
	}
	return "", fmt.Errorf("unknown parameter type %q, expected one of int, double, categorical", keyword)
}
