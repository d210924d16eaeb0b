// This file contains the logic for parsing HCL type expressions (e.g., `i64`,
// `list(string)`) into variable kinds.

package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/variable"
)

// typeKeywords maps the scalar type keywords accepted in configuration. The
// HCL spellings "number" and "string" are accepted next to the kind names.
var typeKeywords = map[string]variable.Kind{
	"number": variable.KindF64,
}

// typeExprToKind converts an HCL type expression into a variable kind.
func typeExprToKind(ctx context.Context, expr hcl.Expression) (variable.Kind, error) {
	logger := ctxlog.FromContext(ctx)

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		logger.Debug("Parsing type expression as a function call.", "call", v.Name)
		if v.Name != "list" {
			return variable.KindInvalid, fmt.Errorf("unknown type constructor function %q, only list() is supported", v.Name)
		}
		if len(v.Args) != 1 {
			return variable.KindInvalid, fmt.Errorf("list() requires exactly one argument, got %d", len(v.Args))
		}
		elem, err := typeExprToKind(ctx, v.Args[0])
		if err != nil {
			return variable.KindInvalid, err
		}
		if elem.IsArray() {
			return variable.KindInvalid, fmt.Errorf("lists cannot be nested")
		}
		return variable.ParseKind(fmt.Sprintf("list(%s)", elem))

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return variable.KindInvalid, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		logger.Debug("Parsing type expression as a primitive.", "keyword", rootName)
		if k, ok := typeKeywords[rootName]; ok {
			return k, nil
		}
		return variable.ParseKind(rootName)

	default:
		return variable.KindInvalid, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}
