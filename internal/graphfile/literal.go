package graphfile

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

func parseLiteral(s, name string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(s), name, hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if _, bare := expr.(*hclsyntax.ScopeTraversalExpr); bare {
		return cty.StringVal(s), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}
