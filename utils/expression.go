package utils

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Expression is an HCL native-syntax expression parsed once and evaluated
// many times. It is evaluated against an explicit variable map only, so an
// expression can read the values it is given but can never reach, let
// alone change, the record those values were taken from.
//
// An Expression is safe for concurrent use.
type Expression struct {
	source string
	expr   hclsyntax.Expression
	funcs  map[string]function.Function
}

// CompileExpression parses src and checks that every function it calls
// exists in funcs.
//
// Example:
//
//	e, err := CompileExpression(`Price * 2`, lang.CoreFunctions("."))
//	v, err := e.Evaluate(map[string]cty.Value{"Price": cty.NumberIntVal(10)})
//	// v == cty.NumberIntVal(20)
func CompileExpression(src string, funcs map[string]function.Function) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), expressionFileName, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse expression %q: %w", src, diags)
	}

	diags = hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		call, ok := node.(*hclsyntax.FunctionCallExpr)
		if !ok {
			return nil
		}
		if _, ok := funcs[call.Name]; ok {
			return nil
		}
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Call to unknown function",
			Detail:   fmt.Sprintf("There is no function named %q.", call.Name),
			Subject:  call.NameRange.Ptr(),
		}}
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid expression %q: %w", src, diags)
	}

	return &Expression{source: src, expr: expr, funcs: funcs}, nil
}

// Source returns the text the expression was compiled from.
func (e *Expression) Source() string {
	return e.source
}

// RootNames returns the sorted, distinct variable names the expression
// refers to.
func (e *Expression) RootNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, traversal := range e.expr.Variables() {
		name := traversal.RootName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Evaluate computes the expression with the given variables.
func (e *Expression) Evaluate(vars map[string]cty.Value) (cty.Value, error) {
	ctx := &hcl.EvalContext{Variables: vars, Functions: e.funcs}
	cv, diags := e.expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, (diags.Errs())[0]
	}
	return cv, nil
}

// EvaluateString computes the expression and renders the result as cell
// text, independent of any field type.
func (e *Expression) EvaluateString(vars map[string]cty.Value) (string, error) {
	cv, err := e.Evaluate(vars)
	if err != nil {
		return "", err
	}
	return CtyToString(cv)
}
