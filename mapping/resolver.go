package mapping

import (
	"fmt"

	"github.com/zclconf/go-cty/cty/function"
)

// Env carries what strategy constructors need beyond the analysis.
type Env struct {
	// Functions are callable from expressions.
	Functions map[string]function.Function
	// Scope lists the fields write expressions may name.
	Scope []*Field
	// Mapped lists the fields read expressions may name.
	Mapped []*Field
}

type (
	writeConstructor func(*Analysis, *Env) (WriteStrategy, error)
	readConstructor  func(*Analysis, *Env) (ReadStrategy, error)
)

// The tables cover every combination of the two flag bits.
var (
	writeResolvers = map[Flags]writeConstructor{
		0:                             newFieldHandlerWriter,
		FlagExpression:                newFieldExpressionWriter,
		FlagAccessor:                  newAccessorHandlerWriter,
		FlagExpression | FlagAccessor: newAccessorExpressionWriter,
	}

	readResolvers = map[Flags]readConstructor{
		0:                             newFieldHandlerReader,
		FlagExpression:                newFieldExpressionReader,
		FlagAccessor:                  newSetterHandlerReader,
		FlagExpression | FlagAccessor: newSetterExpressionReader,
	}
)

// ResolveWrite builds the write strategy selected by the flags of a.
func ResolveWrite(a *Analysis, env *Env) (WriteStrategy, error) {
	ctor, ok := writeResolvers[a.Flags()]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%d)", ErrNoResolver, a.Flags(), a.Flags())
	}
	return ctor(a, env)
}

// ResolveRead builds the read strategy selected by the flags of a.
func ResolveRead(a *Analysis, env *Env) (ReadStrategy, error) {
	ctor, ok := readResolvers[a.Flags()]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%d)", ErrNoResolver, a.Flags(), a.Flags())
	}
	return ctor(a, env)
}
