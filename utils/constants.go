package utils

// Expression scope names shared by the read and write paths.
const (
	// ScopeRow is the variable holding every cell of the current row,
	// keyed by header text, on the read path.
	ScopeRow = "row"

	// ScopeValue is the variable holding the raw cell text of the field
	// being read.
	ScopeValue = "value"

	// expressionFileName names the pseudo source file in expression diagnostics.
	expressionFileName = "<expr>"
)
