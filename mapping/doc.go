// Package mapping analyzes a record type once and turns it into a cached,
// per-column conversion plan.
//
// Building a plan takes four steps:
//
//  1. SelectFields lists the struct fields that become columns.
//  2. An Analyzer resolves each field's default value, its type handler
//     and a capability bitmask (expression or handler, accessor method
//     or direct field access).
//  3. ResolveWrite / ResolveRead look the bitmask up in a fixed table of
//     four strategy constructors.
//  4. The strategies run once per record (write) or once per row (read).
//
// Fields are configured with struct tags:
//
//	type Order struct {
//		ID    int64           `excel:"Order ID"`
//		Name  string          `excel:"Name" default:"unknown"`
//		Price decimal.Decimal `excel:"Price"`
//		Total string          `excel:"Total" write:"Price * 2"`
//		Note  string          `excel:"-"`
//	}
//
// A plan is read-only after it is built and may be shared by goroutines.
package mapping
