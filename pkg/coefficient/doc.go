// Package coefficient resolves coefficients: named decision tables that map
// the current values of up to eleven variables to one priced result.
//
// # Tables
//
// A table is the set of rows stored under one Scope (tenant, calculator ID,
// coefficient code). Each row holds up to MaxColumns condition values and a
// result. A coefficient definition lists Columns; each column names the
// variable whose current value is compared against one row position, the
// comparison operator, whether the comparison is numeric, and an optional
// sort order used to break ties between matching rows.
//
// # Lookup
//
// Resolver.Value assembles a conjunctive Query from the columns and issues
// exactly one Backend.First call. The lookup is all-or-nothing: an unmapped
// variable, an invalid column, a backend error or no matching row all yield
// no value. Callers treat that as an absent operand.
//
// # Backends
//
// MemoryBackend evaluates queries in process. SQLiteBackend translates them
// to a single SELECT and can run on a caller-owned transaction via WithTx.
package coefficient
