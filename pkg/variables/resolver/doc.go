// Package resolver implements the variable context: lazy, memoized
// resolution of variable codes against one parsed policy/quote document.
//
// # Resolution
//
// Get(code) resolves a code at most once per Context:
//
//  1. a memoized value (including a memoized nil or error) is returned as is;
//  2. codes without a definition are unknown: Get logs a warning and returns nil;
//  3. MAGIC variables are computed by the magic catalogue, which reads its
//     inputs back through the same Context;
//  4. variables without a path stay nil until something seeds them;
//  5. everything else is extracted from the document and converted according
//     to the definition's data type and aggregation.
//
// Re-entering a code that is still being resolved returns ErrCyclicDependency
// instead of recursing forever.
//
// # Error handling
//
// Converting a scalar document value to NUMBER is strict: a malformed number
// surfaces as ErrMalformedValue from Get and GetString. Aggregations over
// arrays never fail; non-numeric elements count as zero or are skipped.
// GetDecimal never fails at all and returns zero for anything that is not a
// number, so one malformed field cannot abort pricing.
//
// # Concurrency
//
// A Context is not safe for concurrent use. Create one per request.
package resolver
