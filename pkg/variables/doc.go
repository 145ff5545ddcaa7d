// Package variables defines the vocabulary shared by the variable context and
// the formula interpreter: variable definitions, their data types, scopes,
// source kinds and array aggregation functions.
//
// # Definitions
//
// A Definition tells the engine how to obtain one named value. Document
// variables carry a path into the policy/quote JSON document; when the path
// ends with a function-call marker the marker selects an aggregation over the
// array found at the remaining path:
//
//	def, err := variables.NewDefinition("driver_count", "drivers.#.id.count()",
//	    variables.TypeNumber, variables.ScopeDomain, variables.SourceIn)
//	// def.Path == "drivers.#.id", def.Aggregation == variables.AggregationCount
//
// Unrecognized function names never fail: they map to AggregationUnspecified
// and conversion falls back to the data type's default behavior.
//
// # Registry
//
// A Registry is built once per product or calculator from an ordered list of
// definitions and is read-only afterwards, so it can be shared between
// requests.
package variables
