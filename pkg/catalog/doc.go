// Package catalog loads rating models from YAML files.
//
// A catalog directory holds three kinds of files, told apart by their kind
// field:
//
//	kind: definitions    # variable definitions of one product
//	kind: calculator     # a calculator model: variables, formulas, coefficients
//	kind: coefficients   # the rows of one coefficient table
//
// Load reads a whole directory into a Catalog. A Store keeps the current
// catalog and a Watcher reloads it when files change.
package catalog
