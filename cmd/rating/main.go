// Rating prices insurance quotes from a catalog of calculator models.
//
// A catalog directory holds three kinds of YAML files: product variable
// definitions, calculator models (variables, formulas, coefficient column
// mappings) and coefficient tables. The tables are seeded into the
// configured coefficient store before pricing.
//
// Usage:
//
//	# Price a quote document
//	rating price --calculator motor-v1 --document quote.json
//
//	# Override an input and print the enriched document
//	rating price -k motor-v1 -d quote.json --set region=US --format json
//
//	# Resolve document variables of a product
//	rating resolve --product motor --document quote.json insured_age_issue
//
//	# Validate a catalog
//	rating lint --catalog ./catalog
//
//	# Look a coefficient up directly
//	rating coefficient lookup -k motor-v1 --code base_rate --set region=EU
//
//	# Keep the store in sync with the catalog while editing it
//	rating sync --config config.yaml --watch
//
//	# Check that the store matches the catalog
//	rating check --config config.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
