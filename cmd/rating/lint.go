package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/catalog"
	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a catalog",
	Long: `Validate the catalog directory: YAML syntax, unknown fields, variable
definitions, calculator models and their coefficient column mappings, and
that every coefficient table belongs to a declared coefficient.

Examples:
  # Lint the configured catalog
  rating lint

  # Lint another directory, JSON output for CI
  rating lint --catalog ./catalog --format json`,
	RunE: lintCatalog,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func lintCatalog(cmd *cobra.Command, args []string) error {
	dir := config.GetConfig().Catalog.Dir
	result := lintResult{Dir: dir}

	c, err := catalog.Load(dir)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		result.Errors = splitErrors(err)
	} else {
		result.Valid = true
		result.Calculators = c.CalculatorIDs()
		for product := range c.Definitions {
			result.Products = append(result.Products, product)
		}
		sort.Strings(result.Products)
		result.Tables = len(c.Tables)
	}

	if err := printResult(cmd, result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.NewCommandError("lint", fmt.Errorf("%d problem(s) found in %s", len(result.Errors), dir))
	}
	return nil
}

// lintResult is the outcome of validating one catalog directory.
type lintResult struct {
	Dir         string   `json:"dir"`
	Valid       bool     `json:"valid"`
	Products    []string `json:"products,omitempty"`
	Calculators []string `json:"calculators,omitempty"`
	Tables      int      `json:"tables"`
	Errors      []string `json:"errors,omitempty"`
}

func (r lintResult) String() string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "✓ %s: %d product(s), %d calculator(s), %d coefficient table(s)",
			r.Dir, len(r.Products), len(r.Calculators), r.Tables)
		return b.String()
	}
	fmt.Fprintf(&b, "✗ %s", r.Dir)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  - %s", e)
	}
	return b.String()
}

// splitErrors flattens joined errors into messages.
func splitErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
