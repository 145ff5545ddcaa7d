package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/config"
)

var coefficientFlags struct {
	calculator string
	code       string
	to         string
	set        []string
}

var coefficientCmd = &cobra.Command{
	Use:     "coefficient",
	Aliases: []string{"coef"},
	Short:   "Inspect and maintain coefficient tables",
	Long: `Inspect and maintain the coefficient tables of the configured store.

Every subcommand first seeds the catalog's tables into the store for the
configured tenant.`,
}

var coefficientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rows of a coefficient table",
	Long: `List the rows of a coefficient table.

Examples:
  rating coefficient list --calculator motor-v1 --code age_factor`,
	RunE: listCoefficients,
}

var coefficientLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look a coefficient value up",
	Long: `Look a coefficient value up with the calculator's column mapping.
Column variables are given with --set.

Examples:
  rating coefficient lookup -k motor-v1 --code age_factor --set insured_age_issue=30`,
	RunE: lookupCoefficient,
}

var coefficientCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a coefficient table to another calculator",
	Long: `Copy every row of a coefficient table to another calculator of the
same tenant. The rows are appended to the target table.

Examples:
  rating coefficient copy --calculator motor-v1 --to motor-v2 --code base_rate`,
	RunE: copyCoefficients,
}

func init() {
	rootCmd.AddCommand(coefficientCmd)
	coefficientCmd.AddCommand(coefficientListCmd, coefficientLookupCmd, coefficientCopyCmd)

	coefficientCmd.PersistentFlags().StringVarP(&coefficientFlags.calculator, "calculator", "k", "", "calculator id (required)")
	coefficientCmd.PersistentFlags().StringVar(&coefficientFlags.code, "code", "", "coefficient code (required)")
	coefficientLookupCmd.Flags().StringArrayVar(&coefficientFlags.set, "set", nil, "column variable code=value (repeatable)")
	coefficientCopyCmd.Flags().StringVar(&coefficientFlags.to, "to", "", "target calculator id (required)")
}

func requireTable() error {
	if coefficientFlags.calculator == "" || coefficientFlags.code == "" {
		return cli.NewUsageError("--calculator and --code are required")
	}
	return nil
}

func listCoefficients(cmd *cobra.Command, args []string) error {
	if err := requireTable(); err != nil {
		return err
	}

	cfg := config.GetConfig()
	eng, err := openEngine(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return cli.NewCommandError("coefficient list", err)
	}
	defer eng.Close()

	rows, err := eng.backend.List(cmd.Context(), coefficient.Scope{
		Tenant:       cfg.Engine.Tenant,
		CalculatorID: coefficientFlags.calculator,
		Code:         coefficientFlags.code,
	})
	if err != nil {
		return cli.NewCommandError("coefficient list", err)
	}

	return printResult(cmd, tableResult{
		Calculator: coefficientFlags.calculator,
		Code:       coefficientFlags.code,
		Entries:    rows,
	})
}

func lookupCoefficient(cmd *cobra.Command, args []string) error {
	if err := requireTable(); err != nil {
		return err
	}
	assignments, err := parseAssignments(coefficientFlags.set)
	if err != nil {
		return err
	}
	values := make(coefficient.MapValues, len(assignments))
	for _, a := range assignments {
		values[a.code] = a.value
	}

	cfg := config.GetConfig()
	eng, err := openEngine(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return cli.NewCommandError("coefficient lookup", err)
	}
	defer eng.Close()

	model, _, ok := eng.store.Current().Calculator(coefficientFlags.calculator)
	if !ok {
		return cli.NewCommandError("coefficient lookup", fmt.Errorf("unknown calculator %q", coefficientFlags.calculator))
	}
	def, ok := model.Coefficient(coefficientFlags.code)
	if !ok {
		return cli.NewCommandError("coefficient lookup", fmt.Errorf("calculator %q declares no coefficient %q", model.CalculatorID, coefficientFlags.code))
	}

	scope := coefficient.Scope{
		Tenant:       cfg.Engine.Tenant,
		CalculatorID: model.CalculatorID,
		Code:         def.Code,
	}
	value, found := eng.coefficients.Value(cmd.Context(), scope, values, def.Columns)

	result := lookupResult{Calculator: model.CalculatorID, Code: def.Code, Found: found}
	if found {
		result.Value = &value
	}
	return printResult(cmd, result)
}

func copyCoefficients(cmd *cobra.Command, args []string) error {
	if err := requireTable(); err != nil {
		return err
	}
	if coefficientFlags.to == "" {
		return cli.NewUsageError("--to is required")
	}

	cfg := config.GetConfig()
	eng, err := openEngine(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return cli.NewCommandError("coefficient copy", err)
	}
	defer eng.Close()

	n, err := eng.coefficients.CopyTable(cmd.Context(), cfg.Engine.Tenant,
		coefficientFlags.calculator, coefficientFlags.to, coefficientFlags.code)
	if err != nil {
		return cli.NewCommandError("coefficient copy", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Copied %d row(s) of %s from %s to %s\n",
		n, coefficientFlags.code, coefficientFlags.calculator, coefficientFlags.to)
	return err
}

type tableResult struct {
	Calculator string            `json:"calculator_id"`
	Code       string            `json:"code"`
	Entries    []coefficient.Row `json:"rows"`
}

func (r tableResult) Header() []string {
	header := make([]string, 0, coefficient.MaxColumns+1)
	for i := range r.width() {
		header = append(header, fmt.Sprintf("C%d", i))
	}
	return append(header, "RESULT")
}

func (r tableResult) Rows() [][]string {
	width := r.width()
	out := make([][]string, 0, len(r.Entries))
	for _, row := range r.Entries {
		cells := make([]string, width, width+1)
		copy(cells, row.Columns)
		out = append(out, append(cells, row.Result))
	}
	return out
}

// width is the widest row's column count.
func (r tableResult) width() int {
	w := 0
	for _, row := range r.Entries {
		w = max(w, len(row.Columns))
	}
	return w
}

type lookupResult struct {
	Calculator string  `json:"calculator_id"`
	Code       string  `json:"code"`
	Found      bool    `json:"found"`
	Value      *string `json:"value"`
}

func (r lookupResult) String() string {
	if !r.Found {
		return fmt.Sprintf("%s/%s: no matching row", r.Calculator, r.Code)
	}
	return fmt.Sprintf("%s/%s = %s", r.Calculator, r.Code, *r.Value)
}
