package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/pricing"
)

var priceFlags struct {
	calculator    string
	document      string
	set           []string
	template      string
	printDocument bool
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a quote document",
	Long: `Price a quote document with a calculator from the catalog.

The calculator's inputs are resolved from the document through the variable
definitions of its product. --set overrides or adds inputs. The results are
printed as a variable table, or with --print-document as the enriched
document, or with --template as an expanded print form.

Examples:
  # Price a document
  rating price --calculator motor-v1 --document quote.json

  # Read the document from stdin and override the region
  cat quote.json | rating price -k motor-v1 -d - --set region=US

  # Render a print form
  rating price -k motor-v1 -d quote.json --template 'Premium: ${premium} (${drivers})'`,
	RunE: priceQuote,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVarP(&priceFlags.calculator, "calculator", "k", "", "calculator id (required)")
	priceCmd.Flags().StringVarP(&priceFlags.document, "document", "d", "", "quote document file, - for stdin")
	priceCmd.Flags().StringArrayVar(&priceFlags.set, "set", nil, "input override code=value (repeatable)")
	priceCmd.Flags().StringVar(&priceFlags.template, "template", "", "print form template with ${code} placeholders")
	priceCmd.Flags().BoolVar(&priceFlags.printDocument, "print-document", false, "print the enriched document")
}

func priceQuote(cmd *cobra.Command, args []string) error {
	if priceFlags.calculator == "" {
		return cli.NewUsageError("--calculator is required")
	}
	inputs, err := parseAssignments(priceFlags.set)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, priceFlags.document)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg := config.GetConfig()
	logger := slog.Default()

	eng, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("price", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("Failed to close engine", "error", err)
		}
	}()

	model, defs, ok := eng.store.Current().Calculator(priceFlags.calculator)
	if !ok {
		return cli.NewCommandError("price", fmt.Errorf("unknown calculator %q", priceFlags.calculator))
	}

	entries := make([]formula.Entry, 0, len(inputs))
	for _, a := range inputs {
		entries = append(entries, formula.Entry{Code: a.code, Value: formula.StringValue(a.value)})
	}

	result, err := eng.pricing.Quote(ctx, pricing.Request{
		Tenant:      cfg.Engine.Tenant,
		Document:    doc,
		Definitions: defs,
		Model:       model,
		Inputs:      entries,
	})
	if err != nil {
		return cli.NewCommandError("price", err)
	}

	switch {
	case priceFlags.template != "":
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Context.Expand(priceFlags.template))
		return err
	case priceFlags.printDocument:
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(result.Document))
		return err
	}

	return printResult(cmd, newPriceResult(model.CalculatorID, result))
}

// priceResult is the printable outcome of a pricing run.
type priceResult struct {
	RunID      string          `json:"run_id"`
	Calculator string          `json:"calculator_id"`
	Variables  []variableRow   `json:"variables"`
	Document   json.RawMessage `json:"document"`
}

type variableRow struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"`
	Value *string `json:"value"`
}

func newPriceResult(calculatorID string, r *pricing.Result) priceResult {
	out := priceResult{
		RunID:      r.RunID,
		Calculator: calculatorID,
		Document:   json.RawMessage(r.Document),
	}
	for _, e := range r.Pool.Entries() {
		out.Variables = append(out.Variables, variableRow{Code: e.Code, Type: string(e.Type), Value: e.Value})
	}
	return out
}

func (r priceResult) Header() []string {
	return []string{"CODE", "TYPE", "VALUE"}
}

func (r priceResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		value := ""
		if v.Value != nil {
			value = *v.Value
		}
		rows = append(rows, []string{v.Code, v.Type, value})
	}
	return rows
}

type assignment struct {
	code  string
	value string
}

// parseAssignments parses code=value flag values.
func parseAssignments(raw []string) ([]assignment, error) {
	out := make([]assignment, 0, len(raw))
	for _, s := range raw {
		code, value, ok := strings.Cut(s, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, cli.NewUsageError("invalid assignment %q, want code=value", s)
		}
		out = append(out, assignment{code: code, value: value})
	}
	return out, nil
}

// readDocument reads a document file, stdin for "-", or nothing for "".
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read document from stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return data, nil
	}
}
