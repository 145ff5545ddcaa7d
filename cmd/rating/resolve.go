package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/catalog"
	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
	"mercator-hq/rating/pkg/variables/document"
	"mercator-hq/rating/pkg/variables/magic"
	"mercator-hq/rating/pkg/variables/resolver"
)

var resolveFlags struct {
	product  string
	document string
	template string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [code...]",
	Short: "Resolve document variables",
	Long: `Resolve variables of a product against a document without pricing it.

With no codes every variable of the product is resolved. Magic variables
(ages, term lengths, gender flags) are computed from their inputs.

Examples:
  rating resolve --product motor --document quote.json
  rating resolve -p motor -d quote.json insured_age_issue claims_total
  rating resolve -p motor -d quote.json --template 'Drivers: ${drivers}'`,
	RunE: resolveVariables,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveFlags.product, "product", "p", "", "product whose definitions apply (required)")
	resolveCmd.Flags().StringVarP(&resolveFlags.document, "document", "d", "", "document file, - for stdin")
	resolveCmd.Flags().StringVar(&resolveFlags.template, "template", "", "template with ${code} placeholders")
}

func resolveVariables(cmd *cobra.Command, args []string) error {
	if resolveFlags.product == "" {
		return cli.NewUsageError("--product is required")
	}

	cfg := config.GetConfig()
	c, err := catalog.Load(cfg.Catalog.Dir)
	if err != nil {
		return cli.NewCommandError("resolve", err)
	}
	defs, ok := c.Definitions[resolveFlags.product]
	if !ok {
		return cli.NewCommandError("resolve", fmt.Errorf("unknown product %q", resolveFlags.product))
	}

	raw, err := readDocument(cmd, resolveFlags.document)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	doc, err := document.Parse(raw)
	if err != nil {
		return cli.NewCommandError("resolve", err)
	}

	vctx := resolver.New(doc, defs,
		resolver.WithLogger(slog.Default()),
		resolver.WithMagic(magic.Default()),
	)

	if resolveFlags.template != "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), vctx.Expand(resolveFlags.template))
		return err
	}

	codes := args
	if len(codes) == 0 {
		for _, def := range defs.All() {
			codes = append(codes, def.Code)
		}
	}

	result := resolveResult{Product: resolveFlags.product}
	for _, code := range codes {
		row := resolvedVariable{Code: code}
		if def, ok := vctx.GetDefinition(code); ok {
			row.Source = string(def.Source)
			row.Type = string(def.Type)
		}
		value, err := vctx.Get(code)
		switch {
		case err != nil:
			row.Error = err.Error()
		case value != nil:
			s, _ := vctx.GetString(code)
			row.Value = &s
		}
		result.Variables = append(result.Variables, row)
	}

	return printResult(cmd, result)
}

type resolveResult struct {
	Product   string             `json:"product"`
	Variables []resolvedVariable `json:"variables"`
}

type resolvedVariable struct {
	Code   string  `json:"code"`
	Source string  `json:"source,omitempty"`
	Type   string  `json:"type,omitempty"`
	Value  *string `json:"value"`
	Error  string  `json:"error,omitempty"`
}

func (r resolveResult) Header() []string {
	return []string{"CODE", "SOURCE", "TYPE", "VALUE", "ERROR"}
}

func (r resolveResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		value := ""
		if v.Value != nil {
			value = *v.Value
		}
		rows = append(rows, []string{v.Code, v.Source, v.Type, value, v.Error})
	}
	return rows
}
