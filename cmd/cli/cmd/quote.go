// Package cmd - quote command
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"move-quote/core/output"
	"move-quote/core/types"
)

var (
	outputFormat string
	quoteDate    string
	promoCode    string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote <request.json|->",
	Short: "Compute a quote for a move",
	Long: `Read a move description as JSON and print its quote.

Use - to read the request from standard input. Settings are loaded from the
configured backend; when that fails the built-in defaults are used and the
quote carries a DEFAULT_SETTINGS warning.

Examples:
  move-quote quote request.json
  move-quote quote --promo SAVE10 --date 2026-05-01 request.json
  cat request.json | move-quote quote --format json -`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json); default from config")
	quoteCmd.Flags().StringVar(&quoteDate, "date", "", "quote date YYYY-MM-DD for promo validity")
	quoteCmd.Flags().StringVar(&promoCode, "promo", "", "promo code, overrides the request")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req, err := readRequest(cmd, args[0])
	if err != nil {
		return err
	}
	if quoteDate != "" {
		req.QuoteDate = quoteDate
	}
	if promoCode != "" {
		req.PromoCode = promoCode
	}

	format := outputFormat
	if format == "" {
		format = appConfig.Output.DefaultFormat
	}
	formatter, ok := output.NewRegistry(appConfig.Output.NoColor).Get(output.Format(format))
	if !ok {
		return fmt.Errorf("unsupported format: %s", format)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	a.LoadSettings(ctx)

	b, err := a.Calculator.Compute(*req)
	if err != nil {
		return err
	}
	result, err := output.NewQuoteResult(uuid.NewString(), req, b)
	if err != nil {
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), result)
}

func readRequest(cmd *cobra.Command, path string) (*types.PricingInputs, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req types.PricingInputs
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}
