package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type estimateOptions struct {
	subtotal string
	weight   float64
	date     string
	json     bool
}

func NewEstimateCommand(_ *RootOptions) *cobra.Command {
	opts := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print shipping rates for an order",
		Example: `  storefront estimate --subtotal 20000 --weight 2.3
  storefront estimate --subtotal 60000 --weight 1 --date 2026-03-06 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.subtotal, "subtotal", "0", "order subtotal")
	cmd.Flags().Float64Var(&opts.weight, "weight", 0, "total weight in kilograms")
	cmd.Flags().StringVar(&opts.date, "date", "", "order date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	return cmd
}

func runEstimate(opts *estimateOptions, out io.Writer) error {
	subtotal, err := decimal.NewFromString(opts.subtotal)
	if err != nil || subtotal.IsNegative() {
		return fmt.Errorf("invalid subtotal %q", opts.subtotal)
	}
	if opts.weight < 0 {
		return fmt.Errorf("invalid weight %v", opts.weight)
	}

	now := time.Now()
	if opts.date != "" {
		if now, err = time.Parse("2006-01-02", opts.date); err != nil {
			return fmt.Errorf("invalid date %q: %w", opts.date, err)
		}
	}

	estimate := shipping.Calculate(subtotal, opts.weight, now)

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(estimate)
	}

	free := "no"
	if estimate.FreeShippingEligible {
		free = "yes"
	}
	fmt.Fprintf(out, "Subtotal: %s\n", shipping.FormatCurrency(subtotal))
	fmt.Fprintf(out, "Weight: %g kg\n", opts.weight)
	fmt.Fprintf(out, "Free shipping: %s (threshold %s)\n\n", free, shipping.FormatCurrency(estimate.FreeShippingThreshold))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range estimate.Rates {
		cost := "FREE"
		if !r.Cost.IsZero() {
			cost = shipping.FormatCurrency(r.Cost)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, cost, r.DeliveryTime, r.EstimatedDelivery)
	}
	return tw.Flush()
}
