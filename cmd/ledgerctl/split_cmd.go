package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func newSplitCmd() *cobra.Command {
	var (
		total    string
		mode     string
		payer    string
		locale   string
		currency string
		members  []string
		shares   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Compute and validate a split locally",
		Example: `  ledgerctl split --total 100 --members alice,bob,carol
  ledgerctl split --total 50 --mode percentage --members alice,bob --share alice=60,bob=40
  ledgerctl split --total 30 --mode exact --members alice,bob --share alice=10,bob=15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := money.Parse(total)
			if err != nil {
				return err
			}
			splitMode, err := models.ParseSplitMode(mode)
			if err != nil {
				return err
			}

			var prior []models.Split
			switch splitMode {
			case models.ModePercentage:
				for _, m := range members {
					if _, ok := shares[m]; !ok {
						continue
					}
					p, err := decimal.NewFromString(shares[m])
					if err != nil {
						return fmt.Errorf("percentage for %s: %w", m, err)
					}
					prior = append(prior, models.Split{UserID: m, Share: models.PercentShare{Value: p}})
				}
			case models.ModeExact:
				prior, err = calculator.ExactFromText(members, shares)
				if err != nil {
					return err
				}
			}

			splits, err := calculator.Calculate(amount, splitMode, members, prior)
			if err != nil {
				return err
			}
			if splitMode == models.ModeExact && payer != "" {
				splits = calculator.Reconcile(amount, payer, splits)
			}

			v := calculator.Validator{Locale: locale, Currency: currency}
			return printSplits(cmd.OutOrStdout(), v, amount, splitMode, splits)
		},
	}
	cmd.Flags().StringVar(&total, "total", "", "Expense total, e.g. 100.00 (required)")
	cmd.Flags().StringVar(&mode, "mode", "equal", "Split mode: equal, percentage, exact")
	cmd.Flags().StringSliceVar(&members, "members", nil, "Participating user IDs (required)")
	cmd.Flags().StringToStringVar(&shares, "share", nil, "Per-member percentage or amount, e.g. alice=60")
	cmd.Flags().StringVar(&payer, "payer", "", "Payer who absorbs a one-cent residual in exact mode")
	cmd.Flags().StringVar(&locale, "locale", money.DefaultLocale, "Display locale")
	cmd.Flags().StringVar(&currency, "currency", money.DefaultCurrency, "Display currency")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("members")
	return cmd
}

func printSplits(w io.Writer, v calculator.Validator, total money.Money, mode models.SplitMode, splits []models.Split) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tAMOUNT\tPERCENT")
	for _, s := range splits {
		pct := "-"
		if p := s.Percentage(); p != nil {
			pct = p.StringFixed(2) + "%"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.UserID, v.Format(s.Amount), pct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	result := v.Validate(total, mode, splits)
	if result.IsValid {
		fmt.Fprintf(w, "OK: %s split of %s\n", mode, v.Format(total))
		return nil
	}
	msg := result.Message
	if label := v.RemainingLabel(total, splits); label != "" && mode == models.ModeExact {
		msg += " (" + label + ")"
	}
	fmt.Fprintln(w, "INVALID: "+strings.TrimSpace(msg))
	return nil
}
