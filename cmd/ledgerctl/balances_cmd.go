package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/service"
)

func newBalancesCmd() *cobra.Command {
	var (
		host           string
		token          string
		includePending bool
	)

	cmd := &cobra.Command{
		Use:   "balances GROUP_ID",
		Short: "Show member balances and suggested payments for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("LEDGER_TOKEN")
			}
			client := service.NewLedgerClient(&http.Client{Timeout: 30 * time.Second}, host, token)
			resp, err := client.GetGroupBalances(cmd.Context(), &service.GetGroupBalancesRequest{
				GroupID:        args[0],
				IncludePending: includePending,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MEMBER\tBALANCE\tPAID\tOWED")
			for _, b := range resp.Balances {
				name := b.Name
				if name == "" {
					name = b.UserID
				}
				if b.Former {
					name += " (left)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, b.Display, money.FromCents(b.TotalPaid), money.FromCents(b.TotalOwed))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(resp.Debts) == 0 {
				fmt.Fprintln(out, "All settled up.")
				return nil
			}
			fmt.Fprintln(out, "\nSuggested payments:")
			for _, d := range resp.Debts {
				fmt.Fprintf(out, "  %s -> %s: %s\n", d.From, d.To, money.FromCents(d.Amount))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "http://localhost:8080", "Ledger server URL")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (default: LEDGER_TOKEN)")
	cmd.Flags().BoolVar(&includePending, "include-pending", false, "Also apply pending settlements")
	return cmd
}
