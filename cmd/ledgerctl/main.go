// Command ledgerctl administers a ledger database and talks to a running
// ledger server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/pkg/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Split ledger command-line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose {
				logging.SetupWithLevel(logging.ParseLevel("debug"))
			} else {
				logging.Setup()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newMigrateCmd(),
		newTokenCmd(),
		newSplitCmd(),
		newBalancesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the ledgerctl version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ledgerctl version %s\n", version)
			},
		},
	)
	return root
}

// loadConfig reads the server configuration so ledgerctl agrees with the
// server on database path, secret and locale.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
