// Command ledgerctl runs operator tasks against the ledger: resynchronizing a
// journal entry, queueing integrity scans and previewing entry numbers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the Odyssey general ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newResyncCmd(), newIntegrityCmd(), newQueueCmd(), newNextNumberCmd())
	return root
}

// loadConfig is deferred to the commands that touch Postgres or Redis.
func loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}
