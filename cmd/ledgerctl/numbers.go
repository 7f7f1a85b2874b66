package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
)

// newNextNumberCmd previews number formatting. It never reserves a sequence.
func newNextNumberCmd() *cobra.Command {
	var (
		companyID int64
		module    string
		date      string
		seq       int64
	)
	cmd := &cobra.Command{
		Use:   "next-number",
		Short: "Preview the journal entry number format for a module and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID <= 0 {
				return errors.New("--company is required")
			}
			m := accounting.Module(strings.ToUpper(module))
			if !m.Valid() {
				return fmt.Errorf("unknown module %q (expected P, C, F, B or I)", module)
			}
			day := time.Now()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
				}
				day = parsed
			}
			if seq <= 0 {
				return errors.New("--seq must be positive")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "company %d: %s\n", companyID, correlative.JournalNumber(m, day, seq))
			return nil
		},
	}
	cmd.Flags().Int64Var(&companyID, "company", 0, "Company id")
	cmd.Flags().StringVar(&module, "module", "", "Module letter: P, C, F, B or I")
	cmd.Flags().StringVar(&date, "date", "", "Accounting date, YYYY-MM-DD (default today)")
	cmd.Flags().Int64Var(&seq, "seq", 1, "Sequence to render")
	return cmd
}
