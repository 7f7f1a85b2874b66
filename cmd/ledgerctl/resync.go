package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/posting"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

func newResyncCmd() *cobra.Command {
	var companyID, actorID int64
	cmd := &cobra.Command{
		Use:   "resync <entry-id>",
		Short: "Rebuild a journal entry's lines from its purchase document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || entryID <= 0 {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := app.NewLogger(cfg)

			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
			if err != nil {
				logger.Warn("redis unavailable, report cache not invalidated", slog.Any("error", err))
			} else {
				defer redisClient.Close()
			}

			engine := posting.NewEngine(posting.NewRepository(pool), shared.NewAuditLogger(pool), posting.Config{
				Timeout:          cfg.PostingTimeout,
				LegacyDefaultTax: cfg.LegacyDefaultTax,
				Cache:            cache.New(redisClient, cfg.ReportCacheTTL),
				Logger:           logger,
			})
			if actorID > 0 {
				ctx = shared.ContextWithActor(ctx, actorID)
			}
			entry, err := engine.Resync(ctx, companyID, entryID)
			if err != nil {
				return err
			}
			debit, credit := accounting.Totals(entry.Lines)
			fmt.Fprintf(cmd.OutOrStdout(), "Resynced %s (company %d): %d lines, debit %s, credit %s\n",
				entry.Number, entry.CompanyID, len(entry.Lines), debit.StringFixed(2), credit.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().Int64Var(&companyID, "company", 0, "Company the entry must belong to (0 skips the check)")
	cmd.Flags().Int64Var(&actorID, "actor", 0, "User id recorded in the audit log")
	return cmd
}
