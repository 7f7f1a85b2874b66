package main

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func newIntegrityCmd() *cobra.Command {
	var companyID int64
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Queue a general ledger integrity scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			redisOpt, err := jobs.RedisOpt(cfg.RedisAddr)
			if err != nil {
				return err
			}
			client := jobs.NewClient(redisOpt)
			defer client.Close()
			info, err := client.EnqueueGLIntegrity(cmd.Context(), companyID)
			if errors.Is(err, asynq.ErrDuplicateTask) {
				fmt.Fprintln(cmd.OutOrStdout(), "An integrity scan for this scope is already queued")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s on %s\n", jobs.TaskGLIntegrity, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().Int64Var(&companyID, "company", 0, "Company to scan (0 scans every company)")
	return cmd
}

func newQueueCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show background queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			redisOpt, err := jobs.RedisOpt(cfg.RedisAddr)
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(redisOpt)
			defer inspector.Close()

			info, err := inspector.GetQueueInfo(jobs.QueueLedger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Archived)

			scheduled, err := inspector.ListScheduledTasks(jobs.QueueLedger, asynq.PageSize(size), asynq.Page(1))
			if err != nil {
				return err
			}
			for _, t := range scheduled {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "Scheduled tasks to list")
	return cmd
}
