package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Show the diagnostic log of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				entries, err := store.LogsForJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No log entries")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s %s\n",
						entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Level, entry.Message)
				}
				return nil
			})
		},
	}
}
