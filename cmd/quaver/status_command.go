package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue and daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(os.Stdout)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Queued", statusInfo, fmt.Sprintf("%d", health.Queued), colorize))
				fmt.Fprintln(out, renderStatusLine("Running", statusInfo, fmt.Sprintf("%d", health.Running), colorize))
				fmt.Fprintln(out, renderStatusLine("Done", statusOK, fmt.Sprintf("%d", health.Done), colorize))
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", health.Failed), colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, cfg.QueueDBPath(), colorize))
				return nil
			})
		},
	}
}
