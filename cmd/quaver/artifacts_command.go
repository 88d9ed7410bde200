package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts <job-id>",
		Short: "List the persisted outputs of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				artifacts, err := store.ArtifactsForJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(artifacts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No artifacts")
					return nil
				}
				rows := make([][]string, 0, len(artifacts))
				for _, artifact := range artifacts {
					rows = append(rows, []string{
						strconv.FormatInt(artifact.ID, 10),
						string(artifact.Kind),
						artifact.Path,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Kind", "Path"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
