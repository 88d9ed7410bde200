package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				job, err := store.GetJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %d\n", job.ID)
				fmt.Fprintf(out, "  Upload:      %d\n", job.UploadID)
				fmt.Fprintf(out, "  Status:      %s\n", job.Status)
				fmt.Fprintf(out, "  Progress:    %d%%\n", job.Progress)
				fmt.Fprintf(out, "  Separation:  %s\n", job.Params.Separation)
				fmt.Fprintf(out, "  Sensitivity: %g\n", job.Params.Sensitivity)
				fmt.Fprintf(out, "  Grid:        1/%d\n", job.Params.Grid)
				fmt.Fprintf(out, "  Renderer:    %s\n", job.Params.Renderer)
				if job.Params.TempoQPM > 0 {
					fmt.Fprintf(out, "  Tempo:       %g qpm\n", job.Params.TempoQPM)
				}
				if job.Params.Key != "" {
					fmt.Fprintf(out, "  Key:         %s\n", job.Params.Key)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:       %s\n", job.ErrorMessage)
				}
				if job.FinishedAt != nil {
					fmt.Fprintf(out, "  Finished:    %s\n", job.FinishedAt.Format("2006-01-02 15:04:05"))
				}

				artifacts, err := store.ArtifactsForJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(artifacts) == 0 {
					fmt.Fprintln(out, "  Artifacts:   none")
					return nil
				}
				fmt.Fprintln(out, "  Artifacts:")
				for _, artifact := range artifacts {
					fmt.Fprintf(out, "    %-18s %s\n", artifact.Kind, artifact.Path)
				}
				return nil
			})
		},
	}
}
