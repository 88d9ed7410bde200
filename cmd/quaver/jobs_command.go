package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []queue.Status
			if strings.TrimSpace(statusFilter) != "" {
				for _, raw := range strings.Split(statusFilter, ",") {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				jobs, err := store.ListJobs(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						strconv.FormatInt(job.UploadID, 10),
						string(job.Status),
						fmt.Sprintf("%d%%", job.Progress),
						job.Params.Renderer,
						truncate(job.ErrorMessage, 48),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Upload", "Status", "Progress", "Renderer", "Error"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (comma separated)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
