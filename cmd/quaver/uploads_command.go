package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List and manage accepted recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUploadsList(cmd, ctx)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accepted recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUploadsList(cmd, ctx)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <upload-id>",
		Short: "Delete an upload and every job derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid upload id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.RemoveUpload(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("upload %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed upload %d and its jobs\n", id)
				return nil
			})
		},
	})
	return cmd
}

func runUploadsList(cmd *cobra.Command, ctx *commandContext) error {
	return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		uploads, err := store.ListUploads(cmd.Context())
		if err != nil {
			return err
		}
		if len(uploads) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No uploads")
			return nil
		}
		rows := make([][]string, 0, len(uploads))
		for _, u := range uploads {
			rows = append(rows, []string{
				strconv.FormatInt(u.ID, 10),
				u.Filename,
				fmt.Sprintf("%d Hz", u.SampleRate),
				fmt.Sprintf("%.1fs", u.DurationSec),
				fmt.Sprintf("%.1f MB", float64(u.SizeBytes)/(1024*1024)),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Filename", "Sample Rate", "Duration", "Size"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
		))
		return nil
	})
}
