package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/ingest"
	"quaver/internal/logging"
	"quaver/internal/queue"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Validate and register a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				ingestor := ingest.New(cfg, store, logging.NewNop())
				upload, err := ingestor.Accept(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted upload %d (%s, %d Hz, %.1fs)\n",
					upload.ID, upload.Filename, upload.SampleRate, upload.DurationSec)
				return nil
			})
		},
	}
}
