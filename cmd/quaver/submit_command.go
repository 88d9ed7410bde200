package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quaver/internal/config"
	"quaver/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	params := queue.DefaultParams()

	cmd := &cobra.Command{
		Use:   "submit <upload-id>",
		Short: "Queue a transcription job for an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid upload id %q", args[0])
			}
			if err := params.Validate(); err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				upload, err := store.GetUpload(cmd.Context(), id)
				if err != nil {
					return err
				}
				if upload == nil {
					return fmt.Errorf("upload %d not found", id)
				}
				job, err := store.NewJob(cmd.Context(), id, params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d for upload %d\n", job.ID, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&params.Separation, "separation", params.Separation, "Separation mode (passthrough, neural)")
	cmd.Flags().Float64Var(&params.Sensitivity, "sensitivity", params.Sensitivity, "Pitch confidence threshold in (0, 1]")
	cmd.Flags().IntVar(&params.Grid, "grid", params.Grid, "Quantization grid denominator (4, 8, 16, 32)")
	cmd.Flags().Float64Var(&params.TempoQPM, "tempo", params.TempoQPM, "Tempo override in quarter notes per minute (0 = estimate)")
	cmd.Flags().StringVar(&params.Key, "key", params.Key, "Key hint, e.g. C, F#, Am")
	cmd.Flags().StringVar(&params.TimeSignature, "time-signature", params.TimeSignature, "Time signature, e.g. 3/4")
	cmd.Flags().StringVar(&params.Renderer, "renderer", params.Renderer, "Renderer (none, musescore, verovio)")

	return cmd
}
