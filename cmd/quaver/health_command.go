package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quaver/internal/deps"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check availability of external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(os.Stdout)
			for _, line := range renderSectionHeader("External Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range deps.CheckBinaries(deps.ForConfig(cfg)) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					kind = statusWarn
					message = status.Detail
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			return nil
		},
	}
}
