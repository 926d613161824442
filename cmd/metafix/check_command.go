package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"metafix/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that exiftool can be started",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			status := deps.CheckExiftool(cmd.Context(), cfg.ExiftoolBinary())
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configLabel(ctx.configPath), colorize))
			fmt.Fprintln(out, renderStatusLine("Timezone", statusInfo, cfg.Metadata.Timezone, colorize))
			fmt.Fprintln(out, dependencyLine(status, colorize))
			if !status.Available {
				fmt.Fprintln(out, "  Without exiftool only filesystem times are restored.")
			}
			return nil
		},
	}
}

func dependencyLine(status deps.Status, colorize bool) string {
	if !status.Available {
		return renderStatusLine(status.Name, statusError, status.Detail, colorize)
	}
	message := fmt.Sprintf("Ready (command: %s)", status.Command)
	if status.Detail != "" {
		message = fmt.Sprintf("Ready, %s (command: %s)", status.Detail, status.Command)
	}
	return renderStatusLine(status.Name, statusOK, message, colorize)
}

func configLabel(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
