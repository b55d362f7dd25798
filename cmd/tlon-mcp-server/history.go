package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesacklin/tlon-mcp-server/dm"
	"github.com/jamesacklin/tlon-mcp-server/internal/logutil"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <correspondent>",
		Short: "Read recent direct messages with one correspondent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := sessionFromViper(cmd, logger)
			if err != nil {
				return err
			}
			svc, err := dmServiceFromSession(ctx, session, logger)
			if err != nil {
				return err
			}

			count, _ := cmd.Flags().GetInt("count")
			format, _ := cmd.Flags().GetString("format")
			out, err := svc.ReadHistory(ctx, args[0], count, format)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().Int("count", 100, "How many messages to fetch (clamped to 1-500).")
	cmd.Flags().String("format", dm.FormatFormatted, "Output format: formatted|raw.")

	return cmd
}
