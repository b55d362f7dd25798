package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesacklin/tlon-mcp-server/internal/clifmt"
	"github.com/jamesacklin/tlon-mcp-server/internal/logutil"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipient> <message...>",
		Short: "Send a direct message without starting the server",
		Args:  cobra.MinimumNArgs(2),
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

			out, err := svc.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), clifmt.Success(out))
			return nil
		},
	}
}
