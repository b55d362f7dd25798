package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesacklin/tlon-mcp-server/dm"
	"github.com/jamesacklin/tlon-mcp-server/internal/clifmt"
	"github.com/jamesacklin/tlon-mcp-server/internal/logutil"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List the ship's contact book",
		Args:  cobra.NoArgs,
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

			format, _ := cmd.Flags().GetString("format")
			switch strings.TrimSpace(format) {
			case "", "table":
				out, err := svc.ListContacts(ctx, dm.FormatFormatted)
				if err != nil {
					return err
				}
				var result dm.ContactsResult
				if err := json.Unmarshal([]byte(out), &result); err != nil {
					return fmt.Errorf("decode contacts: %w", err)
				}
				clifmt.PrintTable(cmd.OutOrStdout(), contactRows(result), clifmt.TableOptions{
					Title:        "Contacts",
					NameHeader:   "SHIP",
					DetailHeader: "PROFILE",
					EmptyText:    "No contacts found.",
				})
				return nil
			case "json":
				out, err := svc.ListContacts(ctx, dm.FormatFormatted)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			case "raw":
				out, err := svc.ListContacts(ctx, dm.FormatRaw)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			default:
				return fmt.Errorf("unknown format: %s (use table, json or raw)", format)
			}
		},
	}

	cmd.Flags().String("format", "table", "Output format: table|json|raw.")

	return cmd
}

func contactRows(result dm.ContactsResult) []clifmt.Row {
	rows := make([]clifmt.Row, 0, len(result.Contacts))
	for _, contact := range result.Contacts {
		details := make([]string, 0, 3)
		if contact.Nickname != "" {
			details = append(details, contact.Nickname)
		}
		if contact.Email != "" {
			details = append(details, contact.Email)
		}
		if contact.Phone != "" {
			details = append(details, contact.Phone)
		}
		rows = append(rows, clifmt.Row{
			Name:   string(contact.Identity),
			Detail: strings.Join(details, " · "),
		})
	}
	return rows
}
