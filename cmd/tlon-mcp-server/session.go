package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamesacklin/tlon-mcp-server/dm"
	"github.com/jamesacklin/tlon-mcp-server/ship"
)

func sessionFromViper(cmd *cobra.Command, logger *slog.Logger) (*ship.Session, error) {
	url := strings.TrimSpace(flagOrViperString(cmd, "ship-url", "ship.url"))
	if url == "" {
		return nil, fmt.Errorf("missing ship.url (set via --ship-url or %s_SHIP_URL)", envPrefix)
	}
	name := strings.TrimSpace(flagOrViperString(cmd, "ship-name", "ship.name"))
	if name == "" {
		return nil, fmt.Errorf("missing ship.name (set via --ship-name or %s_SHIP_NAME)", envPrefix)
	}
	code := strings.TrimSpace(flagOrViperString(cmd, "ship-code", "ship.code"))
	if code == "" {
		var err error
		code, err = promptShipCode()
		if err != nil {
			return nil, err
		}
	}

	return ship.NewSession(ship.SessionOptions{
		URL:     url,
		Name:    name,
		Code:    code,
		Timeout: flagOrViperDuration(cmd, "http-timeout", "ship.http_timeout"),
		Logger:  logger,
	})
}

// promptShipCode reads the access code without echo. Outside a terminal
// the code has to come from flags, config or environment.
func promptShipCode() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("missing ship.code (set via --ship-code or %s_SHIP_CODE)", envPrefix)
	}
	_, _ = fmt.Fprint(os.Stderr, "Ship access code: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read access code: %w", err)
	}
	code := strings.TrimSpace(string(raw))
	if code == "" {
		return "", fmt.Errorf("empty access code")
	}
	return code, nil
}

// dmServiceFromSession logs the session in and wires the liveness guard
// around it. Reconnecting reuses Login, so a repaired session keeps its
// cookie jar and identity.
func dmServiceFromSession(ctx context.Context, session *ship.Session, logger *slog.Logger) (*dm.Service, error) {
	if err := session.Login(ctx); err != nil {
		return nil, err
	}
	guard := dm.NewGuard(session, session.Login, dm.GuardOptions{Logger: logger})
	return dm.NewService(session, guard, dm.ServiceOptions{Logger: logger}), nil
}
