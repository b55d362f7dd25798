package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jamesacklin/tlon-mcp-server/dm"
	"github.com/jamesacklin/tlon-mcp-server/ship"
)

// This demo embeds the DM service directly instead of spawning the
// tlon-mcp-server binary. It dials a ship over Eyre, logs in with the
// +code secret and runs one DM operation.
func main() {
	var (
		mode    = flag.String("mode", "history", "Run mode: send|history|contacts.")
		url     = flag.String("url", os.Getenv("TLON_MCP_SHIP_URL"), "Ship HTTP endpoint, e.g. http://localhost:8080 (or TLON_MCP_SHIP_URL).")
		name    = flag.String("name", os.Getenv("TLON_MCP_SHIP_NAME"), "Ship name, e.g. ~sampel-palnet (or TLON_MCP_SHIP_NAME).")
		code    = flag.String("code", os.Getenv("TLON_MCP_SHIP_CODE"), "Ship +code secret (or TLON_MCP_SHIP_CODE).")
		to      = flag.String("to", "", "Recipient: ship name, nickname or a self-reference like \"me\".")
		message = flag.String("message", "hello from the embed demo", "Message to send in --mode send.")
		count   = flag.Int("count", 20, "How many messages to fetch in --mode history.")
		timeout = flag.Duration("timeout", 30*time.Second, "HTTP timeout for ship requests.")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := ship.NewSession(ship.SessionOptions{
		URL:     strings.TrimSpace(*url),
		Name:    strings.TrimSpace(*name),
		Code:    strings.TrimSpace(*code),
		Timeout: *timeout,
		Logger:  logger,
	})
	if err != nil {
		exitErr(err)
	}
	if err := session.Login(ctx); err != nil {
		exitErr(err)
	}

	guard := dm.NewGuard(session, session.Login, dm.GuardOptions{Logger: logger})
	svc := dm.NewService(session, guard, dm.ServiceOptions{Logger: logger})

	switch strings.ToLower(strings.TrimSpace(*mode)) {
	case "send":
		if strings.TrimSpace(*to) == "" {
			exitErr(fmt.Errorf("--to is required in --mode send"))
		}
		out, err := svc.SendMessage(ctx, *to, *message)
		if err != nil {
			exitErr(err)
		}
		fmt.Println(out)
	case "history":
		if strings.TrimSpace(*to) == "" {
			exitErr(fmt.Errorf("--to is required in --mode history"))
		}
		out, err := svc.ReadHistory(ctx, *to, *count, dm.FormatFormatted)
		if err != nil {
			exitErr(err)
		}
		fmt.Println(out)
	case "contacts":
		out, err := svc.ListContacts(ctx, dm.FormatFormatted)
		if err != nil {
			exitErr(err)
		}
		fmt.Println(out)
	default:
		exitErr(fmt.Errorf("unknown mode: %s (use send, history or contacts)", *mode))
	}
}

func exitErr(err error) {
	if err == nil {
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
