package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

func main() {
	var (
		correspondent = flag.String("to", "", "Correspondent: ship name, nickname or a self-reference.")
		count         = flag.Int("count", 20, "How many messages to fetch.")
	)
	flag.Parse()

	if *correspondent == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: embed-cli --to ~sampel-palnet [--count 20]")
		os.Exit(2)
	}

	bin := os.Getenv("TLON_MCP_BIN")
	if bin == "" {
		var err error
		bin, err = exec.LookPath("tlon-mcp-server")
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Set TLON_MCP_BIN to the built tlon-mcp-server binary, or add it to PATH.")
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"history", *correspondent,
		"--count", strconv.Itoa(*count),
		"--log-level", "info",
		"--log-format", "text",
	)

	// Stream server logs to our stderr.
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	var out any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to parse history output as JSON:", err.Error())
		_, _ = fmt.Fprintln(os.Stderr, "raw stdout:\n"+stdout.String())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
