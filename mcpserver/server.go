// Package mcpserver exposes direct-message operations as MCP tools over
// stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jamesacklin/tlon-mcp-server/dm"
	"github.com/jamesacklin/tlon-mcp-server/internal/outputfmt"
)

const defaultHistoryCount = 100

// DmService is the slice of the dm service the tools call.
type DmService interface {
	SendMessage(ctx context.Context, rawRecipient, text string) (string, error)
	ReadHistory(ctx context.Context, rawCorrespondent string, count int, format string) (string, error)
	ListContacts(ctx context.Context, format string) (string, error)
}

type Options struct {
	Version string
	Logger  *slog.Logger
}

// Server wraps the MCP server around one dm service. Every tool result
// travels as text content; failures are rendered as "Error: ..." text
// and never surface as protocol-level errors.
type Server struct {
	svc    DmService
	logger *slog.Logger
	server *mcp.Server
}

func NewServer(svc DmService, opts Options) *Server {
	opts = normalizeOptions(opts)
	s := &Server{
		svc:    svc,
		logger: opts.Logger,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "tlon-mcp-server",
		Version: opts.Version,
	}, nil)
	s.registerTools()
	return s
}

func normalizeOptions(opts Options) Options {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// Run serves MCP on stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP handler for mounting under a
// router.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send-dm",
		Description: "Send a direct message to another ship. The recipient may be a ship name (~sampel-palnet), a contact nickname, or a self-reference like 'me'.",
	}, s.handleSendDM)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read-dm-history",
		Description: "Read the most recent direct messages exchanged with one correspondent, newest first. Formatted output resolves nicknames and flattens message content to plain text; raw output returns the ship's payload untouched.",
	}, s.handleReadDMHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list-contacts",
		Description: "List the ship's contact book. Formatted output drops empty records and sorts by ship name; raw output returns the contacts payload untouched.",
	}, s.handleListContacts)
}

// SendDMArgs defines the input for send-dm.
type SendDMArgs struct {
	Recipient string `json:"recipient" jsonschema:"Ship name (~sampel-palnet), contact nickname, or a self-reference like 'me'"`
	Message   string `json:"message" jsonschema:"Plain-text message body"`
}

// ReadDMHistoryArgs defines the input for read-dm-history.
type ReadDMHistoryArgs struct {
	Correspondent string `json:"correspondent" jsonschema:"Ship name, contact nickname, or a self-reference like 'me'"`
	Count         *int   `json:"count,omitempty" jsonschema:"How many messages to fetch, clamped to 1-500 (default 100)"`
	Format        string `json:"format,omitempty" jsonschema:"Output format: 'formatted' (default) or 'raw'"`
}

// ListContactsArgs defines the input for list-contacts.
type ListContactsArgs struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: 'formatted' (default) or 'raw'"`
}

func (s *Server) handleSendDM(ctx context.Context, req *mcp.CallToolRequest, args SendDMArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	out, err := s.svc.SendMessage(ctx, args.Recipient, args.Message)
	if err != nil {
		return s.errorResult("send-dm", start, err), nil, nil
	}
	s.logger.Info("tool_done", "tool", "send-dm", "duration", time.Since(start))
	return textResult(out), nil, nil
}

func (s *Server) handleReadDMHistory(ctx context.Context, req *mcp.CallToolRequest, args ReadDMHistoryArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	count := defaultHistoryCount
	if args.Count != nil {
		count = *args.Count
	}
	format := args.Format
	if format == "" {
		format = dm.FormatFormatted
	}
	out, err := s.svc.ReadHistory(ctx, args.Correspondent, count, format)
	if err != nil {
		return s.errorResult("read-dm-history", start, err), nil, nil
	}
	s.logger.Info("tool_done", "tool", "read-dm-history", "duration", time.Since(start))
	return textResult(out), nil, nil
}

func (s *Server) handleListContacts(ctx context.Context, req *mcp.CallToolRequest, args ListContactsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	format := args.Format
	if format == "" {
		format = dm.FormatFormatted
	}
	out, err := s.svc.ListContacts(ctx, format)
	if err != nil {
		return s.errorResult("list-contacts", start, err), nil, nil
	}
	s.logger.Info("tool_done", "tool", "list-contacts", "duration", time.Since(start))
	return textResult(out), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *Server) errorResult(tool string, start time.Time, err error) *mcp.CallToolResult {
	s.logger.Warn("tool_failed", "tool", tool, "duration", time.Since(start), "error", err)
	return textResult("Error: " + outputfmt.FormatErrorForDisplay(err))
}
