package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jamesacklin/tlon-mcp-server/internal/logutil"
	"github.com/jamesacklin/tlon-mcp-server/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio or HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

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
			srv := mcpserver.NewServer(svc, mcpserver.Options{
				Version: version,
				Logger:  logger,
			})

			transport := strings.TrimSpace(flagOrViperString(cmd, "transport", "server.transport"))
			switch transport {
			case "", "stdio":
				logger.Info("mcp_serve", "transport", "stdio", "ship", session.Ship())
				return srv.Run(ctx)
			case "http":
				return serveHTTP(ctx, cmd, srv, logger)
			default:
				return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
			}
		},
	}

	cmd.Flags().String("transport", "stdio", "Tool transport: stdio|http.")
	cmd.Flags().String("server-bind", "127.0.0.1", "Bind address for the http transport.")
	cmd.Flags().Int("server-port", 8787, "Port for the http transport.")
	cmd.Flags().String("server-auth-token", "", "Bearer token required for /mcp on the http transport.")

	return cmd
}

func serveHTTP(ctx context.Context, cmd *cobra.Command, srv *mcpserver.Server, logger *slog.Logger) error {
	bind := strings.TrimSpace(flagOrViperString(cmd, "server-bind", "server.bind"))
	if bind == "" {
		bind = "127.0.0.1"
	}
	port := flagOrViperInt(cmd, "server-port", "server.port")
	if port <= 0 {
		port = 8787
	}
	auth := flagOrViperString(cmd, "server-auth-token", "server.auth_token")
	if strings.TrimSpace(auth) == "" {
		return fmt.Errorf("missing server.auth_token (set via --server-auth-token or %s_SERVER_AUTH_TOKEN)", envPrefix)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"time": time.Now().Format(time.RFC3339Nano),
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(auth))
		r.Handle("/mcp", srv.HTTPHandler())
	})

	addr := bind + ":" + strconv.Itoa(port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("server_start", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	want := "Bearer " + strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimSpace(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
