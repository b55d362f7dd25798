package dm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

// LiveSession is the slice of the Eyre session the guard needs: a
// side-effect-free identity probe.
type LiveSession interface {
	Name(ctx context.Context) (ship.Identity, error)
}

// ReconnectFunc re-establishes a dead session in place. The guard calls
// it at most once per EnsureLive.
type ReconnectFunc func(ctx context.Context) error

type GuardOptions struct {
	Logger *slog.Logger
}

// Guard verifies session liveness before use and repairs it with a
// single bounded reconnect. The mutex serializes concurrent callers so
// a dead session is reconnected once, not once per caller.
type Guard struct {
	mu        sync.Mutex
	session   LiveSession
	reconnect ReconnectFunc
	logger    *slog.Logger
}

func NewGuard(session LiveSession, reconnect ReconnectFunc, opts GuardOptions) *Guard {
	opts = normalizeGuardOptions(opts)
	return &Guard{
		session:   session,
		reconnect: reconnect,
		logger:    opts.Logger,
	}
}

func normalizeGuardOptions(opts GuardOptions) GuardOptions {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func (g *Guard) ready() bool {
	return g != nil && g.session != nil && g.reconnect != nil
}

// EnsureLive probes the session and, on failure, attempts exactly one
// reconnect. When both fail it returns an ERR_SESSION_LOST error
// carrying the probe and reconnect failures.
func (g *Guard) EnsureLive(ctx context.Context) error {
	if !g.ready() {
		return fmt.Errorf("nil session guard")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	_, probeErr := g.session.Name(ctx)
	if probeErr == nil {
		return nil
	}
	g.logger.Warn("session_probe_failed", "error", probeErr)

	if reconnectErr := g.reconnect(ctx); reconnectErr != nil {
		return ship.WrapProtocolError(ship.ErrSessionLost,
			"session lost: probe failed (%v); reconnect failed (%v)", probeErr, reconnectErr)
	}
	g.logger.Info("session_reconnected")
	return nil
}
