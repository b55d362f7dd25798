package ship

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRequestTimeout = 30 * time.Second

	// MaxScryResponseBytes bounds history/contacts reads; anything larger
	// is treated as a bad response rather than buffered unbounded.
	MaxScryResponseBytes = 8 * 1024 * 1024

	maxStatusBodyBytes = 4 * 1024
)

type SessionOptions struct {
	// URL is the ship's Eyre endpoint, e.g. http://localhost:8080.
	URL string
	// Name is the ship's own identity, with or without the sigil.
	Name string
	// Code is the ship's +code secret used for cookie login.
	Code       string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Session is the single Eyre connection this process holds. It knows how
// to log in, poke, scry and report liveness; deciding when to reconnect
// belongs to the caller (dm.SessionGuard). The process owns exactly one
// Session and reconnect mutates it in place via Login.
type Session struct {
	url    string
	name   Identity
	code   string
	http   *http.Client
	logger *slog.Logger

	mu   sync.Mutex
	live bool
}

func NewSession(opts SessionOptions) (*Session, error) {
	opts = normalizeSessionOptions(opts)
	if opts.URL == "" {
		return nil, fmt.Errorf("missing ship url")
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("missing ship name")
	}
	if opts.Code == "" {
		return nil, fmt.Errorf("missing ship code")
	}
	return &Session{
		url:    opts.URL,
		name:   NormalizeIdentity(opts.Name),
		code:   opts.Code,
		http:   opts.HTTPClient,
		logger: opts.Logger,
	}, nil
}

func normalizeSessionOptions(opts SessionOptions) SessionOptions {
	opts.URL = strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	opts.Name = strings.TrimSpace(opts.Name)
	opts.Code = strings.TrimSpace(opts.Code)
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.HTTPClient == nil {
		jar, _ := cookiejar.New(nil)
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout, Jar: jar}
	} else if opts.HTTPClient.Jar == nil {
		// Eyre auth is cookie-based; a jarless client would log in and
		// immediately forget the session.
		jar, _ := cookiejar.New(nil)
		opts.HTTPClient.Jar = jar
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// Ship returns the session's own identity.
func (s *Session) Ship() Identity {
	return s.name
}

// URL returns the Eyre endpoint without a trailing slash.
func (s *Session) URL() string {
	return s.url
}

func (s *Session) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *Session) setLive(live bool) {
	s.mu.Lock()
	s.live = live
	s.mu.Unlock()
}

// Login authenticates against Eyre with the +code secret. The session
// cookie lands in the client jar; subsequent pokes and scries ride on it.
func (s *Session) Login(ctx context.Context) error {
	form := url.Values{"password": {s.code}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/~/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		s.setLive(false)
		return fmt.Errorf("eyre login: %w", err)
	}
	raw, _, _ := readAllLimited(resp.Body, maxStatusBodyBytes)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.setLive(false)
		return WrapProtocolError(ErrUnauthorized, "eyre login http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	s.setLive(true)
	s.logger.Info("eyre_login", "ship", s.name)
	return nil
}

// Name asks Eyre for the identity behind the current cookie. It is the
// cheapest authenticated, side-effect-free read the server offers, which
// makes it the liveness probe.
func (s *Session) Name(ctx context.Context) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/~/name", nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.setLive(false)
		return "", fmt.Errorf("eyre name: %w", err)
	}
	raw, _, err := readAllLimited(resp.Body, maxStatusBodyBytes)
	_ = resp.Body.Close()
	if err != nil {
		s.setLive(false)
		return "", fmt.Errorf("eyre name: read: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.setLive(false)
		return "", WrapProtocolError(ErrUnauthorized, "eyre name http %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		s.setLive(false)
		return "", WrapProtocolError(ErrRemoteAction, "eyre name http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	s.setLive(true)
	return NormalizeIdentity(string(raw)), nil
}

type channelAction struct {
	ID     int    `json:"id"`
	Action string `json:"action"`
	Ship   string `json:"ship,omitempty"`
	App    string `json:"app,omitempty"`
	Mark   string `json:"mark,omitempty"`
	JSON   any    `json:"json,omitempty"`
}

// Poke delivers one action to an agent through a throwaway Eyre channel.
// The core never subscribes, so each poke opens a uuid-named channel and
// closes it best-effort afterwards.
func (s *Session) Poke(ctx context.Context, app, mark string, body any) error {
	app = strings.TrimSpace(app)
	mark = strings.TrimSpace(mark)
	if app == "" || mark == "" {
		return fmt.Errorf("poke: missing app or mark")
	}

	payload, err := json.Marshal([]channelAction{{
		ID:     1,
		Action: "poke",
		Ship:   s.name.Sans(),
		App:    app,
		Mark:   mark,
		JSON:   body,
	}})
	if err != nil {
		return fmt.Errorf("poke %s/%s: encode: %w", app, mark, err)
	}

	channel := s.url + "/~/channel/" + uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, channel, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("poke %s/%s: %w", app, mark, err)
	}
	raw, _, _ := readAllLimited(resp.Body, maxStatusBodyBytes)
	_ = resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.setLive(false)
		return WrapProtocolError(ErrUnauthorized, "poke %s/%s http %d", app, mark, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return WrapProtocolError(ErrRemoteAction, "poke %s/%s http %d: %s", app, mark, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	s.deleteChannel(channel)
	return nil
}

// deleteChannel closes a throwaway channel. A failure only costs the ship
// an idle channel until Eyre expires it, so it is logged and dropped. The
// parent context may already be done by the time a poke returns, hence
// the fresh one.
func (s *Session) deleteChannel(channel string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := []byte(`[{"id":2,"action":"delete"}]`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, channel, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Debug("eyre_channel_delete_failed", "err", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBodyBytes))
	_ = resp.Body.Close()
}

// Scry reads agent state at app/path and decodes the JSON answer into
// out. Pass a *json.RawMessage to keep the undecoded payload.
func (s *Session) Scry(ctx context.Context, app, path string, out any) error {
	app = strings.TrimSpace(app)
	path = strings.TrimSpace(path)
	if app == "" {
		return fmt.Errorf("scry: missing app")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := s.url + "/~/scry/" + app + path + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("scry %s%s: %w", app, path, err)
	}
	raw, tooLarge, err := readAllLimited(resp.Body, MaxScryResponseBytes)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("scry %s%s: read: %w", app, path, err)
	}
	if tooLarge {
		return WrapProtocolError(ErrBadResponse, "scry %s%s: response over %d bytes", app, path, MaxScryResponseBytes)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.setLive(false)
		return WrapProtocolError(ErrUnauthorized, "scry %s%s http %d", app, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return WrapProtocolError(ErrRemoteAction, "scry %s%s http %d: %s", app, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return WrapProtocolError(ErrBadResponse, "scry %s%s: decode: %v", app, path, err)
	}
	return nil
}

func readAllLimited(reader io.Reader, maxBytes int) ([]byte, bool, error) {
	if maxBytes <= 0 {
		maxBytes = MaxScryResponseBytes
	}
	limited := io.LimitReader(reader, int64(maxBytes)+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, false, err
	}
	if len(data) > maxBytes {
		return data, true, nil
	}
	return data, false, nil
}
