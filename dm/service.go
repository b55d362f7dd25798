package dm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jamesacklin/tlon-mcp-server/contacts"
	"github.com/jamesacklin/tlon-mcp-server/ship"
)

const (
	// ContactsApp and ContactsPath locate the contacts rollup scry.
	ContactsApp  = "contacts"
	ContactsPath = "/all"

	// FormatFormatted and FormatRaw select between normalized output and
	// the untouched remote payload. Anything that is not raw formats.
	FormatFormatted = "formatted"
	FormatRaw       = "raw"
)

// ShipSession is the slice of the Eyre session the service drives.
type ShipSession interface {
	Ship() ship.Identity
	Poke(ctx context.Context, app, mark string, body any) error
	Scry(ctx context.Context, app, path string, out any) error
}

// Liveness verifies and repairs the session before each remote action.
type Liveness interface {
	EnsureLive(ctx context.Context) error
}

type ServiceOptions struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Service orchestrates direct-message operations against one ship
// session. It is the single boundary that turns resolver, guard and
// wire failures into typed errors for the tool layer to render.
type Service struct {
	session ShipSession
	guard   Liveness
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(session ShipSession, guard Liveness, opts ServiceOptions) *Service {
	opts = normalizeServiceOptions(opts)
	return &Service{
		session: session,
		guard:   guard,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

func normalizeServiceOptions(opts ServiceOptions) ServiceOptions {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

func (s *Service) ready() bool {
	return s != nil && s.session != nil && s.guard != nil
}

// SendMessage resolves rawRecipient, verifies the session and pokes the
// chat agent with a composed send action. It returns a confirmation
// naming the resolved recipient.
func (s *Service) SendMessage(ctx context.Context, rawRecipient, text string) (string, error) {
	if !s.ready() {
		return "", fmt.Errorf("nil dm service")
	}
	recipient, _, err := s.resolveRecipient(ctx, rawRecipient)
	if err != nil {
		return "", err
	}
	if err := s.guard.EnsureLive(ctx); err != nil {
		return "", err
	}
	action := Compose(s.session.Ship(), recipient, text, s.now())
	if err := s.session.Poke(ctx, PokeApp, PokeMark, action); err != nil {
		return "", fmt.Errorf("send dm to %s: %w", recipient, err)
	}
	s.logger.Info("dm_sent", "recipient", recipient, "writ_id", action.Diff.ID)
	return fmt.Sprintf("Message sent to %s", recipient), nil
}

// HistoryResult is the formatted read-history payload: normalized
// messages plus summary metadata about the correspondent and the range
// covered.
type HistoryResult struct {
	Correspondent ship.Identity `json:"correspondent"`
	Nickname      string        `json:"nickname,omitempty"`
	MessageCount  int           `json:"message_count"`
	Oldest        string        `json:"oldest,omitempty"`
	Newest        string        `json:"newest,omitempty"`
	Messages      []Message     `json:"messages"`
}

// ReadHistory resolves rawCorrespondent, verifies the session and reads
// the newest writs of that conversation, clamped to the permitted count
// range.
//
// Raw format returns the remote payload untouched. Otherwise the writs
// are normalized against a fresh contacts directory; when any part of
// that formatting fails the raw payload is returned instead, never an
// error.
func (s *Service) ReadHistory(ctx context.Context, rawCorrespondent string, count int, format string) (string, error) {
	if !s.ready() {
		return "", fmt.Errorf("nil dm service")
	}
	correspondent, dir, err := s.resolveRecipient(ctx, rawCorrespondent)
	if err != nil {
		return "", err
	}
	if err := s.guard.EnsureLive(ctx); err != nil {
		return "", err
	}

	clamped := ClampCount(count)
	var raw json.RawMessage
	path := fmt.Sprintf("/dm/%s/writs/newest/%d/light", correspondent, clamped)
	if err := s.session.Scry(ctx, PokeApp, path, &raw); err != nil {
		return "", fmt.Errorf("read dm history with %s: %w", correspondent, err)
	}
	if format == FormatRaw {
		return string(raw), nil
	}

	if dir == nil {
		dir, err = s.fetchDirectory(ctx)
		if err != nil {
			s.logger.Warn("history_format_fallback", "stage", "contacts", "error", err)
			return string(raw), nil
		}
	}
	messages, err := Normalize(raw, dir, s.session.Ship())
	if err != nil {
		s.logger.Warn("history_format_fallback", "stage", "normalize", "error", err)
		return string(raw), nil
	}

	result := HistoryResult{
		Correspondent: correspondent,
		Nickname:      dir.Nickname(correspondent),
		MessageCount:  len(messages),
		Messages:      messages,
	}
	if len(messages) > 0 {
		result.Newest = messages[0].SentAt
		result.Oldest = messages[len(messages)-1].SentAt
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Warn("history_format_fallback", "stage", "encode", "error", err)
		return string(raw), nil
	}
	return string(out), nil
}

// ContactEntry is one formatted contact listing.
type ContactEntry struct {
	Identity ship.Identity `json:"identity"`
	Nickname string        `json:"nickname,omitempty"`
	Email    string        `json:"email,omitempty"`
	Phone    string        `json:"phone,omitempty"`
}

// ContactsResult is the formatted list-contacts payload.
type ContactsResult struct {
	ContactCount int            `json:"contact_count"`
	Contacts     []ContactEntry `json:"contacts"`
}

// ListContacts verifies the session and reads the contacts rollup. Raw
// format returns the remote payload untouched; otherwise null records
// are dropped and the rest are listed sorted by identity.
func (s *Service) ListContacts(ctx context.Context, format string) (string, error) {
	if !s.ready() {
		return "", fmt.Errorf("nil dm service")
	}
	if err := s.guard.EnsureLive(ctx); err != nil {
		return "", err
	}

	var raw json.RawMessage
	if err := s.session.Scry(ctx, ContactsApp, ContactsPath, &raw); err != nil {
		return "", fmt.Errorf("list contacts: %w", err)
	}
	if format == FormatRaw {
		return string(raw), nil
	}

	var records map[string]contacts.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("contacts_format_fallback", "error", err)
		return string(raw), nil
	}
	result := ContactsResultFrom(contacts.BuildDirectory(records))
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Warn("contacts_format_fallback", "error", err)
		return string(raw), nil
	}
	return string(out), nil
}

// ContactsResultFrom lists a directory's records sorted by identity.
func ContactsResultFrom(dir *contacts.Directory) ContactsResult {
	identities := dir.Identities()
	entries := make([]ContactEntry, 0, len(identities))
	for _, identity := range identities {
		record, _ := dir.Record(identity)
		entries = append(entries, ContactEntry{
			Identity: identity,
			Nickname: record.Text("nickname"),
			Email:    record.Text("email"),
			Phone:    record.Text("phone"),
		})
	}
	return ContactsResult{ContactCount: len(entries), Contacts: entries}
}

// resolveRecipient resolves input against the caller's own identity,
// fetching a contacts directory only when nickname lookup requires one.
// The directory, when fetched, is returned for reuse within the same
// operation.
func (s *Service) resolveRecipient(ctx context.Context, input string) (ship.Identity, *contacts.Directory, error) {
	var dir *contacts.Directory
	if contacts.NeedsDirectory(input) {
		var err error
		dir, err = s.fetchDirectory(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("resolve recipient %q: %w", input, err)
		}
	}
	identity, err := contacts.Resolve(input, s.session.Ship(), dir)
	if err != nil {
		return "", nil, err
	}
	return identity, dir, nil
}

func (s *Service) fetchDirectory(ctx context.Context) (*contacts.Directory, error) {
	var records map[string]contacts.Record
	if err := s.session.Scry(ctx, ContactsApp, ContactsPath, &records); err != nil {
		return nil, err
	}
	return contacts.BuildDirectory(records), nil
}
