package contacts

import (
	"sort"
	"strings"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

// Record is one ship's contact profile as the contacts agent serves it.
// Only nickname, email and phone are indexed; everything else is carried
// through untouched.
type Record map[string]any

// Text returns the trimmed string value of key, or "" when the field is
// absent or not text. Malformed fields are ignored per-field; the remote
// data source is not under this system's control.
func (r Record) Text(key string) string {
	value, ok := r[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

// Directory indexes a contacts snapshot for recipient resolution and
// history display. Build one per lookup episode; it is immutable after
// construction and safe for concurrent reads.
type Directory struct {
	byIdentity map[ship.Identity]Record
	byNickname map[string]ship.Identity
	byEmail    map[string]ship.Identity
	byPhone    map[string]ship.Identity
}

// BuildDirectory indexes the raw contacts payload, keyed by ship name
// without sigil, with null records for ships that have no profile.
//
// Null records are skipped entirely. Colliding nicknames, emails or
// phones resolve last-write-wins in key order; the ambiguity is
// inherited from the contacts agent and deliberately not corrected.
func BuildDirectory(raw map[string]Record) *Directory {
	d := &Directory{
		byIdentity: make(map[ship.Identity]Record, len(raw)),
		byNickname: make(map[string]ship.Identity),
		byEmail:    make(map[string]ship.Identity),
		byPhone:    make(map[string]ship.Identity),
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record := raw[name]
		if record == nil {
			continue
		}
		identity := ship.NormalizeIdentity(name)
		if identity == "" {
			continue
		}
		d.byIdentity[identity] = record
		if nickname := record.Text("nickname"); nickname != "" {
			d.byNickname[strings.ToLower(nickname)] = identity
		}
		if email := record.Text("email"); email != "" {
			d.byEmail[strings.ToLower(email)] = identity
		}
		if phone := record.Text("phone"); phone != "" {
			d.byPhone[phone] = identity
		}
	}
	return d
}

// Record returns the indexed profile for identity, if any.
func (d *Directory) Record(identity ship.Identity) (Record, bool) {
	if d == nil {
		return nil, false
	}
	record, ok := d.byIdentity[identity]
	return record, ok
}

// Nickname returns the indexed nickname for identity, or "" when the
// ship has no record or no nickname.
func (d *Directory) Nickname(identity ship.Identity) string {
	record, ok := d.Record(identity)
	if !ok {
		return ""
	}
	return record.Text("nickname")
}

// ByNickname resolves a nickname case-insensitively.
func (d *Directory) ByNickname(nickname string) (ship.Identity, bool) {
	if d == nil {
		return "", false
	}
	identity, ok := d.byNickname[strings.ToLower(strings.TrimSpace(nickname))]
	return identity, ok
}

// ByEmail resolves an email case-insensitively.
func (d *Directory) ByEmail(email string) (ship.Identity, bool) {
	if d == nil {
		return "", false
	}
	identity, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return identity, ok
}

// ByPhone resolves a phone number exactly as indexed.
func (d *Directory) ByPhone(phone string) (ship.Identity, bool) {
	if d == nil {
		return "", false
	}
	identity, ok := d.byPhone[strings.TrimSpace(phone)]
	return identity, ok
}

// Identities returns the indexed ships sorted by identity.
func (d *Directory) Identities() []ship.Identity {
	if d == nil {
		return nil
	}
	out := make([]ship.Identity, 0, len(d.byIdentity))
	for identity := range d.byIdentity {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports how many ships carry a non-null record.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byIdentity)
}
