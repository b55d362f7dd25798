package contacts

import (
	"strings"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

// selfVocabulary covers the pronouns callers use to address themselves.
var selfVocabulary = map[string]struct{}{
	"me":     {},
	"myself": {},
	"i":      {},
	"self":   {},
}

// NeedsDirectory reports whether resolving input would consult the
// directory. Self-references and sigil-prefixed identities resolve
// without one, so callers can skip the contacts fetch.
func NeedsDirectory(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if _, ok := selfVocabulary[strings.ToLower(trimmed)]; ok {
		return false
	}
	return !ship.HasSigil(trimmed)
}

// Resolve maps a human-supplied addressee to a canonical identity.
//
// Resolution order: self-reference, explicit ~identity, nickname lookup.
// A sigil-prefixed input is trusted verbatim without consulting the
// directory. Nickname matches that point back at own are accepted; a
// user may nickname themselves. Anything else fails with an
// ERR_UNRESOLVED_RECIPIENT error naming the input; there is no fuzzy or
// partial matching.
func Resolve(input string, own ship.Identity, dir *Directory) (ship.Identity, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ship.WrapProtocolError(ship.ErrUnresolvedRecipient, "empty recipient")
	}
	if _, ok := selfVocabulary[strings.ToLower(trimmed)]; ok {
		return own, nil
	}
	if ship.HasSigil(trimmed) {
		return ship.NormalizeIdentity(trimmed), nil
	}
	if identity, ok := dir.ByNickname(trimmed); ok {
		return identity, nil
	}
	return "", ship.WrapProtocolError(ship.ErrUnresolvedRecipient, "cannot resolve recipient %q: not a ship name, self-reference, or known nickname", input)
}
