package ship

import "strings"

// Identity is a ship name in canonical form, always carrying the leading
// sigil (`~sampel-palnet`). Comparison is exact-string after normalization;
// ship names are lower-case by protocol convention and are never re-cased
// here.
type Identity string

// NormalizeIdentity trims the input and ensures the sigil prefix. It is
// idempotent: normalizing an already-canonical name returns it unchanged.
// Validity is not checked; the remote ship is the authority on that.
func NormalizeIdentity(raw string) Identity {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "~") {
		name = "~" + name
	}
	return Identity(name)
}

// HasSigil reports whether the input already carries the identity sigil.
func HasSigil(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "~")
}

func (i Identity) String() string {
	return string(i)
}

// Sans returns the name without the sigil, the form Eyre channel bodies
// and the contacts scry use.
func (i Identity) Sans() string {
	return strings.TrimPrefix(string(i), "~")
}
