package contacts

import (
	"testing"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

func TestBuildDirectorySkipsNullRecords(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"zod":           nil,
		"sampel-palnet": {"nickname": "Pal"},
	})

	if dir.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dir.Len())
	}
	if _, ok := dir.Record("~zod"); ok {
		t.Fatalf("null record should be excluded from the identity index")
	}
	if _, ok := dir.Record("~sampel-palnet"); !ok {
		t.Fatalf("non-null record missing from the identity index")
	}
}

func TestBuildDirectoryIndexesLowercase(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"sampel-palnet": {
			"nickname": "Bob",
			"email":    "Bob@Example.COM",
			"phone":    "+1 (555) 010-0100",
		},
	})

	for _, input := range []string{"bob", "BOB", "Bob"} {
		got, ok := dir.ByNickname(input)
		if !ok {
			t.Fatalf("ByNickname(%q) not found", input)
		}
		if got != "~sampel-palnet" {
			t.Fatalf("ByNickname(%q) = %q, want %q", input, got, "~sampel-palnet")
		}
	}

	if got, ok := dir.ByEmail("bob@example.com"); !ok || got != "~sampel-palnet" {
		t.Fatalf("ByEmail() = %q, %v, want ~sampel-palnet, true", got, ok)
	}
	if _, ok := dir.ByPhone("+1 (555) 010-0100"); !ok {
		t.Fatalf("ByPhone() should match the exact stored form")
	}
	if _, ok := dir.ByPhone("15550100100"); ok {
		t.Fatalf("ByPhone() should not normalize punctuation")
	}
}

func TestBuildDirectoryLastWriteWins(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"marzod":        {"nickname": "Pal"},
		"sampel-palnet": {"nickname": "pal"},
	})

	// Key order is deterministic, so ~sampel-palnet overwrites ~marzod.
	got, ok := dir.ByNickname("pal")
	if !ok {
		t.Fatalf("ByNickname(pal) not found")
	}
	if got != "~sampel-palnet" {
		t.Fatalf("ByNickname(pal) = %q, want %q", got, "~sampel-palnet")
	}
}

func TestDirectoryNickname(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"sampel-palnet": {"nickname": "Pal", "color": "0x0"},
		"marzod":        {"color": "0x0"},
	})

	if got := dir.Nickname("~sampel-palnet"); got != "Pal" {
		t.Fatalf("Nickname() = %q, want %q", got, "Pal")
	}
	if got := dir.Nickname("~marzod"); got != "" {
		t.Fatalf("Nickname() for record without nickname = %q, want empty", got)
	}
	if got := dir.Nickname("~zod"); got != "" {
		t.Fatalf("Nickname() for unknown ship = %q, want empty", got)
	}
}

func TestBuildDirectoryIgnoresNonTextFields(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"sampel-palnet": {"nickname": 42, "email": true},
	})

	if _, ok := dir.ByNickname("42"); ok {
		t.Fatalf("numeric nickname should not be indexed")
	}
	if dir.Len() != 1 {
		t.Fatalf("record itself should still be indexed by identity")
	}
}

func TestDirectoryIdentitiesSorted(t *testing.T) {
	dir := BuildDirectory(map[string]Record{
		"zod":           {},
		"marzod":        {},
		"sampel-palnet": {},
	})

	got := dir.Identities()
	want := []ship.Identity{"~marzod", "~sampel-palnet", "~zod"}
	if len(got) != len(want) {
		t.Fatalf("Identities() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Identities()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
